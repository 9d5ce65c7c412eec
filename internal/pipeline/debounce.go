package pipeline

import (
	"time"

	"heroscope/internal/eventbus"
)

// debouncer runs fire on the event loop once trigger has not been called for
// the quiet period. trigger and cancel must be called on the event loop.
//
// A timer that already fired can still post its callback after being reset,
// so each timer carries the generation it was started for and stale
// callbacks are ignored.
type debouncer struct {
	bus   eventbus.EventBus
	delay time.Duration
	fire  func()
	timer *time.Timer
	gen   uint64
}

func newDebouncer(bus eventbus.EventBus, delay time.Duration, fire func()) *debouncer {
	return &debouncer{bus: bus, delay: delay, fire: fire}
}

func (d *debouncer) trigger() {
	d.cancel()
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() {
		d.bus.Post(func() {
			if gen == d.gen {
				d.timer = nil
				d.fire()
			}
		})
	})
}

func (d *debouncer) cancel() {
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
