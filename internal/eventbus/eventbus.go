package eventbus

import (
	"runtime/debug"
	"sync"

	"github.com/eapache/channels"
	"go.uber.org/zap"

	"heroscope/internal/domain"
)

// Re-export domain types for convenience
type DomainEvent = domain.DomainEvent
type EventType = domain.EventType

// Re-export domain event types
type QueryStateChangedEvent = domain.QueryStateChangedEvent
type SearchChangedEvent = domain.SearchChangedEvent
type PageChangedEvent = domain.PageChangedEvent
type LimitChangedEvent = domain.LimitChangedEvent
type LoadingChangedEvent = domain.LoadingChangedEvent
type QueryForwardedEvent = domain.QueryForwardedEvent
type ResultPublishedEvent = domain.ResultPublishedEvent
type ResultDiscardedEvent = domain.ResultDiscardedEvent
type FetchFailedEvent = domain.FetchFailedEvent
type ViewModelUpdatedEvent = domain.ViewModelUpdatedEvent
type ConfigLoadedEvent = domain.ConfigLoadedEvent
type ConfigSavedEvent = domain.ConfigSavedEvent

// EventHandler is a function that handles domain events
type EventHandler func(DomainEvent)

// EventBus is the interface for the event bus.
//
// All handlers and posted functions run one at a time on a single dispatcher
// goroutine, in the order they were published. That goroutine is the event
// loop of the application: state owned by subscribers needs no locking as
// long as it is only touched from handlers.
type EventBus interface {
	Publish(event DomainEvent)
	Subscribe(eventType EventType, handler EventHandler) func()
	// Post schedules fn on the event loop. It returns false if the bus is closed.
	Post(fn func()) bool
	Close()
}

type subscription struct {
	id      uint64
	handler EventHandler
}

// bus is the concrete implementation of EventBus
type bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]subscription
	nextID   uint64
	queue    *channels.InfiniteChannel
	closed   bool
	wg       sync.WaitGroup
	logger   *zap.Logger
}

// New creates a new event bus and starts its dispatcher
func New(logger *zap.Logger) EventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &bus{
		handlers: make(map[EventType][]subscription),
		queue:    channels.NewInfiniteChannel(),
		logger:   logger.Named("eventbus"),
	}

	b.wg.Add(1)
	go b.dispatch()

	return b
}

// Publish enqueues an event for all subscribers of its type.
// The queue is unbounded so handlers may publish without deadlocking.
func (b *bus) Publish(event DomainEvent) {
	switch event.Type() {
	case domain.EventQueryStateChanged, domain.EventViewModelUpdated:
		// too frequent to log
	default:
		b.logger.Debug("publishing event", zap.String("type", string(event.Type())))
	}
	if !b.enqueue(event) {
		b.logger.Debug("bus closed, dropping event", zap.String("type", string(event.Type())))
	}
}

// Post schedules fn on the dispatcher goroutine
func (b *bus) Post(fn func()) bool {
	return b.enqueue(fn)
}

func (b *bus) enqueue(item interface{}) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return false
	}
	b.queue.In() <- item
	return true
}

// Subscribe subscribes to events of a specific type
// Returns an unsubscribe function
func (b *bus) Subscribe(eventType EventType, handler EventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[eventType] = append(b.handlers[eventType], subscription{id: id, handler: handler})

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()

			subs := b.handlers[eventType]
			for i, s := range subs {
				if s.id == id {
					b.handlers[eventType] = append(subs[:i:i], subs[i+1:]...)
					break
				}
			}
		})
	}
}

// Close stops accepting events. Events already queued are still delivered.
func (b *bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()

	b.queue.Close()
	b.wg.Wait()
}

// dispatch handles event distribution to subscribers
func (b *bus) dispatch() {
	defer b.wg.Done()

	for item := range b.queue.Out() {
		switch v := item.(type) {
		case func():
			b.run("post", func() { v() })
		case DomainEvent:
			// Copy so handlers can subscribe or unsubscribe while we iterate
			b.mu.RLock()
			subs := make([]subscription, len(b.handlers[v.Type()]))
			copy(subs, b.handlers[v.Type()])
			b.mu.RUnlock()

			for _, s := range subs {
				handler := s.handler
				b.run(string(v.Type()), func() { handler(v) })
			}
		}
	}
}

func (b *bus) run(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panic",
				zap.String("event", name),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
		}
	}()
	fn()
}
