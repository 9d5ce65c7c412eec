package viewmodels

import (
	"sync"

	"go.uber.org/zap"

	"heroscope/internal/domain"
	"heroscope/internal/eventbus"
)

// StateReader gives the combiner its starting parameters
type StateReader interface {
	Snapshot() domain.QueryState
}

// ResultSource delivers fetch results, replaying the latest one on subscribe
type ResultSource interface {
	SubscribeResults(handler func(domain.FetchResult)) func()
}

// Combiner joins the latest fetch result with the latest query parameters and
// loading flag into ViewModel snapshots.
//
// Each input schedules a flush at the back of the event queue; only the most
// recent flush emits, so inputs that arrive together produce one snapshot.
type Combiner struct {
	bus    eventbus.EventBus
	logger *zap.Logger

	mu        sync.RWMutex
	latest    domain.ViewModel
	hasLatest bool

	// event loop only
	params      domain.QueryParams
	loading     bool
	result      domain.FetchResult
	flushSeq    uint64
	unsubs      []func()
	subscribers []subscriber
	nextSubID   uint64
}

type subscriber struct {
	id      uint64
	handler func(domain.ViewModel)
}

// NewCombiner subscribes to the store channels and the result source.
// The result starts out empty so a snapshot exists before the first fetch.
func NewCombiner(bus eventbus.EventBus, store StateReader, results ResultSource, logger *zap.Logger) *Combiner {
	if logger == nil {
		logger = zap.NewNop()
	}
	st := store.Snapshot()
	c := &Combiner{
		bus:     bus,
		logger:  logger.Named("viewmodel"),
		params:  st.Params,
		loading: st.Loading,
		result:  domain.EmptyResult(),
	}

	c.unsubs = append(c.unsubs,
		bus.Subscribe(domain.EventSearchChanged, func(e eventbus.DomainEvent) {
			c.params.Search = e.(domain.SearchChangedEvent).Search
			c.schedule()
		}),
		bus.Subscribe(domain.EventPageChanged, func(e eventbus.DomainEvent) {
			c.params.Page = e.(domain.PageChangedEvent).Page
			c.schedule()
		}),
		bus.Subscribe(domain.EventLimitChanged, func(e eventbus.DomainEvent) {
			c.params.Limit = e.(domain.LimitChangedEvent).Limit
			c.schedule()
		}),
		bus.Subscribe(domain.EventLoadingChanged, func(e eventbus.DomainEvent) {
			c.loading = e.(domain.LoadingChangedEvent).Loading
			c.schedule()
		}),
		results.SubscribeResults(func(r domain.FetchResult) {
			c.result = r
			c.schedule()
		}),
	)
	// Changes dispatched before the subscriptions above were missed; re-read
	// the store on the loop and build the first snapshot from that.
	bus.Post(func() {
		st := store.Snapshot()
		c.params = st.Params
		c.loading = st.Loading
		c.schedule()
	})

	return c
}

// Latest returns the most recent snapshot, if one has been built
func (c *Combiner) Latest() (domain.ViewModel, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latest, c.hasLatest
}

// Subscribe calls handler with the latest snapshot, if any, and then with
// every new one. Handlers run on the event loop.
func (c *Combiner) Subscribe(handler func(domain.ViewModel)) func() {
	var id uint64
	c.bus.Post(func() {
		c.nextSubID++
		id = c.nextSubID
		c.subscribers = append(c.subscribers, subscriber{id: id, handler: handler})
		if vm, ok := c.Latest(); ok {
			handler(vm)
		}
	})
	return func() {
		c.bus.Post(func() {
			for i, s := range c.subscribers {
				if s.id == id {
					c.subscribers = append(c.subscribers[:i:i], c.subscribers[i+1:]...)
					break
				}
			}
		})
	}
}

// Close detaches the combiner from its inputs
func (c *Combiner) Close() {
	c.bus.Post(func() {
		for _, unsubscribe := range c.unsubs {
			unsubscribe()
		}
		c.unsubs = nil
	})
}

func (c *Combiner) schedule() {
	c.flushSeq++
	seq := c.flushSeq
	c.bus.Post(func() {
		if seq == c.flushSeq {
			c.flush()
		}
	})
}

func (c *Combiner) flush() {
	vm := domain.NewViewModel(c.params, c.loading, c.result)

	c.mu.Lock()
	c.latest = vm
	c.hasLatest = true
	c.mu.Unlock()

	c.logger.Debug("view model updated",
		zap.Int("page", vm.UserPage),
		zap.Int("pages", vm.TotalPages),
		zap.Int("items", len(vm.Items)),
		zap.Bool("loading", vm.Loading))
	c.bus.Publish(domain.ViewModelUpdatedEvent{ViewModel: vm})
	for _, s := range c.subscribers {
		s.handler(vm)
	}
}
