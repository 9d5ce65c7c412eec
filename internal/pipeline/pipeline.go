package pipeline

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"heroscope/internal/domain"
	"heroscope/internal/eventbus"
)

// DefaultDebounce is the quiet period used when none is configured
const DefaultDebounce = 500 * time.Millisecond

//go:generate mockgen -destination=mocks/mock_fetcher.go -package=mocks heroscope/internal/pipeline Fetcher

// Fetcher loads one page of results from the remote catalog
type Fetcher interface {
	FetchPage(ctx context.Context, search string, offset, limit int) (domain.FetchResult, error)
}

// StateStore is the part of the query store the pipeline needs
type StateStore interface {
	Snapshot() domain.QueryState
	SetLoading(loading bool)
}

// Pipeline turns settled query keys into fetches.
//
// Handlers, timer callbacks and fetch completions all run on the event bus
// dispatcher, so the event loop fields need no locking.
type Pipeline struct {
	bus      eventbus.EventBus
	store    StateStore
	fetcher  Fetcher
	logger   *zap.Logger
	debounce *debouncer

	mu        sync.RWMutex
	latest    domain.FetchResult
	hasLatest bool

	// event loop only
	key         domain.QueryParams
	seq         uint64
	cancel      context.CancelFunc
	stopped     bool
	unsubs      []func()
	subscribers []resultSubscriber
	nextSubID   uint64
}

type resultSubscriber struct {
	id      uint64
	handler func(domain.FetchResult)
}

// New creates a pipeline and subscribes it to the store's parameter channels.
// Nothing is fetched until Start is called.
func New(bus eventbus.EventBus, store StateStore, fetcher Fetcher, debounce time.Duration, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	p := &Pipeline{
		bus:     bus,
		store:   store,
		fetcher: fetcher,
		logger:  logger.Named("pipeline"),
		key:     store.Snapshot().Params,
	}
	p.debounce = newDebouncer(bus, debounce, p.onSettled)

	p.unsubs = append(p.unsubs,
		bus.Subscribe(domain.EventSearchChanged, func(e eventbus.DomainEvent) {
			p.key.Search = e.(domain.SearchChangedEvent).Search
			p.keyChanged()
		}),
		bus.Subscribe(domain.EventPageChanged, func(e eventbus.DomainEvent) {
			p.key.Page = e.(domain.PageChangedEvent).Page
			p.keyChanged()
		}),
		bus.Subscribe(domain.EventLimitChanged, func(e eventbus.DomainEvent) {
			p.key.Limit = e.(domain.LimitChangedEvent).Limit
			p.keyChanged()
		}),
	)
	// Events dispatched before the subscriptions above were delivered to
	// nobody; re-read the key on the loop, behind anything already queued.
	bus.Post(func() {
		p.key = store.Snapshot().Params
	})

	return p
}

// Start emits the initial query key so the first page gets loaded
func (p *Pipeline) Start() {
	p.bus.Post(p.keyChanged)
}

// Refresh re-issues the current query key immediately, skipping the quiet period
func (p *Pipeline) Refresh() {
	p.bus.Post(func() {
		if p.stopped {
			return
		}
		p.debounce.cancel()
		p.issue(p.key)
	})
}

// Stop cancels the pending timer and the in-flight fetch and unsubscribes.
// It must not be called from an event handler.
func (p *Pipeline) Stop() {
	done := make(chan struct{})
	if !p.bus.Post(func() {
		defer close(done)
		p.stopped = true
		p.debounce.cancel()
		if p.cancel != nil {
			p.cancel()
			p.cancel = nil
		}
		for _, unsubscribe := range p.unsubs {
			unsubscribe()
		}
		p.unsubs = nil
	}) {
		return
	}
	<-done
}

// Latest returns the most recently published result, if any
func (p *Pipeline) Latest() (domain.FetchResult, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest, p.hasLatest
}

// SubscribeResults calls handler with the latest result, if there is one, and
// then with every published result. The replay does not trigger a fetch.
// Handlers run on the event loop.
func (p *Pipeline) SubscribeResults(handler func(domain.FetchResult)) func() {
	var id uint64
	p.bus.Post(func() {
		p.nextSubID++
		id = p.nextSubID
		p.subscribers = append(p.subscribers, resultSubscriber{id: id, handler: handler})
		if result, ok := p.Latest(); ok {
			handler(result)
		}
	})
	return func() {
		p.bus.Post(func() {
			for i, s := range p.subscribers {
				if s.id == id {
					p.subscribers = append(p.subscribers[:i:i], p.subscribers[i+1:]...)
					break
				}
			}
		})
	}
}

func (p *Pipeline) keyChanged() {
	if p.stopped {
		return
	}
	p.debounce.trigger()
}

func (p *Pipeline) onSettled() {
	if p.stopped {
		return
	}
	p.issue(p.key)
}

// issue starts a fetch for key and supersedes any fetch still in flight
func (p *Pipeline) issue(key domain.QueryParams) {
	if p.cancel != nil {
		p.cancel()
	}
	p.seq++
	seq := p.seq
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	p.store.SetLoading(true)
	p.bus.Publish(domain.QueryForwardedEvent{Seq: seq, Params: key})
	p.logger.Debug("fetching page",
		zap.Uint64("seq", seq),
		zap.String("search", key.Search),
		zap.Int("offset", key.Offset()),
		zap.Int("limit", key.Limit))

	go func() {
		result, err := p.fetcher.FetchPage(ctx, key.Search, key.Offset(), key.Limit)
		p.bus.Post(func() { p.complete(seq, key, result, err) })
	}()
}

func (p *Pipeline) complete(seq uint64, key domain.QueryParams, result domain.FetchResult, err error) {
	if seq != p.seq || p.stopped {
		p.logger.Debug("discarding superseded result", zap.Uint64("seq", seq), zap.Uint64("latest", p.seq))
		p.bus.Publish(domain.ResultDiscardedEvent{Seq: seq, Params: key})
		return
	}
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}

	if err != nil {
		p.logger.Warn("fetch failed",
			zap.Uint64("seq", seq),
			zap.String("search", key.Search),
			zap.Int("offset", key.Offset()),
			zap.Int("limit", key.Limit),
			zap.Error(err))
		p.bus.Publish(domain.FetchFailedEvent{Seq: seq, Params: key, Err: err})
		result = domain.EmptyResult()
	}
	if result.Items == nil {
		result.Items = []domain.Hero{}
	}

	p.store.SetLoading(false)

	p.mu.Lock()
	p.latest = result
	p.hasLatest = true
	p.mu.Unlock()

	p.bus.Publish(domain.ResultPublishedEvent{Seq: seq, Params: key, Result: result})
	for _, s := range p.subscribers {
		s.handler(result)
	}
}
