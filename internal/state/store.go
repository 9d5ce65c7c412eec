package state

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"heroscope/internal/domain"
	"heroscope/internal/eventbus"
)

var (
	// ErrNoLimits is returned when the allowed page size set is empty
	ErrNoLimits = errors.New("no page sizes configured")
	// ErrLimitNotAllowed is returned for a page size outside the allowed set
	ErrLimitNotAllowed = errors.New("page size not allowed")
	// ErrPageOutOfRange is returned when a page move would go below the first page
	ErrPageOutOfRange = errors.New("page out of range")
)

// Store is the single source of truth for query parameters and the loading flag.
//
// Setters may be called from any goroutine. Every accepted mutation publishes a
// QueryStateChanged event, followed by one event per field whose value differs
// from the previous snapshot. Events are enqueued while the lock is held, so
// their order on the bus matches the order of state versions.
type Store struct {
	mu     sync.Mutex
	bus    eventbus.EventBus
	logger *zap.Logger
	limits []int
	state  domain.QueryState
}

// NewStore creates a store with an empty search on the first page.
// A zero defaultLimit selects the first allowed page size.
func NewStore(bus eventbus.EventBus, limits []int, defaultLimit int, logger *zap.Logger) (*Store, error) {
	if len(limits) == 0 {
		return nil, ErrNoLimits
	}
	for _, l := range limits {
		if l <= 0 {
			return nil, fmt.Errorf("invalid page size %d: %w", l, ErrLimitNotAllowed)
		}
	}
	if defaultLimit == 0 {
		defaultLimit = limits[0]
	}
	if !contains(limits, defaultLimit) {
		return nil, fmt.Errorf("default page size %d: %w", defaultLimit, ErrLimitNotAllowed)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Store{
		bus:    bus,
		logger: logger.Named("state"),
		limits: append([]int(nil), limits...),
		state: domain.QueryState{
			Params: domain.QueryParams{Limit: defaultLimit},
		},
	}, nil
}

// Snapshot returns a copy of the current state
func (s *Store) Snapshot() domain.QueryState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Limits returns the allowed page sizes in display order
func (s *Store) Limits() []int {
	return append([]int(nil), s.limits...)
}

// SetSearch replaces the search text and goes back to the first page
func (s *Store) SetSearch(text string) {
	s.update(func(st *domain.QueryState) {
		st.Params.Search = text
		st.Params.Page = 0
	})
}

// MovePage moves the page index by delta.
// Moving before the first page is rejected; the last page is not known here,
// so the caller must check ViewModel.IsLastPage before moving forward.
func (s *Store) MovePage(delta int) error {
	var err error
	s.updateIf(func(st *domain.QueryState) bool {
		next := st.Params.Page + delta
		if next < 0 {
			err = fmt.Errorf("move by %d from page %d: %w", delta, st.Params.Page, ErrPageOutOfRange)
			return false
		}
		st.Params.Page = next
		return true
	})
	return err
}

// SetLimit replaces the page size and goes back to the first page
func (s *Store) SetLimit(limit int) error {
	if !contains(s.limits, limit) {
		return fmt.Errorf("page size %d: %w", limit, ErrLimitNotAllowed)
	}
	s.update(func(st *domain.QueryState) {
		st.Params.Limit = limit
		st.Params.Page = 0
	})
	return nil
}

// SetLoading sets the loading flag. Only the result pipeline calls this.
func (s *Store) SetLoading(loading bool) {
	s.update(func(st *domain.QueryState) {
		st.Loading = loading
	})
}

func (s *Store) update(mutate func(st *domain.QueryState)) {
	s.updateIf(func(st *domain.QueryState) bool {
		mutate(st)
		return true
	})
}

func (s *Store) updateIf(mutate func(st *domain.QueryState) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.state
	next := prev
	if !mutate(&next) {
		return
	}
	next.Version = prev.Version + 1
	s.state = next

	s.publishChanges(prev, next)
}

// publishChanges emits the raw snapshot and the per-field distinct events
func (s *Store) publishChanges(prev, next domain.QueryState) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(domain.QueryStateChangedEvent{State: next})

	if prev.Params.Search != next.Params.Search {
		s.bus.Publish(domain.SearchChangedEvent{Search: next.Params.Search})
	}
	if prev.Params.Page != next.Params.Page {
		s.bus.Publish(domain.PageChangedEvent{Page: next.Params.Page})
	}
	if prev.Params.Limit != next.Params.Limit {
		s.bus.Publish(domain.LimitChangedEvent{Limit: next.Params.Limit})
	}
	if prev.Loading != next.Loading {
		s.bus.Publish(domain.LoadingChangedEvent{Loading: next.Loading})
	}

	s.logger.Debug("state changed",
		zap.Uint64("version", next.Version),
		zap.String("search", next.Params.Search),
		zap.Int("page", next.Params.Page),
		zap.Int("limit", next.Params.Limit),
		zap.Bool("loading", next.Loading))
}

func contains(values []int, v int) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
