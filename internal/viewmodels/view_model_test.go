package viewmodels

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heroscope/internal/domain"
	"heroscope/internal/eventbus"
	"heroscope/internal/pipeline"
	"heroscope/internal/state"
)

// fakeResults hands results to the combiner on the event loop
type fakeResults struct {
	bus     eventbus.EventBus
	handler func(domain.FetchResult)
}

func (f *fakeResults) SubscribeResults(handler func(domain.FetchResult)) func() {
	f.handler = handler
	return func() {}
}

func (f *fakeResults) push(r domain.FetchResult) {
	f.bus.Post(func() { f.handler(r) })
}

type snapshots struct {
	mu  sync.Mutex
	vms []domain.ViewModel
}

func (s *snapshots) add(vm domain.ViewModel) {
	s.mu.Lock()
	s.vms = append(s.vms, vm)
	s.mu.Unlock()
}

func (s *snapshots) all() []domain.ViewModel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ViewModel(nil), s.vms...)
}

func (s *snapshots) last(t *testing.T) domain.ViewModel {
	t.Helper()
	all := s.all()
	require.NotEmpty(t, all)
	return all[len(all)-1]
}

func drain(t *testing.T, b eventbus.EventBus) {
	t.Helper()
	// two rounds: flushes are queued behind the events that schedule them
	for i := 0; i < 2; i++ {
		done := make(chan struct{})
		require.True(t, b.Post(func() { close(done) }))
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("bus did not drain")
		}
	}
}

func setup(t *testing.T) (*state.Store, *fakeResults, *Combiner, *snapshots, eventbus.EventBus) {
	t.Helper()
	b := eventbus.New(nil)
	t.Cleanup(b.Close)
	s, err := state.NewStore(b, []int{10, 25, 100}, 0, nil)
	require.NoError(t, err)
	results := &fakeResults{bus: b}
	c := NewCombiner(b, s, results, nil)
	t.Cleanup(c.Close)

	snaps := &snapshots{}
	c.Subscribe(snaps.add)
	drain(t, b)
	return s, results, c, snaps, b
}

func TestInitialSnapshot(t *testing.T) {
	_, _, c, snaps, _ := setup(t)

	all := snaps.all()
	require.Len(t, all, 1)
	vm := all[0]
	assert.Equal(t, domain.QueryParams{Limit: 10}, vm.Params)
	assert.False(t, vm.Loading)
	assert.Empty(t, vm.Items)
	assert.Equal(t, 0, vm.TotalPages)
	assert.Equal(t, 1, vm.UserPage)
	assert.True(t, vm.IsLastPage)

	latest, ok := c.Latest()
	require.True(t, ok)
	assert.Equal(t, vm, latest)
}

func TestSnapshotDerivesPagination(t *testing.T) {
	s, results, _, snaps, b := setup(t)

	require.NoError(t, s.SetLimit(25))
	require.NoError(t, s.MovePage(3))
	results.push(domain.FetchResult{Items: []domain.Hero{{ID: 1, Name: "Wasp"}}, Total: 95})
	drain(t, b)

	vm := snaps.last(t)
	assert.Equal(t, 95, vm.Total)
	assert.Equal(t, 4, vm.TotalPages)
	assert.Equal(t, 4, vm.UserPage)
	assert.True(t, vm.IsLastPage)
	assert.Equal(t, "Wasp", vm.Items[0].Name)
}

func TestSimultaneousChangesProduceOneSnapshot(t *testing.T) {
	s, results, _, snaps, b := setup(t)

	require.NoError(t, s.MovePage(3))
	drain(t, b)
	before := len(snaps.all())

	// limit and page change together, with a result arriving in the same tick
	require.NoError(t, s.SetLimit(25))
	results.push(domain.FetchResult{Items: []domain.Hero{{ID: 7}}, Total: 30})
	drain(t, b)

	all := snaps.all()
	require.Len(t, all, before+1)
	vm := all[len(all)-1]
	assert.Equal(t, 25, vm.Params.Limit)
	assert.Equal(t, 0, vm.Params.Page)
	assert.Equal(t, 2, vm.TotalPages)
	assert.False(t, vm.IsLastPage)
}

func TestLatestValuesAreUsedForUnchangedInputs(t *testing.T) {
	s, results, _, snaps, b := setup(t)

	results.push(domain.FetchResult{Items: []domain.Hero{{ID: 1}}, Total: 40})
	drain(t, b)
	s.SetLoading(true)
	drain(t, b)

	vm := snaps.last(t)
	assert.True(t, vm.Loading)
	assert.Equal(t, 40, vm.Total)
	assert.Len(t, vm.Items, 1)
}

func TestSubscribeReplaysLatestSnapshot(t *testing.T) {
	s, _, c, _, b := setup(t)

	s.SetSearch("cap")
	drain(t, b)

	late := &snapshots{}
	c.Subscribe(late.add)
	drain(t, b)

	all := late.all()
	require.Len(t, all, 1)
	assert.Equal(t, "cap", all[0].Params.Search)
}

func TestSnapshotsArePublishedOnTheBus(t *testing.T) {
	s, _, _, _, b := setup(t)

	got := make(chan domain.ViewModel, 4)
	b.Subscribe(domain.EventViewModelUpdated, func(e eventbus.DomainEvent) {
		got <- e.(domain.ViewModelUpdatedEvent).ViewModel
	})
	s.SetSearch("storm")
	drain(t, b)

	require.Len(t, got, 1)
	assert.Equal(t, "storm", (<-got).Params.Search)
}

type failingFetcher struct{}

func (failingFetcher) FetchPage(context.Context, string, int, int) (domain.FetchResult, error) {
	return domain.FetchResult{Items: []domain.Hero{{ID: 99}}, Total: 5}, errors.New("502 Bad Gateway")
}

func TestFailedFetchShowsEmptyPage(t *testing.T) {
	b := eventbus.New(nil)
	defer b.Close()
	s, err := state.NewStore(b, []int{10, 25, 100}, 0, nil)
	require.NoError(t, err)
	p := pipeline.New(b, s, failingFetcher{}, 10*time.Millisecond, nil)
	defer p.Stop()
	c := NewCombiner(b, s, p, nil)
	defer c.Close()

	p.Start()
	require.Eventually(t, func() bool {
		_, ok := p.Latest()
		return ok
	}, 2*time.Second, 5*time.Millisecond)
	drain(t, b)

	vm, ok := c.Latest()
	require.True(t, ok)
	assert.Empty(t, vm.Items)
	assert.Equal(t, 0, vm.Total)
	assert.False(t, vm.Loading)
}

// lateStore changes the search right after the first snapshot is taken and
// waits until that change has been dispatched.
type lateStore struct {
	*state.Store
	bus  eventbus.EventBus
	once sync.Once
}

func (s *lateStore) Snapshot() domain.QueryState {
	snap := s.Store.Snapshot()
	s.once.Do(func() {
		s.Store.SetSearch("late")
		done := make(chan struct{})
		s.bus.Post(func() { close(done) })
		<-done
	})
	return snap
}

func TestChangeBeforeSubscribeIsNotLost(t *testing.T) {
	b := eventbus.New(nil)
	t.Cleanup(b.Close)
	s, err := state.NewStore(b, []int{10, 25, 100}, 0, nil)
	require.NoError(t, err)

	c := NewCombiner(b, &lateStore{Store: s, bus: b}, &fakeResults{bus: b}, nil)
	t.Cleanup(c.Close)
	drain(t, b)

	vm, ok := c.Latest()
	require.True(t, ok)
	assert.Equal(t, "late", vm.Params.Search)
}
