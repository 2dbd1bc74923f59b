package panel

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sidememo/sidememo/internal/memo"
	"github.com/sidememo/sidememo/internal/memo/repository"
	"github.com/sidememo/sidememo/internal/memo/service"
	"github.com/stretchr/testify/require"
)

type fakeTimer struct {
	s       *fakeScheduler
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// fakeScheduler records tasks; tests fire them explicitly.
type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
	delays []time.Duration
}

func (s *fakeScheduler) schedule(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{s: s, f: f}
	s.timers = append(s.timers, t)
	s.delays = append(s.delays, d)
	return t
}

func (s *fakeScheduler) active() []*fakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*fakeTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

// fire runs every active task and returns how many ran.
func (s *fakeScheduler) fire() int {
	ts := s.active()
	for _, t := range ts {
		s.mu.Lock()
		t.fired = true
		s.mu.Unlock()
		t.f()
	}
	return len(ts)
}

func (s *fakeScheduler) last() *fakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timers[len(s.timers)-1]
}

// spyArea counts writes on the storage boundary.
type spyArea struct {
	mu      sync.Mutex
	inner   *repository.MemoryRepo
	sets    int
	failSet bool
}

func (a *spyArea) Get(ctx context.Context, keys ...string) (map[string][]byte, error) {
	return a.inner.Get(ctx, keys...)
}

func (a *spyArea) Set(ctx context.Context, items map[string][]byte) error {
	a.mu.Lock()
	a.sets++
	fail := a.failSet
	a.mu.Unlock()
	if fail {
		return errors.New("quota exceeded")
	}
	return a.inner.Set(ctx, items)
}

func (a *spyArea) writes() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sets
}

func (a *spyArea) setFail(v bool) {
	a.mu.Lock()
	a.failSet = v
	a.mu.Unlock()
}

func tickingClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	cur := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		cur = cur.Add(time.Minute)
		return cur
	}
}

func strp(s string) *string { return &s }

type fixture struct {
	area  *spyArea
	store *service.Store
	sched *fakeScheduler
	ctrl  *Controller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	area := &spyArea{inner: repository.NewMemoryRepo()}
	store := service.New(area, service.WithClock(tickingClock(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))))
	sched := &fakeScheduler{}
	ctrl := New(store, WithScheduler(sched.schedule))
	return &fixture{area: area, store: store, sched: sched, ctrl: ctrl}
}

func TestInitialStateIsLoadingList(t *testing.T) {
	f := newFixture(t)
	v := f.ctrl.Snapshot()
	require.Equal(t, ViewList, v.Kind)
	require.True(t, v.Loading)
	require.Contains(t, v.Render(time.UTC), "Loading...")

	f.ctrl.Load(context.Background())
	v = f.ctrl.Snapshot()
	require.False(t, v.Loading)
	require.Empty(t, v.Memos)
	require.Contains(t, v.Render(time.UTC), "No memos yet")
}

func TestStartLoadsSortedInBackground(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, err := f.store.Create(ctx, "A", "")
	require.NoError(t, err)
	b, err := f.store.Create(ctx, "B", "")
	require.NoError(t, err)

	f.ctrl.Start(ctx)
	require.Eventually(t, func() bool { return !f.ctrl.Snapshot().Loading }, time.Second, 5*time.Millisecond)

	v := f.ctrl.Snapshot()
	require.Len(t, v.Memos, 2)
	require.Equal(t, b.ID, v.Memos[0].ID)
	require.Equal(t, a.ID, v.Memos[1].ID)
}

func TestDeletingUnsavedDraftNeverWrites(t *testing.T) {
	f := newFixture(t)
	f.ctrl.Load(context.Background())

	require.NoError(t, f.ctrl.Create())
	v := f.ctrl.Snapshot()
	require.Equal(t, ViewDetail, v.Kind)
	require.True(t, v.IsNew)
	require.NotNil(t, v.Current)
	require.Equal(t, memo.PlaceholderID, v.Current.ID)
	require.Contains(t, v.Render(time.UTC), "New memo")

	require.NoError(t, f.ctrl.Delete(context.Background()))
	v = f.ctrl.Snapshot()
	require.Equal(t, ViewList, v.Kind)
	require.Nil(t, v.Current)
	require.False(t, v.IsNew)
	require.Zero(t, f.area.writes())
}

func TestDeletingDraftWithPendingEditDropsIt(t *testing.T) {
	f := newFixture(t)
	f.ctrl.Load(context.Background())
	require.NoError(t, f.ctrl.Create())
	require.NoError(t, f.ctrl.Edit(strp("draft"), nil))

	require.NoError(t, f.ctrl.Delete(context.Background()))
	require.Zero(t, f.sched.fire())
	require.Zero(t, f.area.writes())
}

func TestGroceriesScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.ctrl.Load(ctx)

	require.NoError(t, f.ctrl.Create())
	require.NoError(t, f.ctrl.Edit(strp("Groceries"), strp("Milk, eggs")))
	require.Equal(t, 1, f.sched.fire())

	v := f.ctrl.Snapshot()
	require.False(t, v.IsNew)
	require.NotEqual(t, memo.PlaceholderID, v.Current.ID)
	require.Len(t, v.Memos, 1)

	require.NoError(t, f.ctrl.Edit(nil, strp("Milk, eggs, bread")))
	require.Equal(t, DefaultDebounce, f.sched.delays[len(f.sched.delays)-1])
	require.Equal(t, 1, f.sched.fire())

	list, err := f.store.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Groceries", list[0].Title)
	require.Equal(t, "Milk, eggs, bread", list[0].Content)
	require.True(t, list[0].UpdatedAt.After(list[0].CreatedAt))

	v = f.ctrl.Snapshot()
	require.Equal(t, list[0].ID, v.Current.ID)
	require.Equal(t, "Milk, eggs, bread", v.Memos[0].Content)
}

func TestEditingMovesMemoToTop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, err := f.store.Create(ctx, "A", "")
	require.NoError(t, err)
	b, err := f.store.Create(ctx, "B", "")
	require.NoError(t, err)
	f.ctrl.Load(ctx)
	require.Equal(t, b.ID, f.ctrl.Snapshot().Memos[0].ID)

	require.NoError(t, f.ctrl.OpenByID(a.ID))
	require.NoError(t, f.ctrl.Edit(nil, strp("touched")))
	f.sched.fire()

	v := f.ctrl.Snapshot()
	require.Equal(t, []string{a.ID, b.ID}, []string{v.Memos[0].ID, v.Memos[1].ID})
	require.True(t, v.Memos[0].UpdatedAt.After(v.Memos[1].UpdatedAt))
}

func TestEditsRestartTheDebounce(t *testing.T) {
	f := newFixture(t)
	f.ctrl.Load(context.Background())
	require.NoError(t, f.ctrl.Create())

	require.NoError(t, f.ctrl.Edit(strp("a"), nil))
	require.NoError(t, f.ctrl.Edit(strp("ab"), nil))
	require.NoError(t, f.ctrl.Edit(strp("abc"), nil))
	require.Len(t, f.sched.active(), 1)

	require.Equal(t, 1, f.sched.fire())
	require.Equal(t, 1, f.area.writes())
	require.Equal(t, "abc", f.ctrl.Snapshot().Memos[0].Title)
}

func TestBackAbandonsPendingEdit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m, err := f.store.Create(ctx, "A", "orig")
	require.NoError(t, err)
	f.ctrl.Load(ctx)
	writes := f.area.writes()

	require.NoError(t, f.ctrl.Open(m))
	require.NoError(t, f.ctrl.Edit(nil, strp("lost")))
	stale := f.sched.last()
	f.ctrl.Back()

	require.Equal(t, ViewList, f.ctrl.Snapshot().Kind)
	require.Zero(t, f.sched.fire())
	// a task that already fired when Back ran must not save either
	stale.f()
	require.Equal(t, writes, f.area.writes())

	got, _, err := f.store.Get(ctx, m.ID)
	require.NoError(t, err)
	require.Equal(t, "orig", got.Content)
}

// gateService blocks Update until released.
type gateService struct {
	*service.Store
	entered chan struct{}
	release chan struct{}
}

func (g *gateService) Update(ctx context.Context, id string, f memo.Fields) (memo.Memo, bool, error) {
	g.entered <- struct{}{}
	<-g.release
	return g.Store.Update(ctx, id, f)
}

func TestInFlightSaveDoesNotHijackNewSession(t *testing.T) {
	store := service.NewMemoryService(service.WithClock(tickingClock(time.Unix(0, 0).UTC())))
	ctx := context.Background()
	a, err := store.Create(ctx, "A", "")
	require.NoError(t, err)
	b, err := store.Create(ctx, "B", "")
	require.NoError(t, err)

	gate := &gateService{Store: store, entered: make(chan struct{}), release: make(chan struct{})}
	sched := &fakeScheduler{}
	ctrl := New(gate, WithScheduler(sched.schedule))
	ctrl.Load(ctx)

	require.NoError(t, ctrl.Open(a))
	require.NoError(t, ctrl.Edit(nil, strp("A2")))
	done := make(chan struct{})
	go func() {
		sched.fire()
		close(done)
	}()
	<-gate.entered

	ctrl.Back()
	require.NoError(t, ctrl.Open(b))
	close(gate.release)
	<-done

	v := ctrl.Snapshot()
	require.Equal(t, b.ID, v.Current.ID)
	require.Equal(t, a.ID, v.Memos[0].ID, "saved memo still surfaces in the list")
	require.Equal(t, "A2", v.Memos[0].Content)
}

// lateService persists an Update and then holds the result until released.
type lateService struct {
	*service.Store
	persisted chan struct{}
	release   chan struct{}
}

func (l *lateService) Update(ctx context.Context, id string, f memo.Fields) (memo.Memo, bool, error) {
	m, ok, err := l.Store.Update(ctx, id, f)
	l.persisted <- struct{}{}
	<-l.release
	return m, ok, err
}

func TestDeleteDuringInFlightSaveLeavesNoGhost(t *testing.T) {
	store := service.NewMemoryService(service.WithClock(tickingClock(time.Unix(0, 0).UTC())))
	ctx := context.Background()
	a, err := store.Create(ctx, "A", "")
	require.NoError(t, err)

	late := &lateService{Store: store, persisted: make(chan struct{}), release: make(chan struct{})}
	sched := &fakeScheduler{}
	ctrl := New(late, WithScheduler(sched.schedule))
	ctrl.Load(ctx)

	require.NoError(t, ctrl.Open(a))
	require.NoError(t, ctrl.Edit(nil, strp("A2")))
	saved := make(chan struct{})
	go func() {
		sched.fire()
		close(saved)
	}()
	<-late.persisted

	deleted := make(chan error, 1)
	go func() { deleted <- ctrl.Delete(ctx) }()
	close(late.release)
	<-saved
	require.NoError(t, <-deleted)

	list, err := store.ListAll(ctx)
	require.NoError(t, err)
	require.Empty(t, list)
	v := ctrl.Snapshot()
	require.Equal(t, ViewList, v.Kind)
	require.Empty(t, v.Memos)
}

func TestDeleteSavedMemo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, err := f.store.Create(ctx, "A", "")
	require.NoError(t, err)
	b, err := f.store.Create(ctx, "B", "")
	require.NoError(t, err)
	f.ctrl.Load(ctx)

	require.NoError(t, f.ctrl.OpenByID(a.ID))
	require.NoError(t, f.ctrl.Delete(ctx))

	v := f.ctrl.Snapshot()
	require.Equal(t, ViewList, v.Kind)
	require.Len(t, v.Memos, 1)
	require.Equal(t, b.ID, v.Memos[0].ID)

	list, err := f.store.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestDeleteFailureKeepsDetail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, err := f.store.Create(ctx, "A", "")
	require.NoError(t, err)
	f.ctrl.Load(ctx)
	require.NoError(t, f.ctrl.Open(a))

	f.area.setFail(true)
	require.Error(t, f.ctrl.Delete(ctx))
	v := f.ctrl.Snapshot()
	require.Equal(t, ViewDetail, v.Kind)
	require.Len(t, v.Memos, 1)
}

func TestDeleteFailureKeepsPendingAutoSave(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, err := f.store.Create(ctx, "A", "")
	require.NoError(t, err)
	f.ctrl.Load(ctx)
	require.NoError(t, f.ctrl.Open(a))
	require.NoError(t, f.ctrl.Edit(nil, strp("keep me")))

	f.area.setFail(true)
	require.Error(t, f.ctrl.Delete(ctx))
	v := f.ctrl.Snapshot()
	require.Equal(t, ViewDetail, v.Kind)
	require.True(t, v.Dirty)
	require.Len(t, f.sched.active(), 1)

	f.area.setFail(false)
	require.Equal(t, 1, f.sched.fire())
	got, ok, err := f.store.Get(ctx, a.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "keep me", got.Content)
	require.False(t, f.ctrl.Snapshot().Dirty)
}

func TestSaveFailureIsRetriedOnNextEdit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.ctrl.Load(ctx)
	require.NoError(t, f.ctrl.Create())

	f.area.setFail(true)
	require.NoError(t, f.ctrl.Edit(strp("T"), nil))
	f.sched.fire()
	v := f.ctrl.Snapshot()
	require.True(t, v.IsNew)
	require.True(t, v.Dirty)
	require.Empty(t, v.Memos)

	f.area.setFail(false)
	require.NoError(t, f.ctrl.Edit(nil, strp("C")))
	f.sched.fire()
	v = f.ctrl.Snapshot()
	require.False(t, v.IsNew)
	require.False(t, v.Dirty)
	require.Len(t, v.Memos, 1)
	require.Equal(t, "T", v.Memos[0].Title)
	require.Equal(t, "C", v.Memos[0].Content)
}

func TestFlushSavesImmediately(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.ctrl.Load(ctx)
	require.NoError(t, f.ctrl.Create())
	require.NoError(t, f.ctrl.Edit(strp("now"), nil))

	require.NoError(t, f.ctrl.Flush(ctx))
	require.Empty(t, f.sched.active())
	require.Len(t, f.ctrl.Snapshot().Memos, 1)

	// nothing dirty, nothing written
	writes := f.area.writes()
	require.NoError(t, f.ctrl.Flush(ctx))
	require.Equal(t, writes, f.area.writes())
}

func TestTransitionsOutsideTheirView(t *testing.T) {
	f := newFixture(t)
	f.ctrl.Load(context.Background())

	require.ErrorIs(t, f.ctrl.Edit(strp("x"), nil), ErrWrongView)
	require.ErrorIs(t, f.ctrl.Delete(context.Background()), ErrWrongView)
	require.ErrorIs(t, f.ctrl.OpenByID("missing"), ErrUnknownMemo)

	require.NoError(t, f.ctrl.Create())
	require.ErrorIs(t, f.ctrl.Create(), ErrWrongView)
	require.ErrorIs(t, f.ctrl.Open(memo.Memo{ID: "x"}), ErrWrongView)

	f.ctrl.Back()
	f.ctrl.Back()
	require.Equal(t, ViewList, f.ctrl.Snapshot().Kind)
}

func TestRealTimerAutoSave(t *testing.T) {
	store := service.NewMemoryService()
	ctrl := New(store, WithDebounce(20*time.Millisecond))
	defer ctrl.Close()
	ctx := context.Background()
	ctrl.Load(ctx)

	require.NoError(t, ctrl.Create())
	require.NoError(t, ctrl.Edit(strp("Timer"), strp("fires")))

	require.Eventually(t, func() bool {
		list, err := store.ListAll(ctx)
		return err == nil && len(list) == 1 && list[0].Title == "Timer"
	}, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return !ctrl.Snapshot().IsNew }, time.Second, 5*time.Millisecond)
}
