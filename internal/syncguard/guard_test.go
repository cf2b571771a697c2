package syncguard

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck/internal/api"
)

// recorder collects commits and clears applied by a guard.
type recorder struct {
	mu      sync.Mutex
	applied []string
	cleared int
}

func (r *recorder) apply(key string, value []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.applied = append(r.applied, key+":"+fmt.Sprint(value))
}

func (r *recorder) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cleared++
}

func (r *recorder) appliedKeys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.applied...)
}

// blockingFetch returns a fetcher that signals on started when invoked
// and then waits for release before settling.
func blockingFetch(
	started chan<- struct{},
	release <-chan struct{},
	value []string,
	err error,
) func(context.Context) ([]string, error) {
	return func(ctx context.Context) ([]string, error) {
		started <- struct{}{}
		<-release
		return value, err
	}
}

func TestLateResponseForSupersededKeyIsDiscarded(t *testing.T) {
	rec := &recorder{}
	g := New(rec.apply, rec.clear)

	startedA := make(chan struct{})
	releaseA := make(chan struct{})
	startedB := make(chan struct{})
	releaseB := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		err := g.Load(context.Background(), "project-a",
			blockingFetch(startedA, releaseA, []string{"a1", "a2"}, nil))
		assert.NoError(t, err)
	}()
	<-startedA

	go func() {
		defer wg.Done()
		err := g.Load(context.Background(), "project-b",
			blockingFetch(startedB, releaseB, []string{"b1"}, nil))
		assert.NoError(t, err)
	}()
	<-startedB

	// B settles first, then A's stale response arrives.
	close(releaseB)
	waitFor(t, func() bool { return len(rec.appliedKeys()) == 1 })
	close(releaseA)
	wg.Wait()

	require.Equal(t, []string{"project-b:[b1]"}, rec.appliedKeys())
	assert.Equal(t, "project-b", g.CurrentKey())
	assert.False(t, g.Snapshot().Loading)
}

func TestEmptyKeyClearsWithoutFetching(t *testing.T) {
	rec := &recorder{}
	g := New(rec.apply, rec.clear)

	fetched := false
	err := g.Load(context.Background(), "", func(ctx context.Context) ([]string, error) {
		fetched = true
		return nil, nil
	})
	require.NoError(t, err)

	assert.False(t, fetched)
	assert.Equal(t, 1, rec.cleared)
	assert.Empty(t, rec.appliedKeys())
	assert.Equal(t, "", g.CurrentKey())
}

func TestStaleFailureDoesNotTouchNewerRequestState(t *testing.T) {
	rec := &recorder{}
	g := New(rec.apply, rec.clear)

	startedA := make(chan struct{})
	releaseA := make(chan struct{})
	startedB := make(chan struct{})
	releaseB := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		err := g.Load(context.Background(), "task-a",
			blockingFetch(startedA, releaseA, nil, fmt.Errorf("boom")))
		// Stale settlements report no error to the caller.
		assert.NoError(t, err)
	}()
	<-startedA

	go func() {
		defer wg.Done()
		err := g.Load(context.Background(), "task-b",
			blockingFetch(startedB, releaseB, []string{"b"}, nil))
		assert.NoError(t, err)
	}()
	<-startedB

	// A fails while B is still in flight: B's loading flag and clean
	// error state must survive.
	close(releaseA)
	waitFor(t, func() bool {
		snap := g.Snapshot()
		return snap.Loading && snap.Err == nil && snap.Key == "task-b"
	})

	close(releaseB)
	wg.Wait()

	snap := g.Snapshot()
	assert.False(t, snap.Loading)
	assert.NoError(t, snap.Err)
	assert.Equal(t, []string{"task-b:[b]"}, rec.appliedKeys())
}

func TestCurrentFailureIsSurfaced(t *testing.T) {
	rec := &recorder{}
	g := New(rec.apply, rec.clear)

	fetchErr := fmt.Errorf("fetching tasks: connection refused")
	err := g.Load(context.Background(), "project-a",
		func(ctx context.Context) ([]string, error) { return nil, fetchErr })

	require.Error(t, err)
	snap := g.Snapshot()
	assert.False(t, snap.Loading)
	assert.Equal(t, fetchErr, snap.Err)
	assert.Empty(t, rec.appliedKeys())
}

func TestAuthFailureLeavesGuardStateAlone(t *testing.T) {
	rec := &recorder{}
	g := New(rec.apply, rec.clear)

	authErr := fmt.Errorf("GET /api/tasks: %w", &api.Error{
		Code:       api.ErrCodeUnauthorized,
		Message:    "token expired",
		HTTPStatus: http.StatusUnauthorized,
	})

	err := g.Load(context.Background(), "project-a",
		func(ctx context.Context) ([]string, error) { return nil, authErr })
	require.Error(t, err)

	// The logout collaborator owns 401 handling; the guard records
	// neither a settled state nor an error.
	snap := g.Snapshot()
	assert.True(t, snap.Loading)
	assert.NoError(t, snap.Err)
}

// waitFor polls cond until it holds or the test times out.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
