// Package syncguard protects shared collections from out-of-order
// network responses. The UI lets the user switch the active project or
// task faster than round-trips complete; without a guard, a stale
// response for project A could arrive after the user switched to
// project B and overwrite B's data with A's.
//
// Each guard instance tracks a generation counter: every Load bumps it,
// and a response may only commit if its generation is still the latest
// when it settles. There is no request cancellation; superseded
// requests run to completion and their settlement is a silent no-op.
// Different guard instances (task list vs. subtask list) are fully
// independent; no cross-instance ordering is guaranteed.
package syncguard

import (
	"context"
	"sync"

	"github.com/taskdeck/taskdeck/internal/api"
)

// state is the guard's position in its lifecycle:
// Idle -> Loading(key) -> {Settled(key) | Idle}.
type state int

const (
	stateIdle state = iota
	stateLoading
	stateSettled
)

// Guard serializes fetch-and-apply cycles for a single keyed collection.
// T is the fetched payload type (e.g. []model.Task).
type Guard[T any] struct {
	mu    sync.Mutex
	state state
	key   string
	gen   uint64
	err   error

	apply func(key string, value T)
	clear func()
}

// Snapshot is an observable copy of a guard's current state, exposed for
// the view collaborator (loading spinners, retryable error banners).
type Snapshot struct {
	Key        string
	Generation uint64
	Loading    bool
	Err        error
}

// New creates a guard. apply commits a still-current payload to shared
// state; clear empties the collection when Load is called with an empty
// key. Both run with the guard's commit lock held, so they must not call
// back into the guard.
func New[T any](apply func(key string, value T), clear func()) *Guard[T] {
	return &Guard[T]{apply: apply, clear: clear}
}

// Load fetches data for key and commits it if the key is still current
// when the fetch settles.
//
// An empty key short-circuits: the collection is cleared and no fetch
// runs. Otherwise the guard records a new generation, runs fetch, and on
// settlement compares generations: a superseded request discards its
// result (or error) without touching loading or error state belonging
// to the newer request. Auth failures never update guard state either;
// they belong to the process-wide logout signal.
//
// The returned error is nil for discarded stale settlements.
func (g *Guard[T]) Load(
	ctx context.Context,
	key string,
	fetch func(context.Context) (T, error),
) error {
	if key == "" {
		g.mu.Lock()
		g.gen++
		g.state = stateIdle
		g.key = ""
		g.err = nil
		if g.clear != nil {
			g.clear()
		}
		g.mu.Unlock()
		return nil
	}

	g.mu.Lock()
	g.gen++
	gen := g.gen
	g.state = stateLoading
	g.key = key
	g.err = nil
	g.mu.Unlock()

	value, err := fetch(ctx)

	g.mu.Lock()
	defer g.mu.Unlock()

	if gen != g.gen {
		// A newer call superseded this one while it was in flight; its
		// settlement must not mutate shared state or flags.
		return nil
	}

	if err != nil {
		if api.IsAuthError(err) {
			return err
		}
		g.state = stateSettled
		g.err = err
		return err
	}

	g.state = stateSettled
	if g.apply != nil {
		g.apply(key, value)
	}
	return nil
}

// CurrentKey returns the key of the most recent Load, empty when idle.
func (g *Guard[T]) CurrentKey() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.key
}

// Snapshot returns the guard's observable state.
func (g *Guard[T]) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Snapshot{
		Key:        g.key,
		Generation: g.gen,
		Loading:    g.state == stateLoading,
		Err:        g.err,
	}
}
