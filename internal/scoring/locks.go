package scoring

import (
	"context"
	"sync"
	"time"
)

// lockManager hands out one serialization slot per match. At most one
// startMatch/startGame/recordPoint executes for a given match at any
// instant; calls for different matches run fully in parallel.
type lockManager struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func newLockManager() *lockManager {
	return &lockManager{locks: make(map[string]chan struct{})}
}

func (m *lockManager) slot(matchID string) chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch, ok := m.locks[matchID]
	if !ok {
		ch = make(chan struct{}, 1)
		m.locks[matchID] = ch
	}
	return ch
}

// acquire blocks until the match's slot is free, the timeout elapses, or
// the context is cancelled. On success it returns a release func and the
// time spent waiting. A stuck writer must not wedge the match forever,
// hence the bounded wait.
func (m *lockManager) acquire(ctx context.Context, matchID string, timeout time.Duration) (func(), time.Duration, error) {
	ch := m.slot(matchID)
	start := time.Now()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case ch <- struct{}{}:
		release := func() { <-ch }
		return release, time.Since(start), nil
	case <-timer.C:
		return nil, time.Since(start), &BusyError{MatchID: matchID, Timeout: timeout}
	case <-ctx.Done():
		return nil, time.Since(start), ctx.Err()
	}
}
