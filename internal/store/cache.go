package store

import (
	"sync"

	"github.com/padelhub/score-service/internal/domain"
)

// SnapshotCache keeps the latest score snapshot per match in memory so the
// live channel and read paths never touch the per-match write lock.
type SnapshotCache struct {
	mu        sync.RWMutex
	snapshots map[string]domain.MatchScoreSnapshot
}

// NewSnapshotCache constructs an empty SnapshotCache.
func NewSnapshotCache() *SnapshotCache {
	return &SnapshotCache{
		snapshots: make(map[string]domain.MatchScoreSnapshot),
	}
}

// Get retrieves the latest snapshot for a match.
func (c *SnapshotCache) Get(matchID string) (domain.MatchScoreSnapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap, ok := c.snapshots[matchID]
	return snap, ok
}

// Set replaces the cached snapshot for a match.
func (c *SnapshotCache) Set(snap domain.MatchScoreSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.snapshots[snap.MatchID] = snap
}

// Delete drops a match's cached snapshot once no viewer needs it anymore.
func (c *SnapshotCache) Delete(matchID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.snapshots, matchID)
}
