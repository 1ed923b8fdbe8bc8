// Package live fans score snapshots out to subscribed viewers. Delivery
// is at-least-once and unordered-safe: every snapshot is a complete
// replacement of the consumer's view, so a slow subscriber simply skips
// ahead to the newest one.
package live

import (
	"log/slog"
	"sync"

	"github.com/padelhub/score-service/internal/domain"
	"github.com/padelhub/score-service/internal/logging"
	"github.com/padelhub/score-service/internal/metrics"
	"github.com/padelhub/score-service/internal/store"
)

// Subscription is one viewer's feed for a single match. Snapshots arrive
// on C; the channel is closed by Unsubscribe.
type Subscription struct {
	matchID string
	ch      chan domain.MatchScoreSnapshot
}

// C returns the snapshot channel.
func (s *Subscription) C() <-chan domain.MatchScoreSnapshot {
	return s.ch
}

// MatchID returns the match this subscription follows.
func (s *Subscription) MatchID() string {
	return s.matchID
}

// Broker distributes snapshots to subscribers, keyed by match id. It
// never mutates scoring state; it only reads snapshots handed to Publish.
type Broker struct {
	mu      sync.RWMutex
	subs    map[string]map[*Subscription]struct{}
	cache   *store.SnapshotCache
	logger  *slog.Logger
	metrics *metrics.Recorder
}

// NewBroker constructs a Broker backed by the given snapshot cache.
func NewBroker(cache *store.SnapshotCache, logger *slog.Logger, recorder *metrics.Recorder) *Broker {
	if cache == nil {
		cache = store.NewSnapshotCache()
	}
	return &Broker{
		subs:    make(map[string]map[*Subscription]struct{}),
		cache:   cache,
		logger:  logger,
		metrics: recorder,
	}
}

// Subscribe registers a viewer for a match. The current snapshot, when one
// exists, is delivered immediately; no historical point events are
// replayed.
func (b *Broker) Subscribe(matchID string) *Subscription {
	sub := &Subscription{
		matchID: matchID,
		ch:      make(chan domain.MatchScoreSnapshot, 1),
	}

	b.mu.Lock()
	set, ok := b.subs[matchID]
	if !ok {
		set = make(map[*Subscription]struct{})
		b.subs[matchID] = set
	}
	set[sub] = struct{}{}
	b.mu.Unlock()

	// Preload after registering. A Publish that lands in between fills
	// the channel with a snapshot at least as new as the cached one, so
	// a full channel means the preload is already superseded.
	if snap, ok := b.cache.Get(matchID); ok {
		select {
		case sub.ch <- snap:
		default:
		}
	}

	b.metrics.AddLiveSubscribers(matchID, 1)
	logging.Info(b.logger, "live subscriber added", slog.String(logging.FieldMatchID, matchID))
	return sub
}

// Unsubscribe removes a viewer and closes its channel. Safe to call once
// per subscription; scoring state is unaffected.
func (b *Broker) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	b.mu.Lock()
	set, ok := b.subs[sub.matchID]
	if ok {
		if _, member := set[sub]; member {
			delete(set, sub)
			close(sub.ch)
			last := len(set) == 0
			if last {
				delete(b.subs, sub.matchID)
			}
			b.mu.Unlock()
			if last {
				b.evictCompleted(sub.matchID)
			}
			b.metrics.AddLiveSubscribers(sub.matchID, -1)
			return
		}
	}
	b.mu.Unlock()
}

// evictCompleted drops the cached snapshot once a completed match loses
// its last viewer. Active matches stay cached for the next subscriber.
func (b *Broker) evictCompleted(matchID string) {
	if snap, ok := b.cache.Get(matchID); ok && snap.Status == domain.MatchCompleted {
		b.cache.Delete(matchID)
	}
}

// Publish caches the snapshot and delivers it to every subscriber of the
// match. A subscriber that has not drained its previous snapshot gets the
// stale one replaced: latest always wins, which is safe because each
// snapshot is the whole view.
func (b *Broker) Publish(snap domain.MatchScoreSnapshot) {
	b.cache.Set(snap)

	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subs[snap.MatchID] {
		select {
		case sub.ch <- snap:
		default:
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- snap:
			default:
			}
		}
	}
	b.metrics.RecordSnapshotPublished(snap.MatchID)
}

// Subscribers reports how many viewers currently follow a match.
func (b *Broker) Subscribers(matchID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[matchID])
}

// Current returns the latest cached snapshot for a match.
func (b *Broker) Current(matchID string) (domain.MatchScoreSnapshot, bool) {
	return b.cache.Get(matchID)
}
