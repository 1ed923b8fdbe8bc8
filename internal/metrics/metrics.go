package metrics

import (
	"sync"
	"time"
)

type matchStats struct {
	pointsApplied  int
	pointErrors    int
	replays        int
	busyRejections int
	lastApply      time.Duration
	lastLockWait   time.Duration
}

// Recorder captures lightweight, in-memory metrics about scoring activity.
// It is intentionally simple so it can be inspected in tests while the
// otel instruments handle the real export.
type Recorder struct {
	mu    sync.Mutex
	stats map[string]*matchStats
	otel  *otelInstruments
}

func NewRecorder() *Recorder {
	return newRecorder(nil)
}

func newRecorder(otel *otelInstruments) *Recorder {
	return &Recorder{
		stats: make(map[string]*matchStats),
		otel:  otel,
	}
}

// RecordPointApplied tracks one recordPoint write attempt and its latency.
func (r *Recorder) RecordPointApplied(matchID string, duration time.Duration, err error) {
	if r == nil {
		return
	}

	r.mu.Lock()
	stats := r.ensureStats(matchID)
	stats.lastApply = duration
	if err != nil {
		stats.pointErrors++
	} else {
		stats.pointsApplied++
	}
	r.mu.Unlock()

	if r.otel != nil {
		r.otel.recordPointApplied(matchID, duration, err)
	}
}

// RecordIdempotentReplay tracks a point submission answered from the event
// log without a write.
func (r *Recorder) RecordIdempotentReplay(matchID string) {
	if r == nil {
		return
	}

	r.mu.Lock()
	r.ensureStats(matchID).replays++
	r.mu.Unlock()

	if r.otel != nil {
		r.otel.recordReplay(matchID)
	}
}

// RecordLockWait tracks time spent waiting on a match's serialization
// slot; a timeout counts as a busy rejection.
func (r *Recorder) RecordLockWait(matchID string, waited time.Duration, err error) {
	if r == nil {
		return
	}

	r.mu.Lock()
	stats := r.ensureStats(matchID)
	stats.lastLockWait = waited
	if err != nil {
		stats.busyRejections++
	}
	r.mu.Unlock()

	if r.otel != nil {
		r.otel.recordLockWait(matchID, waited, err)
	}
}

// RecordSnapshotPublished tracks one snapshot fanned out to subscribers.
func (r *Recorder) RecordSnapshotPublished(matchID string) {
	if r == nil || r.otel == nil {
		return
	}
	r.otel.recordSnapshotPublished(matchID)
}

// AddLiveSubscribers adjusts the live subscriber gauge.
func (r *Recorder) AddLiveSubscribers(matchID string, delta int64) {
	if r == nil || r.otel == nil {
		return
	}
	r.otel.addLiveSubscribers(matchID, delta)
}

// RecordHTTPRequest tracks basic HTTP metrics.
func (r *Recorder) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if r == nil || r.otel == nil {
		return
	}
	r.otel.recordHTTPRequest(method, path, status, duration)
}

// Snapshot is a copy of the current stats for one match.
type Snapshot struct {
	PointsApplied  int
	PointErrors    int
	Replays        int
	BusyRejections int
	LastApply      time.Duration
	LastLockWait   time.Duration
}

func (r *Recorder) Snapshot(matchID string) Snapshot {
	if r == nil {
		return Snapshot{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	stats, ok := r.stats[matchID]
	if !ok {
		return Snapshot{}
	}
	return Snapshot{
		PointsApplied:  stats.pointsApplied,
		PointErrors:    stats.pointErrors,
		Replays:        stats.replays,
		BusyRejections: stats.busyRejections,
		LastApply:      stats.lastApply,
		LastLockWait:   stats.lastLockWait,
	}
}

// PointsApplied returns the total successful point writes for a match.
func (r *Recorder) PointsApplied(matchID string) int {
	return r.Snapshot(matchID).PointsApplied
}

// Replays returns the total idempotent replays seen for a match.
func (r *Recorder) Replays(matchID string) int {
	return r.Snapshot(matchID).Replays
}

// BusyRejections returns the total lock-acquire timeouts for a match.
func (r *Recorder) BusyRejections(matchID string) int {
	return r.Snapshot(matchID).BusyRejections
}

// ensureStats must be called with mu held.
func (r *Recorder) ensureStats(matchID string) *matchStats {
	stats, ok := r.stats[matchID]
	if !ok {
		stats = &matchStats{}
		r.stats[matchID] = stats
	}
	return stats
}
