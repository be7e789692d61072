package history

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/guarzo/wowecon/internal/model"
)

// snapshotLogCap bounds how many update records are retained.
const snapshotLogCap = 200

// SnapshotLog records the outcome of each bulk update, newest last.
// Old entries roll off once the log is full.
type SnapshotLog struct {
	mu      sync.Mutex
	entries []model.UpdateSnapshot
}

// NewSnapshotLog creates an empty log.
func NewSnapshotLog() *SnapshotLog {
	return &SnapshotLog{}
}

// Record appends one update outcome and returns the stored entry with
// its generated ID.
func (l *SnapshotLog) Record(realmsUpdated, itemsTracked int, durationSeconds float64, success bool, errorMessage string) model.UpdateSnapshot {
	snap := model.UpdateSnapshot{
		ID:              uuid.NewString(),
		Timestamp:       time.Now(),
		RealmsUpdated:   realmsUpdated,
		ItemsTracked:    itemsTracked,
		DurationSeconds: durationSeconds,
		Success:         success,
		ErrorMessage:    errorMessage,
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, snap)
	if over := len(l.entries) - snapshotLogCap; over > 0 {
		copy(l.entries, l.entries[over:])
		l.entries = l.entries[:snapshotLogCap]
	}
	return snap
}

// Snapshots returns a copy of the log, oldest first.
func (l *SnapshotLog) Snapshots() []model.UpdateSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]model.UpdateSnapshot, len(l.entries))
	copy(out, l.entries)
	return out
}

// History returns the entries recorded within the trailing window,
// oldest-first.
func (l *SnapshotLog) History(hours int) []model.UpdateSnapshot {
	cutoff := time.Now().Add(-time.Duration(hours) * time.Hour)

	l.mu.Lock()
	defer l.mu.Unlock()

	var out []model.UpdateSnapshot
	for _, snap := range l.entries {
		if snap.Timestamp.Before(cutoff) {
			continue
		}
		out = append(out, snap)
	}
	return out
}

// Latest returns the most recent entry, if any.
func (l *SnapshotLog) Latest() (model.UpdateSnapshot, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) == 0 {
		return model.UpdateSnapshot{}, false
	}
	return l.entries[len(l.entries)-1], true
}

// Len returns how many entries are retained.
func (l *SnapshotLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
