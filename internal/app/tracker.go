package app

import (
	"sync"
	"sync/atomic"
)

// Batch phases reported by a Tracker.
const (
	PhaseStarting  = "starting"
	PhaseReading   = "reading"
	PhaseExporting = "exporting"
	PhaseIngesting = "ingesting"
	PhaseDone      = "done"
	PhaseFailed    = "failed"
)

// Progress is a point-in-time view of a batch.
type Progress struct {
	RunID     string `json:"run_id"`
	Phase     string `json:"phase"`
	Rows      int64  `json:"rows"`
	Attempted int64  `json:"attempted"`
	Accepted  int64  `json:"accepted"`
	Rejected  int64  `json:"rejected"`
}

// Tracker follows a batch while it runs. It is safe for concurrent use.
type Tracker struct {
	runID string

	mu    sync.RWMutex
	phase string

	rows     atomic.Int64
	accepted atomic.Int64
	rejected atomic.Int64
}

// NewTracker creates a Tracker in the starting phase.
func NewTracker(runID string) *Tracker {
	return &Tracker{runID: runID, phase: PhaseStarting}
}

// RunID returns the identifier of the tracked batch.
func (t *Tracker) RunID() string { return t.runID }

// SetPhase records the current phase.
func (t *Tracker) SetPhase(phase string) {
	t.mu.Lock()
	t.phase = phase
	t.mu.Unlock()
}

// SetRows records how many rows the batch holds.
func (t *Tracker) SetRows(n int) { t.rows.Store(int64(n)) }

func (t *Tracker) observe(accepted bool) {
	if accepted {
		t.accepted.Add(1)
		return
	}
	t.rejected.Add(1)
}

// Progress returns a snapshot.
func (t *Tracker) Progress() Progress {
	t.mu.RLock()
	phase := t.phase
	t.mu.RUnlock()

	accepted, rejected := t.accepted.Load(), t.rejected.Load()
	return Progress{
		RunID:     t.runID,
		Phase:     phase,
		Rows:      t.rows.Load(),
		Attempted: accepted + rejected,
		Accepted:  accepted,
		Rejected:  rejected,
	}
}
