// Package metrics records AI-assist call outcomes in a bounded
// in-memory log. History is process-local and lost on restart.
package metrics

import (
	"sync"
	"time"
)

// Operation tags for recorded metrics.
const (
	OpAssignPriority   = "assignPriority"
	OpAssignTechnician = "assignTechnician"
	OpPredictSLABreach = "predictSLABreach"
)

// maxHistory caps the metric log; the oldest entries are evicted first.
const maxHistory = 10000

// Metric is one AI-assist call outcome. Timestamp is stamped by the
// recorder; RequestID is 0 when the call was not tied to a request.
type Metric struct {
	Operation    string        `json:"operation"`
	Success      bool          `json:"success"`
	ResponseTime time.Duration `json:"responseTime"`
	Timestamp    time.Time     `json:"timestamp"`
	RequestID    uint          `json:"requestId,omitempty"`
	FallbackUsed bool          `json:"fallbackUsed,omitempty"`
	Error        string        `json:"error,omitempty"`
}

// OperationSnapshot aggregates metrics for a single operation.
// FallbackRate is only set for assignPriority; the other operations
// have no fallback path.
type OperationSnapshot struct {
	Total               int           `json:"total"`
	Successful          int           `json:"successful"`
	Failed              int           `json:"failed"`
	AverageResponseTime time.Duration `json:"averageResponseTime"`
	FallbackRate        *float64      `json:"fallbackRate,omitempty"`
}

// Snapshot aggregates all recorded metrics.
type Snapshot struct {
	TotalCalls          int                          `json:"totalCalls"`
	SuccessfulCalls     int                          `json:"successfulCalls"`
	FailedCalls         int                          `json:"failedCalls"`
	AverageResponseTime time.Duration                `json:"averageResponseTime"`
	FallbackUsageRate   float64                      `json:"fallbackUsageRate"`
	Operations          map[string]OperationSnapshot `json:"operations"`
}

// Recorder is a mutex-guarded bounded FIFO log of AI-assist metrics.
// Safe for concurrent use; construct one per process and share it.
type Recorder struct {
	mu      sync.Mutex
	entries []Metric
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Record appends a timestamped metric, evicting the oldest entries
// when the log exceeds its cap.
func (r *Recorder) Record(m Metric) {
	m.Timestamp = time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, m)
	if len(r.entries) > maxHistory {
		r.entries = r.entries[len(r.entries)-maxHistory:]
	}
}

// Snapshot returns aggregate counts across all operations.
func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Snapshot{
		Operations: map[string]OperationSnapshot{
			OpAssignPriority:   r.operationLocked(OpAssignPriority),
			OpAssignTechnician: r.operationLocked(OpAssignTechnician),
			OpPredictSLABreach: r.operationLocked(OpPredictSLABreach),
		},
	}

	var totalTime time.Duration
	var fallbacks int
	for _, m := range r.entries {
		s.TotalCalls++
		if m.Success {
			s.SuccessfulCalls++
		} else {
			s.FailedCalls++
		}
		if m.FallbackUsed {
			fallbacks++
		}
		totalTime += m.ResponseTime
	}
	if s.TotalCalls > 0 {
		s.AverageResponseTime = totalTime / time.Duration(s.TotalCalls)
		s.FallbackUsageRate = float64(fallbacks) / float64(s.TotalCalls)
	}
	return s
}

// Operation returns aggregates scoped to one operation tag.
func (r *Recorder) Operation(op string) OperationSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.operationLocked(op)
}

func (r *Recorder) operationLocked(op string) OperationSnapshot {
	var s OperationSnapshot
	var totalTime time.Duration
	var fallbacks int

	for _, m := range r.entries {
		if m.Operation != op {
			continue
		}
		s.Total++
		if m.Success {
			s.Successful++
		} else {
			s.Failed++
		}
		if m.FallbackUsed {
			fallbacks++
		}
		totalTime += m.ResponseTime
	}

	if s.Total > 0 {
		s.AverageResponseTime = totalTime / time.Duration(s.Total)
	}
	if op == OpAssignPriority {
		rate := 0.0
		if s.Total > 0 {
			rate = float64(fallbacks) / float64(s.Total)
		}
		s.FallbackRate = &rate
	}
	return s
}

// ClearOld truncates the log to the most recent keepLast entries.
// No-op if the log is already within bounds.
func (r *Recorder) ClearOld(keepLast int) {
	if keepLast < 0 {
		keepLast = 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.entries) > keepLast {
		r.entries = r.entries[len(r.entries)-keepLast:]
	}
}

// Recent returns a copy of the last count entries, oldest first.
func (r *Recorder) Recent(count int) []Metric {
	if count < 0 {
		count = 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	start := len(r.entries) - count
	if start < 0 {
		start = 0
	}
	out := make([]Metric, len(r.entries)-start)
	copy(out, r.entries[start:])
	return out
}

// Len returns the number of entries currently held.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
