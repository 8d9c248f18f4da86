package metrics

import (
	"fmt"
	"testing"
	"time"
)

func TestRecord_EvictsOldestBeyondCap(t *testing.T) {
	r := NewRecorder()
	for i := 0; i < maxHistory+50; i++ {
		r.Record(Metric{
			Operation: OpAssignPriority,
			Success:   true,
			RequestID: uint(i + 1),
		})
	}

	if got := r.Len(); got != maxHistory {
		t.Fatalf("Len() = %d, want %d", got, maxHistory)
	}

	// The oldest 50 entries (request IDs 1..50) must be gone.
	recent := r.Recent(maxHistory)
	if got := recent[0].RequestID; got != 51 {
		t.Errorf("oldest surviving RequestID = %d, want 51", got)
	}
	if got := recent[len(recent)-1].RequestID; got != maxHistory+50 {
		t.Errorf("newest RequestID = %d, want %d", got, maxHistory+50)
	}
}

func TestOperation_FallbackRateOnlyForAssignPriority(t *testing.T) {
	r := NewRecorder()
	r.Record(Metric{Operation: OpAssignPriority, Success: true, FallbackUsed: true})
	r.Record(Metric{Operation: OpAssignPriority, Success: true})
	r.Record(Metric{Operation: OpAssignPriority, Success: true, FallbackUsed: true})
	r.Record(Metric{Operation: OpAssignPriority, Success: true})
	r.Record(Metric{Operation: OpAssignTechnician, Success: true})
	r.Record(Metric{Operation: OpPredictSLABreach, Success: false, Error: "boom"})

	prio := r.Operation(OpAssignPriority)
	if prio.Total != 4 {
		t.Fatalf("assignPriority total = %d, want 4", prio.Total)
	}
	if prio.FallbackRate == nil {
		t.Fatal("assignPriority FallbackRate is nil")
	}
	if *prio.FallbackRate != 0.5 {
		t.Errorf("assignPriority FallbackRate = %v, want 0.5", *prio.FallbackRate)
	}

	tech := r.Operation(OpAssignTechnician)
	if tech.FallbackRate != nil {
		t.Errorf("assignTechnician FallbackRate = %v, want nil", *tech.FallbackRate)
	}

	pred := r.Operation(OpPredictSLABreach)
	if pred.FallbackRate != nil {
		t.Errorf("predictSLABreach FallbackRate = %v, want nil", *pred.FallbackRate)
	}
	if pred.Failed != 1 {
		t.Errorf("predictSLABreach failed = %d, want 1", pred.Failed)
	}
}

func TestSnapshot_Aggregates(t *testing.T) {
	r := NewRecorder()
	r.Record(Metric{Operation: OpAssignPriority, Success: true, ResponseTime: 100 * time.Millisecond})
	r.Record(Metric{Operation: OpAssignTechnician, Success: true, ResponseTime: 300 * time.Millisecond})
	r.Record(Metric{Operation: OpPredictSLABreach, Success: false, ResponseTime: 200 * time.Millisecond})

	s := r.Snapshot()
	if s.TotalCalls != 3 {
		t.Fatalf("TotalCalls = %d, want 3", s.TotalCalls)
	}
	if s.SuccessfulCalls != 2 || s.FailedCalls != 1 {
		t.Errorf("success/failed = %d/%d, want 2/1", s.SuccessfulCalls, s.FailedCalls)
	}
	if s.AverageResponseTime != 200*time.Millisecond {
		t.Errorf("AverageResponseTime = %v, want 200ms", s.AverageResponseTime)
	}
	if len(s.Operations) != 3 {
		t.Errorf("Operations has %d entries, want 3", len(s.Operations))
	}
}

func TestSnapshot_Empty(t *testing.T) {
	s := NewRecorder().Snapshot()
	if s.TotalCalls != 0 {
		t.Errorf("TotalCalls = %d, want 0", s.TotalCalls)
	}
	if s.FallbackUsageRate != 0 {
		t.Errorf("FallbackUsageRate = %v, want 0", s.FallbackUsageRate)
	}
}

func TestClearOld(t *testing.T) {
	r := NewRecorder()
	for i := 0; i < 100; i++ {
		r.Record(Metric{Operation: OpAssignPriority, Success: true, RequestID: uint(i + 1)})
	}

	r.ClearOld(10)
	if got := r.Len(); got != 10 {
		t.Fatalf("Len() after ClearOld(10) = %d, want 10", got)
	}
	recent := r.Recent(10)
	if recent[0].RequestID != 91 {
		t.Errorf("oldest surviving RequestID = %d, want 91", recent[0].RequestID)
	}

	// Already within bounds: no-op.
	r.ClearOld(50)
	if got := r.Len(); got != 10 {
		t.Errorf("Len() after ClearOld(50) = %d, want 10", got)
	}
}

func TestRecent_CopiesAndOrders(t *testing.T) {
	r := NewRecorder()
	for i := 0; i < 5; i++ {
		r.Record(Metric{Operation: OpAssignPriority, Error: fmt.Sprintf("e%d", i)})
	}

	got := r.Recent(3)
	if len(got) != 3 {
		t.Fatalf("Recent(3) returned %d entries", len(got))
	}
	if got[0].Error != "e2" || got[2].Error != "e4" {
		t.Errorf("Recent(3) order wrong: first=%q last=%q", got[0].Error, got[2].Error)
	}

	// Mutating the copy must not affect the recorder.
	got[0].Error = "mutated"
	if r.Recent(3)[0].Error != "e2" {
		t.Error("Recent() returned a view into internal state")
	}

	if n := len(r.Recent(100)); n != 5 {
		t.Errorf("Recent(100) returned %d entries, want 5", n)
	}
}

func TestRecord_StampsTimestamp(t *testing.T) {
	r := NewRecorder()
	before := time.Now()
	r.Record(Metric{Operation: OpAssignPriority})
	got := r.Recent(1)[0].Timestamp
	if got.Before(before) || got.After(time.Now()) {
		t.Errorf("Timestamp %v outside expected range", got)
	}
}
