package sprint

import (
	"testing"
	"time"
)

func TestCachePolicyUsable(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	policy := NewCachePolicy(0)

	record := func(state State, completedDaysAgo int) *DetailedSprint {
		rec := &DetailedSprint{Sprint: Info{State: state}}
		if completedDaysAgo >= 0 {
			d := now.AddDate(0, 0, -completedDaysAgo)
			rec.Sprint.CompleteDate = &d
		}
		return rec
	}

	tests := []struct {
		name     string
		rec      *DetailedSprint
		expected bool
	}{
		{"Nil", nil, false},
		{"Active", record(StateActive, -1), false},
		{"Future", record(StateFuture, -1), false},
		{"ClosedNoCompleteDate", record(StateClosed, -1), false},
		{"ClosedInsideGrace", record(StateClosed, 2), false},
		{"ClosedAtGraceBoundary", record(StateClosed, 6), false},
		{"ClosedPastGrace", record(StateClosed, 7), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := policy.Usable(tt.rec, now); got != tt.expected {
				t.Errorf("Usable() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestNewCachePolicyDefaults(t *testing.T) {
	if p := NewCachePolicy(0); p.ClosedGrace != DefaultClosedGrace {
		t.Errorf("NewCachePolicy(0).ClosedGrace = %v, want %v", p.ClosedGrace, DefaultClosedGrace)
	}
	if p := NewCachePolicy(48 * time.Hour); p.ClosedGrace != 48*time.Hour {
		t.Errorf("NewCachePolicy(48h).ClosedGrace = %v, want 48h", p.ClosedGrace)
	}
}
