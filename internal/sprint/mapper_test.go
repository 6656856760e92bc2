package sprint

import (
	"testing"
	"time"

	"sprintpulse/internal/tracker"
)

func TestEstimateSum(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected float64
	}{
		{"Empty", "", 0},
		{"NullText", "null", 0},
		{"Numeric", "12.5", 12.5},
		{"Garbage", "a lot", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := estimateSum(tracker.EstimateSumDTO{Text: tt.text}); got != tt.expected {
				t.Errorf("estimateSum(%q) = %v, want %v", tt.text, got, tt.expected)
			}
		})
	}
}

func TestMapAbridged(t *testing.T) {
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	at := func(days int) string { return now.AddDate(0, 0, days).Format(trackerTimeFormat) }

	t.Run("UnknownState", func(t *testing.T) {
		_, err := mapAbridged(tracker.SprintDTO{ID: 1, State: "PAUSED"}, now, DefaultOverdueAfter)
		if err == nil {
			t.Error("mapAbridged() with unknown state succeeded, want error")
		}
	})

	t.Run("ActiveOverdue", func(t *testing.T) {
		s, err := mapAbridged(tracker.SprintDTO{ID: 1, State: "ACTIVE", StartDate: at(-20)}, now, DefaultOverdueAfter)
		if err != nil {
			t.Fatalf("mapAbridged() error = %v", err)
		}
		if !s.Overdue {
			t.Error("sprint running for 20 days must be overdue")
		}
	})

	t.Run("ActiveOnSchedule", func(t *testing.T) {
		s, err := mapAbridged(tracker.SprintDTO{ID: 1, State: "ACTIVE", StartDate: at(-3)}, now, DefaultOverdueAfter)
		if err != nil {
			t.Fatalf("mapAbridged() error = %v", err)
		}
		if s.Overdue {
			t.Error("sprint running for 3 days must not be overdue")
		}
	})

	t.Run("ClosedWithCompleteDate", func(t *testing.T) {
		s, err := mapAbridged(tracker.SprintDTO{ID: 1, State: "CLOSED", CompleteDate: at(-8)}, now, DefaultOverdueAfter)
		if err != nil {
			t.Fatalf("mapAbridged() error = %v", err)
		}
		if s.CompleteDate == nil || !s.CompleteDate.Equal(now.AddDate(0, 0, -8)) {
			t.Errorf("CompleteDate = %v, want eight days ago", s.CompleteDate)
		}
		if s.Overdue {
			t.Error("closed sprint must not be overdue")
		}
	})
}

func TestMapInfo(t *testing.T) {
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	at := func(days int) string { return now.AddDate(0, 0, days).Format(trackerTimeFormat) }

	t.Run("BadStartDate", func(t *testing.T) {
		_, err := mapInfo(tracker.SprintDetailDTO{ID: 1, State: "CLOSED", StartDate: "soon", EndDate: at(0)})
		if err == nil {
			t.Error("mapInfo() with bad start date succeeded, want error")
		}
	})

	t.Run("MalformedCompleteDateDegrades", func(t *testing.T) {
		info, err := mapInfo(tracker.SprintDetailDTO{
			ID:           1,
			State:        "CLOSED",
			StartDate:    at(-14),
			EndDate:      at(0),
			CompleteDate: "eventually",
		})
		if err != nil {
			t.Fatalf("mapInfo() error = %v", err)
		}
		if info.CompleteDate != nil {
			t.Errorf("CompleteDate = %v, want nil for a malformed value", info.CompleteDate)
		}
	})
}
