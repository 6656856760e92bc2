package sprint

import (
	"sprintpulse/internal/stats"
)

// Metric keys aggregated across a team's sprint history. Point metrics
// carry estimate totals; count metrics carry issue counts.
const (
	MetricCompletedPoints    = "completedIssuesEstimateSum"
	MetricNotCompletedPoints = "issuesNotCompletedEstimateSum"
	MetricPuntedPoints       = "puntedIssuesEstimateSum"

	MetricCompletedIssues    = "completedIssues"
	MetricNotCompletedIssues = "issuesNotCompletedInCurrentSprint"
	MetricPuntedIssues       = "puntedIssues"
	MetricAddedIssues        = "issueKeysAddedDuringSprint"
)

// PointMetrics and CountMetrics define the fixed aggregation set.
var (
	PointMetrics = []string{MetricCompletedPoints, MetricNotCompletedPoints, MetricPuntedPoints}
	CountMetrics = []string{MetricCompletedIssues, MetricNotCompletedIssues, MetricPuntedIssues, MetricAddedIssues}
)

// MetricSeries is one metric's value at one sprint together with the
// running statistics over the history up to and including that sprint.
type MetricSeries struct {
	Actual     float64 `json:"actual"`
	RunningSum float64 `json:"running_sum"`
	RunningAvg float64 `json:"running_avg"`
}

// SprintAggregate holds one sprint's slice of the history.
type SprintAggregate struct {
	Info    Info                    `json:"info"`
	Metrics map[string]MetricSeries `json:"metrics"`
}

// VelocitySummary condenses completed points across the whole history.
type VelocitySummary struct {
	Average float64 `json:"avg_velocity"`
	Lowest  float64 `json:"low_velocity"`
	Highest float64 `json:"high_velocity"`
}

// History is the aggregate over a team's full ordered sprint series. The
// running statistics at position i depend only on positions 0..i in
// ascending chronological order; recomputing from the same input is
// deterministic and idempotent.
type History struct {
	AscendingOrder []int                   `json:"ascending_order"`
	Sprints        map[int]SprintAggregate `json:"sprints"`
	Velocity       VelocitySummary         `json:"velocity"`
}

// AggregateHistory computes running sums and averages for the fixed metric
// set. Records arrive in descending chronological order, as produced by
// the listing step; they are reversed internally so statistics accumulate
// oldest-to-newest.
func AggregateHistory(records []DetailedSprint) *History {
	asc := make([]DetailedSprint, len(records))
	for i, rec := range records {
		asc[len(records)-1-i] = rec
	}

	h := &History{
		AscendingOrder: make([]int, 0, len(asc)),
		Sprints:        make(map[int]SprintAggregate, len(asc)),
	}

	runningSums := make(map[string]float64)
	var velocities []float64

	for idx, rec := range asc {
		id := rec.Sprint.ID
		h.AscendingOrder = append(h.AscendingOrder, id)

		agg := SprintAggregate{
			Info:    rec.Sprint,
			Metrics: make(map[string]MetricSeries, len(PointMetrics)+len(CountMetrics)),
		}

		for _, key := range PointMetrics {
			agg.Metrics[key] = nextSeries(runningSums, key, pointValue(rec, key), idx)
		}
		for _, key := range CountMetrics {
			agg.Metrics[key] = nextSeries(runningSums, key, countValue(rec, key), idx)
		}

		velocities = append(velocities, pointValue(rec, MetricCompletedPoints))
		h.Sprints[id] = agg
	}

	if len(velocities) > 0 {
		lo, hi := stats.MinMax(velocities)
		h.Velocity = VelocitySummary{
			Average: stats.Mean(velocities),
			Lowest:  lo,
			Highest: hi,
		}
	}

	return h
}

func nextSeries(runningSums map[string]float64, key string, actual float64, idx int) MetricSeries {
	sum := runningSums[key] + actual
	runningSums[key] = sum
	return MetricSeries{
		Actual:     actual,
		RunningSum: sum,
		RunningAvg: sum / float64(idx+1),
	}
}

func pointValue(rec DetailedSprint, key string) float64 {
	switch key {
	case MetricCompletedPoints:
		return rec.Contents.CompletedIssuesEstimateSum
	case MetricNotCompletedPoints:
		return rec.Contents.IssuesNotCompletedEstimateSum
	case MetricPuntedPoints:
		return rec.Contents.PuntedIssuesEstimateSum
	}
	return 0
}

func countValue(rec DetailedSprint, key string) float64 {
	switch key {
	case MetricCompletedIssues:
		return float64(len(rec.Contents.CompletedIssues))
	case MetricNotCompletedIssues:
		return float64(len(rec.Contents.IssuesNotCompletedInCurrentSprint))
	case MetricPuntedIssues:
		return float64(len(rec.Contents.PuntedIssues))
	case MetricAddedIssues:
		return float64(len(rec.Contents.IssueKeysAddedDuringSprint))
	}
	return 0
}
