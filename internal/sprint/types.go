package sprint

import (
	"fmt"
	"time"
)

// State is the lifecycle state of a sprint: Future -> Active -> Closed.
type State string

const (
	StateFuture State = "FUTURE"
	StateActive State = "ACTIVE"
	StateClosed State = "CLOSED"
)

// ParseState validates a raw tracker state string at the boundary.
func ParseState(s string) (State, error) {
	switch State(s) {
	case StateFuture, StateActive, StateClosed:
		return State(s), nil
	}
	return "", fmt.Errorf("unknown sprint state %q", s)
}

// AbridgedSprint is the summary record produced by listing a team's
// sprints. It is ephemeral: refreshed on every listing call, never cached.
type AbridgedSprint struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	State    State  `json:"state"`
	Sequence int    `json:"sequence"`

	// CompleteDate is present only once the sprint is closed.
	CompleteDate *time.Time `json:"completeDate,omitempty"`

	// Overdue is set during listing for active sprints whose elapsed
	// duration exceeds the expected maximum.
	Overdue bool `json:"overdue,omitempty"`
}

// Info carries the lifecycle dates of a detailed sprint record.
type Info struct {
	ID           int        `json:"id"`
	Name         string     `json:"name"`
	State        State      `json:"state"`
	StartDate    time.Time  `json:"startDate"`
	EndDate      time.Time  `json:"endDate"`
	CompleteDate *time.Time `json:"completeDate,omitempty"`
}

// Issue is a work item inside a sprint report bucket. An empty Assignee
// means the issue is unassigned.
type Issue struct {
	Key        string  `json:"key"`
	Summary    string  `json:"summary,omitempty"`
	Assignee   string  `json:"assignee,omitempty"`
	Status     string  `json:"status,omitempty"`
	Resolution string  `json:"resolution,omitempty"`
	Points     float64 `json:"points"`
}

// Contents groups the issue buckets and point totals of a sprint report.
// Estimate sums are normalized at the boundary: a missing total becomes 0.
type Contents struct {
	CompletedIssues                   []Issue `json:"completedIssues"`
	IssuesNotCompletedInCurrentSprint []Issue `json:"issuesNotCompletedInCurrentSprint"`
	PuntedIssues                      []Issue `json:"puntedIssues"`
	IssueKeysAddedDuringSprint        []Issue `json:"issueKeysAddedDuringSprint"`
	CompletedIssuesEstimateSum        float64 `json:"completedIssuesEstimateSum"`
	IssuesNotCompletedEstimateSum     float64 `json:"issuesNotCompletedEstimateSum"`
	PuntedIssuesEstimateSum           float64 `json:"puntedIssuesEstimateSum"`
}

// DetailedSprint is the unit of caching: one team's full record for one
// sprint. Created on first successful detailed fetch, refreshed while the
// sprint is active, immutable once closed.
//
// Overdue is meaningful only while State is Active; once closed it is
// fixed false and ActualLength is computed from CompleteDate - StartDate
// instead of now - StartDate.
type DetailedSprint struct {
	TeamID               string        `json:"team_id"`
	TeamName             string        `json:"team_name"`
	SprintID             int           `json:"sprint_id"`
	BoardID              int           `json:"board_id"`
	Sprint               Info          `json:"sprint"`
	ActualLength         time.Duration `json:"actual_length"`
	Overdue              bool          `json:"overdue"`
	StdDev               float64       `json:"std_dev"`
	ContributingDevs     []string      `json:"contributing_devs"`
	TotalCompletedPoints float64       `json:"total_completed_points"`
	Contents             Contents      `json:"contents"`
}
