package sprint

import (
	"fmt"
	"strconv"
	"time"

	"sprintpulse/internal/tracker"

	"github.com/rs/zerolog/log"
)

// mapAbridged validates one listing entry into a domain record. The
// overdue flag is derived here: an active sprint whose elapsed duration
// exceeds overdueAfter should have been closed already.
func mapAbridged(dto tracker.SprintDTO, now time.Time, overdueAfter time.Duration) (AbridgedSprint, error) {
	state, err := ParseState(dto.State)
	if err != nil {
		return AbridgedSprint{}, fmt.Errorf("sprint %d: %w", dto.ID, err)
	}

	s := AbridgedSprint{
		ID:       dto.ID,
		Name:     dto.Name,
		State:    state,
		Sequence: dto.Sequence,
	}

	if dto.CompleteDate != "" {
		if t, err := tracker.ParseTime(dto.CompleteDate); err == nil {
			s.CompleteDate = &t
		}
	}

	if state == StateActive && dto.StartDate != "" {
		if t, err := tracker.ParseTime(dto.StartDate); err == nil {
			s.Overdue = now.Sub(t) > overdueAfter
		}
	}

	return s, nil
}

// mapInfo converts the detailed report's sprint block. Start and end dates
// are required; a malformed complete date degrades to nil.
func mapInfo(dto tracker.SprintDetailDTO) (Info, error) {
	state, err := ParseState(dto.State)
	if err != nil {
		return Info{}, fmt.Errorf("sprint %d: %w", dto.ID, err)
	}

	start, err := tracker.ParseTime(dto.StartDate)
	if err != nil {
		return Info{}, fmt.Errorf("sprint %d: bad start date %q: %w", dto.ID, dto.StartDate, err)
	}
	end, err := tracker.ParseTime(dto.EndDate)
	if err != nil {
		return Info{}, fmt.Errorf("sprint %d: bad end date %q: %w", dto.ID, dto.EndDate, err)
	}

	info := Info{
		ID:        dto.ID,
		Name:      dto.Name,
		State:     state,
		StartDate: start,
		EndDate:   end,
	}

	if dto.CompleteDate != "" {
		if t, err := tracker.ParseTime(dto.CompleteDate); err == nil {
			info.CompleteDate = &t
		} else {
			log.Warn().Int("sprint", dto.ID).Str("completeDate", dto.CompleteDate).Msg("Discarding unparsable complete date")
		}
	}

	return info, nil
}

func mapReportIssues(dtos []tracker.ReportIssueDTO) []Issue {
	issues := make([]Issue, 0, len(dtos))
	for _, d := range dtos {
		issues = append(issues, Issue{
			Key:      d.Key,
			Summary:  d.Summary,
			Assignee: d.Assignee,
			Status:   d.Status,
			Points:   d.Points(),
		})
	}
	return issues
}

func mapSearchIssues(dtos []tracker.IssueDTO) []Issue {
	issues := make([]Issue, 0, len(dtos))
	for _, d := range dtos {
		issues = append(issues, Issue{
			Key:        d.Key,
			Summary:    d.Fields.Summary,
			Assignee:   d.Fields.Assignee.Name,
			Status:     d.Fields.Status.Name,
			Resolution: d.Fields.Resolution.Name,
			Points:     d.Fields.Points,
		})
	}
	return issues
}

// estimateSum normalizes a report point total. The tracker reports the
// literal text "null" when the bucket has no estimated issues.
func estimateSum(dto tracker.EstimateSumDTO) float64 {
	if dto.Text == "" || dto.Text == "null" {
		return 0
	}
	v, err := strconv.ParseFloat(dto.Text, 64)
	if err != nil {
		log.Warn().Str("text", dto.Text).Msg("Discarding unparsable estimate sum")
		return 0
	}
	return v
}
