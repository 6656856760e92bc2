package tracker

import "time"

// SprintListResponse is the top-level container for a board's sprint listing.
type SprintListResponse struct {
	Sprints []SprintDTO `json:"sprints"`
}

// SprintDTO is the abridged sprint record returned by the listing endpoint.
type SprintDTO struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	State        string `json:"state"`
	Sequence     int    `json:"sequence"`
	StartDate    string `json:"startDate,omitempty"`
	CompleteDate string `json:"completeDate,omitempty"`
}

// SprintReportDTO is the detailed sprint report payload.
type SprintReportDTO struct {
	Sprint   SprintDetailDTO `json:"sprint"`
	Contents ContentsDTO     `json:"contents"`
}

// SprintDetailDTO carries the sprint's lifecycle dates as raw strings.
// Parsing happens at the domain boundary so a malformed optional date can
// degrade to nil instead of failing the whole payload.
type SprintDetailDTO struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	State        string `json:"state"`
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`
	CompleteDate string `json:"completeDate,omitempty"`
}

// ContentsDTO groups the issue buckets of a sprint report.
type ContentsDTO struct {
	CompletedIssues                   []ReportIssueDTO `json:"completedIssues"`
	IssuesNotCompletedInCurrentSprint []ReportIssueDTO `json:"issuesNotCompletedInCurrentSprint"`
	PuntedIssues                      []ReportIssueDTO `json:"puntedIssues"`
	IssueKeysAddedDuringSprint        map[string]bool  `json:"issueKeysAddedDuringSprint"`
	CompletedIssuesEstimateSum        EstimateSumDTO   `json:"completedIssuesEstimateSum"`
	IssuesNotCompletedEstimateSum     EstimateSumDTO   `json:"issuesNotCompletedEstimateSum"`
	PuntedIssuesEstimateSum           EstimateSumDTO   `json:"puntedIssuesEstimateSum"`
}

// EstimateSumDTO wraps a point total. The tracker reports the literal text
// "null" when a sprint has no estimated issues in the bucket.
type EstimateSumDTO struct {
	Text string `json:"text"`
}

// ReportIssueDTO is a single issue inside a sprint report bucket.
type ReportIssueDTO struct {
	Key               string               `json:"key"`
	Summary           string               `json:"summary,omitempty"`
	Assignee          string               `json:"assignee,omitempty"`
	Status            string               `json:"statusName,omitempty"`
	EstimateStatistic EstimateStatisticDTO `json:"currentEstimateStatistic"`
}

// EstimateStatisticDTO carries the point value of a report issue.
type EstimateStatisticDTO struct {
	StatFieldValue struct {
		Value float64 `json:"value"`
	} `json:"statFieldValue"`
}

// Points returns the issue's point value, 0 when unestimated.
func (i ReportIssueDTO) Points() float64 {
	return i.EstimateStatistic.StatFieldValue.Value
}

// SearchResponse is the top-level container for JQL search results.
type SearchResponse struct {
	Total  int        `json:"total"`
	Issues []IssueDTO `json:"issues"`
}

// IssueDTO represents a single issue in a JQL search response.
type IssueDTO struct {
	Key    string    `json:"key"`
	Fields FieldsDTO `json:"fields"`
}

// FieldsDTO contains the specific issue fields we care about.
type FieldsDTO struct {
	Summary  string `json:"summary"`
	Assignee struct {
		Name string `json:"name"`
	} `json:"assignee"`
	Status struct {
		Name string `json:"name"`
	} `json:"status"`
	Resolution struct {
		Name string `json:"name"`
	} `json:"resolution"`
	Priority struct {
		Name string `json:"name"`
	} `json:"priority"`
	Severity struct {
		Value string `json:"value"`
	} `json:"customfield_10300"`
	Points  float64 `json:"customfield_10002"`
	Created string  `json:"created"`
	Updated string  `json:"updated"`
}

// ParseTime is a helper for the strict tracker time format.
func ParseTime(s string) (time.Time, error) {
	return time.Parse("2006-01-02T15:04:05.000-0700", s)
}
