package tracker

import (
	"time"
)

// Client is the interface for interacting with the issue tracker's Agile API.
// All calls are synchronous and unretried; retry policy belongs to the caller.
type Client interface {
	// ListSprints returns the abridged sprint listing for a board. The
	// listing is always fetched fresh; abridged records are never cached.
	ListSprints(boardID int) ([]SprintDTO, error)

	// GetSprintReport returns the detailed report payload for one sprint.
	GetSprintReport(boardID int, sprintID int) (*SprintReportDTO, error)

	// SearchIssues runs a JQL query and returns the matching issues.
	SearchIssues(jql string) ([]IssueDTO, error)
}

// Config holds the authentication and connection settings for the tracker.
type Config struct {
	BaseURL string

	// Personal Access Token (preferred)
	Token string

	// Data Center session cookies (fallback)
	XsrfToken  string
	SessionID  string
	RememberMe string

	// Performance settings
	RequestDelay time.Duration
}

// NewClient creates a new tracker client based on the provided configuration.
func NewClient(cfg Config) Client {
	return newRestClient(cfg)
}
