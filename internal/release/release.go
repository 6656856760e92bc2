// Package release retrieves the issues released within a date window.
package release

import (
	"context"
	"fmt"
	"time"

	"sprintpulse/internal/docstore"
	"sprintpulse/internal/fetch"
	"sprintpulse/internal/tracker"
)

const cacheKind = "releases"

// Params selects the release window. Both zero: yesterday. Start set, End
// zero: the rest of that day.
type Params struct {
	Start time.Time
	End   time.Time
}

// Issue is one released work item.
type Issue struct {
	Key        string `json:"key"`
	Summary    string `json:"summary"`
	Assignee   string `json:"assignee,omitempty"`
	Status     string `json:"status"`
	Resolution string `json:"resolution,omitempty"`
}

// Report is the release pipeline for one window.
type Report struct {
	Start  time.Time `json:"release_date_start"`
	End    time.Time `json:"release_date_end"`
	Issues []Issue   `json:"issues"`
}

// Fetcher implements fetch.Source[Params, *Report] over the tracker, with
// results cached in the document store for TTL.
type Fetcher struct {
	client tracker.Client
	store  *docstore.Store
	ttl    time.Duration
	now    func() time.Time
}

var _ fetch.Source[Params, *Report] = (*Fetcher)(nil)

// NewFetcher creates a release fetcher; ttl <= 0 defaults to one hour.
func NewFetcher(client tracker.Client, store *docstore.Store, ttl time.Duration) *Fetcher {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Fetcher{client: client, store: store, ttl: ttl, now: time.Now}
}

func (f *Fetcher) Validate(p Params) error {
	if !p.Start.IsZero() && !p.End.IsZero() && p.End.Before(p.Start) {
		return fmt.Errorf("%w: release window end precedes start", fetch.ErrInvalidParameters)
	}
	return nil
}

func (f *Fetcher) Key(p Params) string {
	start, end := f.window(p)
	return fmt.Sprintf("releases:%s:%s", start.Format("2006-01-02"), end.Format("2006-01-02"))
}

func (f *Fetcher) FromCache(p Params) (*Report, bool, error) {
	var rep Report
	err := f.store.GetFresh(context.Background(), cacheKind, f.Key(p), f.ttl, &rep)
	if err == docstore.ErrNoDocument {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &rep, true, nil
}

func (f *Fetcher) Store(p Params, r *Report) error {
	return f.store.Put(context.Background(), cacheKind, f.Key(p), r)
}

func (f *Fetcher) Retrieve(p Params) (*Report, error) {
	start, end := f.window(p)

	jql := fmt.Sprintf(`resolution = Deployed AND resolutiondate >= "%s" AND resolutiondate <= "%s"`,
		start.Format("2006-01-02 15:04"), end.Format("2006-01-02 15:04"))
	found, err := f.client.SearchIssues(jql)
	if err != nil {
		return nil, fmt.Errorf("%w: release query: %v", fetch.ErrSourceUnavailable, err)
	}

	issues := make([]Issue, 0, len(found))
	for _, d := range found {
		issues = append(issues, Issue{
			Key:        d.Key,
			Summary:    d.Fields.Summary,
			Assignee:   d.Fields.Assignee.Name,
			Status:     d.Fields.Status.Name,
			Resolution: d.Fields.Resolution.Name,
		})
	}

	return &Report{Start: start, End: end, Issues: issues}, nil
}

// window applies the defaulting rules: no start means yesterday, a start
// without an end means the remainder of that day.
func (f *Fetcher) window(p Params) (time.Time, time.Time) {
	start, end := p.Start, p.End
	if start.IsZero() {
		y := f.now().AddDate(0, 0, -1)
		start = time.Date(y.Year(), y.Month(), y.Day(), 0, 0, 0, 0, y.Location())
		end = start.AddDate(0, 0, 1).Add(-time.Second)
	} else if end.IsZero() {
		end = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location()).
			AddDate(0, 0, 1).Add(-time.Second)
	}
	return start, end
}
