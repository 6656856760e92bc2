// Package defect retrieves defect analytics over a lookback window,
// comparing the current period against the one before it.
package defect

import (
	"context"
	"fmt"
	"time"

	"sprintpulse/internal/docstore"
	"sprintpulse/internal/fetch"
	"sprintpulse/internal/tracker"
)

// DefaultLookbackDays is the analysis window when none is requested.
const DefaultLookbackDays = 14

const cacheKind = "defects"

// Params selects the lookback window in days. Zero means the default.
type Params struct {
	LookbackDays int
}

// Defect is one defect issue in a period.
type Defect struct {
	Key      string `json:"key"`
	Summary  string `json:"summary"`
	Assignee string `json:"assignee,omitempty"`
	Status   string `json:"status"`
	Priority string `json:"priority,omitempty"`
	Severity string `json:"severity,omitempty"`
}

// Report compares the current lookback period with the previous one,
// grouped by severity and priority.
type Report struct {
	LookbackDays       int                 `json:"lookback_days"`
	Current            []Defect            `json:"current_period"`
	Previous           []Defect            `json:"previous_period"`
	BySeverityCurrent  map[string][]string `json:"grouped_by_severity_current"`
	BySeverityPrevious map[string][]string `json:"grouped_by_severity_previous"`
	ByPriorityCurrent  map[string][]string `json:"grouped_by_priority_current"`
	ByPriorityPrevious map[string][]string `json:"grouped_by_priority_previous"`
}

// Fetcher implements fetch.Source[Params, *Report] over the tracker, with
// results cached in the document store for TTL.
type Fetcher struct {
	client tracker.Client
	store  *docstore.Store
	ttl    time.Duration
}

var _ fetch.Source[Params, *Report] = (*Fetcher)(nil)

// NewFetcher creates a defect fetcher; ttl <= 0 defaults to two hours.
func NewFetcher(client tracker.Client, store *docstore.Store, ttl time.Duration) *Fetcher {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &Fetcher{client: client, store: store, ttl: ttl}
}

func (f *Fetcher) Validate(p Params) error {
	if p.LookbackDays < 0 {
		return fmt.Errorf("%w: lookback days must not be negative", fetch.ErrInvalidParameters)
	}
	return nil
}

func (f *Fetcher) Key(p Params) string {
	return fmt.Sprintf("defects:%d", days(p))
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
	lookback := days(p)

	current, err := f.search(fmt.Sprintf("issuetype = Defect AND created >= -%dd", lookback))
	if err != nil {
		return nil, err
	}
	previous, err := f.search(fmt.Sprintf("issuetype = Defect AND created >= -%dd AND created < -%dd", 2*lookback, lookback))
	if err != nil {
		return nil, err
	}

	return &Report{
		LookbackDays:       lookback,
		Current:            current,
		Previous:           previous,
		BySeverityCurrent:  groupBy(current, func(d Defect) string { return d.Severity }),
		BySeverityPrevious: groupBy(previous, func(d Defect) string { return d.Severity }),
		ByPriorityCurrent:  groupBy(current, func(d Defect) string { return d.Priority }),
		ByPriorityPrevious: groupBy(previous, func(d Defect) string { return d.Priority }),
	}, nil
}

func (f *Fetcher) search(jql string) ([]Defect, error) {
	found, err := f.client.SearchIssues(jql)
	if err != nil {
		return nil, fmt.Errorf("%w: defect query: %v", fetch.ErrSourceUnavailable, err)
	}

	defects := make([]Defect, 0, len(found))
	for _, d := range found {
		defects = append(defects, Defect{
			Key:      d.Key,
			Summary:  d.Fields.Summary,
			Assignee: d.Fields.Assignee.Name,
			Status:   d.Fields.Status.Name,
			Priority: d.Fields.Priority.Name,
			Severity: d.Fields.Severity.Value,
		})
	}
	return defects, nil
}

func groupBy(defects []Defect, by func(Defect) string) map[string][]string {
	groups := make(map[string][]string)
	for _, d := range defects {
		group := by(d)
		if group == "" {
			group = "unspecified"
		}
		groups[group] = append(groups[group], d.Key)
	}
	return groups
}

func days(p Params) int {
	if p.LookbackDays == 0 {
		return DefaultLookbackDays
	}
	return p.LookbackDays
}
