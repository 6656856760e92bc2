package sprint

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"sprintpulse/internal/docstore"
	"sprintpulse/internal/fetch"
	"sprintpulse/internal/roster"
	"sprintpulse/internal/stats"
	"sprintpulse/internal/tracker"

	"github.com/rs/zerolog/log"
)

// DefaultOverdueAfter is the elapsed duration after which an active sprint
// is considered overdue.
const DefaultOverdueAfter = 16 * 24 * time.Hour

const cacheKind = "sprint"

// Params selects what sprint data to fetch. An empty TeamID with a
// symbolic reference requests the per-team summary across all teams.
type Params struct {
	TeamID  string
	Ref     Ref
	History bool

	// Force bypasses cached sprint records; fresh records are still stored.
	Force bool
}

// TeamHistory is the full ordered series for one team plus its running
// aggregates.
type TeamHistory struct {
	Sprints   []DetailedSprint `json:"sprint_data"`
	Aggregate *History         `json:"aggregate_data"`
}

// TeamSummary is the per-team outcome of an all-teams fetch.
type TeamSummary struct {
	TeamID    string `json:"team_id"`
	NumIssues int    `json:"num_issues"`
	Success   bool   `json:"success"`
}

// Result is the union of the three fetch modes; exactly one field is set.
type Result struct {
	Sprint  *DetailedSprint `json:"sprint,omitempty"`
	History *TeamHistory    `json:"history,omitempty"`
	Teams   []TeamSummary   `json:"teams,omitempty"`
}

// Options tunes a Fetcher. Zero values fall back to defaults.
type Options struct {
	ClosedGrace  time.Duration
	OverdueAfter time.Duration
	Now          func() time.Time
}

// Fetcher retrieves detailed sprint records for teams, caching per-sprint
// documents in the store. It implements fetch.Source[Params, *Result].
//
// A Fetcher memoizes team listings for its own lifetime so a history fetch
// lists each board once; create one per request scope.
type Fetcher struct {
	client       tracker.Client
	store        *docstore.Store
	rosters      *roster.Catalog
	policy       CachePolicy
	overdueAfter time.Duration
	now          func() time.Time

	mu       sync.Mutex
	listings map[string][]AbridgedSprint
}

var _ fetch.Source[Params, *Result] = (*Fetcher)(nil)

// NewFetcher creates a sprint fetcher over the given collaborators.
func NewFetcher(client tracker.Client, store *docstore.Store, rosters *roster.Catalog, opts Options) *Fetcher {
	if opts.OverdueAfter <= 0 {
		opts.OverdueAfter = DefaultOverdueAfter
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Fetcher{
		client:       client,
		store:        store,
		rosters:      rosters,
		policy:       NewCachePolicy(opts.ClosedGrace),
		overdueAfter: opts.OverdueAfter,
		now:          opts.Now,
		listings:     make(map[string][]AbridgedSprint),
	}
}

// Validate rejects contradictory parameter combinations before any
// external call is made.
func (f *Fetcher) Validate(p Params) error {
	if p.TeamID == "" && p.Ref.Concrete() {
		return fmt.Errorf("%w: a specific sprint can only be requested together with a team", fetch.ErrInvalidParameters)
	}
	if p.History && p.Ref.Concrete() {
		return fmt.Errorf("%w: history returns the full sprint series and cannot be combined with a specific sprint", fetch.ErrInvalidParameters)
	}
	if p.History && p.TeamID == "" {
		return fmt.Errorf("%w: history requires a team", fetch.ErrInvalidParameters)
	}
	return nil
}

// Key identifies the request for singleflight collapsing.
func (f *Fetcher) Key(p Params) string {
	return fmt.Sprintf("sprint:%s:%s:%t:%t", p.TeamID, p.Ref, p.History, p.Force)
}

// FromCache always misses at the request level; caching happens per sprint
// record inside the detailed fetch, governed by the cache policy.
func (f *Fetcher) FromCache(p Params) (*Result, bool, error) {
	return nil, false, nil
}

// Store is a no-op at the request level; see FromCache.
func (f *Fetcher) Store(p Params, r *Result) error {
	return nil
}

// Retrieve performs the fetch for the requested mode.
func (f *Fetcher) Retrieve(p Params) (*Result, error) {
	switch {
	case p.TeamID == "":
		return f.retrieveAllTeams(p.Ref, p.Force)
	case p.History:
		return f.retrieveHistory(p.TeamID, p.Force)
	default:
		return f.retrieveSingle(p.TeamID, p.Ref, p.Force)
	}
}

func (f *Fetcher) retrieveSingle(teamID string, ref Ref, force bool) (*Result, error) {
	team, err := f.rosters.TeamByID(teamID)
	if err != nil {
		return nil, err
	}
	if team == nil {
		return nil, nil
	}

	rec, err := f.detailedForTeam(*team, ref, force)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	return &Result{Sprint: rec}, nil
}

func (f *Fetcher) retrieveHistory(teamID string, force bool) (*Result, error) {
	team, err := f.rosters.TeamByID(teamID)
	if err != nil {
		return nil, err
	}
	if team == nil {
		return nil, nil
	}

	records, err := f.detailedListForTeam(*team, force)
	if err != nil {
		return nil, err
	}

	return &Result{History: &TeamHistory{
		Sprints:   records,
		Aggregate: AggregateHistory(records),
	}}, nil
}

func (f *Fetcher) retrieveAllTeams(ref Ref, force bool) (*Result, error) {
	teams, err := f.rosters.Teams()
	if err != nil {
		return nil, err
	}

	summaries := make([]TeamSummary, 0, len(teams))
	for _, team := range teams {
		rec, err := f.detailedForTeam(team, ref, force)
		if err != nil {
			log.Warn().Err(err).Str("team", team.ID).Msg("Skipping team in all-teams sprint fetch")
			summaries = append(summaries, TeamSummary{TeamID: team.ID})
			continue
		}
		summary := TeamSummary{TeamID: team.ID, Success: rec != nil}
		if rec != nil {
			summary.NumIssues = len(rec.Contents.CompletedIssues) +
				len(rec.Contents.IssuesNotCompletedInCurrentSprint) +
				len(rec.Contents.PuntedIssues)
		}
		summaries = append(summaries, summary)
	}
	return &Result{Teams: summaries}, nil
}

// detailedListForTeam fetches the detailed record of every sprint in the
// team's listing (cache policy applied per record) and returns them in
// descending end-date order, the order the aggregator expects.
func (f *Fetcher) detailedListForTeam(team roster.Team, force bool) ([]DetailedSprint, error) {
	abridged, err := f.abridgedForTeam(team)
	if err != nil {
		return nil, err
	}

	var records []DetailedSprint
	for _, s := range abridged {
		rec, err := f.detailedForTeam(team, ByID(s.ID), force)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			records = append(records, *rec)
		}
	}

	slices.SortFunc(records, func(a, b DetailedSprint) int {
		return b.Sprint.EndDate.Compare(a.Sprint.EndDate)
	})
	return records, nil
}

// detailedForTeam resolves ref against the team's listing and returns the
// detailed record for the resolved sprint, from cache when the policy
// allows, otherwise freshly retrieved and cached. force skips the cache
// read entirely; the fresh record is still stored.
func (f *Fetcher) detailedForTeam(team roster.Team, ref Ref, force bool) (*DetailedSprint, error) {
	abridged, err := f.abridgedForTeam(team)
	if err != nil {
		return nil, err
	}

	resolved := Resolve(ref, abridged)
	if resolved == nil {
		return nil, nil
	}

	ctx := context.Background()
	cacheKey := strconv.Itoa(resolved.ID)

	if !force {
		var cached DetailedSprint
		if _, err := f.store.Get(ctx, cacheKind, cacheKey, &cached); err == nil {
			if f.policy.Usable(&cached, f.now()) {
				log.Debug().Str("team", team.ID).Int("sprint", resolved.ID).Msg("Serving sprint record from cache")
				return &cached, nil
			}
		} else if err != docstore.ErrNoDocument {
			log.Warn().Err(err).Int("sprint", resolved.ID).Msg("Cache read failed, refreshing from tracker")
		}
	}

	rec, err := f.buildDetailed(team, resolved.ID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}

	if err := f.store.Put(ctx, cacheKind, cacheKey, rec); err != nil {
		log.Warn().Err(err).Int("sprint", resolved.ID).Msg("Failed to cache sprint record")
	}
	return rec, nil
}

func (f *Fetcher) buildDetailed(team roster.Team, sprintID int) (*DetailedSprint, error) {
	report, err := f.client.GetSprintReport(team.BoardID, sprintID)
	if err != nil {
		return nil, fmt.Errorf("%w: sprint report for board %d sprint %d: %v", fetch.ErrSourceUnavailable, team.BoardID, sprintID, err)
	}
	if report == nil {
		return nil, nil
	}

	info, err := mapInfo(report.Sprint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", fetch.ErrSourceUnavailable, err)
	}

	contents := Contents{
		CompletedIssues:                   mapReportIssues(report.Contents.CompletedIssues),
		IssuesNotCompletedInCurrentSprint: mapReportIssues(report.Contents.IssuesNotCompletedInCurrentSprint),
		PuntedIssues:                      mapReportIssues(report.Contents.PuntedIssues),
		CompletedIssuesEstimateSum:        estimateSum(report.Contents.CompletedIssuesEstimateSum),
		IssuesNotCompletedEstimateSum:     estimateSum(report.Contents.IssuesNotCompletedEstimateSum),
		PuntedIssuesEstimateSum:           estimateSum(report.Contents.PuntedIssuesEstimateSum),
	}

	// Buckets that only carry keys (or stale snapshots) are augmented with
	// full issue details from a follow-up query.
	if len(report.Contents.IssueKeysAddedDuringSprint) > 0 {
		keys := make([]string, 0, len(report.Contents.IssueKeysAddedDuringSprint))
		for k := range report.Contents.IssueKeysAddedDuringSprint {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		added, err := f.issuesByKeys(keys)
		if err != nil {
			return nil, err
		}
		contents.IssueKeysAddedDuringSprint = added
	}

	if len(contents.IssuesNotCompletedInCurrentSprint) > 0 {
		keys := make([]string, 0, len(contents.IssuesNotCompletedInCurrentSprint))
		for _, iss := range contents.IssuesNotCompletedInCurrentSprint {
			keys = append(keys, iss.Key)
		}
		incomplete, err := f.issuesByKeys(keys)
		if err != nil {
			return nil, err
		}
		contents.IssuesNotCompletedInCurrentSprint = incomplete
	}

	now := f.now()
	rec := &DetailedSprint{
		TeamID:   team.ID,
		TeamName: team.Name,
		SprintID: info.ID,
		BoardID:  team.BoardID,
		Sprint:   info,
		Contents: contents,
	}

	if info.State == StateActive {
		rec.ActualLength = now.Sub(info.StartDate)
		rec.Overdue = rec.ActualLength > f.overdueAfter
	} else if info.CompleteDate != nil {
		rec.ActualLength = info.CompleteDate.Sub(info.StartDate)
	}

	// Point completion spread across contributors. Unassigned issues still
	// count toward the total but are excluded from the per-dev grouping.
	byAssignee := make(map[string]float64)
	for _, iss := range contents.CompletedIssues {
		rec.TotalCompletedPoints += iss.Points
		if iss.Assignee == "" {
			log.Warn().Str("key", iss.Key).Msg("Completed issue has no assignee")
			continue
		}
		byAssignee[iss.Assignee] += iss.Points
	}

	devs := make([]string, 0, len(byAssignee))
	points := make([]float64, 0, len(byAssignee))
	for dev := range byAssignee {
		devs = append(devs, dev)
	}
	sort.Strings(devs)
	for _, dev := range devs {
		points = append(points, byAssignee[dev])
	}
	rec.ContributingDevs = devs
	rec.StdDev = stats.StdDev(points)

	return rec, nil
}

func (f *Fetcher) issuesByKeys(keys []string) ([]Issue, error) {
	jql := fmt.Sprintf("key in ('%s')", strings.Join(keys, "','"))
	found, err := f.client.SearchIssues(jql)
	if err != nil {
		return nil, fmt.Errorf("%w: issue lookup: %v", fetch.ErrSourceUnavailable, err)
	}
	return mapSearchIssues(found), nil
}

// abridgedForTeam lists the team's sprints, keeping only those that belong
// to the team. Listings are memoized per fetcher to avoid repeating the
// call within one request.
func (f *Fetcher) abridgedForTeam(team roster.Team) ([]AbridgedSprint, error) {
	f.mu.Lock()
	if cached, ok := f.listings[team.ID]; ok {
		f.mu.Unlock()
		return cached, nil
	}
	f.mu.Unlock()

	dtos, err := f.client.ListSprints(team.BoardID)
	if err != nil {
		return nil, fmt.Errorf("%w: sprint listing for board %d: %v", fetch.ErrSourceUnavailable, team.BoardID, err)
	}

	now := f.now()
	var sprints []AbridgedSprint
	for _, dto := range dtos {
		s, err := mapAbridged(dto, now, f.overdueAfter)
		if err != nil {
			log.Warn().Err(err).Msg("Skipping malformed sprint in listing")
			continue
		}
		if BelongsToTeam(s, team.Name) {
			sprints = append(sprints, s)
		}
	}

	f.mu.Lock()
	f.listings[team.ID] = sprints
	f.mu.Unlock()
	return sprints, nil
}
