package defect

import (
	"errors"
	"testing"

	"sprintpulse/internal/docstore"
	"sprintpulse/internal/fetch"
	"sprintpulse/internal/tracker"
)

type fakeTracker struct {
	jqls   []string
	issues map[string][]tracker.IssueDTO
}

func (f *fakeTracker) ListSprints(boardID int) ([]tracker.SprintDTO, error) { return nil, nil }
func (f *fakeTracker) GetSprintReport(boardID, sprintID int) (*tracker.SprintReportDTO, error) {
	return nil, nil
}
func (f *fakeTracker) SearchIssues(jql string) ([]tracker.IssueDTO, error) {
	f.jqls = append(f.jqls, jql)
	return f.issues[jql], nil
}

func defectIssue(key, severity, priority string) tracker.IssueDTO {
	var d tracker.IssueDTO
	d.Key = key
	d.Fields.Severity.Value = severity
	d.Fields.Priority.Name = priority
	return d
}

func openStore(t *testing.T) *docstore.Store {
	t.Helper()
	s, err := docstore.Open(t.TempDir())
	if err != nil {
		t.Fatalf("docstore.Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestValidate(t *testing.T) {
	f := NewFetcher(&fakeTracker{}, openStore(t), 0)

	if err := f.Validate(Params{LookbackDays: -1}); !errors.Is(err, fetch.ErrInvalidParameters) {
		t.Errorf("Validate(-1) error = %v, want ErrInvalidParameters", err)
	}
	if err := f.Validate(Params{}); err != nil {
		t.Errorf("Validate(default) error = %v", err)
	}
}

func TestRetrieveGroupsBySeverityAndPriority(t *testing.T) {
	client := &fakeTracker{issues: map[string][]tracker.IssueDTO{
		"issuetype = Defect AND created >= -14d": {
			defectIssue("D-1", "Critical", "P1"),
			defectIssue("D-2", "Critical", "P2"),
			defectIssue("D-3", "", ""),
		},
		"issuetype = Defect AND created >= -28d AND created < -14d": {
			defectIssue("D-0", "Minor", "P3"),
		},
	}}
	f := NewFetcher(client, openStore(t), 0)

	report, err := f.Retrieve(Params{})
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}

	if report.LookbackDays != DefaultLookbackDays {
		t.Errorf("LookbackDays = %d, want %d", report.LookbackDays, DefaultLookbackDays)
	}
	if len(report.Current) != 3 || len(report.Previous) != 1 {
		t.Fatalf("periods = %d/%d, want 3/1", len(report.Current), len(report.Previous))
	}
	if got := report.BySeverityCurrent["Critical"]; len(got) != 2 {
		t.Errorf("BySeverityCurrent[Critical] = %v, want two keys", got)
	}
	if got := report.BySeverityCurrent["unspecified"]; len(got) != 1 || got[0] != "D-3" {
		t.Errorf("BySeverityCurrent[unspecified] = %v, want [D-3]", got)
	}
	if got := report.ByPriorityPrevious["P3"]; len(got) != 1 {
		t.Errorf("ByPriorityPrevious[P3] = %v, want one key", got)
	}
}

func TestCacheRoundTrip(t *testing.T) {
	client := &fakeTracker{}
	f := NewFetcher(client, openStore(t), 0)

	p := Params{LookbackDays: 7}
	report, err := f.Retrieve(p)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if err := f.Store(p, report); err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	cached, ok, err := f.FromCache(p)
	if err != nil || !ok {
		t.Fatalf("FromCache() = (%v, %v), want a hit", ok, err)
	}
	if cached.LookbackDays != 7 {
		t.Errorf("cached LookbackDays = %d, want 7", cached.LookbackDays)
	}

	if _, ok, err := f.FromCache(Params{LookbackDays: 30}); err != nil || ok {
		t.Errorf("FromCache() for a different window = (%v, %v), want a miss", ok, err)
	}
}
