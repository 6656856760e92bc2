package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"sprintpulse/internal/config"
	"sprintpulse/internal/docstore"
	"sprintpulse/internal/roster"
	"sprintpulse/internal/tracker"
)

type stubTracker struct{}

func (stubTracker) ListSprints(boardID int) ([]tracker.SprintDTO, error) { return nil, nil }
func (stubTracker) GetSprintReport(boardID, sprintID int) (*tracker.SprintReportDTO, error) {
	return nil, nil
}
func (stubTracker) SearchIssues(jql string) ([]tracker.IssueDTO, error) { return nil, nil }

func newTestServer(t *testing.T) *Server {
	t.Helper()

	rosterDir := t.TempDir()
	teams := "id,name,board_id\nhb,Heron,99\n"
	if err := os.WriteFile(filepath.Join(rosterDir, "teams.csv"), []byte(teams), 0o644); err != nil {
		t.Fatalf("failed to write teams.csv: %v", err)
	}
	staff := "username,full_name,email,team_id,is_consultant,funnel,vendor,active\nada,Ada L,ada@example.com,hb,false,,,true\n"
	if err := os.WriteFile(filepath.Join(rosterDir, "staff.csv"), []byte(staff), 0o644); err != nil {
		t.Fatalf("failed to write staff.csv: %v", err)
	}

	store, err := docstore.Open(t.TempDir())
	if err != nil {
		t.Fatalf("docstore.Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return New(&config.AppConfig{}, stubTracker{}, store, roster.NewCatalog(rosterDir))
}

func doRequest(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.Router.ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /health = %d, want 200", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("status = %v, want healthy", body["status"])
	}
}

func TestGetTeams(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, "/api/teams")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/teams = %d, want 200", rec.Code)
	}

	var body struct {
		Data []roster.Team `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if len(body.Data) != 1 || body.Data[0].ID != "hb" {
		t.Errorf("data = %+v, want the hb team", body.Data)
	}
}

func TestGetTeamSprintBadRef(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, "/api/teams/hb/sprint?ref=next")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("GET with bad ref = %d, want 400", rec.Code)
	}
}

func TestGetDefectsBadLookback(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, "/api/defects?lookback_days=soon")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("GET with bad lookback = %d, want 400", rec.Code)
	}

	rec = doRequest(t, srv, "/api/defects?lookback_days=-3")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("GET with negative lookback = %d, want 400", rec.Code)
	}
}

func TestGetReleasesBadDates(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, "/api/releases?start=tomorrow")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("GET with bad start date = %d, want 400", rec.Code)
	}

	rec = doRequest(t, srv, "/api/releases?start=2026-02-10&end=2026-02-01")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("GET with inverted window = %d, want 400", rec.Code)
	}
}

func TestGetStaff(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, "/api/staff")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/staff = %d, want 200", rec.Code)
	}

	var body struct {
		Data roster.StaffingSummary `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Data.EngineerCount != 1 || body.Data.TeamCount != 1 {
		t.Errorf("summary = %+v, want one engineer on one team", body.Data)
	}
}
