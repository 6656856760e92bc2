// Package server exposes the reporting API as JSON over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"sprintpulse/internal/config"
	"sprintpulse/internal/defect"
	"sprintpulse/internal/docstore"
	"sprintpulse/internal/fetch"
	"sprintpulse/internal/release"
	"sprintpulse/internal/roster"
	"sprintpulse/internal/sprint"
	"sprintpulse/internal/tracker"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Server handles HTTP requests for the reporting API.
type Server struct {
	Router *chi.Mux

	cfg      *config.AppConfig
	client   tracker.Client
	store    *docstore.Store
	rosters  *roster.Catalog
	flights  singleflight.Group
	defects  *defect.Fetcher
	releases *release.Fetcher
}

// New creates a server over the shared collaborators.
func New(cfg *config.AppConfig, client tracker.Client, store *docstore.Store, rosters *roster.Catalog) *Server {
	s := &Server{
		cfg:      cfg,
		client:   client,
		store:    store,
		rosters:  rosters,
		defects:  defect.NewFetcher(client, store, 0),
		releases: release.NewFetcher(client, store, 0),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(2 * time.Minute))

	r.Get("/health", s.healthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Get("/teams", s.getTeams)
		r.Get("/teams/{id}/sprint", s.getTeamSprint)
		r.Get("/teams/{id}/history", s.getTeamHistory)
		r.Get("/defects", s.getDefects)
		r.Get("/releases", s.getReleases)
		r.Get("/staff", s.getStaff)
	})

	s.Router = r
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "sprintpulse",
	})
}

func (s *Server) getTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := s.rosters.Teams()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": teams})
}

func (s *Server) getTeamSprint(w http.ResponseWriter, r *http.Request) {
	ref, err := sprint.ParseRef(r.URL.Query().Get("ref"))
	if err != nil {
		s.writeError(w, errors.Join(fetch.ErrInvalidParameters, err))
		return
	}

	s.runSprintFetch(w, sprint.Params{
		TeamID: chi.URLParam(r, "id"),
		Ref:    ref,
		Force:  forced(r),
	})
}

func (s *Server) getTeamHistory(w http.ResponseWriter, r *http.Request) {
	s.runSprintFetch(w, sprint.Params{
		TeamID:  chi.URLParam(r, "id"),
		History: true,
		Force:   forced(r),
	})
}

func (s *Server) runSprintFetch(w http.ResponseWriter, p sprint.Params) {
	fetcher := sprint.NewFetcher(s.client, s.store, s.rosters, sprint.Options{
		ClosedGrace:  s.cfg.ClosedGrace,
		OverdueAfter: s.cfg.OverdueAfter,
	})

	result, err := fetch.Run(&s.flights, fetcher, p, p.Force)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": result})
}

func (s *Server) getDefects(w http.ResponseWriter, r *http.Request) {
	var p defect.Params
	if raw := r.URL.Query().Get("lookback_days"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, errors.Join(fetch.ErrInvalidParameters, err))
			return
		}
		p.LookbackDays = days
	}

	report, err := fetch.Run(&s.flights, s.defects, p, forced(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": report})
}

func (s *Server) getReleases(w http.ResponseWriter, r *http.Request) {
	var p release.Params
	var err error
	if p.Start, err = parseDate(r.URL.Query().Get("start")); err != nil {
		s.writeError(w, errors.Join(fetch.ErrInvalidParameters, err))
		return
	}
	if p.End, err = parseDate(r.URL.Query().Get("end")); err != nil {
		s.writeError(w, errors.Join(fetch.ErrInvalidParameters, err))
		return
	}

	report, err := fetch.Run(&s.flights, s.releases, p, forced(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": report})
}

func (s *Server) getStaff(w http.ResponseWriter, r *http.Request) {
	summary, err := s.rosters.Staffing()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": summary})
}

// writeError maps the fetch error taxonomy onto HTTP statuses: malformed
// requests fail fast with 400, upstream failures surface as 502.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, fetch.ErrInvalidParameters):
		status = http.StatusBadRequest
	case errors.Is(err, fetch.ErrSourceUnavailable):
		status = http.StatusBadGateway
	}

	log.Error().Err(err).Int("status", status).Msg("Request failed")
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func forced(r *http.Request) bool {
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))
	return force
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", raw)
}
