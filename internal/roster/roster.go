// Package roster loads static reference data (teams, staff, products) from
// CSV files. Rosters are memoized process-wide on first access and assumed
// not to change during a process's life.
package roster

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// Team is one delivery team and its tracker board.
type Team struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	BoardID int    `json:"board_id"`
}

// Staff is one engineer on a team roster.
type Staff struct {
	Username   string `json:"username"`
	FullName   string `json:"fullname"`
	Email      string `json:"email"`
	TeamID     string `json:"team_id"`
	Consultant bool   `json:"is_consultant"`
	Funnel     string `json:"funnel,omitempty"`
	Vendor     string `json:"vendor,omitempty"`
	Active     bool   `json:"active"`
}

// Product is a product grouping owned by one or more teams.
type Product struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	TeamIDs []string `json:"team_ids"`
}

// Catalog provides lazy, memoized access to the CSV rosters in one
// directory. Safe for concurrent use.
type Catalog struct {
	dir string

	mu       sync.Mutex
	teams    []Team
	staff    []Staff
	products []Product
	loaded   map[string]bool
}

// NewCatalog creates a catalog reading from dir.
func NewCatalog(dir string) *Catalog {
	return &Catalog{dir: dir, loaded: make(map[string]bool)}
}

// Teams returns all known teams.
func (c *Catalog) Teams() ([]Team, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.loadTeamsLocked(); err != nil {
		return nil, err
	}
	return c.teams, nil
}

// TeamByID returns the team with the given short id, or nil.
func (c *Catalog) TeamByID(id string) (*Team, error) {
	teams, err := c.Teams()
	if err != nil {
		return nil, err
	}
	for i := range teams {
		if teams[i].ID == id {
			return &teams[i], nil
		}
	}
	return nil, nil
}

// TeamByName returns the first team with the given name, or nil.
func (c *Catalog) TeamByName(name string) (*Team, error) {
	teams, err := c.Teams()
	if err != nil {
		return nil, err
	}
	for i := range teams {
		if teams[i].Name == name {
			return &teams[i], nil
		}
	}
	return nil, nil
}

// Staff returns the full staff roster.
func (c *Catalog) Staff() ([]Staff, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.loadStaffLocked(); err != nil {
		return nil, err
	}
	return c.staff, nil
}

// Consultants returns the staff flagged as consultants.
func (c *Catalog) Consultants() ([]Staff, error) {
	return c.staffWhere(func(s Staff) bool { return s.Consultant })
}

// FulltimeStaff returns the staff not flagged as consultants.
func (c *Catalog) FulltimeStaff() ([]Staff, error) {
	return c.staffWhere(func(s Staff) bool { return !s.Consultant })
}

func (c *Catalog) staffWhere(keep func(Staff) bool) ([]Staff, error) {
	all, err := c.Staff()
	if err != nil {
		return nil, err
	}
	var out []Staff
	for _, s := range all {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out, nil
}

// Products returns all known products.
func (c *Catalog) Products() ([]Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.loadProductsLocked(); err != nil {
		return nil, err
	}
	return c.products, nil
}

// TeamStaffing summarizes one team's headcount.
type TeamStaffing struct {
	Team             Team     `json:"team"`
	Members          []string `json:"members"`
	TotalFulltime    int      `json:"total_fulltime"`
	TotalConsultants int      `json:"total_consultants"`
}

// StaffingSummary is the org-wide headcount rollup served by the staff
// report endpoints.
type StaffingSummary struct {
	EngineerCount   int                     `json:"engineer_count"`
	FulltimeCount   int                     `json:"fulltime_count"`
	ConsultantCount int                     `json:"consultant_count"`
	TeamCount       int                     `json:"team_count"`
	Teams           map[string]TeamStaffing `json:"teams"`
}

// Staffing builds the org-wide staffing summary from the rosters.
func (c *Catalog) Staffing() (*StaffingSummary, error) {
	teams, err := c.Teams()
	if err != nil {
		return nil, err
	}
	staff, err := c.Staff()
	if err != nil {
		return nil, err
	}

	summary := &StaffingSummary{
		TeamCount: len(teams),
		Teams:     make(map[string]TeamStaffing, len(teams)),
	}
	for _, t := range teams {
		summary.Teams[t.ID] = TeamStaffing{Team: t}
	}

	for _, s := range staff {
		if !s.Active {
			continue
		}
		summary.EngineerCount++
		if s.Consultant {
			summary.ConsultantCount++
		} else {
			summary.FulltimeCount++
		}

		ts, ok := summary.Teams[s.TeamID]
		if !ok {
			log.Warn().Str("username", s.Username).Str("team", s.TeamID).Msg("Staff member references unknown team")
			continue
		}
		ts.Members = append(ts.Members, s.Username)
		if s.Consultant {
			ts.TotalConsultants++
		} else {
			ts.TotalFulltime++
		}
		summary.Teams[s.TeamID] = ts
	}

	return summary, nil
}

func (c *Catalog) loadTeamsLocked() error {
	if c.loaded["teams"] {
		return nil
	}
	rows, err := c.readCSV("teams.csv", 3)
	if err != nil {
		return err
	}
	for _, row := range rows {
		boardID, err := strconv.Atoi(strings.TrimSpace(row[2]))
		if err != nil {
			log.Warn().Str("team", row[0]).Str("board", row[2]).Msg("Skipping team with non-numeric board id")
			continue
		}
		c.teams = append(c.teams, Team{
			ID:      strings.TrimSpace(row[0]),
			Name:    strings.TrimSpace(row[1]),
			BoardID: boardID,
		})
	}
	c.loaded["teams"] = true
	log.Debug().Int("count", len(c.teams)).Msg("Loaded team roster")
	return nil
}

func (c *Catalog) loadStaffLocked() error {
	if c.loaded["staff"] {
		return nil
	}
	rows, err := c.readCSV("staff.csv", 8)
	if err != nil {
		return err
	}
	for _, row := range rows {
		c.staff = append(c.staff, Staff{
			Username:   strings.TrimSpace(row[0]),
			FullName:   strings.TrimSpace(row[1]),
			Email:      strings.TrimSpace(row[2]),
			TeamID:     strings.TrimSpace(row[3]),
			Consultant: parseBool(row[4]),
			Funnel:     strings.TrimSpace(row[5]),
			Vendor:     strings.TrimSpace(row[6]),
			Active:     parseBool(row[7]),
		})
	}
	c.loaded["staff"] = true
	log.Debug().Int("count", len(c.staff)).Msg("Loaded staff roster")
	return nil
}

func (c *Catalog) loadProductsLocked() error {
	if c.loaded["products"] {
		return nil
	}
	rows, err := c.readCSV("products.csv", 3)
	if err != nil {
		return err
	}
	for _, row := range rows {
		var teamIDs []string
		for _, id := range strings.Split(row[2], ";") {
			if id = strings.TrimSpace(id); id != "" {
				teamIDs = append(teamIDs, id)
			}
		}
		c.products = append(c.products, Product{
			ID:      strings.TrimSpace(row[0]),
			Name:    strings.TrimSpace(row[1]),
			TeamIDs: teamIDs,
		})
	}
	c.loaded["products"] = true
	log.Debug().Int("count", len(c.products)).Msg("Loaded product roster")
	return nil
}

// readCSV reads a roster file, skipping the header row and any row with
// fewer than minFields fields.
func (c *Catalog) readCSV(name string, minFields int) ([][]string, error) {
	path := filepath.Join(c.dir, name)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open roster %s: %w", name, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse roster %s: %w", name, err)
	}

	var rows [][]string
	for i, row := range records {
		if i == 0 {
			continue // header
		}
		if len(row) < minFields {
			log.Warn().Str("file", name).Int("line", i+1).Msg("Skipping short roster row")
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseBool(s string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return v
}
