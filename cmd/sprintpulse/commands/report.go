package commands

import (
	"fmt"
	"os"
	"strings"
	"time"

	"sprintpulse/internal/fetch"
	"sprintpulse/internal/sprint"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/sync/singleflight"
)

var (
	reportTeam  string
	reportRef   string
	reportForce bool

	reportFlights singleflight.Group
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print delivery reports to the terminal",
}

var reportSprintCmd = &cobra.Command{
	Use:   "sprint",
	Short: "Show one sprint for a team, or a summary across all teams",
	RunE: func(cmd *cobra.Command, args []string) error {
		ref, err := sprint.ParseRef(reportRef)
		if err != nil {
			return err
		}

		result, err := runSprintFetch(sprint.Params{TeamID: reportTeam, Ref: ref, Force: reportForce})
		if err != nil {
			return err
		}
		if result == nil || (result.Sprint == nil && result.Teams == nil) {
			fmt.Println("No matching sprint found.")
			return nil
		}

		if result.Teams != nil {
			renderTeamSummaries(result.Teams)
			return nil
		}
		renderSprint(result.Sprint)
		return nil
	},
}

var reportHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the full sprint series and velocity for a team",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := runSprintFetch(sprint.Params{TeamID: reportTeam, History: true, Force: reportForce})
		if err != nil {
			return err
		}
		if result == nil || result.History == nil {
			fmt.Println("No history found for that team.")
			return nil
		}
		renderHistory(result.History)
		return nil
	},
}

var reportStaffCmd = &cobra.Command{
	Use:   "staff",
	Short: "Show the org-wide staffing rollup",
	RunE: func(cmd *cobra.Command, args []string) error {
		summary, err := rosters.Staffing()
		if err != nil {
			return err
		}

		t := newTable()
		t.AppendHeader(table.Row{"Team", "Members", "Fulltime", "Consultants"})
		for _, ts := range summary.Teams {
			t.AppendRow(table.Row{
				ts.Team.Name,
				strings.Join(ts.Members, ", "),
				ts.TotalFulltime,
				ts.TotalConsultants,
			})
		}
		t.AppendFooter(table.Row{
			fmt.Sprintf("%d teams", summary.TeamCount),
			fmt.Sprintf("%d engineers", summary.EngineerCount),
			summary.FulltimeCount,
			summary.ConsultantCount,
		})
		t.Render()
		return nil
	},
}

func runSprintFetch(p sprint.Params) (*sprint.Result, error) {
	fetcher := sprint.NewFetcher(trackerClient, store, rosters, sprint.Options{
		ClosedGrace:  cfg.ClosedGrace,
		OverdueAfter: cfg.OverdueAfter,
	})
	return fetch.Run(&reportFlights, fetcher, p, p.Force)
}

func renderSprint(rec *sprint.DetailedSprint) {
	fmt.Printf("%s  [%s]  %s\n\n", rec.Sprint.Name, rec.Sprint.State, rec.TeamName)

	t := newTable()
	t.AppendRows([]table.Row{
		{"Start", rec.Sprint.StartDate.Format("2006-01-02")},
		{"End", rec.Sprint.EndDate.Format("2006-01-02")},
		{"Actual length", formatDays(rec.ActualLength)},
		{"Overdue", rec.Overdue},
		{"Completed points", rec.TotalCompletedPoints},
		{"Completed issues", len(rec.Contents.CompletedIssues)},
		{"Not completed", len(rec.Contents.IssuesNotCompletedInCurrentSprint)},
		{"Punted", len(rec.Contents.PuntedIssues)},
		{"Added mid-sprint", len(rec.Contents.IssueKeysAddedDuringSprint)},
		{"Contributing devs", strings.Join(rec.ContributingDevs, ", ")},
		{"Points std dev", fmt.Sprintf("%.2f", rec.StdDev)},
	})
	t.Render()
}

func renderHistory(h *sprint.TeamHistory) {
	t := newTable()
	t.AppendHeader(table.Row{"Sprint", "State", "End", "Completed", "Running Sum", "Running Avg"})
	for _, rec := range h.Sprints {
		row := table.Row{rec.Sprint.Name, rec.Sprint.State, rec.Sprint.EndDate.Format("2006-01-02"), rec.Contents.CompletedIssuesEstimateSum, "", ""}
		if agg, ok := h.Aggregate.Sprints[rec.SprintID]; ok {
			if series, ok := agg.Metrics[sprint.MetricCompletedPoints]; ok {
				row[4] = series.RunningSum
				row[5] = fmt.Sprintf("%.2f", series.RunningAvg)
			}
		}
		t.AppendRow(row)
	}
	t.Render()

	v := h.Aggregate.Velocity
	fmt.Printf("\nVelocity  avg %.2f  low %.2f  high %.2f\n", v.Average, v.Lowest, v.Highest)
}

func renderTeamSummaries(teams []sprint.TeamSummary) {
	t := newTable()
	t.AppendHeader(table.Row{"Team", "Issues", "OK"})
	for _, s := range teams {
		t.AppendRow(table.Row{s.TeamID, s.NumIssues, s.Success})
	}
	t.Render()
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	return t
}

func formatDays(d time.Duration) string {
	return fmt.Sprintf("%.1f days", d.Hours()/24)
}

func init() {
	reportCmd.PersistentFlags().StringVar(&reportTeam, "team", "", "team id (empty shows all teams for sprint reports)")
	reportSprintCmd.Flags().StringVar(&reportRef, "ref", "", "sprint reference: last_completed, current, before_last_completed, or a sprint id")
	reportCmd.PersistentFlags().BoolVar(&reportForce, "force", false, "bypass cached sprint records")

	reportCmd.AddCommand(reportSprintCmd)
	reportCmd.AddCommand(reportHistoryCmd)
	reportCmd.AddCommand(reportStaffCmd)
	rootCmd.AddCommand(reportCmd)
}
