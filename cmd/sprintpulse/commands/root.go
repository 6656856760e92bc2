package commands

import (
	"sprintpulse/internal/config"
	"sprintpulse/internal/docstore"
	"sprintpulse/internal/logging"
	"sprintpulse/internal/roster"
	"sprintpulse/internal/tracker"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	cfg     *config.AppConfig

	trackerClient tracker.Client
	store         *docstore.Store
	rosters       *roster.Catalog
)

var rootCmd = &cobra.Command{
	Use:   "sprintpulse",
	Short: "Sprintpulse aggregates engineering-delivery metrics from an issue tracker",
	Long: `Sprintpulse pulls sprint, defect, and release data from a Jira-compatible
issue tracker, caches slowly-changing records locally, and serves
analysis-ready delivery metrics as JSON.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(verbose)

		var err error
		cfg, err = config.Load()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}

		trackerClient = tracker.NewClient(cfg.Tracker)
		rosters = roster.NewCatalog(cfg.RosterDir)

		store, err = docstore.Open(cfg.CacheDir)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open document store")
		}

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Msg("Sprintpulse starting")
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if store != nil {
			if err := store.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close document store")
			}
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}
