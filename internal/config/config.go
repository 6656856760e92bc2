package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"sprintpulse/internal/tracker"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Tracker   tracker.Config
	DataPath  string
	LogDir    string
	CacheDir  string
	RosterDir string

	// ClosedGrace is how long after completion a closed sprint is still
	// refreshed from the tracker before its cached record is trusted.
	ClosedGrace time.Duration

	// OverdueAfter is the elapsed duration after which an active sprint
	// is considered overdue.
	OverdueAfter time.Duration
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// 1. Try to load from the executable's directory (highest priority for services)
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory (useful for development/go run)
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	// 3. Resolve data paths
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}

	logDir := filepath.Join(dataPath, "logs")
	cacheDir := filepath.Join(dataPath, "cache")
	rosterDir := getEnv("ROSTER_DIR", filepath.Join(dataPath, "rosters"))

	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.Warn().Err(err).Str("path", logDir).Msg("Failed to create log directory")
	}
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		log.Warn().Err(err).Str("path", cacheDir).Msg("Failed to create cache directory")
	}

	delaySecs, _ := strconv.Atoi(getEnv("JIRA_REQUEST_DELAY_SECONDS", "10"))
	graceDays := getEnvInt("SPRINT_CLOSED_GRACE_DAYS", 6)
	overdueDays := getEnvInt("SPRINT_OVERDUE_DAYS", 16)

	cfg := &AppConfig{
		Tracker: tracker.Config{
			BaseURL:      getEnv("JIRA_URL", ""),
			Token:        getEnv("JIRA_TOKEN", ""),
			XsrfToken:    getEnv("JIRA_XSRF_TOKEN", ""),
			SessionID:    getEnv("JIRA_SESSION_ID", ""),
			RememberMe:   getEnv("JIRA_REMEMBERME_COOKIE", ""),
			RequestDelay: time.Duration(delaySecs) * time.Second,
		},
		DataPath:     dataPath,
		LogDir:       logDir,
		CacheDir:     cacheDir,
		RosterDir:    rosterDir,
		ClosedGrace:  time.Duration(graceDays) * 24 * time.Hour,
		OverdueAfter: time.Duration(overdueDays) * 24 * time.Hour,
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}
