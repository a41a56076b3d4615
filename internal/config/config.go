package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/geoliga/geoliga/internal/models"
)

const DefaultTimezone = "Europe/Stockholm"

type Config struct {
	NCFA                string
	Timezone            string
	TieMode             string
	OutBase             string
	DBPath              string
	Addr                string
	LogLevel            string
	Timeout             float64 // seconds, per HTTP request
	PageSize            int
	MaxPlayers          int
	MaxConcurrentMaps   int
	FetchPlayedAt       bool
	KeepMissingPlayedAt bool
	Offline             bool
	WorkerCount         int
	RebuildQueueSize    int
}

// Load reads configuration from a .env file (if present) and environment
// variables, applying defaults when values are missing or invalid. CLI flags
// override these afterwards.
func Load() Config {
	// Ignore error so the tool still runs when .env is absent.
	_ = godotenv.Load()

	return Config{
		NCFA:                envOr("GEOLIGA_NCFA", os.Getenv("GEOGUESSR_NCFA")),
		Timezone:            envOr("GEOLIGA_TZ", DefaultTimezone),
		TieMode:             envOr("GEOLIGA_TIE_MODE", "average"),
		OutBase:             envOr("GEOLIGA_OUT_BASE", "Liga_overview"),
		DBPath:              envOr("GEOLIGA_DB_PATH", ""),
		Addr:                envOr("GEOLIGA_ADDR", ":8080"),
		LogLevel:            envOr("LOG_LEVEL", "INFO"),
		Timeout:             envFloatOr("GEOLIGA_TIMEOUT", 30),
		PageSize:            envIntOr("GEOLIGA_PAGE_SIZE", 200),
		MaxPlayers:          envIntOr("GEOLIGA_MAX_PLAYERS", 5000),
		MaxConcurrentMaps:   envIntOr("GEOLIGA_MAX_CONCURRENT_MAPS", 4),
		FetchPlayedAt:       envBoolOr("GEOLIGA_FETCH_PLAYED_AT", false),
		KeepMissingPlayedAt: envBoolOr("GEOLIGA_KEEP_MISSING_PLAYED_AT", false),
		Offline:             envBoolOr("GEOLIGA_OFFLINE", false),
		WorkerCount:         envIntOr("GEOLIGA_WORKER_COUNT", 1),
		RebuildQueueSize:    envIntOr("GEOLIGA_REBUILD_QUEUE_SIZE", 4),
	}
}

// Validate checks the parts of the configuration that must be usable before
// any fetching or scoring begins.
func (c Config) Validate() error {
	if !c.Offline && c.NCFA == "" {
		return fmt.Errorf("missing _ncfa cookie: set GEOLIGA_NCFA or pass --ncfa")
	}
	if c.Timezone == "" {
		return fmt.Errorf("GEOLIGA_TZ cannot be empty")
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("GEOLIGA_PAGE_SIZE must be positive")
	}
	if c.MaxPlayers <= 0 {
		return fmt.Errorf("GEOLIGA_MAX_PLAYERS must be positive")
	}
	return nil
}

// ParseWeekSpecs parses repeatable --week values of the form
// "LABEL|URLS_FILE|DEADLINE" (deadline optional) and loads each URL file.
func ParseWeekSpecs(args []string) ([]models.WeekSpec, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf(`no weeks specified; example: --week "Vecka 1|urls_week1.txt|2026-02-18 20:00"`)
	}

	out := make([]models.WeekSpec, 0, len(args))
	for _, s := range args {
		parts := strings.Split(s, "|")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf(`bad --week %q: expected "LABEL|URLS_FILE|DEADLINE(optional)"`, s)
		}

		urls, err := LoadURLs(parts[1])
		if err != nil {
			return nil, err
		}
		week := models.WeekSpec{Label: parts[0], URLs: urls}
		if len(parts) >= 3 {
			week.Deadline = parts[2]
		}
		out = append(out, week)
	}
	return out, nil
}

// LoadURLs reads a challenge URL list: one URL per line, blank lines and
// #-comments skipped.
func LoadURLs(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var out []string
	for _, line := range strings.Split(string(data), "\n") {
		s := strings.TrimSpace(line)
		if s != "" && !strings.HasPrefix(s, "#") {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s contains no challenge URLs", path)
	}
	return out, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func envFloatOr(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Printf("invalid value for %s=%q, using default %v", key, v, def)
	}
	return def
}

func envBoolOr(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		log.Printf("invalid value for %s=%q, using default %v", key, v, def)
	}
	return def
}
