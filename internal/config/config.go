package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	// NOAAAPIToken authenticates against the NCEI Climate Data Online API.
	NOAAAPIToken string
	// GeocoderAPIKey enables place-name lookup for ERA5 coordinates (optional).
	GeocoderAPIKey string

	// StationsPath is the GHCN-Daily station inventory (ghcnd-stations.txt).
	StationsPath string
	// DataDir receives downloaded series files.
	DataDir string

	HTTPTimeout         time.Duration
	MonthlyYears        int
	DownloadConcurrency int

	// Download cache retention.
	CacheMaxEntries int           // 0 = unlimited
	CacheMaxAge     time.Duration // 0 = unlimited

	// RefreshInterval controls how often the station inventory is reloaded
	// and expired cache entries are pruned.
	RefreshInterval time.Duration

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.NOAAAPIToken = os.Getenv("NOAA_API_TOKEN")
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")
	cfg.StationsPath = getenvDefault("STATIONS_PATH", "ghcnd-stations.txt")
	cfg.DataDir = getenvDefault("DATA_DIR", "data")

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "30s"); err != nil {
		return nil, err
	}
	if cfg.CacheMaxAge, err = getenvDuration("CACHE_MAX_AGE", "6h"); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = getenvDuration("REFRESH_INTERVAL", "24h"); err != nil {
		return nil, err
	}

	cfg.MonthlyYears = getenvInt("MONTHLY_YEARS", 20)
	if cfg.MonthlyYears <= 0 {
		return nil, fmt.Errorf("invalid MONTHLY_YEARS: must be positive")
	}
	cfg.DownloadConcurrency = getenvInt("DOWNLOAD_CONCURRENCY", 4)
	if cfg.DownloadConcurrency <= 0 {
		return nil, fmt.Errorf("invalid DOWNLOAD_CONCURRENCY: must be positive")
	}
	cfg.CacheMaxEntries = getenvInt("CACHE_MAX_ENTRIES", 64)

	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
