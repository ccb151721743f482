// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing, the process exits.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the ingestion service.
type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string

	// Crawler (Firecrawl-compatible) credentials and locale hints.
	CrawlerAPIKey  string
	CrawlerBaseURL string
	CountryCode    string
	Languages      []string

	// AI gateway (OpenAI-compatible chat completions).
	AIGatewayKey string
	AIGatewayURL string
	AIModel      string

	// Pipeline tuning.
	DefaultCounty       string
	DiscoveryLimit      int // per-source URL cap
	EnrichBatchSize     int
	EnrichWorkers       int
	ScrapeIntervalHours int // how often the cron scheduler fires

	// Optional YAML file seeding scraping_sources at startup.
	SourcesFile string
}

// Load reads environment variables (honouring a local .env file when present)
// and returns a validated Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	crawlerKey := os.Getenv("FIRECRAWL_API_KEY")
	if crawlerKey == "" {
		return nil, fmt.Errorf("FIRECRAWL_API_KEY is required")
	}

	aiKey := os.Getenv("AI_GATEWAY_KEY")
	if aiKey == "" {
		return nil, fmt.Errorf("AI_GATEWAY_KEY is required")
	}

	cfg := &Config{
		Port:                envOr("INGEST_PORT", "8082"),
		DatabaseURL:         dbURL,
		RedisURL:            redisURL,
		CrawlerAPIKey:       crawlerKey,
		CrawlerBaseURL:      envOr("FIRECRAWL_BASE_URL", "https://api.firecrawl.dev"),
		CountryCode:         envOr("CRAWL_COUNTRY", "KE"),
		Languages:           []string{"en", "sw"},
		AIGatewayKey:        aiKey,
		AIGatewayURL:        envOr("AI_GATEWAY_URL", "https://ai.gateway.lovable.dev/v1"),
		AIModel:             envOr("AI_MODEL", "google/gemini-2.5-flash"),
		DefaultCounty:       envOr("DEFAULT_COUNTY", "Nairobi"),
		SourcesFile:         os.Getenv("SOURCES_FILE"),
	}

	var err error
	if cfg.DiscoveryLimit, err = envInt("DISCOVERY_LIMIT", 50); err != nil {
		return nil, err
	}
	if cfg.EnrichBatchSize, err = envInt("ENRICH_BATCH_SIZE", 10); err != nil {
		return nil, err
	}
	if cfg.EnrichWorkers, err = envInt("ENRICH_WORKERS", 4); err != nil {
		return nil, err
	}
	if cfg.ScrapeIntervalHours, err = envInt("SCRAPE_INTERVAL_HOURS", 6); err != nil {
		return nil, err
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, s)
	}
	return v, nil
}
