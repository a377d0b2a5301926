package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	DBMinConns  int32  `envconfig:"PULSE_DB_MIN_CONNS" default:"1"`
	DBMaxConns  int32  `envconfig:"PULSE_DB_MAX_CONNS" default:"8"`

	// Shared secrets accepted by the ingest trigger endpoint. Either one
	// authorizes a run; both empty disables the endpoint.
	IngestSecret string `envconfig:"INGEST_SECRET" default:""`
	CronSecret   string `envconfig:"CRON_SECRET" default:""`

	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:""`

	// External services. Empty keys disable the respective client and the
	// pipeline degrades to its deterministic paths.
	AnthropicAPIKey  string `envconfig:"ANTHROPIC_API_KEY" default:""`
	AnthropicBaseURL string `envconfig:"ANTHROPIC_BASE_URL" default:"https://api.anthropic.com"`
	AnthropicModels  string `envconfig:"ANTHROPIC_MODELS" default:"claude-sonnet-4-5,claude-3-7-sonnet-latest,claude-3-5-haiku-latest"`
	FirecrawlAPIKey  string `envconfig:"FIRECRAWL_API_KEY" default:""`
	FirecrawlBaseURL string `envconfig:"FIRECRAWL_BASE_URL" default:"https://api.firecrawl.dev"`

	// Ingest run tunables.
	RunTimeoutSeconds int `envconfig:"INGEST_RUN_TIMEOUT_SECONDS" default:"240"`
	FeedConcurrency   int `envconfig:"INGEST_FEED_CONCURRENCY" default:"4"`
	ScrapeBudget      int `envconfig:"INGEST_SCRAPE_BUDGET" default:"40"`
	AIBudget          int `envconfig:"INGEST_AI_BUDGET" default:"20"`
	ReclassifyLimit   int `envconfig:"INGEST_RECLASSIFY_LIMIT" default:"3000"`
	SummaryFillLimit  int `envconfig:"SUMMARY_FILL_LIMIT" default:"100"`

	// Grouping and merge tunables.
	GroupBatchLimit   int     `envconfig:"GROUP_BATCH_LIMIT" default:"300"`
	MergeLookbackDays int     `envconfig:"MERGE_LOOKBACK_DAYS" default:"4"`
	MergeCandidates   int     `envconfig:"MERGE_CANDIDATE_LIMIT" default:"180"`
	MergeMaxPerRun    int     `envconfig:"MERGE_MAX_PER_RUN" default:"12"`
	MergeThreshold    float64 `envconfig:"MERGE_SIMILARITY_THRESHOLD" default:"0.62"`

	// Preview and ranking tunables.
	MinPreviewConfidence float64 `envconfig:"MIN_PREVIEW_CONFIDENCE" default:"0.58"`
	RerankEnabled        bool    `envconfig:"AI_RERANK_ENABLED" default:"true"`
	RerankCacheTTLMin    int     `envconfig:"AI_RERANK_CACHE_TTL_MINUTES" default:"15"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DBMinConns < 0 {
		return fmt.Errorf("PULSE_DB_MIN_CONNS must be >= 0")
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("PULSE_DB_MAX_CONNS must be >= 1")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("PULSE_DB_MIN_CONNS (%d) cannot exceed PULSE_DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.RunTimeoutSeconds < 30 {
		return fmt.Errorf("INGEST_RUN_TIMEOUT_SECONDS must be >= 30")
	}
	if c.FeedConcurrency < 1 {
		return fmt.Errorf("INGEST_FEED_CONCURRENCY must be >= 1")
	}
	if c.MergeThreshold < 0 || c.MergeThreshold > 1 {
		return fmt.Errorf("MERGE_SIMILARITY_THRESHOLD must be within [0, 1]")
	}
	if c.MinPreviewConfidence < 0 || c.MinPreviewConfidence > 1 {
		return fmt.Errorf("MIN_PREVIEW_CONFIDENCE must be within [0, 1]")
	}
	return nil
}

func (c *Config) AnthropicModelList() []string {
	return splitList(c.AnthropicModels)
}

func (c *Config) CORSAllowedOriginsList() []string {
	if c == nil {
		return nil
	}
	return splitList(c.CORSAllowedOrigins)
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		value := strings.TrimSpace(part)
		if value == "" {
			continue
		}
		if _, exists := seen[value]; exists {
			continue
		}
		seen[value] = struct{}{}
		values = append(values, value)
	}
	return values
}
