package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pulsek12.com/pulse/internal/globaltime"
)

// FeedSeed describes one curated feed for first-run seeding.
type FeedSeed struct {
	Name     string
	URL      string
	FeedType string
	Tier     string
}

// SeedFeeds inserts curated feeds that are not present yet. Existing rows
// keep any operator edits (is_active, tier).
func (p *Pool) SeedFeeds(ctx context.Context, seeds []FeedSeed) (int64, error) {
	const q = `
INSERT INTO pulse.feeds (name, url, feed_type, tier)
VALUES ($1, $2, $3, $4)
ON CONFLICT (url) DO NOTHING
`

	var inserted int64
	for _, seed := range seeds {
		url := strings.TrimSpace(seed.URL)
		if url == "" {
			continue
		}
		feedType := seed.FeedType
		if feedType == "" {
			feedType = "rss"
		}
		tier := seed.Tier
		if tier == "" {
			tier = "B"
		}
		tag, err := p.Exec(ctx, q, seed.Name, url, feedType, tier)
		if err != nil {
			return inserted, fmt.Errorf("seed feed %s: %w", url, err)
		}
		inserted += tag.RowsAffected()
	}
	return inserted, nil
}

// ReplaceFeedURL migrates a feed row to a new URL, used when a publisher
// moves its RSS endpoint. No-op when the old URL is absent or the new URL
// already exists.
func (p *Pool) ReplaceFeedURL(ctx context.Context, oldURL, newURL string) error {
	const q = `
UPDATE pulse.feeds
SET url = $2, failure_count = 0, last_error = NULL, updated_at = now()
WHERE url = $1
  AND NOT EXISTS (SELECT 1 FROM pulse.feeds WHERE url = $2)
`

	if _, err := p.Exec(ctx, q, oldURL, newURL); err != nil {
		return fmt.Errorf("replace feed url %s: %w", oldURL, err)
	}
	return nil
}

// ListActiveFeeds returns feeds eligible for the current ingest run.
func (p *Pool) ListActiveFeeds(ctx context.Context) ([]Feed, error) {
	const q = `
SELECT feed_id, source_id, name, url, feed_type, tier, is_active,
       failure_count, last_error, last_success_at, created_at, updated_at
FROM pulse.feeds
WHERE is_active
ORDER BY tier, feed_id
`

	rows, err := p.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query active feeds: %w", err)
	}
	defer rows.Close()

	feeds := make([]Feed, 0, 32)
	for rows.Next() {
		var f Feed
		if err := rows.Scan(
			&f.FeedID,
			&f.SourceID,
			&f.Name,
			&f.URL,
			&f.FeedType,
			&f.Tier,
			&f.IsActive,
			&f.FailureCount,
			&f.LastError,
			&f.LastSuccessAt,
			&f.CreatedAt,
			&f.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan feed row: %w", err)
		}
		feeds = append(feeds, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feed rows: %w", err)
	}
	return feeds, nil
}

// MarkFeedFailure increments the failure counter and records the error.
func (p *Pool) MarkFeedFailure(ctx context.Context, feedID int64, cause error) error {
	const q = `
UPDATE pulse.feeds
SET failure_count = failure_count + 1,
    last_error = $2,
    updated_at = now()
WHERE feed_id = $1
`

	message := "unknown error"
	if cause != nil {
		message = cause.Error()
	}
	if len(message) > 500 {
		message = message[:500]
	}
	if _, err := p.Exec(ctx, q, feedID, message); err != nil {
		return fmt.Errorf("mark feed %d failed: %w", feedID, err)
	}
	return nil
}

// MarkFeedSuccess resets the failure counter and stamps last_success_at.
func (p *Pool) MarkFeedSuccess(ctx context.Context, feedID int64) error {
	const q = `
UPDATE pulse.feeds
SET failure_count = 0,
    last_error = NULL,
    last_success_at = $2,
    updated_at = now()
WHERE feed_id = $1
`

	if _, err := p.Exec(ctx, q, feedID, globaltime.UTC()); err != nil {
		return fmt.Errorf("mark feed %d succeeded: %w", feedID, err)
	}
	return nil
}

// EnsureSource returns the source for a domain, creating it when unseen.
// Weight and tier are only set on insert; later tier curation wins.
func (p *Pool) EnsureSource(ctx context.Context, name, domain, tier string, weight float64) (*Source, error) {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return nil, fmt.Errorf("source domain is empty")
	}

	const insertQ = `
INSERT INTO pulse.sources (name, domain, tier, weight)
VALUES ($1, $2, $3, $4)
ON CONFLICT (domain) DO UPDATE SET updated_at = now()
RETURNING source_id, name, domain, tier, weight, created_at, updated_at
`

	var s Source
	err := p.QueryRow(ctx, insertQ, name, domain, tier, weight).Scan(
		&s.SourceID,
		&s.Name,
		&s.Domain,
		&s.Tier,
		&s.Weight,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("ensure source %s: %w", domain, err)
	}
	return &s, nil
}

// FeedHealth is the read model for the feeds CLI listing.
type FeedHealth struct {
	FeedID        int64      `json:"feed_id"`
	Name          string     `json:"name"`
	URL           string     `json:"url"`
	FeedType      string     `json:"feed_type"`
	Tier          string     `json:"tier"`
	IsActive      bool       `json:"is_active"`
	FailureCount  int        `json:"failure_count"`
	LastError     *string    `json:"last_error,omitempty"`
	LastSuccessAt *time.Time `json:"last_success_at,omitempty"`
}

// ListFeedHealth returns all feeds with their failure state, worst first.
func (p *Pool) ListFeedHealth(ctx context.Context) ([]FeedHealth, error) {
	const q = `
SELECT feed_id, name, url, feed_type, tier, is_active,
       failure_count, last_error, last_success_at
FROM pulse.feeds
ORDER BY failure_count DESC, feed_id
`

	rows, err := p.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query feed health: %w", err)
	}
	defer rows.Close()

	items := make([]FeedHealth, 0, 32)
	for rows.Next() {
		var row FeedHealth
		if err := rows.Scan(
			&row.FeedID,
			&row.Name,
			&row.URL,
			&row.FeedType,
			&row.Tier,
			&row.IsActive,
			&row.FailureCount,
			&row.LastError,
			&row.LastSuccessAt,
		); err != nil {
			return nil, fmt.Errorf("scan feed health row: %w", err)
		}
		items = append(items, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feed health rows: %w", err)
	}
	return items, nil
}
