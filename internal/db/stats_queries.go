package db

import (
	"context"
	"fmt"
	"time"
)

// PipelineStats is the read model returned by the stats endpoint.
type PipelineStats struct {
	Articles            int64      `json:"articles"`
	NonArticles         int64      `json:"non_articles"`
	Stories             int64      `json:"stories"`
	PinnedStories       int64      `json:"pinned_stories"`
	ActiveFeeds         int64      `json:"active_feeds"`
	FailingFeeds        int64      `json:"failing_feeds"`
	ArticlesLast24h     int64      `json:"articles_last_24h"`
	StoriesLast24h      int64      `json:"stories_last_24h"`
	LastRunStartedAt    *time.Time `json:"last_run_started_at,omitempty"`
	LastRunStatus       *string    `json:"last_run_status,omitempty"`
	PendingSummaryFills int64      `json:"pending_summary_fills"`
}

// QueryPipelineStats returns pipeline-wide counts plus last-run state.
func (p *Pool) QueryPipelineStats(ctx context.Context, since time.Time) (*PipelineStats, error) {
	const q = `
SELECT
	(SELECT COUNT(*) FROM pulse.articles WHERE quality_label <> 'non_article'),
	(SELECT COUNT(*) FROM pulse.articles WHERE quality_label = 'non_article'),
	(SELECT COUNT(*) FROM pulse.stories WHERE deleted_at IS NULL),
	(SELECT COUNT(*) FROM pulse.stories WHERE deleted_at IS NULL AND status = 'pinned'),
	(SELECT COUNT(*) FROM pulse.feeds WHERE is_active),
	(SELECT COUNT(*) FROM pulse.feeds WHERE is_active AND failure_count >= 3),
	(SELECT COUNT(*) FROM pulse.articles WHERE fetched_at >= $1),
	(SELECT COUNT(*) FROM pulse.stories WHERE deleted_at IS NULL AND first_seen_at >= $1),
	(SELECT MAX(started_at) FROM pulse.ingest_runs),
	(SELECT status FROM pulse.ingest_runs ORDER BY started_at DESC LIMIT 1),
	(SELECT COUNT(*) FROM pulse.stories s
		WHERE s.deleted_at IS NULL AND s.status <> 'hidden'
		  AND (s.preview_text IS NULL OR s.preview_type = 'headline_only'))
`

	var stats PipelineStats
	err := p.QueryRow(ctx, q, since.UTC()).Scan(
		&stats.Articles,
		&stats.NonArticles,
		&stats.Stories,
		&stats.PinnedStories,
		&stats.ActiveFeeds,
		&stats.FailingFeeds,
		&stats.ArticlesLast24h,
		&stats.StoriesLast24h,
		&stats.LastRunStartedAt,
		&stats.LastRunStatus,
		&stats.PendingSummaryFills,
	)
	if err != nil {
		return nil, fmt.Errorf("query pipeline stats: %w", err)
	}
	return &stats, nil
}
