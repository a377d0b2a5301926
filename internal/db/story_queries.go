package db

import (
	"context"
	"fmt"
	"time"

	"pulsek12.com/pulse/internal/globaltime"
)

// storyKeyWindow bounds how far back a story key stays reusable. Articles
// older than this start a fresh story even with an identical key.
const storyKeyWindow = 7 * 24 * time.Hour

// StoryRef is the minimal handle returned by grouping lookups.
type StoryRef struct {
	StoryID    int64
	StoryKey   string
	LastSeenAt time.Time
}

// FindStoryByKey returns the newest story with the key inside the rolling
// reuse window, or ErrNoRows.
func (p *Pool) FindStoryByKey(ctx context.Context, key string) (*StoryRef, error) {
	const q = `
SELECT story_id, story_key, last_seen_at
FROM pulse.stories
WHERE story_key = $1
  AND deleted_at IS NULL
  AND last_seen_at >= $2
ORDER BY last_seen_at DESC
LIMIT 1
`

	cutoff := globaltime.UTC().Add(-storyKeyWindow)
	var ref StoryRef
	err := p.QueryRow(ctx, q, key, cutoff).Scan(&ref.StoryID, &ref.StoryKey, &ref.LastSeenAt)
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

// CreateStory inserts a story seeded from its first (primary) article.
func (p *Pool) CreateStory(ctx context.Context, key, title string, articleID int64, seenAt time.Time) (int64, error) {
	const insertStory = `
INSERT INTO pulse.stories (story_key, title, first_seen_at, last_seen_at)
VALUES ($1, $2, $3, $3)
RETURNING story_id
`
	const insertLink = `
INSERT INTO pulse.story_articles (story_id, article_id, is_primary)
VALUES ($1, $2, TRUE)
ON CONFLICT (story_id, article_id) DO NOTHING
`

	tx, err := p.BeginTx(ctx, TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("begin create story: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var storyID int64
	if err := tx.QueryRow(ctx, insertStory, key, title, seenAt.UTC()).Scan(&storyID); err != nil {
		return 0, fmt.Errorf("insert story: %w", err)
	}
	if _, err := tx.Exec(ctx, insertLink, storyID, articleID); err != nil {
		return 0, fmt.Errorf("link primary article: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit create story: %w", err)
	}
	return storyID, nil
}

// AttachArticle links an article to an existing story and advances
// last_seen_at monotonically. Repeat attachments are no-ops.
func (p *Pool) AttachArticle(ctx context.Context, storyID, articleID int64, seenAt time.Time) error {
	const insertLink = `
INSERT INTO pulse.story_articles (story_id, article_id)
VALUES ($1, $2)
ON CONFLICT (story_id, article_id) DO NOTHING
`
	const touch = `
UPDATE pulse.stories
SET last_seen_at = GREATEST(last_seen_at, $2), updated_at = now()
WHERE story_id = $1
`

	if _, err := p.Exec(ctx, insertLink, storyID, articleID); err != nil {
		return fmt.Errorf("attach article %d to story %d: %w", articleID, storyID, err)
	}
	if _, err := p.Exec(ctx, touch, storyID, seenAt.UTC()); err != nil {
		return fmt.Errorf("touch story %d: %w", storyID, err)
	}
	return nil
}

// MergeCandidate is one story in the merge engine's comparison set.
type MergeCandidate struct {
	StoryID      int64
	StoryKey     string
	Title        string
	EditorTitle  *string
	Status       string
	ArticleCount int64
	LastSeenAt   time.Time
}

// ListMergeCandidates returns recent stories, newest first, for pairwise
// similarity comparison.
func (p *Pool) ListMergeCandidates(ctx context.Context, lookbackDays, limit int) ([]MergeCandidate, error) {
	if lookbackDays <= 0 {
		lookbackDays = 4
	}
	if limit <= 0 {
		limit = 180
	}

	const q = `
SELECT s.story_id, s.story_key, s.title, s.editor_title, s.status,
       COUNT(sa.article_id)::BIGINT AS article_count,
       s.last_seen_at
FROM pulse.stories s
LEFT JOIN pulse.story_articles sa ON sa.story_id = s.story_id
WHERE s.deleted_at IS NULL
  AND s.last_seen_at >= $1
GROUP BY s.story_id
ORDER BY s.last_seen_at DESC
LIMIT $2
`

	cutoff := globaltime.UTC().AddDate(0, 0, -lookbackDays)
	rows, err := p.Query(ctx, q, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("query merge candidates: %w", err)
	}
	defer rows.Close()

	items := make([]MergeCandidate, 0, limit)
	for rows.Next() {
		var row MergeCandidate
		if err := rows.Scan(
			&row.StoryID,
			&row.StoryKey,
			&row.Title,
			&row.EditorTitle,
			&row.Status,
			&row.ArticleCount,
			&row.LastSeenAt,
		); err != nil {
			return nil, fmt.Errorf("scan merge candidate row: %w", err)
		}
		items = append(items, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate merge candidate rows: %w", err)
	}
	return items, nil
}

// MergeStories folds the source story into the target: article joins move
// idempotently, timestamps and editorial fields union, pinned status
// propagates, and the source row is deleted. Target identity is preserved.
func (p *Pool) MergeStories(ctx context.Context, targetID, sourceID int64) error {
	if targetID == sourceID {
		return fmt.Errorf("cannot merge story %d into itself", targetID)
	}

	const moveLinks = `
INSERT INTO pulse.story_articles (story_id, article_id, is_primary)
SELECT $1, sa.article_id, FALSE
FROM pulse.story_articles sa
WHERE sa.story_id = $2
ON CONFLICT (story_id, article_id) DO NOTHING
`
	const dropSourceLinks = `
DELETE FROM pulse.story_articles WHERE story_id = $1
`
	const foldStory = `
UPDATE pulse.stories t
SET first_seen_at = LEAST(t.first_seen_at, s.first_seen_at),
    last_seen_at = GREATEST(t.last_seen_at, s.last_seen_at),
    summary = COALESCE(t.summary, s.summary),
    editor_title = COALESCE(t.editor_title, s.editor_title),
    editor_summary = COALESCE(t.editor_summary, s.editor_summary),
    status = CASE WHEN s.status = 'pinned' AND t.status <> 'pinned' THEN 'pinned' ELSE t.status END,
    updated_at = now()
FROM pulse.stories s
WHERE t.story_id = $1 AND s.story_id = $2
`
	const deleteSource = `
DELETE FROM pulse.stories WHERE story_id = $1
`

	tx, err := p.BeginTx(ctx, TxOptions{})
	if err != nil {
		return fmt.Errorf("begin merge: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, moveLinks, targetID, sourceID); err != nil {
		return fmt.Errorf("move article links: %w", err)
	}
	if _, err := tx.Exec(ctx, foldStory, targetID, sourceID); err != nil {
		return fmt.Errorf("fold story fields: %w", err)
	}
	if _, err := tx.Exec(ctx, dropSourceLinks, sourceID); err != nil {
		return fmt.Errorf("drop source links: %w", err)
	}
	if _, err := tx.Exec(ctx, deleteSource, sourceID); err != nil {
		return fmt.Errorf("delete source story: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit merge: %w", err)
	}
	return nil
}

// RankedStoryRow is the ranking engine's input: story fields plus
// aggregates over its member articles.
type RankedStoryRow struct {
	StoryID           int64      `json:"story_id"`
	Title             string     `json:"title"`
	EditorTitle       *string    `json:"editor_title,omitempty"`
	Summary           *string    `json:"summary,omitempty"`
	EditorSummary     *string    `json:"editor_summary,omitempty"`
	Status            string     `json:"status"`
	PreviewText       *string    `json:"preview_text,omitempty"`
	PreviewType       *string    `json:"preview_type,omitempty"`
	PreviewConfidence *float64   `json:"preview_confidence,omitempty"`
	SummaryChoice     *string    `json:"summary_choice_source,omitempty"`
	FirstSeenAt       time.Time  `json:"first_seen_at"`
	LastSeenAt        time.Time  `json:"last_seen_at"`
	LatestPublishedAt *time.Time `json:"latest_published_at,omitempty"`
	ArticleCount      int64      `json:"article_count"`
	SourceCount       int64      `json:"source_count"`
	RecentCount       int64      `json:"recent_count"`
	AvgSourceWeight   float64    `json:"avg_source_weight"`
}

// ListStoriesForRanking returns active and pinned stories from the window
// with the per-story aggregates the scorer needs. Hidden stories and
// stories whose every member failed quality checks are excluded.
func (p *Pool) ListStoriesForRanking(ctx context.Context, sinceDays, limit int) ([]RankedStoryRow, error) {
	if sinceDays <= 0 {
		sinceDays = 7
	}
	if limit <= 0 {
		limit = 200
	}

	const q = `
SELECT
	s.story_id,
	s.title,
	s.editor_title,
	s.summary,
	s.editor_summary,
	s.status,
	s.preview_text,
	s.preview_type,
	s.preview_confidence,
	(
		SELECT a2.summary_choice_source
		FROM pulse.story_articles sa2
		JOIN pulse.articles a2 ON a2.article_id = sa2.article_id
		WHERE sa2.story_id = s.story_id
		ORDER BY sa2.is_primary DESC, a2.article_id
		LIMIT 1
	) AS summary_choice_source,
	s.first_seen_at,
	s.last_seen_at,
	MAX(a.published_at) AS latest_published_at,
	COUNT(a.article_id)::BIGINT AS article_count,
	COUNT(DISTINCT a.source_id)::BIGINT AS source_count,
	COUNT(a.article_id) FILTER (WHERE COALESCE(a.published_at, a.fetched_at) >= $3)::BIGINT AS recent_count,
	COALESCE(AVG(src.weight), 1.0) AS avg_source_weight
FROM pulse.stories s
JOIN pulse.story_articles sa ON sa.story_id = s.story_id
JOIN pulse.articles a ON a.article_id = sa.article_id AND a.quality_label <> 'non_article'
LEFT JOIN pulse.sources src ON src.source_id = a.source_id
WHERE s.deleted_at IS NULL
  AND s.status <> 'hidden'
  AND s.last_seen_at >= $1
GROUP BY s.story_id
ORDER BY s.last_seen_at DESC
LIMIT $2
`

	now := globaltime.UTC()
	cutoff := now.AddDate(0, 0, -sinceDays)
	recentCutoff := now.Add(-24 * time.Hour)

	rows, err := p.Query(ctx, q, cutoff, limit, recentCutoff)
	if err != nil {
		return nil, fmt.Errorf("query stories for ranking: %w", err)
	}
	defer rows.Close()

	items := make([]RankedStoryRow, 0, limit)
	for rows.Next() {
		var row RankedStoryRow
		if err := rows.Scan(
			&row.StoryID,
			&row.Title,
			&row.EditorTitle,
			&row.Summary,
			&row.EditorSummary,
			&row.Status,
			&row.PreviewText,
			&row.PreviewType,
			&row.PreviewConfidence,
			&row.SummaryChoice,
			&row.FirstSeenAt,
			&row.LastSeenAt,
			&row.LatestPublishedAt,
			&row.ArticleCount,
			&row.SourceCount,
			&row.RecentCount,
			&row.AvgSourceWeight,
		); err != nil {
			return nil, fmt.Errorf("scan ranked story row: %w", err)
		}
		items = append(items, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ranked story rows: %w", err)
	}
	return items, nil
}

// StoryMember is one article inside a story detail view.
type StoryMember struct {
	ArticleID   int64      `json:"article_id"`
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	Summary     *string    `json:"summary,omitempty"`
	ChoiceSrc   *string    `json:"summary_choice_source,omitempty"`
	SourceName  *string    `json:"source_name,omitempty"`
	Domain      *string    `json:"domain,omitempty"`
	IsPrimary   bool       `json:"is_primary"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// GetStory returns one story row or ErrNoRows.
func (p *Pool) GetStory(ctx context.Context, storyID int64) (*Story, error) {
	const q = `
SELECT story_id, story_key, title, summary, editor_title, editor_summary,
       status, preview_text, preview_type, preview_confidence, preview_reason,
       first_seen_at, last_seen_at, created_at, updated_at, deleted_at
FROM pulse.stories
WHERE story_id = $1 AND deleted_at IS NULL
`

	var s Story
	err := p.QueryRow(ctx, q, storyID).Scan(
		&s.StoryID,
		&s.StoryKey,
		&s.Title,
		&s.Summary,
		&s.EditorTitle,
		&s.EditorSummary,
		&s.Status,
		&s.PreviewText,
		&s.PreviewType,
		&s.PreviewConfidence,
		&s.PreviewReason,
		&s.FirstSeenAt,
		&s.LastSeenAt,
		&s.CreatedAt,
		&s.UpdatedAt,
		&s.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListStoryMembers returns a story's accepted articles, primary first.
func (p *Pool) ListStoryMembers(ctx context.Context, storyID int64) ([]StoryMember, error) {
	const q = `
SELECT a.article_id, a.title, a.url, a.summary, a.summary_choice_source,
       src.name, src.domain, sa.is_primary, a.published_at
FROM pulse.story_articles sa
JOIN pulse.articles a ON a.article_id = sa.article_id
LEFT JOIN pulse.sources src ON src.source_id = a.source_id
WHERE sa.story_id = $1
  AND a.quality_label <> 'non_article'
ORDER BY sa.is_primary DESC, COALESCE(a.published_at, a.fetched_at) DESC
`

	rows, err := p.Query(ctx, q, storyID)
	if err != nil {
		return nil, fmt.Errorf("query story members: %w", err)
	}
	defer rows.Close()

	items := make([]StoryMember, 0, 8)
	for rows.Next() {
		var row StoryMember
		if err := rows.Scan(
			&row.ArticleID,
			&row.Title,
			&row.URL,
			&row.Summary,
			&row.ChoiceSrc,
			&row.SourceName,
			&row.Domain,
			&row.IsPrimary,
			&row.PublishedAt,
		); err != nil {
			return nil, fmt.Errorf("scan story member row: %w", err)
		}
		items = append(items, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate story member rows: %w", err)
	}
	return items, nil
}

// SummaryRefreshStory is one story whose preview needs (re)building.
type SummaryRefreshStory struct {
	StoryID        int64
	Title          string
	EditorTitle    *string
	Summary        *string
	PreviewText    *string
	ArticleID      int64
	ArticleTitle   *string
	ArticleURL     string
	ArticleSummary *string
}

// ListStoriesNeedingSummary returns stories with a missing, short, or
// suppressed preview, newest first, each paired with its freshest usable
// member article.
func (p *Pool) ListStoriesNeedingSummary(ctx context.Context, limit int) ([]SummaryRefreshStory, error) {
	if limit <= 0 {
		limit = 100
	}

	const q = `
SELECT s.story_id, s.title, s.editor_title, s.summary, s.preview_text,
       a.article_id, a.title, a.url, a.summary
FROM pulse.stories s
JOIN LATERAL (
	SELECT a1.article_id, a1.title, a1.url, a1.summary
	FROM pulse.story_articles sa1
	JOIN pulse.articles a1 ON a1.article_id = sa1.article_id
	WHERE sa1.story_id = s.story_id
	  AND COALESCE(a1.quality_label, 'uncertain') <> 'non_article'
	  AND a1.url NOT ILIKE 'https://news.google.com/rss/articles/%'
	ORDER BY COALESCE(a1.published_at, a1.fetched_at) DESC
	LIMIT 1
) a ON TRUE
WHERE s.deleted_at IS NULL
  AND s.status <> 'hidden'
  AND (
	s.preview_text IS NULL
	OR length(s.preview_text) < 40
	OR s.preview_type = 'headline_only'
	OR s.preview_confidence IS NULL
	OR s.preview_confidence < 0.35
  )
ORDER BY s.last_seen_at DESC
LIMIT $1
`

	rows, err := p.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("query stories needing summary: %w", err)
	}
	defer rows.Close()

	items := make([]SummaryRefreshStory, 0, limit)
	for rows.Next() {
		var row SummaryRefreshStory
		if err := rows.Scan(
			&row.StoryID,
			&row.Title,
			&row.EditorTitle,
			&row.Summary,
			&row.PreviewText,
			&row.ArticleID,
			&row.ArticleTitle,
			&row.ArticleURL,
			&row.ArticleSummary,
		); err != nil {
			return nil, fmt.Errorf("scan summary refresh row: %w", err)
		}
		items = append(items, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summary refresh rows: %w", err)
	}
	return items, nil
}

// StoryPreviewUpdate persists one preview decision.
type StoryPreviewUpdate struct {
	StoryID    int64
	Summary    *string
	Text       *string
	Type       string
	Confidence float64
	Reason     string
}

// UpdateStoryPreview stores the preview decision and, when provided, the
// refreshed story summary.
func (p *Pool) UpdateStoryPreview(ctx context.Context, u StoryPreviewUpdate) error {
	const q = `
UPDATE pulse.stories
SET summary = COALESCE($2, summary),
    preview_text = $3,
    preview_type = $4,
    preview_confidence = $5,
    preview_reason = $6,
    updated_at = now()
WHERE story_id = $1
`

	if _, err := p.Exec(ctx, q, u.StoryID, u.Summary, u.Text, u.Type, u.Confidence, u.Reason); err != nil {
		return fmt.Errorf("update story %d preview: %w", u.StoryID, err)
	}
	return nil
}

// UpdateStoryTitle replaces a story's working title (not the editor
// override).
func (p *Pool) UpdateStoryTitle(ctx context.Context, storyID int64, title string) error {
	const q = `
UPDATE pulse.stories
SET title = $2, updated_at = now()
WHERE story_id = $1
`

	if _, err := p.Exec(ctx, q, storyID, title); err != nil {
		return fmt.Errorf("update story %d title: %w", storyID, err)
	}
	return nil
}

// SetStoryStatus transitions a story between active, pinned, and hidden.
func (p *Pool) SetStoryStatus(ctx context.Context, storyID int64, status string) error {
	switch status {
	case StoryStatusActive, StoryStatusPinned, StoryStatusHidden:
	default:
		return fmt.Errorf("invalid story status %q", status)
	}

	const q = `
UPDATE pulse.stories
SET status = $2, updated_at = now()
WHERE story_id = $1 AND deleted_at IS NULL
`

	tag, err := p.Exec(ctx, q, storyID, status)
	if err != nil {
		return fmt.Errorf("set story %d status: %w", storyID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

// SetStoryEditorOverride stores editor-provided title/summary overrides.
// Empty strings clear the respective override.
func (p *Pool) SetStoryEditorOverride(ctx context.Context, storyID int64, title, summary *string) error {
	const q = `
UPDATE pulse.stories
SET editor_title = NULLIF(COALESCE($2, editor_title, ''), ''),
    editor_summary = NULLIF(COALESCE($3, editor_summary, ''), ''),
    updated_at = now()
WHERE story_id = $1 AND deleted_at IS NULL
`

	tag, err := p.Exec(ctx, q, storyID, title, summary)
	if err != nil {
		return fmt.Errorf("set story %d editor override: %w", storyID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}
