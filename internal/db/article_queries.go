package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// ArticleUpsert carries one normalized item into the articles table.
type ArticleUpsert struct {
	SourceID          *int64
	URL               string
	Title             string
	Summary           *string
	QualityLabel      string
	QualityScore      float64
	QualityReasons    []string
	ChoiceSource      *string
	ChoiceMethod      *string
	ChoiceConfidence  *float64
	ChoiceReasons     []string
	SummaryCandidates json.RawMessage
	PublishedAt       *time.Time
}

// UpsertResult reports whether the row was inserted or updated.
type UpsertResult struct {
	ArticleID int64
	Inserted  bool
}

// UpsertArticle inserts or refreshes an article keyed by URL. A stored
// summary is only replaced when it is missing, synthetic, clearly shorter
// than the incoming one, or beaten on adjudication confidence; re-ingesting
// the same item never downgrades summary state.
func (p *Pool) UpsertArticle(ctx context.Context, a ArticleUpsert) (*UpsertResult, error) {
	if a.URL == "" {
		return nil, fmt.Errorf("article url is empty")
	}

	qualityReasons, err := json.Marshal(a.QualityReasons)
	if err != nil {
		return nil, fmt.Errorf("marshal quality reasons: %w", err)
	}
	choiceReasons, err := json.Marshal(a.ChoiceReasons)
	if err != nil {
		return nil, fmt.Errorf("marshal choice reasons: %w", err)
	}

	const q = `
INSERT INTO pulse.articles (
	source_id, url, title, summary,
	quality_label, quality_score, quality_reasons,
	summary_choice_source, summary_choice_method, summary_choice_confidence,
	summary_choice_reasons, summary_candidates, summary_checked_at,
	published_at, fetched_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now(), $13, now())
ON CONFLICT (url) DO UPDATE SET
	title = CASE
		WHEN length(excluded.title) > 0 THEN excluded.title
		ELSE pulse.articles.title
	END,
	summary = CASE
		WHEN excluded.summary IS NULL THEN pulse.articles.summary
		WHEN pulse.articles.summary IS NULL THEN excluded.summary
		WHEN pulse.articles.summary_choice_source = 'fallback'
			AND COALESCE(excluded.summary_choice_source, '') <> 'fallback' THEN excluded.summary
		WHEN length(pulse.articles.summary) < 60
			AND length(excluded.summary) > length(pulse.articles.summary) THEN excluded.summary
		WHEN COALESCE(excluded.summary_choice_confidence, 0)
			> COALESCE(pulse.articles.summary_choice_confidence, 0) + 0.05 THEN excluded.summary
		ELSE pulse.articles.summary
	END,
	summary_choice_source = CASE
		WHEN excluded.summary IS NULL THEN pulse.articles.summary_choice_source
		WHEN pulse.articles.summary IS NULL THEN excluded.summary_choice_source
		WHEN pulse.articles.summary_choice_source = 'fallback'
			AND COALESCE(excluded.summary_choice_source, '') <> 'fallback' THEN excluded.summary_choice_source
		WHEN length(pulse.articles.summary) < 60
			AND length(excluded.summary) > length(pulse.articles.summary) THEN excluded.summary_choice_source
		WHEN COALESCE(excluded.summary_choice_confidence, 0)
			> COALESCE(pulse.articles.summary_choice_confidence, 0) + 0.05 THEN excluded.summary_choice_source
		ELSE pulse.articles.summary_choice_source
	END,
	summary_choice_method = COALESCE(excluded.summary_choice_method, pulse.articles.summary_choice_method),
	summary_choice_confidence = GREATEST(
		COALESCE(pulse.articles.summary_choice_confidence, 0),
		COALESCE(excluded.summary_choice_confidence, 0)
	),
	summary_choice_reasons = COALESCE(excluded.summary_choice_reasons, pulse.articles.summary_choice_reasons),
	summary_candidates = COALESCE(excluded.summary_candidates, pulse.articles.summary_candidates),
	summary_checked_at = now(),
	quality_label = excluded.quality_label,
	quality_score = excluded.quality_score,
	quality_reasons = excluded.quality_reasons,
	source_id = COALESCE(excluded.source_id, pulse.articles.source_id),
	published_at = COALESCE(pulse.articles.published_at, excluded.published_at),
	updated_at = now()
RETURNING article_id, (xmax = 0) AS inserted
`

	var res UpsertResult
	err = p.QueryRow(ctx, q,
		a.SourceID,
		a.URL,
		a.Title,
		a.Summary,
		a.QualityLabel,
		a.QualityScore,
		qualityReasons,
		a.ChoiceSource,
		a.ChoiceMethod,
		a.ChoiceConfidence,
		choiceReasons,
		nullableJSON(a.SummaryCandidates),
		a.PublishedAt,
	).Scan(&res.ArticleID, &res.Inserted)
	if err != nil {
		return nil, fmt.Errorf("upsert article %s: %w", a.URL, err)
	}
	return &res, nil
}

// QualityInput is the subset of article fields the classifier reads.
type QualityInput struct {
	ArticleID int64
	URL       string
	Title     string
	Summary   *string
}

// ListArticlesForReclassify returns recent articles for a batch quality pass.
func (p *Pool) ListArticlesForReclassify(ctx context.Context, limit int) ([]QualityInput, error) {
	if limit <= 0 {
		limit = 1000
	}

	const q = `
SELECT article_id, url, title, summary
FROM pulse.articles
ORDER BY fetched_at DESC
LIMIT $1
`

	rows, err := p.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("query articles for reclassify: %w", err)
	}
	defer rows.Close()

	items := make([]QualityInput, 0, limit)
	for rows.Next() {
		var row QualityInput
		if err := rows.Scan(&row.ArticleID, &row.URL, &row.Title, &row.Summary); err != nil {
			return nil, fmt.Errorf("scan reclassify row: %w", err)
		}
		items = append(items, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reclassify rows: %w", err)
	}
	return items, nil
}

// UpdateArticleQuality stores a fresh classification verdict.
func (p *Pool) UpdateArticleQuality(ctx context.Context, articleID int64, label string, score float64, reasons []string) error {
	payload, err := json.Marshal(reasons)
	if err != nil {
		return fmt.Errorf("marshal quality reasons: %w", err)
	}

	const q = `
UPDATE pulse.articles
SET quality_label = $2, quality_score = $3, quality_reasons = $4, updated_at = now()
WHERE article_id = $1
`

	if _, err := p.Exec(ctx, q, articleID, label, score, payload); err != nil {
		return fmt.Errorf("update article %d quality: %w", articleID, err)
	}
	return nil
}

// SummaryChoice persists an adjudicated article summary from the
// story summary-fill pass.
type SummaryChoice struct {
	ArticleID  int64
	Summary    string
	Source     string
	Method     string
	Confidence float64
	Reasons    []string
	Candidates json.RawMessage
}

// ApplySummaryChoice records the adjudication verdict on the article.
// The stored summary is only replaced when it is missing, short, or
// shorter than the adjudicated one.
func (p *Pool) ApplySummaryChoice(ctx context.Context, c SummaryChoice) error {
	reasons, err := json.Marshal(c.Reasons)
	if err != nil {
		return fmt.Errorf("marshal choice reasons: %w", err)
	}

	const q = `
UPDATE pulse.articles
SET summary = CASE
		WHEN summary IS NULL OR length(summary) < 40 THEN $2
		WHEN length($2) > length(summary) THEN $2
		ELSE summary
	END,
    summary_choice_source = $3,
    summary_choice_method = $4,
    summary_choice_confidence = $5,
    summary_choice_reasons = $6,
    summary_candidates = COALESCE($7, summary_candidates),
    summary_checked_at = now(),
    updated_at = now()
WHERE article_id = $1
`

	if _, err := p.Exec(ctx, q, c.ArticleID, c.Summary, c.Source, c.Method, c.Confidence, reasons, nullableJSON(c.Candidates)); err != nil {
		return fmt.Errorf("apply summary choice to article %d: %w", c.ArticleID, err)
	}
	return nil
}

// UngroupedArticle is the grouping engine's input row.
type UngroupedArticle struct {
	ArticleID   int64
	Title       string
	PublishedAt *time.Time
	FetchedAt   time.Time
}

// ListUngroupedArticles returns quality-accepted articles without a story.
func (p *Pool) ListUngroupedArticles(ctx context.Context, limit int) ([]UngroupedArticle, error) {
	if limit <= 0 {
		limit = 300
	}

	const q = `
SELECT a.article_id, a.title, a.published_at, a.fetched_at
FROM pulse.articles a
LEFT JOIN pulse.story_articles sa ON sa.article_id = a.article_id
WHERE sa.article_id IS NULL
  AND a.quality_label <> 'non_article'
ORDER BY COALESCE(a.published_at, a.fetched_at) DESC
LIMIT $1
`

	rows, err := p.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("query ungrouped articles: %w", err)
	}
	defer rows.Close()

	items := make([]UngroupedArticle, 0, limit)
	for rows.Next() {
		var row UngroupedArticle
		if err := rows.Scan(&row.ArticleID, &row.Title, &row.PublishedAt, &row.FetchedAt); err != nil {
			return nil, fmt.Errorf("scan ungrouped row: %w", err)
		}
		items = append(items, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ungrouped rows: %w", err)
	}
	return items, nil
}

// RecentArticle is the read model for the public articles listing.
type RecentArticle struct {
	ArticleID   int64      `json:"article_id"`
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	Summary     *string    `json:"summary,omitempty"`
	SourceName  *string    `json:"source_name,omitempty"`
	Domain      *string    `json:"domain,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	FetchedAt   time.Time  `json:"fetched_at"`
}

// ListRecentArticles returns accepted articles newest first.
func (p *Pool) ListRecentArticles(ctx context.Context, limit int) ([]RecentArticle, error) {
	if limit <= 0 {
		limit = 50
	}

	const q = `
SELECT a.article_id, a.title, a.url, a.summary,
       s.name, s.domain, a.published_at, a.fetched_at
FROM pulse.articles a
LEFT JOIN pulse.sources s ON s.source_id = a.source_id
WHERE a.quality_label <> 'non_article'
ORDER BY COALESCE(a.published_at, a.fetched_at) DESC, a.article_id DESC
LIMIT $1
`

	rows, err := p.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent articles: %w", err)
	}
	defer rows.Close()

	items := make([]RecentArticle, 0, limit)
	for rows.Next() {
		var row RecentArticle
		if err := rows.Scan(
			&row.ArticleID,
			&row.Title,
			&row.URL,
			&row.Summary,
			&row.SourceName,
			&row.Domain,
			&row.PublishedAt,
			&row.FetchedAt,
		); err != nil {
			return nil, fmt.Errorf("scan recent article row: %w", err)
		}
		items = append(items, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent article rows: %w", err)
	}
	return items, nil
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
