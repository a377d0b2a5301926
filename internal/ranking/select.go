package ranking

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"pulsek12.com/pulse/internal/db"
	"pulsek12.com/pulse/internal/llm"
	"pulsek12.com/pulse/internal/summary"
	"pulsek12.com/pulse/internal/textnorm"
)

// Story is one ranked homepage entry, ready for API serialization.
type Story struct {
	ID                int64     `json:"story_id"`
	Title             string    `json:"title"`
	Summary           string    `json:"summary,omitempty"`
	PreviewType       string    `json:"preview_type"`
	PreviewConfidence float64   `json:"preview_confidence"`
	Status            string    `json:"status"`
	StoryType         StoryType `json:"story_type"`
	Score             float64   `json:"score"`
	LeadEligible      bool      `json:"lead_eligible"`
	LeadReason        string    `json:"lead_reason,omitempty"`
	UrgencyOverride   bool      `json:"urgency_override"`
	ArticleCount      int64     `json:"article_count"`
	SourceCount       int64     `json:"source_count"`
	RecentCount       int64     `json:"recent_count"`
	FirstSeenAt       time.Time `json:"first_seen_at"`
	LastSeenAt        time.Time `json:"last_seen_at"`
	Breakdown         Breakdown `json:"score_breakdown"`

	editorSummary   bool
	matchesAudience bool
	topics          map[string]struct{}
}

// Reranker is the slice of the LLM client the selection pipeline needs.
type Reranker interface {
	Enabled() bool
	RerankStories(ctx context.Context, items []llm.RerankItem) (*llm.RerankVerdict, error)
}

// Options tune one selection run.
type Options struct {
	Limit    int
	Audience Audience
	Now      time.Time
}

const (
	topicSimilarityThreshold = 0.62
	topicStrongThreshold     = 0.78
	topicSoftPenalty         = 0.88
	topicStrongPenalty       = 0.72
	rerankPoolSize           = 30
)

var rejectTitleRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^from\s+`),
	regexp.MustCompile(`(?i)^(news|opinion|podcast|video)\s*\|`),
	regexp.MustCompile(`(?i)\bslug\s*permalinkurl\b`),
	regexp.MustCompile(`(?i)\bcharacters?\s+or\s+less\b`),
	regexp.MustCompile(`(?i)^untitled$`),
}

// Engine turns ranking rows into the final ordered homepage set.
type Engine struct {
	logger               zerolog.Logger
	reranker             Reranker
	cache                *RerankCache
	minPreviewConfidence float64
}

// NewEngine wires the selection pipeline. reranker may be nil to force
// deterministic ordering; cache may be nil when reranker is nil.
func NewEngine(logger zerolog.Logger, reranker Reranker, cache *RerankCache, minPreviewConfidence float64) *Engine {
	if minPreviewConfidence <= 0 {
		minPreviewConfidence = 0.58
	}
	return &Engine{
		logger:               logger.With().Str("component", "ranking").Logger(),
		reranker:             reranker,
		cache:                cache,
		minPreviewConfidence: minPreviewConfidence,
	}
}

// Select scores, orders, and trims the candidate rows down to the
// homepage set. Every stage degrades deterministically: a vanished or
// failing rerank backend leaves the keyword-scored order intact.
func (e *Engine) Select(ctx context.Context, rows []db.RankedStoryRow, opts Options) []Story {
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	stories := e.buildStories(rows, opts.Audience, now)

	if opts.Audience != "" {
		matched := make([]Story, 0, len(stories))
		for _, s := range stories {
			if s.matchesAudience {
				matched = append(matched, s)
			}
		}
		if len(matched) > 0 {
			stories = matched
		}
	}

	pinnedFirstSort(stories)
	applyTopicPenalty(stories)
	pinnedFirstSort(stories)

	stories = e.rerank(ctx, stories)
	stories = selectDiverse(stories, opts.Limit)
	promoteLead(stories)
	suppressDuplicatePreviews(stories)
	return stories
}

func (e *Engine) buildStories(rows []db.RankedStoryRow, audience Audience, now time.Time) []Story {
	stories := make([]Story, 0, len(rows))
	for _, row := range rows {
		title := strings.TrimSpace(row.Title)
		if row.EditorTitle != nil && strings.TrimSpace(*row.EditorTitle) != "" {
			title = strings.TrimSpace(*row.EditorTitle)
		} else {
			title = textnorm.NormalizeTitleCase(title)
		}
		if title == "" || titleRejected(title) {
			continue
		}

		editorSummary := sanitizeOptional(row.EditorSummary)
		storySummary := sanitizeOptional(row.Summary)
		previewText := sanitizeOptional(row.PreviewText)
		previewType := ""
		if row.PreviewType != nil {
			previewType = strings.ToLower(strings.TrimSpace(*row.PreviewType))
		}
		previewConfidence := 0.0
		if row.PreviewConfidence != nil {
			previewConfidence = clampRange(*row.PreviewConfidence, 0, 1)
		}

		display, displayType, displayConfidence := resolvePreview(
			storySummary, previewText, previewType, previewConfidence, e.minPreviewConfidence)

		resolved := display
		if editorSummary != "" {
			resolved = editorSummary
			display = editorSummary
			displayType = summary.PreviewFull
			displayConfidence = 1
		}

		analysis := Analyze(Inputs{
			Title:        title,
			Summary:      resolved,
			ArticleCount: row.ArticleCount,
			SourceCount:  row.SourceCount,
			RecentCount:  row.RecentCount,
			AvgWeight:    row.AvgSourceWeight,
			LatestAt:     latestActivity(row),
			Now:          now,
		})

		score := analysis.Score
		if editorSummary == "" {
			if display == "" {
				score = round2(score * 0.9)
			} else if displayConfidence < e.minPreviewConfidence+0.08 {
				score = round2(score * 0.96)
			}
		}

		stories = append(stories, Story{
			ID:                row.StoryID,
			Title:             title,
			Summary:           display,
			PreviewType:       displayType,
			PreviewConfidence: round2(displayConfidence),
			Status:            row.Status,
			StoryType:         analysis.StoryType,
			Score:             score,
			LeadEligible:      analysis.LeadEligible,
			LeadReason:        analysis.LeadReason,
			UrgencyOverride:   analysis.UrgencyOverride,
			ArticleCount:      row.ArticleCount,
			SourceCount:       row.SourceCount,
			RecentCount:       row.RecentCount,
			FirstSeenAt:       row.FirstSeenAt,
			LastSeenAt:        row.LastSeenAt,
			Breakdown:         analysis.Breakdown,
			editorSummary:     editorSummary != "",
			matchesAudience:   audience == "" || MatchesAudience(title+" "+resolved, audience),
			topics:            topicTokens(title),
		})
	}
	return stories
}

// resolvePreview picks the homepage summary from the stored preview
// decision, falling back to the raw story summary for rows written
// before previews existed.
func resolvePreview(storySummary, previewText, previewType string, previewConfidence, minConfidence float64) (string, string, float64) {
	structured := previewType == summary.PreviewFull ||
		previewType == summary.PreviewExcerpt ||
		previewType == summary.PreviewHeadlineOnly
	legacyDefault := previewType == summary.PreviewHeadlineOnly &&
		previewText == "" && previewConfidence == 0

	if structured && !legacyDefault {
		usable := previewType != summary.PreviewHeadlineOnly &&
			previewText != "" &&
			previewConfidence >= minConfidence
		if usable {
			return previewText, previewType, previewConfidence
		}
		return "", summary.PreviewHeadlineOnly, previewConfidence
	}

	if storySummary != "" {
		return storySummary, summary.PreviewExcerpt, 0.5
	}
	return "", summary.PreviewHeadlineOnly, 0
}

func latestActivity(row db.RankedStoryRow) time.Time {
	if row.LatestPublishedAt != nil && !row.LatestPublishedAt.IsZero() {
		return *row.LatestPublishedAt
	}
	return row.LastSeenAt
}

func sanitizeOptional(v *string) string {
	if v == nil {
		return ""
	}
	return summary.Sanitize(*v)
}

func titleRejected(title string) bool {
	for _, re := range rejectTitleRes {
		if re.MatchString(title) {
			return true
		}
	}
	return false
}

func pinnedFirstSort(stories []Story) {
	sort.SliceStable(stories, func(i, j int) bool {
		pi, pj := stories[i].Status == db.StoryStatusPinned, stories[j].Status == db.StoryStatusPinned
		if pi != pj {
			return pi
		}
		return stories[i].Score > stories[j].Score
	})
}

// applyTopicPenalty walks the ranked list and discounts every story
// whose title substantially overlaps one already seen above it. Pinned
// stories are exempt.
func applyTopicPenalty(stories []Story) {
	for i := range stories {
		if stories[i].Status == db.StoryStatusPinned {
			continue
		}
		maxOverlap := 0.0
		for j := 0; j < i; j++ {
			if o := topicOverlap(stories[i].topics, stories[j].topics); o > maxOverlap {
				maxOverlap = o
			}
		}
		if maxOverlap < topicSimilarityThreshold {
			continue
		}
		penalty := topicSoftPenalty
		if maxOverlap >= topicStrongThreshold {
			penalty = topicStrongPenalty
		}
		stories[i].Score = round2(stories[i].Score * penalty)
	}
}

func (e *Engine) rerank(ctx context.Context, stories []Story) []Story {
	if e.reranker == nil || !e.reranker.Enabled() || len(stories) < 3 {
		return stories
	}

	pool := stories
	if len(pool) > rerankPoolSize {
		pool = pool[:rerankPoolSize]
	}
	currentIDs := make([]int64, len(pool))
	for i, s := range pool {
		currentIDs[i] = s.ID
	}

	if e.cache != nil {
		if cached, ok := e.cache.Get(currentIDs); ok {
			return applyRerankOrder(stories, cached)
		}
	}

	items := make([]llm.RerankItem, len(pool))
	for i, s := range pool {
		items[i] = llm.RerankItem{StoryID: s.ID, Title: s.Title, Summary: s.Summary}
	}
	verdict, err := e.reranker.RerankStories(ctx, items)
	if err != nil {
		e.logger.Warn().Err(err).Msg("ai rerank failed, keeping deterministic order")
		return stories
	}

	demoted := make(map[int64]struct{}, len(verdict.Demote))
	for _, id := range verdict.Demote {
		demoted[id] = struct{}{}
	}
	order := rerankOrder{IDs: verdict.Order, Demoted: demoted}
	reordered := applyRerankOrder(stories, order)

	if e.cache != nil {
		cachedIDs := make([]int64, 0, rerankPoolSize)
		for _, s := range reordered {
			cachedIDs = append(cachedIDs, s.ID)
			if len(cachedIDs) >= rerankPoolSize {
				break
			}
		}
		e.cache.Put(rerankOrder{IDs: cachedIDs, Demoted: demoted})
	}
	e.logger.Info().Int("ordered", len(verdict.Order)).Int("demoted", len(verdict.Demote)).Msg("ai rerank applied")
	return reordered
}

func applyRerankOrder(stories []Story, order rerankOrder) []Story {
	position := make(map[int64]int, len(order.IDs))
	for i, id := range order.IDs {
		position[id] = i
	}

	kept := make([]Story, 0, len(stories))
	for _, s := range stories {
		if _, dropped := order.Demoted[s.ID]; dropped {
			continue
		}
		kept = append(kept, s)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		pi, iOK := position[kept[i].ID]
		pj, jOK := position[kept[j].ID]
		if iOK && jOK {
			return pi < pj
		}
		if iOK != jOK {
			return iOK
		}
		return kept[i].Score > kept[j].Score
	})
	return kept
}

// selectDiverse fills the page: pinned stories first, then stories that
// clear the similarity threshold against everything already selected,
// then a plain backfill if slots remain.
func selectDiverse(stories []Story, limit int) []Story {
	if len(stories) <= limit {
		return stories
	}

	selected := make([]Story, 0, limit)
	taken := make(map[int64]struct{}, limit)

	for _, s := range stories {
		if len(selected) >= limit {
			break
		}
		if s.Status == db.StoryStatusPinned {
			selected = append(selected, s)
			taken[s.ID] = struct{}{}
		}
	}
	for _, s := range stories {
		if len(selected) >= limit {
			break
		}
		if _, ok := taken[s.ID]; ok {
			continue
		}
		tooClose := false
		for _, picked := range selected {
			if topicOverlap(s.topics, picked.topics) >= topicSimilarityThreshold {
				tooClose = true
				break
			}
		}
		if tooClose {
			continue
		}
		selected = append(selected, s)
		taken[s.ID] = struct{}{}
	}
	for _, s := range stories {
		if len(selected) >= limit {
			break
		}
		if _, ok := taken[s.ID]; ok {
			continue
		}
		selected = append(selected, s)
		taken[s.ID] = struct{}{}
	}
	return selected
}

// promoteLead moves the first lead-eligible story to the top when the
// current top slot holds an ineligible, unpinned story.
func promoteLead(stories []Story) {
	if len(stories) <= 1 {
		return
	}
	if stories[0].Status == db.StoryStatusPinned || stories[0].LeadEligible {
		return
	}
	for i := 1; i < len(stories); i++ {
		if !stories[i].LeadEligible {
			continue
		}
		lead := stories[i]
		copy(stories[1:i+1], stories[:i])
		stories[0] = lead
		return
	}
}

// suppressDuplicatePreviews demotes repeated preview texts to
// headline-only so the page never shows the same blurb twice.
func suppressDuplicatePreviews(stories []Story) {
	var shown []string
	for i := range stories {
		if stories[i].Summary == "" {
			continue
		}
		duplicate := false
		for _, prev := range shown {
			if previewsNearDuplicate(stories[i].Summary, prev) {
				duplicate = true
				break
			}
		}
		if duplicate {
			stories[i].Summary = ""
			stories[i].PreviewType = summary.PreviewHeadlineOnly
			continue
		}
		shown = append(shown, stories[i].Summary)
	}
}
