package grouping

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"pulsek12.com/pulse/internal/db"
)

// Store is the persistence surface the engine needs.
type Store interface {
	ListUngroupedArticles(ctx context.Context, limit int) ([]db.UngroupedArticle, error)
	FindStoryByKey(ctx context.Context, key string) (*db.StoryRef, error)
	CreateStory(ctx context.Context, key, title string, articleID int64, seenAt time.Time) (int64, error)
	AttachArticle(ctx context.Context, storyID, articleID int64, seenAt time.Time) error
	ListMergeCandidates(ctx context.Context, lookbackDays, limit int) ([]db.MergeCandidate, error)
	MergeStories(ctx context.Context, targetID, sourceID int64) error
}

// Options tune the merge pass. Zero values take the documented defaults.
type Options struct {
	LookbackDays   int
	CandidateLimit int
	MaxMerges      int
	Threshold      float64
	GroupBatch     int
}

func (o Options) withDefaults() Options {
	if o.LookbackDays <= 0 {
		o.LookbackDays = 4
	}
	if o.CandidateLimit <= 0 {
		o.CandidateLimit = 180
	}
	if o.MaxMerges <= 0 {
		o.MaxMerges = 12
	}
	if o.Threshold <= 0 {
		o.Threshold = 0.62
	}
	o.Threshold = math.Max(0.4, math.Min(0.95, o.Threshold))
	if o.GroupBatch <= 0 {
		o.GroupBatch = 300
	}
	return o
}

// Engine runs the grouping and merge passes.
type Engine struct {
	store  Store
	opts   Options
	logger zerolog.Logger
}

func NewEngine(store Store, opts Options, logger zerolog.Logger) *Engine {
	return &Engine{store: store, opts: opts.withDefaults(), logger: logger}
}

// GroupArticles buckets ungrouped accepted articles into stories by
// story key. Returns the number of articles grouped.
func (e *Engine) GroupArticles(ctx context.Context) (int, error) {
	articles, err := e.store.ListUngroupedArticles(ctx, e.opts.GroupBatch)
	if err != nil {
		return 0, fmt.Errorf("list ungrouped articles: %w", err)
	}

	grouped := 0
	for _, article := range articles {
		key := StoryKey(article.Title)
		if key == "" {
			continue
		}

		seenAt := article.FetchedAt
		if article.PublishedAt != nil {
			seenAt = *article.PublishedAt
		}

		ref, err := e.store.FindStoryByKey(ctx, key)
		switch {
		case err == nil:
			if err := e.store.AttachArticle(ctx, ref.StoryID, article.ArticleID, seenAt); err != nil {
				e.logger.Warn().Err(err).Int64("article_id", article.ArticleID).Msg("attach failed, skipping article")
				continue
			}
		case db.IsNoRows(err):
			if _, err := e.store.CreateStory(ctx, key, article.Title, article.ArticleID, seenAt); err != nil {
				e.logger.Warn().Err(err).Int64("article_id", article.ArticleID).Msg("create story failed, skipping article")
				continue
			}
		default:
			return grouped, fmt.Errorf("find story by key: %w", err)
		}
		grouped++
	}
	return grouped, nil
}

// MergePair is one planned merge, source folding into target.
type MergePair struct {
	TargetID int64
	SourceID int64
	Score    float64
}

// dayGapLimit breaks pair comparison once candidates drift more than
// this many days apart; the list is ordered newest first.
const dayGapLimit = 2

// PlanMerges computes which similar stories should merge. Pure function
// over the candidate list so the pairing logic is testable without a
// database. Each story participates in at most one merge per run.
func PlanMerges(candidates []db.MergeCandidate, opts Options) []MergePair {
	opts = opts.withDefaults()

	tokens := make([]map[string]struct{}, len(candidates))
	for i, candidate := range candidates {
		title := candidate.Title
		if candidate.EditorTitle != nil && *candidate.EditorTitle != "" {
			title = *candidate.EditorTitle
		}
		tokens[i] = mergeTokens(title, candidate.StoryKey)
	}

	used := make(map[int64]struct{}, opts.MaxMerges*2)
	pairs := make([]MergePair, 0, opts.MaxMerges)

	for i := 0; i < len(candidates) && len(pairs) < opts.MaxMerges; i++ {
		a := candidates[i]
		if _, taken := used[a.StoryID]; taken {
			continue
		}
		for j := i + 1; j < len(candidates); j++ {
			b := candidates[j]
			if gap := a.LastSeenAt.Sub(b.LastSeenAt); gap > dayGapLimit*24*time.Hour {
				break
			}
			if _, taken := used[b.StoryID]; taken {
				continue
			}

			score := overlapRatio(tokens[i], tokens[j])
			if score < opts.Threshold {
				continue
			}

			target, source := pickMergeTarget(a, b)
			pairs = append(pairs, MergePair{TargetID: target.StoryID, SourceID: source.StoryID, Score: score})
			used[a.StoryID] = struct{}{}
			used[b.StoryID] = struct{}{}
			break
		}
	}
	return pairs
}

// pickMergeTarget chooses which story survives: pinned beats everything,
// then an editor override, then article count, then recency.
func pickMergeTarget(a, b db.MergeCandidate) (target, source db.MergeCandidate) {
	aPinned := a.Status == db.StoryStatusPinned
	bPinned := b.Status == db.StoryStatusPinned
	if aPinned != bPinned {
		if aPinned {
			return a, b
		}
		return b, a
	}

	aEditor := a.EditorTitle != nil && *a.EditorTitle != ""
	bEditor := b.EditorTitle != nil && *b.EditorTitle != ""
	if aEditor != bEditor {
		if aEditor {
			return a, b
		}
		return b, a
	}

	if a.ArticleCount != b.ArticleCount {
		if a.ArticleCount > b.ArticleCount {
			return a, b
		}
		return b, a
	}

	if a.LastSeenAt.After(b.LastSeenAt) {
		return a, b
	}
	return b, a
}

// MergeStories plans and executes merges. Individual merge failures are
// logged and skipped; the pass continues.
func (e *Engine) MergeStories(ctx context.Context) (int, error) {
	candidates, err := e.store.ListMergeCandidates(ctx, e.opts.LookbackDays, e.opts.CandidateLimit)
	if err != nil {
		return 0, fmt.Errorf("list merge candidates: %w", err)
	}

	merged := 0
	for _, pair := range PlanMerges(candidates, e.opts) {
		if err := e.store.MergeStories(ctx, pair.TargetID, pair.SourceID); err != nil {
			e.logger.Warn().Err(err).
				Int64("target_id", pair.TargetID).
				Int64("source_id", pair.SourceID).
				Msg("merge failed, skipping pair")
			continue
		}
		e.logger.Info().
			Int64("target_id", pair.TargetID).
			Int64("source_id", pair.SourceID).
			Float64("score", pair.Score).
			Msg("merged stories")
		merged++
	}
	return merged, nil
}
