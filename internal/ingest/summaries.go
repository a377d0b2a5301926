package ingest

import (
	"context"
	"encoding/json"

	"pulsek12.com/pulse/internal/db"
	"pulsek12.com/pulse/internal/llm"
	"pulsek12.com/pulse/internal/summary"
	"pulsek12.com/pulse/internal/textnorm"
)

const summaryFetchLimit = 30

// RunSummaryFill executes only the story summary-fill pass with fresh
// scrape and AI budgets. Backs the summaries CLI command.
func (s *Service) RunSummaryFill(ctx context.Context) *Counters {
	st := &runState{
		scrapeBudget: int64(s.cfg.ScrapeBudget),
		aiBudget:     int64(s.cfg.AIBudget),
	}
	client := llm.NewClient(s.cfg.AnthropicBaseURL, s.cfg.AnthropicAPIKey, s.cfg.AnthropicModelList(), s.logger)
	s.fillStorySummaries(ctx, st, client)
	return &st.counters
}

// fillStorySummaries refreshes stories whose previews are missing, short,
// or suppressed. Expensive steps degrade in order: scrape only while the
// budget lasts, LLM rewrite and adjudication only while the AI budget
// lasts, deterministic adjudication always.
func (s *Service) fillStorySummaries(ctx context.Context, st *runState, client *llm.Client) {
	stories, err := s.pool.ListStoriesNeedingSummary(ctx, s.cfg.SummaryFillLimit)
	if err != nil {
		s.logger.Error().Err(err).Msg("summary fill query failed")
		return
	}

	fetched := 0
	for _, story := range stories {
		if ctx.Err() != nil {
			return
		}

		title := story.Title
		if story.ArticleTitle != nil && *story.ArticleTitle != "" {
			title = *story.ArticleTitle
		}

		candidates := summary.NewCandidateSet(title)
		if story.ArticleSummary != nil {
			candidates.Add(summary.SourceExisting, *story.ArticleSummary)
		}

		if !hasStrongCandidate(candidates, 0.72) && fetched < summaryFetchLimit && st.takeScrape() {
			result, err := s.scraper.Fetch(ctx, story.ArticleURL)
			if err != nil {
				s.logger.Debug().Err(err).Str("url", story.ArticleURL).Msg("summary enrichment scrape failed")
			} else {
				before := candidates.Len()
				candidates.Add(summary.SourceScrape, result.Summary)
				if candidates.Len() > before {
					fetched++
				}
			}
		}
		if candidates.Len() == 0 {
			candidates.Add(summary.SourceFallback, summary.GenerateFallback(title))
		}

		if client.Enabled() && !hasStrongCandidate(candidates, 0.68) && st.takeAI() {
			if text := s.generateLLMSummary(ctx, client, title, story.ArticleURL); text != "" {
				before := candidates.Len()
				candidates.Add(summary.SourceLLM, text)
				if candidates.Len() > before {
					add(&st.counters.LLMGenerated)
				}
			}
		}

		decision := s.adjudicate(ctx, st, client, title, story.ArticleURL, candidates.Candidates())
		if decision == nil || decision.WinnerSource == llm.WinnerReject {
			add(&st.counters.SummaryRejected)
			s.suppressPreview(ctx, story.StoryID, "adjudication_rejected")
			continue
		}

		summaryText := summary.Sanitize(decision.Text)
		if summaryText == "" {
			add(&st.counters.SummaryRejected)
			s.suppressPreview(ctx, story.StoryID, "empty_summary")
			continue
		}

		preview := summary.DecidePreview(decision, story.Title, s.cfg.MinPreviewConfidence)

		choice := db.SummaryChoice{
			ArticleID:  story.ArticleID,
			Summary:    summaryText,
			Source:     decision.WinnerSource,
			Method:     decision.Method,
			Confidence: decision.Confidence,
			Reasons:    decision.Reasons,
		}
		if payload, err := json.Marshal(candidates.Candidates()); err == nil {
			choice.Candidates = payload
		}
		if err := s.pool.ApplySummaryChoice(ctx, choice); err != nil {
			s.logger.Warn().Err(err).Int64("article_id", story.ArticleID).Msg("summary choice update failed")
		}

		update := db.StoryPreviewUpdate{
			StoryID:    story.StoryID,
			Summary:    &summaryText,
			Type:       preview.Type,
			Confidence: preview.Confidence,
			Reason:     preview.Reason,
		}
		if preview.Text != "" {
			update.Text = &preview.Text
		}
		if err := s.pool.UpdateStoryPreview(ctx, update); err != nil {
			s.logger.Warn().Err(err).Int64("story_id", story.StoryID).Msg("story preview update failed")
			continue
		}

		s.maybeShortenTitle(ctx, story)
		add(&st.counters.SummariesEnriched)
	}
}

// adjudicate asks the LLM to pick among candidates while the AI budget
// lasts, falling back to the deterministic decision on any failure.
func (s *Service) adjudicate(ctx context.Context, st *runState, client *llm.Client, title, url string, candidates []summary.Candidate) *summary.Decision {
	if client.Enabled() && st.takeAI() {
		decision, err := client.AdjudicateSummary(ctx, title, url, candidates)
		if err == nil {
			add(&st.counters.AdjudicatedAI)
			return decision
		}
		s.logger.Debug().Err(err).Str("url", url).Msg("ai adjudication failed")
	}
	add(&st.counters.AdjudicatedDeterministic)
	return summary.Decide(candidates)
}

func (s *Service) generateLLMSummary(ctx context.Context, client *llm.Client, title, url string) string {
	result, err := s.scraper.Fetch(ctx, url)
	if err != nil || result.Markdown == "" {
		return ""
	}
	text, err := client.RewriteSummary(ctx, title, result.Markdown)
	if err != nil {
		s.logger.Debug().Err(err).Str("url", url).Msg("llm summary rewrite failed")
		return ""
	}
	return text
}

func (s *Service) suppressPreview(ctx context.Context, storyID int64, reason string) {
	err := s.pool.UpdateStoryPreview(ctx, db.StoryPreviewUpdate{
		StoryID:    storyID,
		Type:       summary.PreviewHeadlineOnly,
		Confidence: 0,
		Reason:     reason,
	})
	if err != nil {
		s.logger.Warn().Err(err).Int64("story_id", storyID).Msg("preview suppression failed")
	}
}

// maybeShortenTitle trims runaway story titles, preferring the member
// article's headline when it is the shorter of the two.
func (s *Service) maybeShortenTitle(ctx context.Context, story db.SummaryRefreshStory) {
	title := story.Title
	replacement := textnorm.ShortenStoryTitle(title)
	if replacement == title {
		return
	}
	if story.ArticleTitle != nil && *story.ArticleTitle != "" && len(*story.ArticleTitle) < len(replacement) {
		replacement = *story.ArticleTitle
	}
	if replacement == "" || replacement == title {
		return
	}
	if err := s.pool.UpdateStoryTitle(ctx, story.StoryID, replacement); err != nil {
		s.logger.Warn().Err(err).Int64("story_id", story.StoryID).Msg("story title update failed")
	}
}

func hasStrongCandidate(set *summary.CandidateSet, threshold float64) bool {
	for _, cand := range set.Candidates() {
		if cand.Source != summary.SourceFallback && cand.Score >= threshold {
			return true
		}
	}
	return false
}
