package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"pulsek12.com/pulse/internal/config"
	"pulsek12.com/pulse/internal/db"
	"pulsek12.com/pulse/internal/feedfetch"
	"pulsek12.com/pulse/internal/grouping"
	"pulsek12.com/pulse/internal/llm"
	"pulsek12.com/pulse/internal/quality"
	"pulsek12.com/pulse/internal/relevance"
	"pulsek12.com/pulse/internal/scrape"
	"pulsek12.com/pulse/internal/summary"
	"pulsek12.com/pulse/internal/textnorm"
)

const maxItemsPerFeed = 100

// Counters are the aggregate outcomes of one ingest run.
type Counters struct {
	Feeds                    int64 `json:"feeds"`
	Fetched                  int64 `json:"fetched"`
	Inserted                 int64 `json:"inserted"`
	Updated                  int64 `json:"updated"`
	Skipped                  int64 `json:"skipped"`
	UnresolvedDiscovery      int64 `json:"unresolved_discovery"`
	ParseFailures            int64 `json:"parse_failures"`
	Grouped                  int64 `json:"grouped"`
	Merged                   int64 `json:"merged"`
	QualityChecked           int64 `json:"quality_checked"`
	NonArticleBlocked        int64 `json:"non_article_blocked"`
	NonArticleFlagged        int64 `json:"non_article_flagged"`
	SummariesEnriched        int64 `json:"summaries_enriched"`
	AdjudicatedAI            int64 `json:"adjudicated_ai"`
	AdjudicatedDeterministic int64 `json:"adjudicated_deterministic"`
	LLMGenerated             int64 `json:"llm_generated"`
	SummaryRejected          int64 `json:"summary_rejected"`
}

// Service runs the full ingestion pipeline: feed fetch, item filtering,
// article upsert, then the grouping, merge, and summary-fill passes.
type Service struct {
	pool     *db.Pool
	cfg      *config.Config
	logger   zerolog.Logger
	fetcher  *feedfetch.Fetcher
	resolver *feedfetch.Resolver
	scraper  *scrape.Service
}

// NewService wires the pipeline against its external collaborators.
func NewService(pool *db.Pool, cfg *config.Config, logger zerolog.Logger) *Service {
	return &Service{
		pool:     pool,
		cfg:      cfg,
		logger:   logger.With().Str("component", "ingest").Logger(),
		fetcher:  feedfetch.NewFetcher(),
		resolver: feedfetch.NewResolver(),
		scraper:  scrape.NewService(cfg.FirecrawlBaseURL, cfg.FirecrawlAPIKey, logger),
	}
}

// runState carries per-run mutable state: counters and the shared
// scrape/AI budgets. Counter fields are updated atomically from feed
// workers.
type runState struct {
	counters     Counters
	scrapeBudget int64
	aiBudget     int64
}

func (st *runState) takeScrape() bool {
	return atomic.AddInt64(&st.scrapeBudget, -1) >= 0
}

func (st *runState) takeAI() bool {
	return atomic.AddInt64(&st.aiBudget, -1) >= 0
}

func add(counter *int64) {
	atomic.AddInt64(counter, 1)
}

// Run executes one full ingestion run and returns its counters. Per-feed
// and per-item failures are counted, never fatal; the run only errors on
// datastore unavailability.
func (s *Service) Run(ctx context.Context) (*Counters, error) {
	runCtx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.RunTimeoutSeconds)*time.Second)
	defer cancel()

	runID, err := s.pool.StartIngestRun(runCtx)
	if err != nil {
		return nil, fmt.Errorf("start ingest run: %w", err)
	}

	st := &runState{
		scrapeBudget: int64(s.cfg.ScrapeBudget),
		aiBudget:     int64(s.cfg.AIBudget),
	}
	client := llm.NewClient(s.cfg.AnthropicBaseURL, s.cfg.AnthropicAPIKey, s.cfg.AnthropicModelList(), s.logger)

	runErr := s.run(runCtx, st, client)

	// The run deadline must not stop us from recording the outcome.
	finishCtx, finishCancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
	defer finishCancel()

	status := "succeeded"
	if runErr != nil {
		status = "failed"
	}
	if err := s.pool.FinishIngestRun(finishCtx, runID, status, st.counters, runErr); err != nil {
		s.logger.Error().Err(err).Int64("run_id", runID).Msg("failed to finalize ingest run")
	}
	if runErr != nil {
		return nil, runErr
	}

	s.logger.Info().
		Int64("run_id", runID).
		Int64("feeds", st.counters.Feeds).
		Int64("fetched", st.counters.Fetched).
		Int64("inserted", st.counters.Inserted).
		Int64("grouped", st.counters.Grouped).
		Int64("merged", st.counters.Merged).
		Msg("ingest run complete")
	return &st.counters, nil
}

func (s *Service) run(ctx context.Context, st *runState, client *llm.Client) error {
	feeds, err := s.loadFeedRegistry(ctx)
	if err != nil {
		return err
	}
	st.counters.Feeds = int64(len(feeds))

	group, feedCtx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(int64(s.cfg.FeedConcurrency))
	for _, feed := range feeds {
		feed := feed
		if err := sem.Acquire(feedCtx, 1); err != nil {
			// Deadline expired: remaining feeds are skipped, the
			// post passes still run on what was ingested.
			s.logger.Warn().Str("feed", feed.URL).Msg("run deadline reached, skipping remaining feeds")
			break
		}
		group.Go(func() error {
			defer sem.Release(1)
			s.processFeed(feedCtx, st, feed)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	return s.runPostPasses(ctx, st, client)
}

// runPostPasses runs the mutation passes that are not safe under
// concurrent runs: batch reclassification, grouping, merging, and the
// story summary fill. An advisory lock keeps overlapping triggers out.
func (s *Service) runPostPasses(ctx context.Context, st *runState, client *llm.Client) error {
	postCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Minute)
	defer cancel()

	locked, err := s.pool.TryIngestLock(postCtx)
	if err != nil {
		return fmt.Errorf("acquire ingest lock: %w", err)
	}
	if !locked {
		s.logger.Warn().Msg("another run holds the ingest lock, skipping post passes")
		return nil
	}
	defer func() {
		if err := s.pool.ReleaseIngestLock(postCtx); err != nil {
			s.logger.Error().Err(err).Msg("failed to release ingest lock")
		}
	}()

	s.reclassifyRecent(postCtx, st)

	grouper := grouping.NewEngine(s.pool, grouping.Options{
		LookbackDays:   s.cfg.MergeLookbackDays,
		CandidateLimit: s.cfg.MergeCandidates,
		MaxMerges:      s.cfg.MergeMaxPerRun,
		Threshold:      s.cfg.MergeThreshold,
		GroupBatch:     s.cfg.GroupBatchLimit,
	}, s.logger)

	grouped, err := grouper.GroupArticles(postCtx)
	if err != nil {
		s.logger.Error().Err(err).Msg("grouping pass failed")
	}
	st.counters.Grouped = int64(grouped)

	merged, err := grouper.MergeStories(postCtx)
	if err != nil {
		s.logger.Error().Err(err).Msg("merge pass failed")
	}
	st.counters.Merged = int64(merged)

	s.fillStorySummaries(postCtx, st, client)
	return nil
}

func (s *Service) loadFeedRegistry(ctx context.Context) ([]db.Feed, error) {
	for oldURL, newURL := range feedReplacements {
		if err := s.pool.ReplaceFeedURL(ctx, oldURL, newURL); err != nil {
			s.logger.Warn().Err(err).Str("url", oldURL).Msg("feed replacement failed")
		}
	}

	feeds, err := s.pool.ListActiveFeeds(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active feeds: %w", err)
	}
	if len(feeds) > 0 {
		return feeds, nil
	}

	seeded, err := s.pool.SeedFeeds(ctx, DefaultSeeds())
	if err != nil {
		return nil, fmt.Errorf("seed default feeds: %w", err)
	}
	s.logger.Info().Int64("seeded", seeded).Msg("seeded default feed registry")

	feeds, err = s.pool.ListActiveFeeds(ctx)
	if err != nil {
		return nil, fmt.Errorf("list seeded feeds: %w", err)
	}
	return feeds, nil
}

// processFeed fetches one feed and ingests its items. Failures are
// recorded on the feed row and never abort the run.
func (s *Service) processFeed(ctx context.Context, st *runState, feed db.Feed) {
	items, err := s.fetchFeedItems(ctx, st, feed)
	if err != nil {
		add(&st.counters.ParseFailures)
		s.logger.Warn().Err(err).Str("feed", feed.URL).Msg("feed fetch failed")
		if markErr := s.pool.MarkFeedFailure(ctx, feed.FeedID, err); markErr != nil {
			s.logger.Error().Err(markErr).Int64("feed_id", feed.FeedID).Msg("failed to record feed failure")
		}
		return
	}
	if err := s.pool.MarkFeedSuccess(ctx, feed.FeedID); err != nil {
		s.logger.Error().Err(err).Int64("feed_id", feed.FeedID).Msg("failed to record feed success")
	}

	if len(items) > maxItemsPerFeed {
		items = items[:maxItemsPerFeed]
	}
	for _, item := range items {
		if ctx.Err() != nil {
			return
		}
		add(&st.counters.Fetched)
		s.processItem(ctx, st, feed, item)
	}
}

func (s *Service) fetchFeedItems(ctx context.Context, st *runState, feed db.Feed) ([]feedfetch.Item, error) {
	if feed.FeedType != feedTypeScrape {
		return s.fetcher.FetchRSS(ctx, feed.URL)
	}
	if !st.takeScrape() {
		return nil, fmt.Errorf("scrape budget exhausted before feed %s", feed.URL)
	}
	pageHTML, err := s.scraper.FetchHTML(ctx, feed.URL)
	if err != nil {
		return nil, fmt.Errorf("scrape feed page: %w", err)
	}
	return feedfetch.ExtractArticleLinks(pageHTML, feed.URL), nil
}

func (s *Service) processItem(ctx context.Context, st *runState, feed db.Feed, item feedfetch.Item) {
	title := textnorm.NormalizeTitleCase(textnorm.CleanTitle(item.Title))
	if title == "" || item.URL == "" {
		add(&st.counters.Skipped)
		return
	}

	resolvedURL, resolved := s.resolver.Resolve(ctx, item.URL)
	articleURL := textnorm.NormalizeURL(resolvedURL)
	if articleURL == "" {
		add(&st.counters.Skipped)
		return
	}
	if feed.FeedType == feedTypeDiscovery && !resolved {
		add(&st.counters.Skipped)
		add(&st.counters.UnresolvedDiscovery)
		return
	}
	if textnorm.IsJobListing(articleURL, title) {
		add(&st.counters.Skipped)
		return
	}

	domain := textnorm.Domain(articleURL)
	if domain == "" {
		add(&st.counters.Skipped)
		return
	}
	sourceName := feed.Name
	if feed.FeedType == feedTypeDiscovery {
		sourceName = domain
	}

	tierHint := feed.Tier
	if feed.FeedType == feedTypeDiscovery {
		// Discovered domains never inherit the query feed's tier.
		tierHint = "unknown"
	}
	tier := resolveTier(domain, tierHint)
	if tier == "C" {
		add(&st.counters.Skipped)
		return
	}
	source, err := s.pool.EnsureSource(ctx, sourceName, domain, tier, sourceWeight(domain, tier))
	if err != nil {
		add(&st.counters.Skipped)
		s.logger.Warn().Err(err).Str("domain", domain).Msg("source resolution failed")
		return
	}

	candidates := summary.NewCandidateSet(title)
	candidates.Add(summary.SourceRSS, item.Summary)
	if s.shouldScrapeItem(candidates, feed) && st.takeScrape() {
		result, err := s.scraper.Fetch(ctx, articleURL)
		if err != nil {
			s.logger.Debug().Err(err).Str("url", articleURL).Msg("article scrape failed")
		} else {
			candidates.Add(summary.SourceScrape, result.Summary)
		}
	}
	if candidates.Len() == 0 {
		candidates.Add(summary.SourceFallback, summary.GenerateFallback(title))
	}

	decision := summary.Decide(candidates.Candidates())
	summaryText := summary.GenerateFallback(title)
	if decision != nil {
		summaryText = decision.Text
	}

	if !relevance.IsEnglish(title, summaryText) {
		add(&st.counters.Skipped)
		return
	}
	if !relevance.IsUSStory(title, summaryText) {
		add(&st.counters.Skipped)
		return
	}

	verdict := quality.Classify(articleURL, title, summaryText)
	if verdict.Label == quality.LabelNonArticle {
		add(&st.counters.Skipped)
		add(&st.counters.NonArticleBlocked)
		return
	}

	upsert := db.ArticleUpsert{
		SourceID:       &source.SourceID,
		URL:            articleURL,
		Title:          title,
		Summary:        &summaryText,
		QualityLabel:   verdict.Label,
		QualityScore:   verdict.Score,
		QualityReasons: verdict.Reasons,
		PublishedAt:    item.PublishedAt,
	}
	if decision != nil {
		upsert.ChoiceSource = &decision.WinnerSource
		upsert.ChoiceMethod = &decision.Method
		upsert.ChoiceConfidence = &decision.Confidence
		upsert.ChoiceReasons = decision.Reasons
	}
	if payload, err := json.Marshal(candidates.Candidates()); err == nil {
		upsert.SummaryCandidates = payload
	}

	result, err := s.pool.UpsertArticle(ctx, upsert)
	if err != nil {
		add(&st.counters.Skipped)
		s.logger.Warn().Err(err).Str("url", articleURL).Msg("article upsert failed")
		return
	}
	if result.Inserted {
		add(&st.counters.Inserted)
	} else {
		add(&st.counters.Updated)
	}
}

// shouldScrapeItem decides whether an item warrants a scrape call:
// scrape-type feeds never carry item summaries, and weak RSS candidates
// deserve one attempt at the article body.
func (s *Service) shouldScrapeItem(candidates *summary.CandidateSet, feed db.Feed) bool {
	if feed.FeedType == feedTypeScrape {
		return true
	}
	for _, cand := range candidates.Candidates() {
		if cand.Score >= 0.62 {
			return false
		}
	}
	return true
}

// reclassifyRecent re-runs the quality classifier over recent articles so
// pattern-table updates reach previously ingested rows.
func (s *Service) reclassifyRecent(ctx context.Context, st *runState) {
	articles, err := s.pool.ListArticlesForReclassify(ctx, s.cfg.ReclassifyLimit)
	if err != nil {
		s.logger.Error().Err(err).Msg("reclassify query failed")
		return
	}
	for _, article := range articles {
		summaryText := ""
		if article.Summary != nil {
			summaryText = *article.Summary
		}
		verdict := quality.Classify(article.URL, article.Title, summaryText)
		if err := s.pool.UpdateArticleQuality(ctx, article.ArticleID, verdict.Label, verdict.Score, verdict.Reasons); err != nil {
			s.logger.Warn().Err(err).Int64("article_id", article.ArticleID).Msg("quality update failed")
			continue
		}
		add(&st.counters.QualityChecked)
		if verdict.Label == quality.LabelNonArticle {
			add(&st.counters.NonArticleFlagged)
		}
	}
}
