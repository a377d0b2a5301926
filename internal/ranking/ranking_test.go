package ranking

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"pulsek12.com/pulse/internal/db"
	"pulsek12.com/pulse/internal/llm"
	"pulsek12.com/pulse/internal/summary"
)

func TestAnalyzeIsPure(t *testing.T) {
	t.Parallel()

	in := Inputs{
		Title:        "State budget deal restores school funding",
		Summary:      "Lawmakers reached a budget agreement restoring district funding cut last year.",
		ArticleCount: 4,
		SourceCount:  3,
		RecentCount:  2,
		AvgWeight:    1.1,
		LatestAt:     time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC),
		Now:          time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC),
	}
	first := Analyze(in)
	second := Analyze(in)
	if first != second {
		t.Fatalf("analysis not deterministic: %+v vs %+v", first, second)
	}
	if first.StoryType != TypePolicy {
		t.Fatalf("story type = %q, want policy", first.StoryType)
	}
	if first.Score <= 0 {
		t.Fatalf("score = %v, want > 0", first.Score)
	}
}

func TestAnalyzeUrgencyOverrideOrdering(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	base := Inputs{
		ArticleCount: 2,
		SourceCount:  2,
		RecentCount:  1,
		AvgWeight:    1.0,
		LatestAt:     now.Add(-2 * time.Hour),
		Now:          now,
	}

	urgent := base
	urgent.Title = "Emergency closure guide: tips for school safety today"
	calm := base
	calm.Title = "A guide with tips for classroom strategies"

	urgentAnalysis := Analyze(urgent)
	calmAnalysis := Analyze(calm)

	if !urgentAnalysis.UrgencyOverride {
		t.Fatal("expected urgency override for recent urgent story")
	}
	if urgentAnalysis.Score < calmAnalysis.Score {
		t.Fatalf("urgent story scored %v below calm story %v", urgentAnalysis.Score, calmAnalysis.Score)
	}
}

func TestAnalyzeEvergreenNotLeadEligible(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	analysis := Analyze(Inputs{
		Title:        "5 Tips for Classroom Management",
		ArticleCount: 1,
		SourceCount:  1,
		RecentCount:  0,
		AvgWeight:    1.0,
		LatestAt:     now.Add(-24 * time.Hour),
		Now:          now,
	})

	if analysis.StoryType != TypeEvergreen {
		t.Fatalf("story type = %q, want evergreen", analysis.StoryType)
	}
	if analysis.LeadEligible {
		t.Fatal("evergreen story must not be lead eligible")
	}
	if analysis.LeadReason != "evergreen_weak_signal" {
		t.Fatalf("lead reason = %q", analysis.LeadReason)
	}
	if analysis.Breakdown.EvergreenPenalty != evergreenPenaltyFactor {
		t.Fatalf("evergreen penalty = %v", analysis.Breakdown.EvergreenPenalty)
	}
}

func TestAnalyzeAuthorityMultiplier(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	in := Inputs{
		Title:        "District board approves new funding policy",
		ArticleCount: 3,
		SourceCount:  2,
		RecentCount:  2,
		AvgWeight:    1.4,
		LatestAt:     now.Add(-3 * time.Hour),
		Now:          now,
	}
	strong := Analyze(in)

	in.AvgWeight = 0.95
	weak := Analyze(in)

	if strong.Score <= weak.Score {
		t.Fatalf("high-authority score %v not above low-authority %v", strong.Score, weak.Score)
	}
	if strong.Breakdown.AuthorityMultiplier <= 1 {
		t.Fatalf("authority multiplier = %v, want > 1", strong.Breakdown.AuthorityMultiplier)
	}
}

func TestAnalyzeHardNewsPenaltyForFeatures(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	analysis := Analyze(Inputs{
		Title:        "Local bakery celebrates its anniversary downtown",
		ArticleCount: 1,
		SourceCount:  2,
		RecentCount:  1,
		AvgWeight:    1.0,
		LatestAt:     now.Add(-2 * time.Hour),
		Now:          now,
	})

	if analysis.StoryType != TypeFeature {
		t.Fatalf("story type = %q, want feature", analysis.StoryType)
	}
	if analysis.Breakdown.HardNewsPenalty != 0.45 {
		t.Fatalf("hard news penalty = %v, want 0.45", analysis.Breakdown.HardNewsPenalty)
	}
	if analysis.LeadEligible {
		t.Fatal("low-signal feature must not be lead eligible")
	}
}

func TestResolvePreview(t *testing.T) {
	t.Parallel()

	longText := "District leaders outlined the revised graduation requirements during a lengthy public meeting on Tuesday evening."

	text, ptype, conf := resolvePreview("", longText, summary.PreviewExcerpt, 0.7, 0.58)
	if text == "" || ptype != summary.PreviewExcerpt || conf != 0.7 {
		t.Fatalf("confident preview not kept: %q %q %v", text, ptype, conf)
	}

	text, ptype, _ = resolvePreview("", longText, summary.PreviewExcerpt, 0.4, 0.58)
	if text != "" || ptype != summary.PreviewHeadlineOnly {
		t.Fatalf("low-confidence preview not demoted: %q %q", text, ptype)
	}

	text, ptype, conf = resolvePreview(longText, "", summary.PreviewHeadlineOnly, 0, 0.58)
	if text != longText || ptype != summary.PreviewExcerpt || conf != 0.5 {
		t.Fatalf("legacy row fallback wrong: %q %q %v", text, ptype, conf)
	}
}

type fakeReranker struct {
	calls   int
	verdict *llm.RerankVerdict
	err     error
}

func (f *fakeReranker) Enabled() bool { return true }

func (f *fakeReranker) RerankStories(_ context.Context, items []llm.RerankItem) (*llm.RerankVerdict, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.verdict != nil {
		return f.verdict, nil
	}
	order := make([]int64, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		order = append(order, items[i].StoryID)
	}
	return &llm.RerankVerdict{Order: order}, nil
}

func rankingRows(now time.Time) []db.RankedStoryRow {
	titles := []string{
		"State budget deal restores education funding",
		"New literacy curriculum pilot launches in districts",
		"Superintendent announces safety initiative for campuses",
		"Lawmakers debate teacher pay legislation this week",
	}
	rows := make([]db.RankedStoryRow, 0, len(titles))
	for i, title := range titles {
		rows = append(rows, db.RankedStoryRow{
			StoryID:         int64(i + 1),
			Title:           title,
			Status:          db.StoryStatusActive,
			FirstSeenAt:     now.Add(-26 * time.Hour),
			LastSeenAt:      now.Add(-time.Duration(i+1) * time.Hour),
			ArticleCount:    int64(4 - i%2),
			SourceCount:     2,
			RecentCount:     2,
			AvgSourceWeight: 1.05,
		})
	}
	return rows
}

func TestSelectRerankCacheReuse(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	fake := &fakeReranker{}
	engine := NewEngine(zerolog.Nop(), fake, NewRerankCache(15*time.Minute), 0.58)

	rows := rankingRows(now)
	first := engine.Select(context.Background(), rows, Options{Limit: 10, Now: now})
	second := engine.Select(context.Background(), rows, Options{Limit: 10, Now: now})

	if fake.calls != 1 {
		t.Fatalf("reranker called %d times, want 1", fake.calls)
	}
	if len(first) != len(second) {
		t.Fatalf("selection size changed across cached calls: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("cached order diverged at %d: %d vs %d", i, first[i].ID, second[i].ID)
		}
	}
}

func TestSelectRerankDemotesStories(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	fake := &fakeReranker{verdict: &llm.RerankVerdict{
		Order:  []int64{3, 1, 4},
		Demote: []int64{2},
	}}
	engine := NewEngine(zerolog.Nop(), fake, NewRerankCache(15*time.Minute), 0.58)

	got := engine.Select(context.Background(), rankingRows(now), Options{Limit: 10, Now: now})
	for _, s := range got {
		if s.ID == 2 {
			t.Fatal("demoted story still present")
		}
	}
	if len(got) == 0 || got[0].ID != 3 {
		t.Fatalf("expected story 3 first, got %+v", got)
	}
}

func TestSelectRerankFailureKeepsDeterministicOrder(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	rows := rankingRows(now)

	plain := NewEngine(zerolog.Nop(), nil, nil, 0.58)
	want := plain.Select(context.Background(), rows, Options{Limit: 10, Now: now})

	failing := &fakeReranker{err: fmt.Errorf("model unavailable")}
	engine := NewEngine(zerolog.Nop(), failing, NewRerankCache(15*time.Minute), 0.58)
	got := engine.Select(context.Background(), rows, Options{Limit: 10, Now: now})

	if len(got) != len(want) {
		t.Fatalf("size mismatch: %d vs %d", len(got), len(want))
	}
	for i := range got {
		if got[i].ID != want[i].ID {
			t.Fatalf("order diverged at %d: %d vs %d", i, got[i].ID, want[i].ID)
		}
	}
}

func TestPromoteLead(t *testing.T) {
	t.Parallel()

	stories := []Story{
		{ID: 1, Status: db.StoryStatusActive, LeadEligible: false},
		{ID: 2, Status: db.StoryStatusActive, LeadEligible: false},
		{ID: 3, Status: db.StoryStatusActive, LeadEligible: true},
	}
	promoteLead(stories)
	if stories[0].ID != 3 {
		t.Fatalf("lead = %d, want 3", stories[0].ID)
	}
	if stories[1].ID != 1 || stories[2].ID != 2 {
		t.Fatalf("relative order not preserved: %+v", stories)
	}

	pinned := []Story{
		{ID: 1, Status: db.StoryStatusPinned, LeadEligible: false},
		{ID: 2, Status: db.StoryStatusActive, LeadEligible: true},
	}
	promoteLead(pinned)
	if pinned[0].ID != 1 {
		t.Fatal("pinned story displaced from the top slot")
	}
}

func TestSuppressDuplicatePreviews(t *testing.T) {
	t.Parallel()

	blurb := "District leaders approved a revised budget that restores counselor positions across every campus."
	stories := []Story{
		{ID: 1, Summary: blurb, PreviewType: summary.PreviewExcerpt},
		{ID: 2, Summary: blurb, PreviewType: summary.PreviewExcerpt},
		{ID: 3, Summary: "A wholly different note about new tutoring programs expanding statewide this fall.", PreviewType: summary.PreviewExcerpt},
	}
	suppressDuplicatePreviews(stories)

	if stories[0].Summary == "" {
		t.Fatal("first preview should be kept")
	}
	if stories[1].Summary != "" || stories[1].PreviewType != summary.PreviewHeadlineOnly {
		t.Fatalf("duplicate preview not suppressed: %+v", stories[1])
	}
	if stories[2].Summary == "" {
		t.Fatal("distinct preview wrongly suppressed")
	}
}

func TestApplyTopicPenalty(t *testing.T) {
	t.Parallel()

	stories := []Story{
		{ID: 1, Score: 10, Status: db.StoryStatusActive, topics: topicTokens("LAUSD teacher strike enters second day")},
		{ID: 2, Score: 9, Status: db.StoryStatusActive, topics: topicTokens("LAUSD teacher strike talks stall on day two")},
		{ID: 3, Score: 8, Status: db.StoryStatusActive, topics: topicTokens("State testing results show reading gains")},
	}
	applyTopicPenalty(stories)

	if stories[0].Score != 10 {
		t.Fatalf("top story penalized: %v", stories[0].Score)
	}
	if stories[1].Score >= 9 {
		t.Fatalf("overlapping story not penalized: %v", stories[1].Score)
	}
	if stories[2].Score != 8 {
		t.Fatalf("unrelated story penalized: %v", stories[2].Score)
	}
}
