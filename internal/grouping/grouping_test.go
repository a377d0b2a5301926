package grouping

import (
	"testing"
	"time"

	"pulsek12.com/pulse/internal/db"
)

func TestStoryKey(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "word order does not matter",
			in:   "Teacher strike looms in Oakland district",
			want: StoryKey("Oakland district teacher strike looms"),
		},
		{
			name: "stopwords and short tokens dropped",
			in:   "The board will vote on it at 9 pm",
			want: "board-vote",
		},
		{
			name: "capped at eight tokens",
			in:   "alpha bravo charlie delta echo foxtrot golfer hotelier india juliet",
			want: "alpha-bravo-charlie-delta-echo-foxtrot-golfer-hotelier",
		},
		{
			name: "empty after filtering",
			in:   "The of an",
			want: "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StoryKey(tc.in); got != tc.want {
				t.Fatalf("StoryKey(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeMergeToken(t *testing.T) {
	t.Parallel()

	cases := []struct{ in, want string }{
		{"policies", "policy"},
		{"teachers", "teacher"},
		{"funding", "fund"},
		{"approved", "approv"},
		{"buses", "bus"},
		{"gas", "gas"},
		{"bus", "bus"},
	}
	for _, tc := range cases {
		if got := normalizeMergeToken(tc.in); got != tc.want {
			t.Fatalf("normalizeMergeToken(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestPlanMergesSimilarStories(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	candidates := []db.MergeCandidate{
		{
			StoryID:      1,
			StoryKey:     StoryKey("LAUSD teacher strike enters second day"),
			Title:        "LAUSD teacher strike enters second day",
			Status:       "active",
			ArticleCount: 2,
			LastSeenAt:   now,
		},
		{
			StoryID:      2,
			StoryKey:     StoryKey("Los Angeles Unified teachers strike continues"),
			Title:        "Los Angeles Unified teachers strike continues",
			Status:       "active",
			ArticleCount: 5,
			LastSeenAt:   now.Add(-2 * time.Hour),
		},
		{
			StoryID:      3,
			StoryKey:     StoryKey("Iowa voucher expansion clears senate"),
			Title:        "Iowa voucher expansion clears senate",
			Status:       "active",
			ArticleCount: 1,
			LastSeenAt:   now.Add(-3 * time.Hour),
		},
	}

	pairs := PlanMerges(candidates, Options{})
	if len(pairs) != 1 {
		t.Fatalf("expected exactly one merge, got %d: %+v", len(pairs), pairs)
	}
	// Story 2 has more articles, so it survives.
	if pairs[0].TargetID != 2 || pairs[0].SourceID != 1 {
		t.Fatalf("merge direction = %d <- %d, want 2 <- 1", pairs[0].TargetID, pairs[0].SourceID)
	}
}

func TestPlanMergesPinnedWins(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	candidates := []db.MergeCandidate{
		{
			StoryID:      10,
			StoryKey:     StoryKey("State budget deal restores education funding"),
			Title:        "State budget deal restores education funding",
			Status:       "active",
			ArticleCount: 9,
			LastSeenAt:   now,
		},
		{
			StoryID:      11,
			StoryKey:     StoryKey("Education funding restored in state budget deal"),
			Title:        "Education funding restored in state budget deal",
			Status:       "pinned",
			ArticleCount: 1,
			LastSeenAt:   now.Add(-1 * time.Hour),
		},
	}

	pairs := PlanMerges(candidates, Options{})
	if len(pairs) != 1 {
		t.Fatalf("expected one merge, got %d", len(pairs))
	}
	if pairs[0].TargetID != 11 {
		t.Fatalf("pinned story must be the merge target, got target %d", pairs[0].TargetID)
	}
}

func TestPlanMergesDayGapBreaks(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	candidates := []db.MergeCandidate{
		{
			StoryID:    20,
			StoryKey:   StoryKey("Charter renewal fight splits city council"),
			Title:      "Charter renewal fight splits city council",
			Status:     "active",
			LastSeenAt: now,
		},
		{
			StoryID:    21,
			StoryKey:   StoryKey("City council splits over charter renewal fight"),
			Title:      "City council splits over charter renewal fight",
			Status:     "active",
			LastSeenAt: now.Add(-80 * time.Hour),
		},
	}

	if pairs := PlanMerges(candidates, Options{}); len(pairs) != 0 {
		t.Fatalf("stories more than two days apart must not merge, got %+v", pairs)
	}
}

func TestMergeTokensAliasExpansion(t *testing.T) {
	t.Parallel()

	tokens := mergeTokens("LAUSD strike update", "lausd-strike-update")
	for _, want := range []string{"angel", "strike"} {
		if _, ok := tokens[want]; !ok {
			t.Fatalf("expected token %q in %v", want, tokens)
		}
	}
}
