package summary

import (
	"strings"
	"testing"
)

func TestSanitize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "markdown link unwrapped",
			in:   "The board approved a [new literacy plan](https://example.com/plan) that phases in over three years.",
			want: "The board approved a new literacy plan that phases in over three years.",
		},
		{
			name: "appeared-first-on boilerplate removed",
			in:   "Districts are bracing for a funding cliff as federal relief dollars expire. The post Districts brace for cliff appeared first on Example Wire.",
			want: "Districts are bracing for a funding cliff as federal relief dollars expire.",
		},
		{
			name: "too short after cleanup",
			in:   "Read more https://example.com",
			want: "",
		},
		{
			name: "junk phrase truncates",
			in:   "Enrollment fell four percent across the county this fall, the sharpest drop in a decade. Sign up for our daily brief.",
			want: "Enrollment fell four percent across the county this fall, the sharpest drop in a decade.",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Sanitize(tc.in); got != tc.want {
				t.Fatalf("Sanitize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestSanitizeTruncatesLongText(t *testing.T) {
	t.Parallel()

	long := "Superintendent Maria Alvarez outlined a sweeping proposal Tuesday night that would consolidate three aging elementary campuses, redirect transportation savings toward expanded prekindergarten seats, raise starting teacher pay to fifty-four thousand dollars, modernize science labs at both comprehensive high schools, and create a countywide tutoring corps staffed by retired educators, though several board members questioned whether projected enrollment declines justify closing neighborhood buildings before the demographic study concludes next spring."
	got := Sanitize(long)
	if got == "" {
		t.Fatal("expected truncated text, got empty")
	}
	if len(got) > maxSummaryChars+len("…") {
		t.Fatalf("text not truncated: %d chars", len(got))
	}
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("expected ellipsis suffix, got %q", got[len(got)-8:])
	}
}

func TestIsHeadlineEcho(t *testing.T) {
	t.Parallel()

	title := "Springfield schools close early ahead of winter storm"
	if !IsHeadlineEcho("Springfield schools close early ahead of winter storm.", title) {
		t.Fatal("verbatim restatement should be an echo")
	}
	if !IsHeadlineEcho("Springfield schools close early ahead of winter storm on Friday", title) {
		t.Fatal("title continuation should be an echo")
	}
	real := "Classes will dismiss two hours early Friday and all after-school programs are cancelled, the district announced."
	if IsHeadlineEcho(real, title) {
		t.Fatal("substantive summary should not be an echo")
	}
}

func TestScoreCandidate(t *testing.T) {
	t.Parallel()

	if got := ScoreCandidate(SourceFallback, "anything at all", "title"); got != 0.38 {
		t.Fatalf("fallback score = %.2f, want 0.38", got)
	}

	title := "State audit faults charter school oversight"
	strong := "Auditors found the state agency failed to review financial reports from 43 charter schools over five years, leaving $12 million in spending unchecked."
	weak := "State audit faults charter school oversight."

	strongScore := ScoreCandidate(SourceScrape, strong, title)
	weakScore := ScoreCandidate(SourceRSS, weak, title)
	if strongScore <= weakScore {
		t.Fatalf("substantive text (%.2f) should outscore headline echo (%.2f)", strongScore, weakScore)
	}
}

func TestDecideOrderingAndConfidence(t *testing.T) {
	t.Parallel()

	candidates := []Candidate{
		{Source: SourceRSS, Text: "short echo text here", Score: 0.3},
		{Source: SourceScrape, Text: "a much better scraped summary with real reporting detail inside", Score: 0.85},
	}

	d := Decide(candidates)
	if d == nil {
		t.Fatal("expected a decision")
	}
	if d.WinnerSource != SourceScrape {
		t.Fatalf("winner = %s, want scrape", d.WinnerSource)
	}
	if d.Method != MethodDeterministic {
		t.Fatalf("method = %s", d.Method)
	}
	if d.Confidence < 0.35 || d.Confidence > 0.9 {
		t.Fatalf("confidence %.2f outside [0.35, 0.9]", d.Confidence)
	}
	if !hasReason(d.Reasons, "clear_quality_margin") {
		t.Fatalf("expected clear margin reason, got %v", d.Reasons)
	}
	if !hasReason(d.Reasons, "scraped_main_content") {
		t.Fatalf("expected scrape reason, got %v", d.Reasons)
	}

	if Decide(nil) != nil {
		t.Fatal("empty candidate set must yield nil decision")
	}
}

func TestDecideTieBreakPrefersLonger(t *testing.T) {
	t.Parallel()

	candidates := []Candidate{
		{Source: SourceRSS, Text: "short version", Score: 0.7},
		{Source: SourceScrape, Text: "longer version with additional context attached", Score: 0.7},
	}
	d := Decide(candidates)
	if d.WinnerSource != SourceScrape {
		t.Fatalf("tie should go to longer text, got %s", d.WinnerSource)
	}
}

func TestGenerateFallbackDeterministic(t *testing.T) {
	t.Parallel()

	title := "Legislature advances school funding overhaul"
	first := GenerateFallback(title)
	second := GenerateFallback(title)
	if first == "" {
		t.Fatal("expected a synthetic brief")
	}
	if first != second {
		t.Fatalf("fallback not deterministic: %q vs %q", first, second)
	}
	if !IsSyntheticShape(first) {
		t.Fatalf("generated brief must match the synthetic shape: %q", first)
	}

	if got := GenerateFallback("Short"); got != "" {
		t.Fatalf("thin title should produce no fallback, got %q", got)
	}
}

func TestDecidePreviewSuppression(t *testing.T) {
	t.Parallel()

	title := "District pilots four-day week"

	fallbackDecision := &Decision{
		WinnerSource: SourceFallback,
		Text:         GenerateFallback(title),
		Method:       MethodDeterministic,
		Confidence:   0.6,
	}
	p := DecidePreview(fallbackDecision, title, 0.58)
	if p.Type != PreviewHeadlineOnly || p.Reason != "fallback_suppressed" {
		t.Fatalf("fallback winner should suppress: %+v", p)
	}
	if p.Confidence > 0.34 {
		t.Fatalf("suppressed confidence should cap at 0.34, got %.2f", p.Confidence)
	}

	lowConfidence := &Decision{
		WinnerSource: SourceRSS,
		Text:         "A plausible but weakly supported summary of the change being piloted in two schools.",
		Confidence:   0.4,
	}
	p = DecidePreview(lowConfidence, title, 0.58)
	if p.Type != PreviewHeadlineOnly || p.Reason != "low_confidence" {
		t.Fatalf("low confidence should suppress: %+v", p)
	}

	llm := &Decision{
		WinnerSource: SourceLLM,
		Text:         "Two elementary schools will run a four-day schedule this fall while the district studies impacts on attendance.",
		Confidence:   0.8,
		Reasons:      []string{"llm_rewrite_selected"},
	}
	p = DecidePreview(llm, title, 0.58)
	if p.Type != PreviewFull {
		t.Fatalf("llm winner should render full, got %+v", p)
	}
}

func hasReason(reasons []string, want string) bool {
	for _, r := range reasons {
		if r == want {
			return true
		}
	}
	return false
}
