package summary

import (
	"math"
	"sort"
	"strings"
)

// Adjudication methods recorded on articles.
const (
	MethodDeterministic = "deterministic"
	MethodAI            = "ai"
)

// Decision is the adjudicated winner among an article's candidates.
type Decision struct {
	WinnerSource string   `json:"winner_source"`
	Text         string   `json:"text"`
	Method       string   `json:"method"`
	Confidence   float64  `json:"confidence"`
	Reasons      []string `json:"reasons"`
}

// Decide picks the best candidate without AI: highest score wins, longer
// text breaks ties. Returns nil when the set is empty.
func Decide(candidates []Candidate) *Decision {
	if len(candidates) == 0 {
		return nil
	}

	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return len(sorted[i].Text) > len(sorted[j].Text)
	})

	winner := sorted[0]
	gap := 0.0
	if len(sorted) > 1 {
		gap = winner.Score - sorted[1].Score
	}

	confidence := 0.52 + gap*0.9 + math.Max(0, winner.Score-0.55)*0.35
	confidence = math.Max(0.35, math.Min(0.9, confidence))

	reasons := []string{"heuristic_quality_score"}
	if gap >= 0.15 {
		reasons = append(reasons, "clear_quality_margin")
	}
	switch winner.Source {
	case SourceScrape:
		reasons = append(reasons, "scraped_main_content")
	case SourceLLM:
		reasons = append(reasons, "llm_rewrite_selected")
	case SourceFallback:
		reasons = append(reasons, "fallback_generated_brief")
	}

	return &Decision{
		WinnerSource: winner.Source,
		Text:         winner.Text,
		Method:       MethodDeterministic,
		Confidence:   math.Round(confidence*100) / 100,
		Reasons:      reasons,
	}
}

// Preview types shown on story cards.
const (
	PreviewFull         = "full"
	PreviewExcerpt      = "excerpt"
	PreviewHeadlineOnly = "headline_only"
)

// Preview is the display decision for a story card.
type Preview struct {
	Text       string
	Type       string
	Confidence float64
	Reason     string
}

// DecidePreview turns an adjudicated summary into a display decision.
// Fallback-sourced, synthetic-shaped, and headline-echo summaries are
// suppressed to headline-only with capped confidence; low-confidence
// winners are suppressed as well. LLM rewrites render in full, everything
// else as an excerpt.
func DecidePreview(decision *Decision, title string, minConfidence float64) Preview {
	if decision == nil || strings.TrimSpace(decision.Text) == "" {
		return Preview{Type: PreviewHeadlineOnly, Confidence: 0.2, Reason: "no_summary_available"}
	}

	suppressed := func(reason string) Preview {
		return Preview{
			Type:       PreviewHeadlineOnly,
			Confidence: math.Min(decision.Confidence, 0.34),
			Reason:     reason,
		}
	}

	if decision.WinnerSource == SourceFallback {
		return suppressed("fallback_suppressed")
	}
	if IsSyntheticShape(decision.Text) {
		return suppressed("synthetic_suppressed")
	}
	if IsHeadlineEcho(decision.Text, title) {
		return suppressed("headline_echo_suppressed")
	}
	if decision.Confidence < minConfidence {
		return Preview{
			Type:       PreviewHeadlineOnly,
			Confidence: decision.Confidence,
			Reason:     "low_confidence",
		}
	}

	reason := ""
	if len(decision.Reasons) > 0 {
		reason = decision.Reasons[0]
	}
	previewType := PreviewExcerpt
	if decision.WinnerSource == SourceLLM {
		previewType = PreviewFull
	}
	return Preview{
		Text:       decision.Text,
		Type:       previewType,
		Confidence: decision.Confidence,
		Reason:     reason,
	}
}
