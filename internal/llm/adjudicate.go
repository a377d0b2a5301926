package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"

	"pulsek12.com/pulse/internal/summary"
)

// WinnerReject marks a verdict that no candidate is fit to display.
const WinnerReject = "reject"

const adjudicationSystem = `You judge summary candidates for education news articles.
Pick the candidate that best previews the article for a busy reader, or reject all of them.
Respond with JSON only: {"winner_source": "...", "confidence": 0.0, "reason_codes": ["..."]}.
winner_source must be one of the candidate sources, or "reject".`

// AdjudicateSummary asks the model to pick among scored candidates.
// The reply must satisfy the embedded verdict schema; any violation or
// transport failure returns an error and the caller keeps its
// deterministic decision.
func (c *Client) AdjudicateSummary(ctx context.Context, title, url string, candidates []summary.Candidate) (*summary.Decision, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no candidates to adjudicate")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Headline: %s\nURL: %s\n\nCandidates:\n", title, url)
	for _, cand := range candidates {
		fmt.Fprintf(&sb, "- source=%s score=%.2f text=%q\n", cand.Source, cand.Score, cand.Text)
	}

	reply, err := c.complete(ctx, adjudicationSystem, sb.String(), 0, 512)
	if err != nil {
		return nil, err
	}

	raw := ExtractJSON(reply)
	if raw == "" {
		return nil, fmt.Errorf("no JSON object in adjudication reply")
	}
	if _, err := validateJSON("adjudication", raw); err != nil {
		return nil, err
	}

	var verdict struct {
		WinnerSource string   `json:"winner_source"`
		Confidence   float64  `json:"confidence"`
		ReasonCodes  []string `json:"reason_codes"`
	}
	if err := json.Unmarshal([]byte(raw), &verdict); err != nil {
		return nil, fmt.Errorf("decode adjudication verdict: %w", err)
	}

	if verdict.WinnerSource == WinnerReject {
		return &summary.Decision{
			WinnerSource: WinnerReject,
			Method:       summary.MethodAI,
			Confidence:   clamp01(verdict.Confidence),
			Reasons:      normalizeReasonCodes(verdict.ReasonCodes),
		}, nil
	}

	for _, cand := range candidates {
		if cand.Source == verdict.WinnerSource {
			return &summary.Decision{
				WinnerSource: cand.Source,
				Text:         cand.Text,
				Method:       summary.MethodAI,
				Confidence:   clamp01(verdict.Confidence),
				Reasons:      normalizeReasonCodes(verdict.ReasonCodes),
			}, nil
		}
	}
	return nil, fmt.Errorf("verdict names source %q absent from candidates", verdict.WinnerSource)
}

var reasonCodeCleanRe = regexp.MustCompile(`[^a-z0-9_]+`)

// normalizeReasonCodes lowercases, snake_cases, dedupes, and caps model
// reason codes at five entries.
func normalizeReasonCodes(codes []string) []string {
	out := make([]string, 0, 5)
	seen := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		normalized := strings.ToLower(strings.TrimSpace(code))
		normalized = strings.ReplaceAll(normalized, " ", "_")
		normalized = reasonCodeCleanRe.ReplaceAllString(normalized, "")
		normalized = strings.Trim(normalized, "_")
		if normalized == "" {
			continue
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
		if len(out) == 5 {
			break
		}
	}
	return out
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
