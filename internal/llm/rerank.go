package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

const rerankSystem = `You are the front-page editor of a national K-12 education news site.
Reorder the numbered stories for reader impact today. Demote stale, thin, or duplicate items.
Respond with JSON only: {"order": [ids best first], "demote": [ids]}.
Use only the provided ids.`

// RerankItem is one story offered to the rerank pass.
type RerankItem struct {
	StoryID int64
	Title   string
	Summary string
}

// RerankVerdict is the parsed, schema-validated rerank reply.
type RerankVerdict struct {
	Order  []int64
	Demote []int64
}

// RerankStories asks the model to reorder the top stories. IDs outside
// the offered set are dropped from the verdict rather than failing it.
func (c *Client) RerankStories(ctx context.Context, items []RerankItem) (*RerankVerdict, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("no stories to rerank")
	}

	var sb strings.Builder
	for _, item := range items {
		summaryText := item.Summary
		if len(summaryText) > 200 {
			summaryText = summaryText[:200]
		}
		fmt.Fprintf(&sb, "%d. %s — %s\n", item.StoryID, item.Title, summaryText)
	}

	reply, err := c.complete(ctx, rerankSystem, sb.String(), 0, 1024)
	if err != nil {
		return nil, err
	}

	raw := ExtractJSON(reply)
	if raw == "" {
		return nil, fmt.Errorf("no JSON object in rerank reply")
	}
	if _, err := validateJSON("rerank", raw); err != nil {
		return nil, err
	}

	var parsed struct {
		Order  []int64 `json:"order"`
		Demote []int64 `json:"demote"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("decode rerank verdict: %w", err)
	}

	known := make(map[int64]struct{}, len(items))
	for _, item := range items {
		known[item.StoryID] = struct{}{}
	}
	verdict := &RerankVerdict{}
	for _, id := range parsed.Order {
		if _, ok := known[id]; ok {
			verdict.Order = append(verdict.Order, id)
		}
	}
	for _, id := range parsed.Demote {
		if _, ok := known[id]; ok {
			verdict.Demote = append(verdict.Demote, id)
		}
	}
	if len(verdict.Order) == 0 {
		return nil, fmt.Errorf("rerank verdict contains no known story ids")
	}
	return verdict, nil
}
