package llm

import (
	"context"
	"fmt"
	"strings"
)

const rewriteSystem = `You write one- or two-sentence news briefs for an education news digest.
Summarize the article content factually. No headline restatement, no hype, no preamble.
Reply with the brief only.`

const maxRewriteInput = 6000

// RewriteSummary produces a short brief from scraped article markdown.
// The caller sanitizes and scores the result like any other candidate.
func (c *Client) RewriteSummary(ctx context.Context, title, markdown string) (string, error) {
	content := strings.TrimSpace(markdown)
	if content == "" {
		return "", fmt.Errorf("no article content to rewrite")
	}
	if len(content) > maxRewriteInput {
		content = content[:maxRewriteInput]
	}

	prompt := fmt.Sprintf("Headline: %s\n\nArticle content:\n%s", title, content)
	reply, err := c.complete(ctx, rewriteSystem, prompt, 0.2, 300)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}
