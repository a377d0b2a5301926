// Package scrape fetches article pages for summary enrichment. The
// primary path is a Firecrawl-style extraction API; without an API key
// the service degrades to a direct fetch with readability extraction.
package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const firecrawlTimeout = 30 * time.Second

type firecrawlClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

type firecrawlRequest struct {
	URL             string   `json:"url"`
	Formats         []string `json:"formats"`
	OnlyMainContent bool     `json:"onlyMainContent"`
}

type firecrawlResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Markdown string `json:"markdown"`
		HTML     string `json:"html"`
	} `json:"data"`
}

// fetch calls the extraction API and returns markdown (preferred) and
// raw HTML. Failures are recoverable: the caller just loses this
// candidate source.
func (c *firecrawlClient) fetch(ctx context.Context, pageURL string) (markdown, html string, err error) {
	payload, err := json.Marshal(firecrawlRequest{
		URL:             pageURL,
		Formats:         []string{"markdown", "html"},
		OnlyMainContent: true,
	})
	if err != nil {
		return "", "", fmt.Errorf("marshal scrape request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/scrape", bytes.NewReader(payload))
	if err != nil {
		return "", "", fmt.Errorf("build scrape request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("call scrape api: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", "", fmt.Errorf("read scrape response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", "", fmt.Errorf("scrape api status %d for %s", resp.StatusCode, pageURL)
	}

	var parsed firecrawlResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", "", fmt.Errorf("decode scrape response: %w", err)
	}
	if !parsed.Success {
		return "", "", fmt.Errorf("scrape api reported failure for %s", pageURL)
	}

	markdown = strings.TrimSpace(parsed.Data.Markdown)
	html = strings.TrimSpace(parsed.Data.HTML)
	if markdown == "" && html == "" {
		return "", "", fmt.Errorf("scrape api returned no content for %s", pageURL)
	}
	return markdown, html, nil
}
