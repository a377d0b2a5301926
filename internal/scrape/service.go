package scrape

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "codeberg.org/readeck/go-readability/v2"
	"github.com/rs/zerolog"
)

const (
	directFetchTimeout = 12 * time.Second
	directBodyLimit    = 2 * 1024 * 1024
	userAgent          = "PulseBot/1.0 (+https://pulsek12.com/bot)"
)

// Result is one scraped page: full markdown/text for LLM rewrite plus a
// pre-extracted summary paragraph.
type Result struct {
	Markdown string
	Summary  string
}

// Service fetches article pages. With an API key it uses the extraction
// API; without one it falls back to a direct fetch run through
// readability.
type Service struct {
	firecrawl  *firecrawlClient
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewService builds a scrape service. An empty apiKey selects the direct
// fetch path.
func NewService(baseURL, apiKey string, logger zerolog.Logger) *Service {
	s := &Service{
		httpClient: &http.Client{Timeout: directFetchTimeout},
		logger:     logger,
	}
	if strings.TrimSpace(apiKey) != "" {
		s.firecrawl = &firecrawlClient{
			httpClient: &http.Client{Timeout: firecrawlTimeout},
			baseURL:    strings.TrimRight(baseURL, "/"),
			apiKey:     strings.TrimSpace(apiKey),
		}
	}
	return s
}

// Fetch retrieves one article page and extracts a summary paragraph.
// Every error here is recoverable; the pipeline just proceeds without a
// scrape candidate.
func (s *Service) Fetch(ctx context.Context, pageURL string) (*Result, error) {
	if strings.TrimSpace(pageURL) == "" {
		return nil, fmt.Errorf("page url is empty")
	}

	if s.firecrawl != nil {
		markdown, html, err := s.firecrawl.fetch(ctx, pageURL)
		if err != nil {
			return nil, err
		}
		summaryText := FirstBlockFromMarkdown(markdown)
		if summaryText == "" && html != "" {
			summaryText = SummaryFromHTML(html)
		}
		return &Result{Markdown: markdown, Summary: summaryText}, nil
	}

	return s.fetchDirect(ctx, pageURL)
}

// FetchHTML retrieves a page body for link discovery on scrape-type
// feeds. No readability pass, just the raw document.
func (s *Service) FetchHTML(ctx context.Context, pageURL string) (string, error) {
	body, _, err := s.get(ctx, pageURL)
	return body, err
}

// fetchDirect is the degraded path: plain GET plus readability main-text
// extraction.
func (s *Service) fetchDirect(ctx context.Context, pageURL string) (*Result, error) {
	body, contentType, err := s.get(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	if strings.HasPrefix(contentType, "text/plain") {
		text := collapseText(body)
		return &Result{Markdown: text, Summary: firstParagraph(text)}, nil
	}

	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}
	article, err := readability.FromReader(strings.NewReader(body), parsedURL)
	if err != nil {
		return nil, fmt.Errorf("readability parse: %w", err)
	}

	var rendered bytes.Buffer
	if err := article.RenderText(&rendered); err != nil {
		return nil, fmt.Errorf("render readability text: %w", err)
	}

	text := collapseText(rendered.String())
	summaryText := firstParagraph(text)
	if summaryText == "" {
		summaryText = strings.TrimSpace(article.Excerpt())
	}
	if text == "" && summaryText == "" {
		summaryText = SummaryFromHTML(body)
	}
	if text == "" && summaryText == "" {
		return nil, fmt.Errorf("no readable content at %s", pageURL)
	}
	return &Result{Markdown: text, Summary: summaryText}, nil
}

func (s *Service) get(ctx context.Context, pageURL string) (body, contentType string, err error) {
	fetchCtx, cancel := context.WithTimeout(ctx, directFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", "", fmt.Errorf("build fetch request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.8")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", "", fmt.Errorf("fetch %s: status %d", pageURL, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, directBodyLimit))
	if err != nil {
		return "", "", fmt.Errorf("read %s body: %w", pageURL, err)
	}
	return string(raw), strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Type"))), nil
}

// collapseText normalizes line endings and collapses in-line whitespace,
// keeping paragraph breaks.
func collapseText(raw string) string {
	normalized := strings.ReplaceAll(raw, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")

	lines := strings.Split(normalized, "\n")
	paragraphs := make([]string, 0, len(lines))
	for _, line := range lines {
		clean := strings.Join(strings.Fields(line), " ")
		if clean == "" {
			continue
		}
		paragraphs = append(paragraphs, clean)
	}
	return strings.Join(paragraphs, "\n\n")
}

func firstParagraph(text string) string {
	for _, paragraph := range strings.Split(text, "\n\n") {
		trimmed := strings.TrimSpace(paragraph)
		if len(trimmed) >= 60 {
			return trimmed
		}
	}
	return ""
}
