// Package feedfetch pulls raw items out of RSS, scrape, and discovery
// feeds. It does no storage; the orchestrator owns dedup and persistence.
package feedfetch

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"
)

const (
	fetchTimeout = 10 * time.Second
	userAgent    = "PulseBot/1.0 (+https://pulsek12.com/bot)"
)

// Item is one raw feed entry before normalization.
type Item struct {
	Title       string
	URL         string
	Summary     string
	PublishedAt *time.Time
}

// Fetcher retrieves feed items. One instance is shared across workers.
type Fetcher struct {
	parser     *gofeed.Parser
	httpClient *http.Client
	sanitizer  *bluemonday.Policy
}

func NewFetcher() *Fetcher {
	parser := gofeed.NewParser()
	parser.UserAgent = userAgent
	return &Fetcher{
		parser: parser,
		httpClient: &http.Client{
			Timeout: fetchTimeout,
		},
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// FetchRSS parses one RSS/Atom feed. Item summaries are stripped of HTML
// before they reach candidate scoring.
func (f *Fetcher) FetchRSS(ctx context.Context, feedURL string) ([]Item, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	feed, err := f.parser.ParseURLWithContext(feedURL, fetchCtx)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(feed.Items))
	for _, entry := range feed.Items {
		if entry == nil || strings.TrimSpace(entry.Link) == "" {
			continue
		}

		summaryText := entry.Description
		if summaryText == "" {
			summaryText = entry.Content
		}
		summaryText = strings.TrimSpace(f.sanitizer.Sanitize(summaryText))

		items = append(items, Item{
			Title:       strings.TrimSpace(entry.Title),
			URL:         strings.TrimSpace(entry.Link),
			Summary:     summaryText,
			PublishedAt: entryTimestamp(entry),
		})
	}
	return items, nil
}

// entryTimestamp prefers the parsed published time, then updated time.
func entryTimestamp(entry *gofeed.Item) *time.Time {
	if entry.PublishedParsed != nil {
		t := entry.PublishedParsed.UTC()
		return &t
	}
	if entry.UpdatedParsed != nil {
		t := entry.UpdatedParsed.UTC()
		return &t
	}
	return nil
}
