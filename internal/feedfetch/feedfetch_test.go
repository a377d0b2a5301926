package feedfetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
<title>Example Education Feed</title>
<item>
  <title>District expands tutoring program</title>
  <link>https://example.com/news/district-expands-tutoring-program</link>
  <description>&lt;p&gt;The district will add &lt;b&gt;200 tutors&lt;/b&gt; across 40 campuses this fall.&lt;/p&gt;</description>
  <pubDate>Tue, 25 Aug 2026 14:00:00 GMT</pubDate>
</item>
<item>
  <title>No link item</title>
  <description>broken</description>
</item>
</channel></rss>`

func TestFetchRSS(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(sampleRSS))
	}))
	defer server.Close()

	items, err := NewFetcher().FetchRSS(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("FetchRSS: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item (linkless entry dropped), got %d", len(items))
	}

	item := items[0]
	if item.Title != "District expands tutoring program" {
		t.Fatalf("title = %q", item.Title)
	}
	if item.Summary != "The district will add 200 tutors across 40 campuses this fall." {
		t.Fatalf("summary not sanitized: %q", item.Summary)
	}
	if item.PublishedAt == nil {
		t.Fatal("expected parsed publish time")
	}
}

func TestExtractArticleLinks(t *testing.T) {
	t.Parallel()

	page := `<html><body>
	  <a href="/news/board-approves-teacher-pay-raise">Board approves teacher pay raise</a>
	  <a href="/news/board-approves-teacher-pay-raise">Duplicate link</a>
	  <a href="/news/">News</a>
	  <a href="/2026/08/late-start-pilot-expands">Late start pilot expands</a>
	  <a href="https://other-site.com/news/some-off-domain-story-slug">Off domain</a>
	  <a href="/contact">Contact</a>
	  <a href="/news/second-bond-measure-headed-to-voters">Read more</a>
	</body></html>`

	items := ExtractArticleLinks(page, "https://example.com/news/")
	if len(items) != 3 {
		t.Fatalf("expected 3 links, got %d: %+v", len(items), items)
	}
	if items[0].Title != "Board approves teacher pay raise" {
		t.Fatalf("first title = %q", items[0].Title)
	}
	if items[0].URL != "https://example.com/news/board-approves-teacher-pay-raise" {
		t.Fatalf("first url = %q", items[0].URL)
	}
	// Generic link text falls back to the slug-derived title.
	if items[2].Title != "Second Bond Measure Headed To Voters" {
		t.Fatalf("slug title = %q", items[2].Title)
	}
}

func TestResolvePassesThroughNonDiscoveryURLs(t *testing.T) {
	t.Parallel()

	url := "https://example.com/news/story-slug-here"
	got, resolved := NewResolver().Resolve(context.Background(), url)
	if !resolved || got != url {
		t.Fatalf("Resolve(%q) = %q, %v", url, got, resolved)
	}
}
