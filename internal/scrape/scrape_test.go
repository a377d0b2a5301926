package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestFirstBlockFromMarkdown(t *testing.T) {
	t.Parallel()

	markdown := strings.Join([]string{
		"# District news",
		"![photo](https://example.com/img.jpg)",
		"- navigation item",
		"Short line.",
		"The school board voted unanimously Thursday to extend the superintendent's contract through 2028, citing improved graduation rates.",
		"A second paragraph follows with more detail.",
	}, "\n\n")

	got := FirstBlockFromMarkdown(markdown)
	want := "The school board voted unanimously Thursday to extend the superintendent's contract through 2028, citing improved graduation rates."
	if got != want {
		t.Fatalf("FirstBlockFromMarkdown = %q, want %q", got, want)
	}

	if got := FirstBlockFromMarkdown("# Only headings\n\n## Nothing else"); got != "" {
		t.Fatalf("expected empty for heading-only markdown, got %q", got)
	}
}

func TestSummaryFromHTML(t *testing.T) {
	t.Parallel()

	withMeta := `<html><head><meta name="description" content="A detailed look at how districts are spending their remaining relief funds."></head><body><p>x</p></body></html>`
	if got := SummaryFromHTML(withMeta); !strings.HasPrefix(got, "A detailed look") {
		t.Fatalf("meta description not extracted: %q", got)
	}

	withParagraph := `<html><body><article><p>Hi.</p><p>Lawmakers advanced a bill Tuesday that would require districts to publish spending dashboards updated every quarter for parents.</p></article></body></html>`
	if got := SummaryFromHTML(withParagraph); !strings.HasPrefix(got, "Lawmakers advanced") {
		t.Fatalf("first substantial paragraph not extracted: %q", got)
	}
}

func TestServiceFirecrawlPath(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"markdown":"State test scores released Monday show steady gains in elementary math across most districts statewide.","html":""}}`))
	}))
	defer server.Close()

	svc := NewService(server.URL, "test-key", zerolog.Nop())
	res, err := svc.Fetch(context.Background(), "https://example.com/story")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !strings.HasPrefix(res.Summary, "State test scores") {
		t.Fatalf("summary = %q", res.Summary)
	}
}

func TestServiceFirecrawlFailureIsRecoverable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":false}`))
	}))
	defer server.Close()

	svc := NewService(server.URL, "test-key", zerolog.Nop())
	if _, err := svc.Fetch(context.Background(), "https://example.com/story"); err == nil {
		t.Fatal("expected error for success=false response")
	}
}
