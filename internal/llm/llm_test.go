package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"pulsek12.com/pulse/internal/summary"
)

func TestExtractJSON(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "bare object",
			in:   `{"order":[1,2]}`,
			want: `{"order":[1,2]}`,
		},
		{
			name: "fenced object",
			in:   "Here you go:\n```json\n{\"order\":[3]}\n```",
			want: `{"order":[3]}`,
		},
		{
			name: "preamble and trailer",
			in:   `Sure! {"winner_source":"rss","confidence":0.7} Hope that helps.`,
			want: `{"winner_source":"rss","confidence":0.7}`,
		},
		{
			name: "braces inside strings",
			in:   `{"a":"{not a close}","b":1}`,
			want: `{"a":"{not a close}","b":1}`,
		},
		{
			name: "no object",
			in:   "I cannot answer that.",
			want: "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractJSON(tc.in); got != tc.want {
				t.Fatalf("ExtractJSON(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func textReply(t *testing.T, w http.ResponseWriter, text string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(map[string]any{
		"content": []map[string]string{{"type": "text", "text": text}},
	})
	if err != nil {
		t.Fatalf("encode reply: %v", err)
	}
}

func TestCompleteModelFallback(t *testing.T) {
	t.Parallel()

	var models []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model string `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		models = append(models, req.Model)
		if req.Model == "retired-model" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		textReply(t, w, "hello")
	}))
	defer server.Close()

	client := NewClient(server.URL, "key", []string{"retired-model", "current-model"}, zerolog.Nop())
	got, err := client.complete(context.Background(), "", "hi", 0, 64)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got != "hello" {
		t.Fatalf("reply = %q", got)
	}
	if want := []string{"retired-model", "current-model"}; !reflect.DeepEqual(models, want) {
		t.Fatalf("model attempts = %v, want %v", models, want)
	}
}

func TestCompleteAuthFailureDisablesClient(t *testing.T) {
	t.Parallel()

	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(server.URL, "bad-key", []string{"model-a", "model-b"}, zerolog.Nop())
	if _, err := client.complete(context.Background(), "", "hi", 0, 64); err == nil {
		t.Fatal("expected auth error")
	}
	if calls != 1 {
		t.Fatalf("auth failure should not try fallback models, got %d calls", calls)
	}
	if client.Enabled() {
		t.Fatal("client should be disabled after auth failure")
	}
}

func TestClientDisabledWithoutKey(t *testing.T) {
	t.Parallel()

	client := NewClient("https://api.example.com", "", []string{"model"}, zerolog.Nop())
	if client.Enabled() {
		t.Fatal("client without key must be disabled")
	}
}

func TestAdjudicateSummary(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		textReply(t, w, `{"winner_source":"scrape","confidence":0.82,"reason_codes":["Scraped Main Content","scraped main content"]}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "key", []string{"model"}, zerolog.Nop())
	candidates := []summary.Candidate{
		{Source: summary.SourceRSS, Text: "rss text from the feed entry", Score: 0.5},
		{Source: summary.SourceScrape, Text: "scraped text with more detail", Score: 0.7},
	}

	decision, err := client.AdjudicateSummary(context.Background(), "Headline", "https://example.com/a", candidates)
	if err != nil {
		t.Fatalf("adjudicate: %v", err)
	}
	if decision.WinnerSource != summary.SourceScrape {
		t.Fatalf("winner = %s", decision.WinnerSource)
	}
	if decision.Text != "scraped text with more detail" {
		t.Fatalf("text = %q", decision.Text)
	}
	if decision.Method != summary.MethodAI {
		t.Fatalf("method = %s", decision.Method)
	}
	if want := []string{"scraped_main_content"}; !reflect.DeepEqual(decision.Reasons, want) {
		t.Fatalf("reasons = %v, want deduped %v", decision.Reasons, want)
	}
}

func TestAdjudicateRejectsInvalidVerdict(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		textReply(t, w, `{"winner_source":"made_up_source","confidence":0.9}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "key", []string{"model"}, zerolog.Nop())
	candidates := []summary.Candidate{{Source: summary.SourceRSS, Text: "text", Score: 0.5}}

	if _, err := client.AdjudicateSummary(context.Background(), "t", "u", candidates); err == nil {
		t.Fatal("expected schema rejection for unknown winner source")
	}
}

func TestRerankStoriesFiltersUnknownIDs(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		textReply(t, w, "```json\n{\"order\":[2,1,99],\"demote\":[1,42]}\n```")
	}))
	defer server.Close()

	client := NewClient(server.URL, "key", []string{"model"}, zerolog.Nop())
	items := []RerankItem{
		{StoryID: 1, Title: "A", Summary: "a"},
		{StoryID: 2, Title: "B", Summary: "b"},
	}

	verdict, err := client.RerankStories(context.Background(), items)
	if err != nil {
		t.Fatalf("rerank: %v", err)
	}
	if want := []int64{2, 1}; !reflect.DeepEqual(verdict.Order, want) {
		t.Fatalf("order = %v, want %v", verdict.Order, want)
	}
	if want := []int64{1}; !reflect.DeepEqual(verdict.Demote, want) {
		t.Fatalf("demote = %v, want %v", verdict.Demote, want)
	}
}
