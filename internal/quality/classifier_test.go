package quality

import (
	"reflect"
	"testing"
)

func TestClassifyIsPure(t *testing.T) {
	t.Parallel()

	url := "https://example.com/news/2025/05/district-budget-vote.html"
	title := "District approves budget after marathon session"
	summary := "The school board voted 5-2 on Tuesday to approve a $1.2 billion budget that restores arts funding."

	first := Classify(url, title, summary)
	second := Classify(url, title, summary)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("classification is not deterministic: %+v vs %+v", first, second)
	}
	if first.Label != LabelArticle {
		t.Fatalf("expected article, got %s (score %.2f, reasons %v)", first.Label, first.Score, first.Reasons)
	}
}

func TestClassifyProfilePage(t *testing.T) {
	t.Parallel()

	v := Classify(
		"https://example.com/staff/jane-smith",
		"Jane Smith",
		"Jane Smith is a reporter covering K-12 schools. Prior to joining the paper she graduated from Northwestern.",
	)
	if v.Label != LabelNonArticle {
		t.Fatalf("expected non_article for profile page, got %s", v.Label)
	}
	if v.Score > 0.1 {
		t.Fatalf("expected hard-override score, got %.2f", v.Score)
	}
	if !hasReason(v.Reasons, "profile_page_override") {
		t.Fatalf("expected profile override reason, got %v", v.Reasons)
	}
}

func TestClassifySectionIndex(t *testing.T) {
	t.Parallel()

	v := Classify("https://example.com/news/", "Latest News", "")
	if v.Label != LabelNonArticle {
		t.Fatalf("expected non_article for section index, got %s (%.2f)", v.Label, v.Score)
	}
	if !hasReason(v.Reasons, "section_index_override") {
		t.Fatalf("expected section override reason, got %v", v.Reasons)
	}
}

func TestClassifyThresholds(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		url     string
		title   string
		summary string
		want    string
	}{
		{
			name:    "newsletter signup page",
			url:     "https://example.com/newsletters/signup",
			title:   "Get the education brief every morning",
			summary: "Sign up for our newsletter and support our journalism today.",
			want:    LabelNonArticle,
		},
		{
			name:    "bare homepage",
			url:     "https://example.com",
			title:   "Example Gazette",
			summary: "",
			want:    LabelNonArticle,
		},
		{
			name:    "dated path with real summary",
			url:     "https://example.com/story/2025/04/reading-scores",
			title:   "Reading scores tick up statewide for the first time since the pandemic",
			summary: "New assessment data released Thursday shows third-grade reading proficiency rising two points.",
			want:    LabelArticle,
		},
		{
			name:    "thin item stays uncertain",
			url:     "https://example.com/p/12345",
			title:   "Board meeting recap",
			summary: "",
			want:    LabelUncertain,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := Classify(tc.url, tc.title, tc.summary)
			if v.Label != tc.want {
				t.Fatalf("Classify(%q) = %s (%.2f, %v), want %s", tc.url, v.Label, v.Score, v.Reasons, tc.want)
			}
		})
	}
}

func hasReason(reasons []string, want string) bool {
	for _, r := range reasons {
		if r == want {
			return true
		}
	}
	return false
}
