package textnorm

import "testing"

func TestNormalizeURLStripsTracking(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "utm params removed",
			in:   "https://example.com/story?utm_source=rss&utm_medium=feed&id=7",
			want: "https://example.com/story?id=7",
		},
		{
			name: "fragment removed",
			in:   "https://example.com/story#comments",
			want: "https://example.com/story",
		},
		{
			name: "gclid and fbclid removed",
			in:   "https://example.com/a?gclid=x&fbclid=y",
			want: "https://example.com/a",
		},
		{
			name: "clean url unchanged",
			in:   "https://example.com/story?id=7",
			want: "https://example.com/story?id=7",
		},
		{
			name: "unparseable input returned as-is",
			in:   "not a url at all",
			want: "not a url at all",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizeURL(tc.in)
			if got != tc.want {
				t.Fatalf("NormalizeURL(%q) = %q, want %q", tc.in, got, tc.want)
			}
			if again := NormalizeURL(got); again != got {
				t.Fatalf("NormalizeURL is not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestDomain(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"https://www.edweek.org/leadership/story", "edweek.org"},
		{"https://News.Google.com/rss", "news.google.com"},
		{"garbage", ""},
	}

	for _, tc := range cases {
		if got := Domain(tc.in); got != tc.want {
			t.Fatalf("Domain(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCleanTitle(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "publisher suffix stripped",
			in:   "District weighs four-day school week - The Denver Post",
			want: "District weighs four-day school week",
		},
		{
			name: "outlet prefix stripped",
			in:   "Education Week | Teacher pay raises advance in legislature",
			want: "Teacher pay raises advance in legislature",
		},
		{
			name: "trailing date tag stripped",
			in:   "Board approves new budget · Feb 12",
			want: "Board approves new budget",
		},
		{
			name: "hyphenated headline kept",
			in:   "Pre-K expansion stalls",
			want: "Pre-K expansion stalls",
		},
		{
			name: "wire label becomes empty",
			in:   "From Chalkbeat Colorado",
			want: "",
		},
		{
			name: "whitespace collapsed",
			in:   "  Schools   reopen\tafter storm ",
			want: "Schools reopen after storm",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CleanTitle(tc.in); got != tc.want {
				t.Fatalf("CleanTitle(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestIsJobListing(t *testing.T) {
	t.Parallel()

	if !IsJobListing("https://example.com/jobs/principal-openings", "Principal openings") {
		t.Fatal("expected /jobs/ path to be flagged")
	}
	if !IsJobListing("https://jobs.example.com/list", "Listings") {
		t.Fatal("expected jobs. subdomain to be flagged")
	}
	if !IsJobListing("https://example.com/news/x", "District now hiring bus drivers") {
		t.Fatal("expected hiring title to be flagged")
	}
	if IsJobListing("https://example.com/news/testing", "Test scores rebound statewide") {
		t.Fatal("did not expect a news article to be flagged")
	}
}

func TestNormalizeTitleCase(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"lausd weighs ai policy for k-12 classrooms", "LAUSD Weighs AI Policy for K-12 Classrooms"},
		{"Already Capitalized Headline", "Already Capitalized Headline"},
		{"the fafsa delay and its fallout", "The FAFSA Delay and Its Fallout"},
	}

	for _, tc := range cases {
		if got := NormalizeTitleCase(tc.in); got != tc.want {
			t.Fatalf("NormalizeTitleCase(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestShortenStoryTitle(t *testing.T) {
	t.Parallel()

	short := "Budget cuts loom over rural districts"
	if got := ShortenStoryTitle(short); got != short {
		t.Fatalf("short title changed: %q", got)
	}

	long := "State board votes to overhaul graduation requirements after months of contentious hearings. Parents and teachers packed the chamber to testify about the proposed changes and their impact on students across the state"
	got := ShortenStoryTitle(long)
	if len(got) >= len(long) {
		t.Fatalf("long title was not shortened: %q", got)
	}
	if got != "State board votes to overhaul graduation requirements after months of contentious hearings" {
		t.Fatalf("unexpected sentence-boundary cut: %q", got)
	}
}
