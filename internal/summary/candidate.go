package summary

import (
	"math"
	"regexp"
	"strings"
)

// Candidate sources, in rough trust order.
const (
	SourceExisting = "existing"
	SourceRSS      = "rss"
	SourceScrape   = "scrape"
	SourceLLM      = "llm"
	SourceFallback = "fallback"
)

// Candidate is one scored summary option for an article.
type Candidate struct {
	Source string  `json:"source"`
	Text   string  `json:"text"`
	Score  float64 `json:"score"`
}

// CandidateSet accumulates sanitized, deduplicated candidates for one
// article headline.
type CandidateSet struct {
	title      string
	candidates []Candidate
}

func NewCandidateSet(title string) *CandidateSet {
	return &CandidateSet{title: strings.TrimSpace(title)}
}

// Add sanitizes and scores a candidate. Empty results, headline echoes
// from non-fallback sources, and exact duplicates are dropped. Fallback
// text is assumed pre-built and skips sanitization.
func (s *CandidateSet) Add(source, raw string) {
	var text string
	if source == SourceFallback {
		text = strings.TrimSpace(raw)
	} else {
		text = Sanitize(raw)
	}
	if text == "" {
		return
	}
	for _, existing := range s.candidates {
		if existing.Text == text {
			return
		}
	}

	s.candidates = append(s.candidates, Candidate{
		Source: source,
		Text:   text,
		Score:  ScoreCandidate(source, text, s.title),
	})
}

// Candidates returns the accumulated list in insertion order.
func (s *CandidateSet) Candidates() []Candidate {
	return s.candidates
}

func (s *CandidateSet) Len() int {
	return len(s.candidates)
}

var educationKeywords = []string{
	"school", "district", "student", "teacher", "education", "classroom",
	"superintendent", "curriculum", "enrollment", "tuition", "campus",
	"kindergarten", "graduation", "literacy",
}

var digitRe = regexp.MustCompile(`\d`)

// ScoreCandidate assigns the deterministic quality score for one
// candidate. Fallback briefs get a fixed low score so any real text with
// substance outranks them.
func ScoreCandidate(source, text, title string) float64 {
	if source == SourceFallback {
		return 0.38
	}

	score := 0.45
	lower := strings.ToLower(text)
	wordCount := len(strings.Fields(text))

	lowQuality := false
	for _, phrase := range junkPhrases {
		if strings.Contains(lower, phrase) {
			lowQuality = true
			break
		}
	}
	if !lowQuality {
		score += 0.25
	}
	if wordCount >= 10 {
		score += 0.12
	}
	if wordCount >= 16 {
		score += 0.08
	}
	if wordCount > 60 {
		score -= 0.08
	}
	for _, keyword := range educationKeywords {
		if strings.Contains(lower, keyword) {
			score += 0.07
			break
		}
	}
	if digitRe.MatchString(text) {
		score += 0.03
	}
	if IsHeadlineEcho(text, title) {
		score -= 0.4
	}
	if IsSyntheticShape(text) {
		score -= 0.35
	}

	return math.Round(math.Max(0, math.Min(1, score))*100) / 100
}
