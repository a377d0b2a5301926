package relevance

import (
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"
)

var (
	detectorOnce sync.Once
	detector     lingua.LanguageDetector
)

// Candidate languages for the detector. A small set keeps detection fast
// and accurate on headline-length text.
func buildDetector() lingua.LanguageDetector {
	return lingua.NewLanguageDetectorBuilder().
		FromLanguages(
			lingua.English,
			lingua.Spanish,
			lingua.French,
			lingua.German,
			lingua.Portuguese,
		).
		WithMinimumRelativeDistance(0.25).
		Build()
}

// IsEnglish reports whether the item text reads as English. Undetectable
// or too-short text passes; the gate only rejects confident non-English
// detections.
func IsEnglish(title, summaryText string) bool {
	text := strings.TrimSpace(title + " " + summaryText)
	if len(strings.Fields(text)) < 4 {
		return true
	}

	detectorOnce.Do(func() {
		detector = buildDetector()
	})

	language, exists := detector.DetectLanguageOf(text)
	if !exists {
		return true
	}
	return language == lingua.English
}
