package ranking

import (
	"math"
	"strings"
	"time"
)

// Inputs are the per-story aggregates the scorer consumes.
type Inputs struct {
	Title        string
	Summary      string
	ArticleCount int64
	SourceCount  int64
	RecentCount  int64
	AvgWeight    float64
	LatestAt     time.Time
	Now          time.Time
}

// Breakdown records every scoring term so the final number can be
// explained in admin tooling and tests.
type Breakdown struct {
	Impact              int     `json:"impact"`
	Urgency             int     `json:"urgency"`
	Novelty             int     `json:"novelty"`
	Relevance           int     `json:"relevance"`
	PolicyHits          int     `json:"policy_hits"`
	Volume              float64 `json:"volume"`
	SourceDiversity     float64 `json:"source_diversity"`
	Recency             float64 `json:"recency"`
	AuthorityMultiplier float64 `json:"authority_multiplier"`
	EvergreenPenalty    float64 `json:"evergreen_penalty"`
	SingletonPenalty    float64 `json:"singleton_penalty"`
	ThinCoveragePenalty float64 `json:"thin_coverage_penalty"`
	HardNewsPenalty     float64 `json:"hard_news_penalty"`
	WeakEvergreen       bool    `json:"weak_evergreen_signals"`
	HoursSince          float64 `json:"hours_since"`
}

// Analysis is the full scoring verdict for one story.
type Analysis struct {
	Score           float64
	StoryType       StoryType
	LeadEligible    bool
	LeadReason      string
	UrgencyOverride bool
	Breakdown       Breakdown
}

const (
	evergreenPenaltyFactor    = 0.35
	singletonPenaltyFactor    = 0.75
	thinCoveragePenaltyFactor = 0.82
	lowAuthorityWeight        = 0.9
)

// Analyze scores a story from its text features and coverage aggregates.
// Pure: same inputs always produce the same analysis.
func Analyze(in Inputs) Analysis {
	lowered := strings.ToLower(in.Title + " " + in.Summary)

	impact := cappedHits(lowered, impactTerms)
	urgency := cappedHits(lowered, urgencyTerms)
	novelty := cappedHits(lowered, noveltyTerms)
	relevance := cappedHits(lowered, relevanceTerms)
	policyCount := countHits(lowered, policyHints)
	breakingCount := countHits(lowered, breakingHints)

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	hoursSince := now.Sub(in.LatestAt).Hours()
	if hoursSince < 0 {
		hoursSince = 0
	}

	volume := math.Log1p(float64(in.ArticleCount))
	diversity := math.Log1p(math.Max(0, float64(in.SourceCount)))
	recency := 1.1 * math.Exp(-hoursSince/30)

	weakEvergreen := hoursSince > 18 && in.SourceCount <= 1 && in.RecentCount <= 1
	storyType := classifyStoryType(lowered, weakEvergreen)
	urgencyOverride := urgency > 0 && (hoursSince <= 6 || in.RecentCount >= 2)

	// Cubing the clamped average weight rewards multi-outlet trusted
	// coverage superlinearly while the outer clamp keeps the spread sane.
	authority := clampRange(in.AvgWeight, 0.45, 1.5)
	authority = clampRange(authority*authority*authority, 0.3, 2.2)

	evergreenPenalty := 1.0
	if storyType == TypeEvergreen && !urgencyOverride {
		evergreenPenalty = evergreenPenaltyFactor
	}

	lowAuthoritySingleton := in.SourceCount <= 1 && in.AvgWeight < lowAuthorityWeight && in.RecentCount <= 1
	singletonPenalty := 1.0
	if lowAuthoritySingleton && !urgencyOverride {
		singletonPenalty = singletonPenaltyFactor
	}

	thinPenalty := 1.0
	if storyType != TypeBreaking && in.SourceCount <= 1 && in.ArticleCount <= 1 {
		thinPenalty = thinCoveragePenaltyFactor
	}

	// Feature stories with no hard-news keyword family at all are local
	// color at best; drop them well below anything with real signal.
	hardNewsPenalty := 1.0
	if storyType == TypeFeature && impact == 0 && urgency == 0 && policyCount == 0 && breakingCount == 0 {
		if relevance == 0 {
			hardNewsPenalty = 0.45
		} else {
			hardNewsPenalty = 0.6
		}
	}

	base := float64(impact)*2.2 +
		float64(urgency)*1.8 +
		float64(novelty)*1.0 +
		float64(relevance)*1.3 +
		volume*0.9 +
		diversity*0.7 +
		recency

	score := base * authority * evergreenPenalty * singletonPenalty * thinPenalty * hardNewsPenalty

	leadEligible := true
	leadReason := ""
	switch {
	case storyType == TypeEvergreen && !urgencyOverride:
		leadEligible = false
		leadReason = "evergreen_weak_signal"
	case storyType == TypeOpinion && !urgencyOverride:
		leadEligible = false
		leadReason = "opinion_demoted"
	case singletonPenalty < 1:
		leadEligible = false
		leadReason = "low_authority_singleton"
	case hardNewsPenalty < 1:
		leadEligible = false
		leadReason = "low_newsworthiness_feature"
	}

	return Analysis{
		Score:           round2(score),
		StoryType:       storyType,
		LeadEligible:    leadEligible,
		LeadReason:      leadReason,
		UrgencyOverride: urgencyOverride,
		Breakdown: Breakdown{
			Impact:              impact,
			Urgency:             urgency,
			Novelty:             novelty,
			Relevance:           relevance,
			PolicyHits:          policyCount,
			Volume:              round2(volume),
			SourceDiversity:     round2(diversity),
			Recency:             round2(recency),
			AuthorityMultiplier: round2(authority),
			EvergreenPenalty:    evergreenPenalty,
			SingletonPenalty:    singletonPenalty,
			ThinCoveragePenalty: thinPenalty,
			HardNewsPenalty:     hardNewsPenalty,
			WeakEvergreen:       weakEvergreen,
			HoursSince:          round2(hoursSince),
		},
	}
}

func clampRange(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
