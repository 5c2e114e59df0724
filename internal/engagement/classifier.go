package engagement

import "math"

// Level is the qualitative engagement bucket.
type Level string

const (
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelVeryHigh Level = "very-high"
)

// Tier is the funnel stage a visitor has reached.
type Tier string

const (
	TierBrowser    Tier = "browser"
	TierEngaged    Tier = "engaged"
	TierSoftMember Tier = "soft-member"
)

// Pattern is the dominant behavior archetype for a session.
type Pattern string

const (
	PatternExplorer    Pattern = "explorer"
	PatternResearcher  Pattern = "researcher"
	PatternActionTaker Pattern = "action-taker"
	PatternSkeptic     Pattern = "skeptic"
)

// EngagementLevel is the full classification derived from a score and
// snapshot. Recomputed on every call; not persisted.
type EngagementLevel struct {
	Score     int
	Level     Level
	Tier      Tier
	Pattern   Pattern
	Readiness int
}

// Thresholds parameterizes the score cut points. Historically consumers
// disagreed on tier boundaries (25/80 vs 30/70); rather than silently
// unifying, the cut points are explicit per Classifier. DefaultThresholds
// is the canonical table.
type Thresholds struct {
	Medium   int // level >= Medium is "medium"
	High     int // level >= High is "high"
	VeryHigh int // level >= VeryHigh is "very-high"

	Engaged    int // tier >= Engaged is "engaged"
	SoftMember int // tier >= SoftMember is "soft-member"
}

// DefaultThresholds is the canonical cut-point table (25/50/80).
func DefaultThresholds() Thresholds {
	return Thresholds{Medium: 25, High: 50, VeryHigh: 80, Engaged: 25, SoftMember: 80}
}

// LegacyTierThresholds reproduces the 30/70 tier boundaries some
// downstream consumers were built against. Level cut points are unchanged.
func LegacyTierThresholds() Thresholds {
	t := DefaultThresholds()
	t.Engaged = 30
	t.SoftMember = 70
	return t
}

// Classifier maps a score and snapshot to an EngagementLevel.
type Classifier struct {
	thresholds Thresholds
}

// NewClassifier returns a Classifier using the given thresholds.
func NewClassifier(t Thresholds) *Classifier {
	return &Classifier{thresholds: t}
}

// Classify is a total, deterministic function: every input maps to
// exactly one level, tier, and pattern.
func (c *Classifier) Classify(score int, b BehaviorSnapshot) EngagementLevel {
	tier := c.tier(score)
	return EngagementLevel{
		Score:     score,
		Level:     c.level(score),
		Tier:      tier,
		Pattern:   classifyPattern(score, b),
		Readiness: readiness(tier),
	}
}

func (c *Classifier) level(score int) Level {
	switch {
	case score >= c.thresholds.VeryHigh:
		return LevelVeryHigh
	case score >= c.thresholds.High:
		return LevelHigh
	case score >= c.thresholds.Medium:
		return LevelMedium
	default:
		return LevelLow
	}
}

func (c *Classifier) tier(score int) Tier {
	switch {
	case score >= c.thresholds.SoftMember:
		return TierSoftMember
	case score >= c.thresholds.Engaged:
		return TierEngaged
	default:
		return TierBrowser
	}
}

// readiness is a step function of tier.
func readiness(t Tier) int {
	switch t {
	case TierSoftMember:
		return 90
	case TierEngaged:
		return 60
	default:
		return 25
	}
}

// classifyPattern applies ratio heuristics in priority order; the first
// matching rule wins and explorer is the fallback.
func classifyPattern(score int, b BehaviorSnapshot) Pattern {
	toolRatio := ratio(len(b.ToolsUsed), len(b.ContentConsumed))
	ctaRatio := ratio(len(b.CTAsClicked), len(b.SectionsViewed))

	switch {
	case toolRatio > 1.5 && ctaRatio > 0.5:
		return PatternActionTaker
	case len(b.ContentConsumed) >= 2 && toolRatio <= 0.5:
		return PatternResearcher
	case len(b.SectionsViewed) >= 4 && score < 30:
		return PatternSkeptic
	default:
		return PatternExplorer
	}
}

// ratio returns num/denom, treating a zero denominator as infinitely
// tool- or CTA-heavy when the numerator is positive.
func ratio(num, denom int) float64 {
	if denom == 0 {
		if num == 0 {
			return 0
		}
		return math.Inf(1)
	}
	return float64(num) / float64(denom)
}
