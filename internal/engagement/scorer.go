package engagement

import (
	"math"
	"strings"
)

// Weights controls the relative contribution of each sub-score.
// They are expected to sum to 1.0.
type Weights struct {
	Time        float64
	Scroll      float64
	Interaction float64
	Content     float64
	Tool        float64
}

// DefaultWeights is the production weighting.
func DefaultWeights() Weights {
	return Weights{
		Time:        0.20,
		Scroll:      0.15,
		Interaction: 0.25,
		Content:     0.20,
		Tool:        0.20,
	}
}

// Scorer converts a BehaviorSnapshot into a 0-100 engagement score.
// Score is a pure function of its input; construct one Scorer per
// consumer rather than sharing a package-level instance.
type Scorer struct {
	weights Weights
}

// NewScorer returns a Scorer with the given weights.
func NewScorer(w Weights) *Scorer {
	return &Scorer{weights: w}
}

// Score computes the weighted engagement score, rounded and clamped to [0,100].
func (s *Scorer) Score(b BehaviorSnapshot) int {
	sum := s.weights.Time*timeScore(b.SessionDurationSeconds) +
		s.weights.Scroll*scrollScore(b.ScrollDepthPercent) +
		s.weights.Interaction*interactionScore(b) +
		s.weights.Content*contentScore(b.ContentConsumed) +
		s.weights.Tool*toolScore(b.ToolsUsed)

	score := int(math.Round(sum))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// timeScore is a step function of session duration.
func timeScore(seconds int) float64 {
	switch {
	case seconds >= 600:
		return 100
	case seconds >= 300:
		return 80
	case seconds >= 120:
		return 60
	case seconds >= 60:
		return 40
	case seconds >= 30:
		return 20
	default:
		return 5
	}
}

// scrollScore is a step function of scroll depth.
func scrollScore(percent int) float64 {
	switch {
	case percent >= 100:
		return 100
	case percent >= 90:
		return 90
	case percent >= 75:
		return 75
	case percent >= 50:
		return 50
	case percent >= 25:
		return 25
	default:
		return 5
	}
}

// interactionScore rewards sections viewed, CTA clicks, and raw
// interaction events. Capped at 100.
func interactionScore(b BehaviorSnapshot) float64 {
	score := 2*len(b.SectionsViewed) + 5*len(b.CTAsClicked) + 2*b.InteractionCount
	if score > 100 {
		return 100
	}
	return float64(score)
}

// contentScore assigns category-based points per consumed item.
// Blog posts are the cheapest signal, guides stronger, everything
// else (assessments, worksheets) strongest. Capped at 100.
func contentScore(consumed []string) float64 {
	score := 0
	for _, id := range consumed {
		lower := strings.ToLower(id)
		switch {
		case strings.Contains(lower, "blog"):
			score += 5
		case strings.Contains(lower, "guide"):
			score += 10
		default:
			score += 15
		}
	}
	if score > 100 {
		return 100
	}
	return float64(score)
}

// toolScore assigns fixed points per tool used, started or completed.
// Capped at 100.
func toolScore(tools []string) float64 {
	score := 20 * len(tools)
	if score > 100 {
		return 100
	}
	return float64(score)
}
