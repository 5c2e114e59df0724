// Package selector filters and ranks CTA and content catalogs against a
// visitor's engagement classification and behavior snapshot.
package selector

import (
	"github.com/growth-engine/growth-engine/internal/engagement"
)

// Conditions is a declarative predicate record. Every field is optional;
// an absent field imposes no constraint on that dimension. Populated
// fields combine with logical AND; list-valued fields match with OR
// (set inclusion) internally.
type Conditions struct {
	MinScore             *int                 `yaml:"min_score"`
	MaxScore             *int                 `yaml:"max_score"`
	Patterns             []engagement.Pattern `yaml:"patterns"`
	Tiers                []engagement.Tier    `yaml:"tiers"`
	MinTimeOnPageSeconds *int                 `yaml:"min_time_on_page_seconds"`
	RequiredSections     []string             `yaml:"required_sections"`
	ExcludeIfCompleted   []string             `yaml:"exclude_if_completed"`
}

// Match reports whether every populated condition is satisfied by the
// engagement classification and snapshot. Score bounds are inclusive.
func (c Conditions) Match(level engagement.EngagementLevel, b engagement.BehaviorSnapshot) bool {
	if c.MinScore != nil && level.Score < *c.MinScore {
		return false
	}
	if c.MaxScore != nil && level.Score > *c.MaxScore {
		return false
	}
	if len(c.Patterns) > 0 && !containsPattern(c.Patterns, level.Pattern) {
		return false
	}
	if len(c.Tiers) > 0 && !containsTier(c.Tiers, level.Tier) {
		return false
	}
	if c.MinTimeOnPageSeconds != nil && b.SessionDurationSeconds < *c.MinTimeOnPageSeconds {
		return false
	}
	if len(c.RequiredSections) > 0 && !intersects(b.SectionsViewed, c.RequiredSections) {
		return false
	}
	if len(c.ExcludeIfCompleted) > 0 {
		completed := append(append([]string{}, b.ToolsUsed...), b.ContentConsumed...)
		if intersects(completed, c.ExcludeIfCompleted) {
			return false
		}
	}
	return true
}

func containsPattern(list []engagement.Pattern, p engagement.Pattern) bool {
	for _, v := range list {
		if v == p {
			return true
		}
	}
	return false
}

func containsTier(list []engagement.Tier, t engagement.Tier) bool {
	for _, v := range list {
		if v == t {
			return true
		}
	}
	return false
}

// intersects reports whether the two string sets share at least one element.
func intersects(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
