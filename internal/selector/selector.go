package selector

import (
	"sort"

	"github.com/growth-engine/growth-engine/internal/engagement"
)

// VariantBody is the presentation payload for one CTA variant. The selector
// never interprets these fields; they are opaque data handed to whatever
// renders the CTA.
type VariantBody struct {
	Text        string            `yaml:"text"`
	Description string            `yaml:"description"`
	Style       map[string]string `yaml:"style"`
}

// CTAConfig is a static catalog entry for a call-to-action. Catalogs are
// immutable once loaded.
type CTAConfig struct {
	ID         string                 `yaml:"id"`
	Priority   int                    `yaml:"priority"`
	Conditions Conditions             `yaml:"conditions"`
	Variants   map[string]VariantBody `yaml:"variants"`
}

// ContentItem is a static catalog entry for a recommendable content piece.
type ContentItem struct {
	ID         string     `yaml:"id"`
	Title      string     `yaml:"title"`
	Category   string     `yaml:"category"`
	Priority   int        `yaml:"priority"`
	Conditions Conditions `yaml:"conditions"`
}

// candidate is anything selectable from a catalog.
type candidate interface {
	conditions() Conditions
	priority() int
}

func (c CTAConfig) conditions() Conditions { return c.Conditions }
func (c CTAConfig) priority() int          { return c.Priority }

func (c ContentItem) conditions() Conditions { return c.Conditions }
func (c ContentItem) priority() int          { return c.Priority }

// Select filters the catalog to items whose every populated condition is
// satisfied, sorts survivors by descending priority (stable, so ties keep
// catalog order), and truncates to max. Fewer than max survivors is not an
// error; all survivors are returned.
func Select[T candidate](catalog []T, level engagement.EngagementLevel, b engagement.BehaviorSnapshot, max int) []T {
	if max <= 0 {
		return nil
	}

	var survivors []T
	for _, item := range catalog {
		if item.conditions().Match(level, b) {
			survivors = append(survivors, item)
		}
	}

	sort.SliceStable(survivors, func(i, j int) bool {
		return survivors[i].priority() > survivors[j].priority()
	})

	if len(survivors) > max {
		survivors = survivors[:max]
	}
	return survivors
}
