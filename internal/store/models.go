package store

import "time"

type TestStatus string

const (
	StatusDraft     TestStatus = "draft"
	StatusActive    TestStatus = "active"
	StatusPaused    TestStatus = "paused"
	StatusCompleted TestStatus = "completed"
)

// ValidStatus reports whether s is a known test status.
func ValidStatus(s TestStatus) bool {
	switch s {
	case StatusDraft, StatusActive, StatusPaused, StatusCompleted:
		return true
	}
	return false
}

// Variant is one arm of an A/B test. Weights are expected to sum to 1
// across a test's variants but this is not enforced; assignment falls back
// to the first variant when they sum short.
type Variant struct {
	ID     string            `json:"id" yaml:"id"`
	Weight float64           `json:"weight" yaml:"weight"`
	Config map[string]string `json:"config,omitempty" yaml:"config"`
}

type Test struct {
	ID                int64
	Name              string
	Description       string
	Status            TestStatus
	TrafficAllocation float64   // 0-1 share of eligible traffic
	Variants          []Variant // decoded from JSON
	Winner            *string   // variant id, set on completion
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Variant returns the variant with the given id, or nil.
func (t *Test) Variant(id string) *Variant {
	for i := range t.Variants {
		if t.Variants[i].ID == id {
			return &t.Variants[i]
		}
	}
	return nil
}

// Assignment is the persisted outcome of a visitor's first eligible
// exposure to a test. Once written it is immutable: one visitor, one
// variant, for the lifetime of a test. Excluded records visitors who
// missed the traffic-allocation roll so they are never re-rolled.
type Assignment struct {
	VisitorID string
	TestName  string
	Variant   string // empty when Excluded
	Excluded  bool
	CreatedAt time.Time
}

type Event struct {
	ID        int64
	TestName  string
	Variant   string
	EventType string // "impression", "click" or "conversion"
	VisitorID string
	CreatedAt time.Time
}

const (
	EventImpression = "impression"
	EventClick      = "click"
	EventConversion = "conversion"
)

// ValidEventType reports whether t is a known event type.
func ValidEventType(t string) bool {
	return t == EventImpression || t == EventClick || t == EventConversion
}

type VariantStats struct {
	Variant     string
	Impressions int
	Clicks      int
	Conversions int
}
