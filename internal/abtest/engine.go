// Package abtest assigns visitors to test variants and tracks exposure
// metrics. Assignments are sticky: one visitor, one variant, for the
// lifetime of a test, including visitors excluded by the traffic roll.
package abtest

import (
	"context"
	"errors"
	"math/rand/v2"

	"github.com/growth-engine/growth-engine/internal/stats"
	"github.com/growth-engine/growth-engine/internal/store"
)

// significanceMinImpressions gates the heuristic significance figure;
// below this sample size it is not reported at all.
const significanceMinImpressions = 30

// Engine drives variant assignment and metric tracking against a Store.
type Engine struct {
	store store.Store
	rand  func() float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand overrides the uniform [0,1) sampler, for tests.
func WithRand(fn func() float64) Option {
	return func(e *Engine) { e.rand = fn }
}

// NewEngine returns an Engine backed by the given store.
func NewEngine(s store.Store, opts ...Option) *Engine {
	e := &Engine{store: s, rand: rand.Float64}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Variant resolves the visitor's variant for a test. The first call for an
// eligible (visitor, test) pair samples and persists; every later call
// returns the persisted outcome unconditionally, bypassing status and
// traffic checks. Returns ("", false) when the visitor gets no variant:
// unknown test, inactive test, or excluded by the traffic roll. An
// inactive test records nothing, so a test activated later will assign on
// the next call.
func (e *Engine) Variant(ctx context.Context, visitorID, testName string) (string, bool) {
	if existing, err := e.store.GetAssignment(ctx, visitorID, testName); err == nil {
		if existing.Excluded {
			return "", false
		}
		return existing.Variant, true
	} else if !errors.Is(err, store.ErrNotFound) {
		return "", false
	}

	test, err := e.store.GetTest(ctx, testName)
	if err != nil {
		return "", false
	}
	if test.Status != store.StatusActive || len(test.Variants) == 0 {
		return "", false
	}

	sample := e.rand()
	if sample > test.TrafficAllocation {
		// Persist the exclusion so the visitor is never re-rolled.
		_ = e.store.PutAssignment(ctx, &store.Assignment{
			VisitorID: visitorID,
			TestName:  testName,
			Excluded:  true,
		})
		return "", false
	}

	variant := pickVariant(test.Variants, sample)
	if err := e.store.PutAssignment(ctx, &store.Assignment{
		VisitorID: visitorID,
		TestName:  testName,
		Variant:   variant,
	}); err != nil {
		return "", false
	}

	// Re-read in case a concurrent first call won the insert race.
	if persisted, err := e.store.GetAssignment(ctx, visitorID, testName); err == nil {
		if persisted.Excluded {
			return "", false
		}
		return persisted.Variant, true
	}
	return variant, true
}

// pickVariant walks variants in catalog order accumulating weights and
// returns the first whose cumulative weight reaches the sample. Falls back
// to the first variant when weights sum short of the sample.
func pickVariant(variants []store.Variant, sample float64) string {
	cumulative := 0.0
	for _, v := range variants {
		cumulative += v.Weight
		if cumulative >= sample {
			return v.ID
		}
	}
	return variants[0].ID
}

// TrackImpression records an impression for a variant. Unknown tests and
// variants are silently dropped.
func (e *Engine) TrackImpression(ctx context.Context, visitorID, testName, variantID string) {
	e.track(ctx, visitorID, testName, variantID, store.EventImpression)
}

// TrackClick records a click.
func (e *Engine) TrackClick(ctx context.Context, visitorID, testName, variantID string) {
	e.track(ctx, visitorID, testName, variantID, store.EventClick)
}

// TrackConversion records a conversion.
func (e *Engine) TrackConversion(ctx context.Context, visitorID, testName, variantID string) {
	e.track(ctx, visitorID, testName, variantID, store.EventConversion)
}

func (e *Engine) track(ctx context.Context, visitorID, testName, variantID, eventType string) {
	test, err := e.store.GetTest(ctx, testName)
	if err != nil {
		return
	}
	if test.Variant(variantID) == nil {
		return
	}
	_ = e.store.RecordEvent(ctx, testName, variantID, eventType, visitorID)
}

// VariantMetrics is the derived per-variant view of tracked events.
// Significance is a product-defined approximate confidence indicator
// against the test's first variant, not a valid p-value; it is nil for
// the control itself and below the minimum sample size.
type VariantMetrics struct {
	Variant          string   `json:"variant"`
	Impressions      int      `json:"impressions"`
	Clicks           int      `json:"clicks"`
	Conversions      int      `json:"conversions"`
	ConversionRate   float64  `json:"conversion_rate"`
	ConfidenceMargin float64  `json:"confidence_margin"`
	Significance     *float64 `json:"significance,omitempty"`
}

// Metrics derives current metrics for every variant of a test, in catalog
// order. Unknown tests yield nil.
func (e *Engine) Metrics(ctx context.Context, testName string) []VariantMetrics {
	test, err := e.store.GetTest(ctx, testName)
	if err != nil {
		return nil
	}
	variantStats, err := e.store.GetVariantStats(ctx, testName)
	if err != nil {
		return nil
	}

	byVariant := make(map[string]store.VariantStats, len(variantStats))
	for _, vs := range variantStats {
		byVariant[vs.Variant] = vs
	}

	var control store.VariantStats
	if len(test.Variants) > 0 {
		control = byVariant[test.Variants[0].ID]
	}

	metrics := make([]VariantMetrics, len(test.Variants))
	for i, v := range test.Variants {
		vs := byVariant[v.ID]
		m := VariantMetrics{
			Variant:     v.ID,
			Impressions: vs.Impressions,
			Clicks:      vs.Clicks,
			Conversions: vs.Conversions,
		}
		if vs.Impressions > 0 {
			m.ConversionRate = float64(vs.Conversions) / float64(vs.Impressions)
			m.ConfidenceMargin = stats.NormalMargin(m.ConversionRate, vs.Impressions, 0.95)
		}
		if i > 0 && vs.Impressions > significanceMinImpressions {
			sig := stats.SignificanceTest(vs.Conversions, vs.Impressions, control.Conversions, control.Impressions)
			m.Significance = &sig
		}
		metrics[i] = m
	}

	return metrics
}
