package abtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/growth-engine/growth-engine/internal/store"
)

func setupEngine(t *testing.T, opts ...Option) (*Engine, store.Store) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return NewEngine(s, opts...), s
}

func createActiveTest(t *testing.T, s store.Store, name string, traffic float64, variants ...store.Variant) {
	t.Helper()
	ctx := context.Background()
	if _, err := s.CreateTest(ctx, name, "", variants, traffic); err != nil {
		t.Fatalf("failed to create test: %v", err)
	}
	if err := s.UpdateTestStatus(ctx, name, store.StatusActive, nil); err != nil {
		t.Fatalf("failed to activate test: %v", err)
	}
}

func TestVariant_Sticky(t *testing.T) {
	engine, s := setupEngine(t)
	createActiveTest(t, s, "cta-copy", 1.0,
		store.Variant{ID: "control", Weight: 0.5},
		store.Variant{ID: "urgency", Weight: 0.5},
	)

	ctx := context.Background()
	first, ok := engine.Variant(ctx, "visitor-1", "cta-copy")
	if !ok {
		t.Fatal("expected an assignment")
	}

	for i := 0; i < 100; i++ {
		got, ok := engine.Variant(ctx, "visitor-1", "cta-copy")
		if !ok || got != first {
			t.Fatalf("call %d: got (%q, %v), want (%q, true)", i, got, ok, first)
		}
	}
}

func TestVariant_UnknownTest(t *testing.T) {
	engine, _ := setupEngine(t)

	if v, ok := engine.Variant(context.Background(), "visitor-1", "no-such-test"); ok {
		t.Errorf("expected no assignment for unknown test, got %q", v)
	}
}

func TestVariant_InactiveTestThenActivated(t *testing.T) {
	engine, s := setupEngine(t)
	ctx := context.Background()

	_, err := s.CreateTest(ctx, "cta-copy", "", []store.Variant{
		{ID: "control", Weight: 1.0},
	}, 1.0)
	if err != nil {
		t.Fatalf("failed to create test: %v", err)
	}

	// Draft test assigns nothing and records nothing.
	if v, ok := engine.Variant(ctx, "visitor-1", "cta-copy"); ok {
		t.Fatalf("expected no assignment for draft test, got %q", v)
	}

	if err := s.UpdateTestStatus(ctx, "cta-copy", store.StatusActive, nil); err != nil {
		t.Fatalf("failed to activate test: %v", err)
	}

	// Same visitor assigns once the test goes active.
	v, ok := engine.Variant(ctx, "visitor-1", "cta-copy")
	if !ok || v != "control" {
		t.Fatalf("got (%q, %v), want (control, true)", v, ok)
	}
}

func TestVariant_TrafficExclusionPersists(t *testing.T) {
	// Force a sample above the 50% traffic allocation.
	engine, s := setupEngine(t, WithRand(func() float64 { return 0.9 }))
	createActiveTest(t, s, "cta-copy", 0.5,
		store.Variant{ID: "control", Weight: 1.0},
	)

	ctx := context.Background()
	if v, ok := engine.Variant(ctx, "visitor-1", "cta-copy"); ok {
		t.Fatalf("expected exclusion, got %q", v)
	}

	// The exclusion is persisted, so a later lucky sample changes nothing.
	engine.rand = func() float64 { return 0.1 }
	if v, ok := engine.Variant(ctx, "visitor-1", "cta-copy"); ok {
		t.Fatalf("expected excluded visitor to stay excluded, got %q", v)
	}

	a, err := s.GetAssignment(ctx, "visitor-1", "cta-copy")
	if err != nil {
		t.Fatalf("expected persisted exclusion row: %v", err)
	}
	if !a.Excluded {
		t.Error("expected assignment row to be marked excluded")
	}
}

func TestVariant_WeightedPick(t *testing.T) {
	variants := []store.Variant{
		{ID: "control", Weight: 0.3},
		{ID: "urgency", Weight: 0.5},
		{ID: "social", Weight: 0.2},
	}

	cases := []struct {
		sample float64
		want   string
	}{
		{0.0, "control"},
		{0.3, "control"}, // boundary lands on the first variant
		{0.31, "urgency"},
		{0.8, "urgency"},
		{0.81, "social"},
		{1.0, "social"},
	}

	for _, tc := range cases {
		if got := pickVariant(variants, tc.sample); got != tc.want {
			t.Errorf("pickVariant(%f) = %q, want %q", tc.sample, got, tc.want)
		}
	}
}

func TestVariant_WeightsSumShortFallsBack(t *testing.T) {
	variants := []store.Variant{
		{ID: "control", Weight: 0.4},
		{ID: "urgency", Weight: 0.4},
	}
	if got := pickVariant(variants, 0.95); got != "control" {
		t.Errorf("expected fallback to first variant, got %q", got)
	}
}

func TestMetrics_ConversionRate(t *testing.T) {
	engine, s := setupEngine(t)
	createActiveTest(t, s, "cta-copy", 1.0,
		store.Variant{ID: "control", Weight: 0.5},
		store.Variant{ID: "urgency", Weight: 0.5},
	)

	ctx := context.Background()
	engine.TrackImpression(ctx, "visitor-1", "cta-copy", "control")
	engine.TrackConversion(ctx, "visitor-1", "cta-copy", "control")

	metrics := engine.Metrics(ctx, "cta-copy")
	if len(metrics) != 2 {
		t.Fatalf("expected 2 variant metrics, got %d", len(metrics))
	}

	control := metrics[0]
	if control.Variant != "control" {
		t.Fatalf("expected control first, got %q", control.Variant)
	}
	if control.Impressions != 1 || control.Conversions != 1 {
		t.Errorf("control counts = %d/%d, want 1/1", control.Impressions, control.Conversions)
	}
	// One impression, one conversion is a 100% rate even on a sample of one.
	if control.ConversionRate != 1.0 {
		t.Errorf("conversion rate = %f, want 1.0", control.ConversionRate)
	}
}

func TestMetrics_SignificanceGatedBySampleSize(t *testing.T) {
	engine, s := setupEngine(t)
	createActiveTest(t, s, "cta-copy", 1.0,
		store.Variant{ID: "control", Weight: 0.5},
		store.Variant{ID: "urgency", Weight: 0.5},
	)

	ctx := context.Background()
	for i := 0; i < 30; i++ {
		engine.TrackImpression(ctx, "v", "cta-copy", "urgency")
	}
	for i := 0; i < 40; i++ {
		engine.TrackImpression(ctx, "v", "cta-copy", "control")
	}

	metrics := engine.Metrics(ctx, "cta-copy")
	if metrics[0].Significance != nil {
		t.Error("control must never carry a significance figure")
	}
	// 30 impressions is at the gate, not past it.
	if metrics[1].Significance != nil {
		t.Errorf("expected no significance at 30 impressions, got %f", *metrics[1].Significance)
	}

	engine.TrackImpression(ctx, "v", "cta-copy", "urgency")
	metrics = engine.Metrics(ctx, "cta-copy")
	if metrics[1].Significance == nil {
		t.Fatal("expected significance above 30 impressions")
	}
	if *metrics[1].Significance < 0 || *metrics[1].Significance > 1 {
		t.Errorf("significance %f out of [0,1]", *metrics[1].Significance)
	}
}

func TestTrack_UnknownVariantDropped(t *testing.T) {
	engine, s := setupEngine(t)
	createActiveTest(t, s, "cta-copy", 1.0,
		store.Variant{ID: "control", Weight: 1.0},
	)

	ctx := context.Background()
	engine.TrackImpression(ctx, "visitor-1", "cta-copy", "nonexistent")
	engine.TrackClick(ctx, "visitor-1", "no-such-test", "control")

	events, err := s.GetEvents(ctx, "cta-copy")
	if err != nil {
		t.Fatalf("failed to read events: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected 0 events, got %d", len(events))
	}
}
