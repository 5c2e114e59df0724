package abtest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/growth-engine/growth-engine/internal/store"
)

func TestSnapshot_RoundTrip(t *testing.T) {
	engine, s := setupEngine(t)
	createActiveTest(t, s, "cta-copy", 1.0,
		store.Variant{ID: "control", Weight: 0.5},
		store.Variant{ID: "urgency", Weight: 0.5},
	)

	ctx := context.Background()
	want := make(map[string]string)
	for _, visitor := range []string{"v1", "v2", "v3"} {
		variant, ok := engine.Variant(ctx, visitor, "cta-copy")
		if !ok {
			t.Fatalf("expected assignment for %s", visitor)
		}
		want[visitor] = variant
	}

	snap, err := engine.Export(ctx)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "snapshot.json")
	if err := WriteSnapshotFile(path, snap); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	loaded := LoadSnapshotFile(path)

	for visitor, variant := range want {
		if got := loaded.Assignments[visitor]["cta-copy"]; got != variant {
			t.Errorf("visitor %s: got %q after round-trip, want %q", visitor, got, variant)
		}
	}
	if len(loaded.Assignments) != len(want) {
		t.Errorf("expected %d visitors, got %d", len(want), len(loaded.Assignments))
	}
}

func TestSnapshot_ImportIntoFreshStore(t *testing.T) {
	source, s1 := setupEngine(t)
	createActiveTest(t, s1, "cta-copy", 1.0,
		store.Variant{ID: "control", Weight: 0.5},
		store.Variant{ID: "urgency", Weight: 0.5},
	)

	ctx := context.Background()
	variant, ok := source.Variant(ctx, "v1", "cta-copy")
	if !ok {
		t.Fatal("expected assignment")
	}

	snap, err := source.Export(ctx)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	target, s2 := setupEngine(t)
	createActiveTest(t, s2, "cta-copy", 1.0,
		store.Variant{ID: "control", Weight: 0.5},
		store.Variant{ID: "urgency", Weight: 0.5},
	)
	if err := target.Import(ctx, snap); err != nil {
		t.Fatalf("import failed: %v", err)
	}

	got, ok := target.Variant(ctx, "v1", "cta-copy")
	if !ok || got != variant {
		t.Fatalf("got (%q, %v) after import, want (%q, true)", got, ok, variant)
	}
}

func TestSnapshot_ExcludedRoundTrip(t *testing.T) {
	engine, s := setupEngine(t, WithRand(func() float64 { return 0.99 }))
	createActiveTest(t, s, "cta-copy", 0.5,
		store.Variant{ID: "control", Weight: 1.0},
	)

	ctx := context.Background()
	if v, ok := engine.Variant(ctx, "v1", "cta-copy"); ok {
		t.Fatalf("expected exclusion, got %q", v)
	}

	snap, err := engine.Export(ctx)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if len(snap.Excluded["v1"]) != 1 || snap.Excluded["v1"][0] != "cta-copy" {
		t.Fatalf("expected v1 excluded from cta-copy, got %v", snap.Excluded)
	}

	target, s2 := setupEngine(t, WithRand(func() float64 { return 0.01 }))
	createActiveTest(t, s2, "cta-copy", 0.5,
		store.Variant{ID: "control", Weight: 1.0},
	)
	if err := target.Import(ctx, snap); err != nil {
		t.Fatalf("import failed: %v", err)
	}

	// The imported exclusion holds even though the target engine would
	// have rolled this visitor in.
	if v, ok := target.Variant(ctx, "v1", "cta-copy"); ok {
		t.Fatalf("expected imported exclusion to hold, got %q", v)
	}
}

func TestSnapshot_ImportExistingWins(t *testing.T) {
	engine, s := setupEngine(t, WithRand(func() float64 { return 0.1 }))
	createActiveTest(t, s, "cta-copy", 1.0,
		store.Variant{ID: "control", Weight: 0.5},
		store.Variant{ID: "urgency", Weight: 0.5},
	)

	ctx := context.Background()
	got, ok := engine.Variant(ctx, "v1", "cta-copy")
	if !ok || got != "control" {
		t.Fatalf("got (%q, %v), want (control, true)", got, ok)
	}

	snap := NewSnapshot()
	snap.Assignments["v1"] = map[string]string{"cta-copy": "urgency"}
	if err := engine.Import(ctx, snap); err != nil {
		t.Fatalf("import failed: %v", err)
	}

	if got, _ := engine.Variant(ctx, "v1", "cta-copy"); got != "control" {
		t.Errorf("live assignment must win over import, got %q", got)
	}
}

func TestLoadSnapshotFile_AbsentAndCorrupt(t *testing.T) {
	snap := LoadSnapshotFile(filepath.Join(t.TempDir(), "missing.json"))
	if snap == nil || snap.Assignments == nil || snap.Excluded == nil {
		t.Fatal("absent file must load as an empty snapshot")
	}

	path := filepath.Join(t.TempDir(), "corrupt.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	snap = LoadSnapshotFile(path)
	if snap == nil || len(snap.Assignments) != 0 {
		t.Fatal("corrupt file must load as an empty snapshot")
	}
}
