package cli

import (
	"testing"
)

func TestParseVariants_ExplicitWeights(t *testing.T) {
	variants, err := parseVariants("control:0.5,urgency:0.5")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(variants) != 2 {
		t.Fatalf("expected 2 variants, got %d", len(variants))
	}
	if variants[0].ID != "control" || variants[0].Weight != 0.5 {
		t.Errorf("unexpected first variant: %+v", variants[0])
	}
	if variants[1].ID != "urgency" || variants[1].Weight != 0.5 {
		t.Errorf("unexpected second variant: %+v", variants[1])
	}
}

func TestParseVariants_UnweightedSplitEqually(t *testing.T) {
	variants, err := parseVariants("a,b,c,d")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(variants) != 4 {
		t.Fatalf("expected 4 variants, got %d", len(variants))
	}
	for _, v := range variants {
		if v.Weight != 0.25 {
			t.Errorf("variant %s: expected weight 0.25, got %v", v.ID, v.Weight)
		}
	}
}

func TestParseVariants_MixedWeights(t *testing.T) {
	variants, err := parseVariants("control:0.5,b,c")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if variants[1].Weight != 0.25 || variants[2].Weight != 0.25 {
		t.Errorf("unweighted variants should split the remainder: %+v", variants)
	}
}

func TestParseVariants_Invalid(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"empty id", ":0.5,b:0.5"},
		{"bad weight", "a:heavy,b:0.5"},
		{"weight above one", "a:1.5,b:0.5"},
		{"negative weight", "a:-0.1,b:0.5"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := parseVariants(tc.raw); err == nil {
				t.Errorf("expected error for %q", tc.raw)
			}
		})
	}
}

func TestParseVariants_TrimsWhitespace(t *testing.T) {
	variants, err := parseVariants(" control : 0.6 , urgency : 0.4 ")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if variants[0].ID != "control" || variants[0].Weight != 0.6 {
		t.Errorf("unexpected first variant: %+v", variants[0])
	}
	if variants[1].ID != "urgency" || variants[1].Weight != 0.4 {
		t.Errorf("unexpected second variant: %+v", variants[1])
	}
}
