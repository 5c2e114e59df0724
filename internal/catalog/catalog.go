// Package catalog loads the declarative CTA, content, trigger, and test
// definitions the engines run against. Defaults are compiled in; a catalog
// directory overrides them file by file.
package catalog

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/growth-engine/growth-engine/internal/selector"
	"github.com/growth-engine/growth-engine/internal/store"
	"github.com/growth-engine/growth-engine/internal/triggers"
)

//go:embed defaults/*.yaml
var defaults embed.FS

// TestDef is the declarative form of an A/B test. Tests defined here are
// synced into the store at startup without clobbering operator edits.
type TestDef struct {
	Name              string           `yaml:"name"`
	Description       string           `yaml:"description"`
	Status            store.TestStatus `yaml:"status"`
	TrafficAllocation float64          `yaml:"traffic_allocation"`
	Variants          []store.Variant  `yaml:"variants"`
}

// Catalog is the full set of loaded definitions.
type Catalog struct {
	CTAs     []selector.CTAConfig
	Content  []selector.ContentItem
	Triggers []triggers.Trigger
	Tests    []TestDef
}

// Load reads the catalog. With an empty dir only the embedded defaults are
// used; otherwise files present in dir replace the matching default, and
// missing files fall back to it. The loaded catalog is validated.
func Load(dir string) (*Catalog, error) {
	c := &Catalog{}

	if err := loadFile(dir, "ctas.yaml", &c.CTAs); err != nil {
		return nil, err
	}
	if err := loadFile(dir, "content.yaml", &c.Content); err != nil {
		return nil, err
	}
	if err := loadFile(dir, "triggers.yaml", &c.Triggers); err != nil {
		return nil, err
	}
	if err := loadFile(dir, "tests.yaml", &c.Tests); err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func loadFile(dir, name string, out any) error {
	data, err := readFile(dir, name)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing %s: %w", name, err)
	}
	return nil
}

func readFile(dir, name string) ([]byte, error) {
	if dir != "" {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err == nil {
			return data, nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
	}
	data, err := defaults.ReadFile("defaults/" + name)
	if err != nil {
		return nil, fmt.Errorf("reading embedded %s: %w", name, err)
	}
	return data, nil
}

// Validate checks id uniqueness, weight and allocation ranges, and
// operator and status names.
func (c *Catalog) Validate() error {
	seen := make(map[string]bool)
	for _, cta := range c.CTAs {
		if cta.ID == "" {
			return fmt.Errorf("cta with empty id")
		}
		if seen[cta.ID] {
			return fmt.Errorf("duplicate cta id %q", cta.ID)
		}
		seen[cta.ID] = true
	}

	seen = make(map[string]bool)
	for _, item := range c.Content {
		if item.ID == "" {
			return fmt.Errorf("content item with empty id")
		}
		if seen[item.ID] {
			return fmt.Errorf("duplicate content id %q", item.ID)
		}
		seen[item.ID] = true
	}

	seen = make(map[string]bool)
	for _, trigger := range c.Triggers {
		if trigger.ID == "" {
			return fmt.Errorf("trigger with empty id")
		}
		if seen[trigger.ID] {
			return fmt.Errorf("duplicate trigger id %q", trigger.ID)
		}
		seen[trigger.ID] = true
		if !triggers.ValidKind(trigger.Kind) {
			return fmt.Errorf("trigger %q: unknown kind %q", trigger.ID, trigger.Kind)
		}
		for _, cond := range trigger.Conditions {
			if !triggers.ValidOp(cond.Op) {
				return fmt.Errorf("trigger %q: unknown operator %q", trigger.ID, cond.Op)
			}
			if cond.Field == "" {
				return fmt.Errorf("trigger %q: condition with empty field", trigger.ID)
			}
		}
		for _, action := range trigger.Actions {
			if action.Type == "" {
				return fmt.Errorf("trigger %q: action with empty type", trigger.ID)
			}
			if action.DelaySeconds < 0 {
				return fmt.Errorf("trigger %q: negative action delay", trigger.ID)
			}
		}
		if trigger.CooldownMinutes < 0 {
			return fmt.Errorf("trigger %q: negative cooldown", trigger.ID)
		}
		if trigger.MaxPerSession < 0 {
			return fmt.Errorf("trigger %q: negative max per session", trigger.ID)
		}
	}

	seen = make(map[string]bool)
	for _, test := range c.Tests {
		if test.Name == "" {
			return fmt.Errorf("test with empty name")
		}
		if seen[test.Name] {
			return fmt.Errorf("duplicate test name %q", test.Name)
		}
		seen[test.Name] = true
		if test.Status != "" && !store.ValidStatus(test.Status) {
			return fmt.Errorf("test %q: unknown status %q", test.Name, test.Status)
		}
		if test.TrafficAllocation < 0 || test.TrafficAllocation > 1 {
			return fmt.Errorf("test %q: traffic allocation %v out of [0,1]", test.Name, test.TrafficAllocation)
		}
		if len(test.Variants) == 0 {
			return fmt.Errorf("test %q: no variants", test.Name)
		}
		variantIDs := make(map[string]bool)
		for _, v := range test.Variants {
			if v.ID == "" {
				return fmt.Errorf("test %q: variant with empty id", test.Name)
			}
			if variantIDs[v.ID] {
				return fmt.Errorf("test %q: duplicate variant id %q", test.Name, v.ID)
			}
			variantIDs[v.ID] = true
			if v.Weight < 0 || v.Weight > 1 {
				return fmt.Errorf("test %q: variant %q weight %v out of [0,1]", test.Name, v.ID, v.Weight)
			}
		}
	}

	return nil
}
