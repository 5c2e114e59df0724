package abtest

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/growth-engine/growth-engine/internal/store"
)

// Snapshot is a portable dump of the assignment state: which visitor holds
// which variant per test, and who was excluded by the traffic roll.
// JSON round-trips preserve every entry exactly.
type Snapshot struct {
	ExportedAt  time.Time                    `json:"exported_at"`
	Assignments map[string]map[string]string `json:"assignments"`        // visitor -> test -> variant
	Excluded    map[string][]string          `json:"excluded,omitempty"` // visitor -> tests
}

// NewSnapshot returns an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Assignments: make(map[string]map[string]string),
		Excluded:    make(map[string][]string),
	}
}

// add records one assignment row into the snapshot maps.
func (s *Snapshot) add(a *store.Assignment) {
	if a.Excluded {
		s.Excluded[a.VisitorID] = append(s.Excluded[a.VisitorID], a.TestName)
		return
	}
	if s.Assignments[a.VisitorID] == nil {
		s.Assignments[a.VisitorID] = make(map[string]string)
	}
	s.Assignments[a.VisitorID][a.TestName] = a.Variant
}

// Export dumps the assignment state for every known test.
func (e *Engine) Export(ctx context.Context) (*Snapshot, error) {
	tests, err := e.store.ListTests(ctx)
	if err != nil {
		return nil, err
	}

	snap := NewSnapshot()
	snap.ExportedAt = time.Now().UTC()
	for _, test := range tests {
		assignments, err := e.store.ListAssignments(ctx, test.Name)
		if err != nil {
			return nil, err
		}
		for _, a := range assignments {
			snap.add(a)
		}
	}
	return snap, nil
}

// Import writes snapshot entries into the store. Existing assignments win:
// the store's first-write-wins semantics keep live pairs immutable.
func (e *Engine) Import(ctx context.Context, snap *Snapshot) error {
	for visitor, tests := range snap.Assignments {
		for testName, variant := range tests {
			a := &store.Assignment{VisitorID: visitor, TestName: testName, Variant: variant}
			if err := e.store.PutAssignment(ctx, a); err != nil {
				return err
			}
		}
	}
	for visitor, tests := range snap.Excluded {
		for _, testName := range tests {
			a := &store.Assignment{VisitorID: visitor, TestName: testName, Excluded: true}
			if err := e.store.PutAssignment(ctx, a); err != nil {
				return err
			}
		}
	}
	return nil
}

// LoadSnapshotFile reads a snapshot from disk. Absent or corrupt files are
// treated as empty state, never an error.
func LoadSnapshotFile(path string) *Snapshot {
	data, err := os.ReadFile(path)
	if err != nil {
		return NewSnapshot()
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return NewSnapshot()
	}
	if snap.Assignments == nil {
		snap.Assignments = make(map[string]map[string]string)
	}
	if snap.Excluded == nil {
		snap.Excluded = make(map[string][]string)
	}
	return &snap
}

// WriteSnapshotFile writes a snapshot to disk as indented JSON.
func WriteSnapshotFile(path string, snap *Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
