package store

import "context"

// Store defines the interface for test, assignment, and event storage.
type Store interface {
	// Test operations
	CreateTest(ctx context.Context, name, description string, variants []Variant, trafficAllocation float64) (*Test, error)
	EnsureTest(ctx context.Context, name, description string, variants []Variant, trafficAllocation float64, status TestStatus) (*Test, error)
	GetTest(ctx context.Context, name string) (*Test, error)
	ListTests(ctx context.Context) ([]*Test, error)
	UpdateTestStatus(ctx context.Context, name string, status TestStatus, winner *string) error
	DeleteTest(ctx context.Context, name string) error

	// Assignment operations. PutAssignment is first-write-wins: a second
	// write for the same (visitor, test) pair is silently ignored.
	GetAssignment(ctx context.Context, visitorID, testName string) (*Assignment, error)
	PutAssignment(ctx context.Context, a *Assignment) error
	ListAssignments(ctx context.Context, testName string) ([]*Assignment, error)

	// Event operations
	RecordEvent(ctx context.Context, testName, variant, eventType, visitorID string) error
	GetVariantStats(ctx context.Context, testName string) ([]VariantStats, error)
	GetEvents(ctx context.Context, testName string) ([]*Event, error)

	// Lifecycle
	Close() error
}
