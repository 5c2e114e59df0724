package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("not found")

type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS tests (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT UNIQUE NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'draft',
    traffic_allocation REAL NOT NULL DEFAULT 1.0,
    variants TEXT NOT NULL,
    winner TEXT,
    created_at INTEGER NOT NULL DEFAULT (unixepoch()),
    updated_at INTEGER NOT NULL DEFAULT (unixepoch())
);

CREATE INDEX IF NOT EXISTS idx_tests_name ON tests(name);
CREATE INDEX IF NOT EXISTS idx_tests_status ON tests(status);

CREATE TABLE IF NOT EXISTS assignments (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    test_name TEXT NOT NULL,
    visitor_id TEXT NOT NULL,
    variant TEXT NOT NULL DEFAULT '',
    excluded INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL DEFAULT (unixepoch()),
    FOREIGN KEY (test_name) REFERENCES tests(name)
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_assignments_pair ON assignments(test_name, visitor_id);

CREATE TABLE IF NOT EXISTS events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    test_name TEXT NOT NULL,
    variant TEXT NOT NULL,
    event_type TEXT NOT NULL,
    visitor_id TEXT NOT NULL,
    created_at INTEGER NOT NULL DEFAULT (unixepoch()),
    FOREIGN KEY (test_name) REFERENCES tests(name)
);

CREATE INDEX IF NOT EXISTS idx_events_test ON events(test_name);
CREATE INDEX IF NOT EXISTS idx_events_test_variant ON events(test_name, variant, event_type);
`

func Open(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Apply schema
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateTest(ctx context.Context, name, description string, variants []Variant, trafficAllocation float64) (*Test, error) {
	variantsJSON, err := json.Marshal(variants)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal variants: %w", err)
	}

	now := time.Now().Unix()
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO tests (name, description, status, traffic_allocation, variants, created_at, updated_at)
		 VALUES (?, ?, 'draft', ?, ?, ?, ?)`,
		name, description, trafficAllocation, string(variantsJSON), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert test: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return &Test{
		ID:                id,
		Name:              name,
		Description:       description,
		Status:            StatusDraft,
		TrafficAllocation: trafficAllocation,
		Variants:          variants,
		CreatedAt:         time.Unix(now, 0),
		UpdatedAt:         time.Unix(now, 0),
	}, nil
}

// EnsureTest inserts a test if it does not exist yet and returns the stored
// row either way. Used when syncing catalog-defined tests at startup;
// operator edits (status, winner) on an existing row are preserved.
func (s *SQLiteStore) EnsureTest(ctx context.Context, name, description string, variants []Variant, trafficAllocation float64, status TestStatus) (*Test, error) {
	existing, err := s.GetTest(ctx, name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	variantsJSON, err := json.Marshal(variants)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal variants: %w", err)
	}

	now := time.Now().Unix()
	_, err = s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO tests (name, description, status, traffic_allocation, variants, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		name, description, string(status), trafficAllocation, string(variantsJSON), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure test: %w", err)
	}

	return s.GetTest(ctx, name)
}

func (s *SQLiteStore) GetTest(ctx context.Context, name string) (*Test, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, status, traffic_allocation, variants, winner, created_at, updated_at
		 FROM tests WHERE name = ?`, name,
	)
	return scanTest(row.Scan)
}

func (s *SQLiteStore) ListTests(ctx context.Context) ([]*Test, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, status, traffic_allocation, variants, winner, created_at, updated_at
		 FROM tests ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tests: %w", err)
	}
	defer rows.Close()

	var tests []*Test
	for rows.Next() {
		test, err := scanTest(rows.Scan)
		if err != nil {
			return nil, err
		}
		tests = append(tests, test)
	}

	return tests, rows.Err()
}

// scanTest decodes one tests row from either QueryRow or Rows.
func scanTest(scan func(dest ...any) error) (*Test, error) {
	var test Test
	var variantsJSON string
	var winner sql.NullString
	var createdAt, updatedAt int64

	err := scan(&test.ID, &test.Name, &test.Description, &test.Status, &test.TrafficAllocation,
		&variantsJSON, &winner, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan test: %w", err)
	}

	if err := json.Unmarshal([]byte(variantsJSON), &test.Variants); err != nil {
		return nil, fmt.Errorf("failed to unmarshal variants: %w", err)
	}
	if winner.Valid {
		w := winner.String
		test.Winner = &w
	}
	test.CreatedAt = time.Unix(createdAt, 0)
	test.UpdatedAt = time.Unix(updatedAt, 0)

	return &test, nil
}

func (s *SQLiteStore) UpdateTestStatus(ctx context.Context, name string, status TestStatus, winner *string) error {
	now := time.Now().Unix()

	var result sql.Result
	var err error

	if winner != nil {
		result, err = s.db.ExecContext(ctx,
			`UPDATE tests SET status = ?, winner = ?, updated_at = ? WHERE name = ?`,
			string(status), *winner, now, name,
		)
	} else {
		result, err = s.db.ExecContext(ctx,
			`UPDATE tests SET status = ?, updated_at = ? WHERE name = ?`,
			string(status), now, name,
		)
	}

	if err != nil {
		return fmt.Errorf("failed to update test status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *SQLiteStore) DeleteTest(ctx context.Context, name string) error {
	// Drop dependent rows first
	if _, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE test_name = ?`, name); err != nil {
		return fmt.Errorf("failed to delete events: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM assignments WHERE test_name = ?`, name); err != nil {
		return fmt.Errorf("failed to delete assignments: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM tests WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete test: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *SQLiteStore) GetAssignment(ctx context.Context, visitorID, testName string) (*Assignment, error) {
	var a Assignment
	var excluded int
	var createdAt int64

	err := s.db.QueryRowContext(ctx,
		`SELECT visitor_id, test_name, variant, excluded, created_at
		 FROM assignments WHERE test_name = ? AND visitor_id = ?`,
		testName, visitorID,
	).Scan(&a.VisitorID, &a.TestName, &a.Variant, &excluded, &createdAt)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}

	a.Excluded = excluded != 0
	a.CreatedAt = time.Unix(createdAt, 0)
	return &a, nil
}

func (s *SQLiteStore) PutAssignment(ctx context.Context, a *Assignment) error {
	// First write wins via the unique (test, visitor) index; assignments
	// are immutable for the lifetime of a test.
	excluded := 0
	if a.Excluded {
		excluded = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO assignments (test_name, visitor_id, variant, excluded, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		a.TestName, a.VisitorID, a.Variant, excluded, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to put assignment: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListAssignments(ctx context.Context, testName string) ([]*Assignment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT visitor_id, test_name, variant, excluded, created_at
		 FROM assignments WHERE test_name = ? ORDER BY created_at`,
		testName,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer rows.Close()

	var assignments []*Assignment
	for rows.Next() {
		var a Assignment
		var excluded int
		var createdAt int64
		if err := rows.Scan(&a.VisitorID, &a.TestName, &a.Variant, &excluded, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		a.Excluded = excluded != 0
		a.CreatedAt = time.Unix(createdAt, 0)
		assignments = append(assignments, &a)
	}

	return assignments, rows.Err()
}

func (s *SQLiteStore) RecordEvent(ctx context.Context, testName, variant, eventType, visitorID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (test_name, variant, event_type, visitor_id, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		testName, variant, eventType, visitorID, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}

	return nil
}

func (s *SQLiteStore) GetVariantStats(ctx context.Context, testName string) ([]VariantStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			variant,
			COUNT(CASE WHEN event_type = 'impression' THEN 1 END) as impressions,
			COUNT(CASE WHEN event_type = 'click' THEN 1 END) as clicks,
			COUNT(CASE WHEN event_type = 'conversion' THEN 1 END) as conversions
		FROM events
		WHERE test_name = ?
		GROUP BY variant
		ORDER BY variant
	`, testName)
	if err != nil {
		return nil, fmt.Errorf("failed to get variant stats: %w", err)
	}
	defer rows.Close()

	var stats []VariantStats
	for rows.Next() {
		var vs VariantStats
		if err := rows.Scan(&vs.Variant, &vs.Impressions, &vs.Clicks, &vs.Conversions); err != nil {
			return nil, fmt.Errorf("failed to scan stats: %w", err)
		}
		stats = append(stats, vs)
	}

	return stats, rows.Err()
}

func (s *SQLiteStore) GetEvents(ctx context.Context, testName string) ([]*Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, test_name, variant, event_type, visitor_id, created_at
		 FROM events WHERE test_name = ? ORDER BY created_at DESC`,
		testName,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		var e Event
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.TestName, &e.Variant, &e.EventType, &e.VisitorID, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.CreatedAt = time.Unix(createdAt, 0)
		events = append(events, &e)
	}

	return events, rows.Err()
}

// DB returns the underlying database connection for health checks.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}
