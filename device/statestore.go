package device

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	// SQLite driver, registered as "sqlite3".
	_ "github.com/mattn/go-sqlite3"
)

// stateStoreSchema holds one row per device: the latest state snapshot
// and its report time. Earlier reports are overwritten; this is a
// liveness record, not a history.
const stateStoreSchema = `
CREATE TABLE IF NOT EXISTS device_report (
	device_id TEXT PRIMARY KEY,
	state     TEXT NOT NULL,
	report_at TIMESTAMP NOT NULL
);`

// StateStore persists the latest report per device so online/offline
// determination survives process restarts.
//
// Thread Safety:
//   - Safe for concurrent use; SQLite serialises writers internally.
type StateStore struct {
	db *sql.DB
}

// OpenStateStore opens (creating if needed) the store at path.
//
// Parameters:
//   - path: SQLite database file path; ":memory:" works for tests
//
// Returns:
//   - *StateStore: Store ready for use
//   - error: If the database cannot be opened or the schema created
func OpenStateStore(path string) (*StateStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening state store: %w", err)
	}
	if _, err := db.Exec(stateStoreSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating state store schema: %w", err)
	}
	return &StateStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *StateStore) Close() error {
	return s.db.Close()
}

// RecordReport stores state as the device's latest report.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - deviceID: Unique device identifier
//   - state: State snapshot to persist (nil becomes an empty object)
//   - at: Report timestamp
//
// Returns:
//   - error: nil on success, otherwise the underlying database error
func (s *StateStore) RecordReport(ctx context.Context, deviceID string, state map[string]any, at time.Time) error {
	if deviceID == "" {
		return fmt.Errorf("device id is required")
	}
	if state == nil {
		state = map[string]any{}
	}

	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshalling state: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO device_report (device_id, state, report_at) VALUES (?, ?, ?)
		 ON CONFLICT(device_id) DO UPDATE SET state = excluded.state, report_at = excluded.report_at`,
		deviceID,
		string(stateJSON),
		at.UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording report: %w", err)
	}
	return nil
}

// LastReport returns the device's latest persisted report.
//
// Returns:
//   - map[string]any: State snapshot
//   - time.Time: Report timestamp
//   - bool: false when the device has never reported
//   - error: nil on success, otherwise the underlying query error
func (s *StateStore) LastReport(ctx context.Context, deviceID string) (map[string]any, time.Time, bool, error) {
	var stateJSON string
	var reportAt time.Time

	err := s.db.QueryRowContext(ctx,
		"SELECT state, report_at FROM device_report WHERE device_id = ?",
		deviceID,
	).Scan(&stateJSON, &reportAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("querying last report: %w", err)
	}

	var state map[string]any
	if err := json.Unmarshal([]byte(stateJSON), &state); err != nil {
		return nil, time.Time{}, false, fmt.Errorf("unmarshalling state: %w", err)
	}
	return state, reportAt, true, nil
}
