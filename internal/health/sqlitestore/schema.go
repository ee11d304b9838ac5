package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
)

// CreateSchema creates the tables backing the store.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

const schema = `
-- One verdict per quantity type. Missing rows read as undetermined.
CREATE TABLE IF NOT EXISTS access_decision (
    type TEXT PRIMARY KEY,
    state TEXT NOT NULL CHECK (state IN ('Undetermined', 'Denied', 'Granted')),
    updated_at INTEGER NOT NULL
);

-- Quantity samples. Times are unix nanoseconds.
CREATE TABLE IF NOT EXISTS sample (
    id TEXT PRIMARY KEY,
    type TEXT NOT NULL,
    value REAL NOT NULL,
    unit TEXT NOT NULL,
    start_at INTEGER NOT NULL,
    end_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sample_type_start ON sample(type, start_at);
`
