// Package sqlitestore is a file-backed health store.
//
// It keeps authorization verdicts and quantity samples in a SQLite database
// so decisions persist between runs, the way a device health database does.
// Prompts for undetermined types are answered by a Prompter.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"stepctl/internal/health"
	"stepctl/pkg/logging"

	_ "modernc.org/sqlite"
)

// Prompter decides on an authorization request for types that are still
// undetermined. It may block, for example on a terminal prompt.
type Prompter func(ctx context.Context, read, write []health.PlatformType) (health.AuthorizationState, error)

// FixedDecision returns a Prompter that always answers state.
func FixedDecision(state health.AuthorizationState) Prompter {
	return func(context.Context, []health.PlatformType, []health.PlatformType) (health.AuthorizationState, error) {
		return state, nil
	}
}

// Store implements health.Platform on top of SQLite.
type Store struct {
	db     *sql.DB
	prompt Prompter
	now    func() time.Time
}

var _ health.Platform = (*Store)(nil)

// Open opens (or creates) the database at path and applies the schema.
func Open(ctx context.Context, path string, prompt Prompter) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open health database %s: %w", path, err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	s, err := New(ctx, db, prompt)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing database handle.
func New(ctx context.Context, db *sql.DB, prompt Prompter) (*Store, error) {
	if prompt == nil {
		prompt = FixedDecision(health.Denied)
	}
	if err := CreateSchema(ctx, db); err != nil {
		return nil, err
	}
	return &Store{db: db, prompt: prompt, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// IsDataAvailable implements health.Platform.
func (s *Store) IsDataAvailable() bool {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		logging.Warn("SQLiteStore", "health database unavailable: %v", err)
		return false
	}
	return true
}

// ResolveType implements health.Platform. Only catalog metrics resolve.
func (s *Store) ResolveType(m health.MetricType) (health.PlatformType, bool) {
	if !health.Known(m) {
		return health.PlatformType{}, false
	}
	return health.PlatformType{Metric: m, Unit: health.Describe(m).Unit}, true
}

// AuthorizationStatus implements health.Platform.
func (s *Store) AuthorizationStatus(t health.PlatformType) health.AuthorizationState {
	state, err := s.status(context.Background(), t.Metric)
	if err != nil {
		logging.Error("SQLiteStore", err, "failed to read authorization for %s", t.Metric)
		return health.Undetermined
	}
	return state
}

func (s *Store) status(ctx context.Context, m health.MetricType) (health.AuthorizationState, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT state FROM access_decision WHERE type = ?`, string(m)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return health.Undetermined, nil
	}
	if err != nil {
		return health.Undetermined, err
	}
	return health.ParseAuthorizationState(raw)
}

// RequestAuthorization implements health.Platform. Types that already have a
// verdict are not prompted again.
func (s *Store) RequestAuthorization(ctx context.Context, read, write []health.PlatformType) error {
	pendingRead, err := s.undetermined(ctx, read)
	if err != nil {
		return err
	}
	pendingWrite, err := s.undetermined(ctx, write)
	if err != nil {
		return err
	}
	if len(pendingRead) == 0 && len(pendingWrite) == 0 {
		return nil
	}

	decision, err := s.prompt(ctx, pendingRead, pendingWrite)
	if err != nil {
		return fmt.Errorf("authorization prompt failed: %w", err)
	}
	if decision == health.Undetermined {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	updated := s.now().UnixNano()
	for _, t := range append(pendingRead, pendingWrite...) {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO access_decision (type, state, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(type) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
			string(t.Metric), decision.String(), updated)
		if err != nil {
			return fmt.Errorf("failed to store authorization for %s: %w", t.Metric, err)
		}
	}
	return tx.Commit()
}

func (s *Store) undetermined(ctx context.Context, types []health.PlatformType) ([]health.PlatformType, error) {
	var pending []health.PlatformType
	for _, t := range types {
		state, err := s.status(ctx, t.Metric)
		if err != nil {
			return nil, fmt.Errorf("failed to read authorization for %s: %w", t.Metric, err)
		}
		if state == health.Undetermined {
			pending = append(pending, t)
		}
	}
	return pending, nil
}

// SetAuthorization records a verdict directly, as a settings screen would.
func (s *Store) SetAuthorization(ctx context.Context, m health.MetricType, state health.AuthorizationState) error {
	if state == health.Undetermined {
		_, err := s.db.ExecContext(ctx, `DELETE FROM access_decision WHERE type = ?`, string(m))
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO access_decision (type, state, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(type) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		string(m), state.String(), s.now().UnixNano())
	return err
}

// ExecuteAggregateQuery implements health.Platform. Samples match on their
// start time, and a denied type reads as empty.
func (s *Store) ExecuteAggregateQuery(ctx context.Context, t health.PlatformType, window health.TimeWindow, agg health.Aggregation) (*health.Quantity, error) {
	if agg != health.AggregateSum {
		return nil, fmt.Errorf("unsupported aggregation %d", agg)
	}
	state, err := s.status(ctx, t.Metric)
	if err != nil {
		return nil, err
	}
	if state == health.Denied {
		return nil, nil
	}

	var (
		total sql.NullFloat64
		count int
	)
	err = s.db.QueryRowContext(ctx, `
		SELECT SUM(value), COUNT(*) FROM sample
		WHERE type = ? AND start_at >= ? AND start_at < ?`,
		string(t.Metric), window.Start.UnixNano(), window.End.UnixNano(),
	).Scan(&total, &count)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate %s: %w", t.Metric, err)
	}
	if count == 0 || !total.Valid {
		return nil, nil
	}
	return &health.Quantity{Value: total.Float64, Unit: t.Unit}, nil
}

// SaveSample implements health.Platform. Write access must be granted.
func (s *Store) SaveSample(ctx context.Context, t health.PlatformType, q health.Quantity, window health.TimeWindow) error {
	state, err := s.status(ctx, t.Metric)
	if err != nil {
		return err
	}
	if state != health.Granted {
		return health.ErrNotAuthorized
	}
	unit := q.Unit
	if unit == "" {
		unit = t.Unit
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sample (id, type, value, unit, start_at, end_at) VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), string(t.Metric), q.Value, unit, window.Start.UnixNano(), window.End.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert sample: %w", err)
	}
	return nil
}

// AddSample seeds a sample regardless of authorization.
func (s *Store) AddSample(ctx context.Context, m health.MetricType, value float64, start, end time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sample (id, type, value, unit, start_at, end_at) VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), string(m), value, health.Describe(m).Unit, start.UnixNano(), end.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert sample: %w", err)
	}
	return nil
}
