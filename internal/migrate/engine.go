package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/leeovery/taskman/internal/task"
)

// Logger receives verbose progress messages. A nil Logger is ignored.
type Logger interface {
	Log(msg string)
}

// StepStatus reports whether a single migration has been applied.
type StepStatus struct {
	Version   string
	Name      string
	Applied   bool
	AppliedAt time.Time
}

// Engine applies migrations against a database and records each one in the
// schema_migrations ledger.
type Engine struct {
	db      *sql.DB
	dialect Dialect
	logger  Logger
	now     func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger routes progress messages to l.
func WithLogger(l Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithClock overrides the clock used for applied_at timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates an Engine for db written in dialect d.
func NewEngine(db *sql.DB, d Dialect, opts ...Option) *Engine {
	e := &Engine{db: db, dialect: d, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) log(format string, args ...interface{}) {
	if e.logger != nil {
		e.logger.Log(fmt.Sprintf(format, args...))
	}
}

// EnsureSchema applies every migration in steps not yet recorded in the
// ledger, in ascending version order, and returns the labels of the ones it
// applied. It is idempotent: a second call applies nothing.
//
// Each migration and its ledger row commit in one transaction. Errors are
// returned as *task.StorageError wrapping the cause; callers treat them as
// fatal.
func (e *Engine) EnsureSchema(ctx context.Context, steps []Migration) ([]string, error) {
	ordered, err := sortSteps(steps)
	if err != nil {
		return nil, task.WrapStorage("migrate", err)
	}

	if _, err := e.db.ExecContext(ctx, ledgerDDL(e.dialect)); err != nil {
		return nil, task.WrapStorage("migrate", fmt.Errorf("creating schema_migrations: %w", err))
	}

	recorded, err := e.loadRecorded(ctx)
	if err != nil {
		return nil, task.WrapStorage("migrate", err)
	}

	if err := verifyHistory(ordered, recorded); err != nil {
		return nil, task.WrapStorage("migrate", err)
	}

	var applied []string
	for _, m := range ordered {
		if _, ok := recorded[m.Version]; ok {
			continue
		}
		e.log("migrate: applying %s", m.Label())
		if err := e.apply(ctx, m); err != nil {
			return applied, task.WrapStorage("migrate", err)
		}
		applied = append(applied, m.Label())
	}

	if len(applied) == 0 {
		e.log("migrate: schema up to date")
	}
	return applied, nil
}

// Status reports the applied state of each migration in steps without
// modifying the database. A missing ledger means nothing is applied.
func (e *Engine) Status(ctx context.Context, steps []Migration) ([]StepStatus, error) {
	ordered, err := sortSteps(steps)
	if err != nil {
		return nil, err
	}

	exists, err := e.ledgerExists(ctx)
	if err != nil {
		return nil, task.WrapStorage("migration status", err)
	}

	recorded := map[string]ledgerRow{}
	if exists {
		recorded, err = e.loadRecorded(ctx)
		if err != nil {
			return nil, task.WrapStorage("migration status", err)
		}
	}

	statuses := make([]StepStatus, 0, len(ordered))
	for _, m := range ordered {
		st := StepStatus{Version: m.Version, Name: m.Name}
		if row, ok := recorded[m.Version]; ok {
			st.Applied = true
			st.AppliedAt = time.Unix(row.appliedAt, 0).UTC()
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}

// Verify checks the ledger against steps without applying anything. It
// returns nil when every recorded version is known with a matching checksum.
func (e *Engine) Verify(ctx context.Context, steps []Migration) error {
	ordered, err := sortSteps(steps)
	if err != nil {
		return err
	}
	exists, err := e.ledgerExists(ctx)
	if err != nil {
		return task.WrapStorage("verify migrations", err)
	}
	if !exists {
		return nil
	}
	recorded, err := e.loadRecorded(ctx)
	if err != nil {
		return task.WrapStorage("verify migrations", err)
	}
	return verifyHistory(ordered, recorded)
}

type ledgerRow struct {
	name      string
	checksum  string
	appliedAt int64
}

func (e *Engine) ledgerExists(ctx context.Context) (bool, error) {
	var name string
	err := e.db.QueryRowContext(ctx, ledgerExistsQuery(e.dialect)).Scan(&name)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking for schema_migrations: %w", err)
	}
	return true, nil
}

func (e *Engine) loadRecorded(ctx context.Context) (map[string]ledgerRow, error) {
	rows, err := e.db.QueryContext(ctx, `SELECT version, name, checksum, applied_at FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("querying schema_migrations: %w", err)
	}
	defer rows.Close()

	recorded := make(map[string]ledgerRow)
	for rows.Next() {
		var version string
		var row ledgerRow
		if err := rows.Scan(&version, &row.name, &row.checksum, &row.appliedAt); err != nil {
			return nil, fmt.Errorf("scanning schema_migrations: %w", err)
		}
		recorded[version] = row
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating schema_migrations: %w", err)
	}
	return recorded, nil
}

func (e *Engine) apply(ctx context.Context, m Migration) error {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return &StepError{Label: m.Label(), Err: fmt.Errorf("beginning transaction: %w", err)}
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range m.Statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return &StepError{Label: m.Label(), Err: err}
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, name, checksum, applied_at) VALUES (?, ?, ?, ?)`,
		m.Version, m.Name, m.Checksum(), e.now().Unix(),
	); err != nil {
		return &StepError{Label: m.Label(), Err: fmt.Errorf("recording version: %w", err)}
	}

	if err := tx.Commit(); err != nil {
		return &StepError{Label: m.Label(), Err: fmt.Errorf("committing: %w", err)}
	}
	return nil
}

// sortSteps returns a copy of steps ordered by version, rejecting duplicates
// and empty versions.
func sortSteps(steps []Migration) ([]Migration, error) {
	seen := make(map[string]bool, len(steps))
	ordered := make([]Migration, 0, len(steps))
	for _, m := range steps {
		if m.Version == "" {
			return nil, fmt.Errorf("migration %q has no version", m.Name)
		}
		if seen[m.Version] {
			return nil, &DuplicateVersionError{Version: m.Version}
		}
		seen[m.Version] = true
		ordered = append(ordered, m)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Version < ordered[j].Version
	})
	return ordered, nil
}

// verifyHistory checks recorded ledger rows against the known steps.
func verifyHistory(steps []Migration, recorded map[string]ledgerRow) error {
	known := make(map[string]Migration, len(steps))
	for _, m := range steps {
		known[m.Version] = m
	}

	var unknown []string
	for version := range recorded {
		if _, ok := known[version]; !ok {
			unknown = append(unknown, version)
		}
	}
	if len(unknown) > 0 {
		return &UnknownVersionError{Versions: unknown}
	}

	for _, m := range steps {
		row, ok := recorded[m.Version]
		if !ok {
			continue
		}
		if sum := m.Checksum(); row.checksum != sum {
			return &ChecksumMismatchError{
				Version:  m.Version,
				Name:     m.Name,
				Recorded: row.checksum,
				Expected: sum,
			}
		}
	}
	return nil
}
