// Package storage provides the taskman record store: a database/sql handle
// over SQLite or MySQL with schema migrations applied on open and file
// locking around SQLite writes.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/gofrs/flock"
	_ "github.com/mattn/go-sqlite3"

	"github.com/leeovery/taskman/internal/migrate"
	"github.com/leeovery/taskman/internal/task"
)

const defaultLockTimeout = 5 * time.Second

// lockRetryDelay is how often a blocked lock attempt is retried.
const lockRetryDelay = 50 * time.Millisecond

// Logger is an optional sink for verbose output of internal operations.
type Logger interface {
	Log(msg string)
}

// Store is the record store for tasks.
type Store struct {
	db          *sql.DB
	target      Target
	lockTimeout time.Duration
	logger      Logger
	autoMigrate bool
}

// Option configures a Store.
type Option func(*Store)

// WithLockTimeout sets how long a write waits for the lock. The default is 5 seconds.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.lockTimeout = d
		}
	}
}

// WithLogger routes verbose messages to l.
func WithLogger(l Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithoutMigrations opens the store without applying pending migrations.
// Used by commands that inspect the schema rather than use it.
func WithoutMigrations() Option {
	return func(s *Store) {
		s.autoMigrate = false
	}
}

// Open connects to the database named by url, verifies the connection and
// applies pending migrations. Any failure is a *task.StorageError and the
// returned Store is nil.
func Open(ctx context.Context, url string, opts ...Option) (*Store, error) {
	target, err := ParseURL(url)
	if err != nil {
		return nil, &task.StorageError{Op: "open", Err: err}
	}

	s := &Store{
		target:      target,
		lockTimeout: defaultLockTimeout,
		autoMigrate: true,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.logf("store: opening %s database", target.Dialect)
	db, err := sql.Open(target.Driver, target.DSN)
	if err != nil {
		return nil, &task.StorageError{Op: "open", Err: err}
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &task.StorageError{Op: "connect", Err: err}
	}
	s.db = db

	if s.autoMigrate {
		if _, err := s.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
	}

	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB returns the underlying handle for read-only inspection.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Target returns the resolved connection target.
func (s *Store) Target() Target {
	return s.target
}

// Migrations returns the ordered task migrations for this store's dialect.
func (s *Store) Migrations() []migrate.Migration {
	return migrate.TaskMigrations(s.target.Dialect)
}

// Migrate applies pending migrations under the exclusive lock and returns the
// labels of those applied.
func (s *Store) Migrate(ctx context.Context) ([]string, error) {
	unlock, err := s.acquireExclusive(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	return s.engine().EnsureSchema(ctx, s.Migrations())
}

// MigrationStatus reports applied and pending migrations without changing anything.
func (s *Store) MigrationStatus(ctx context.Context) ([]migrate.StepStatus, error) {
	unlock, err := s.acquireShared(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	return s.engine().Status(ctx, s.Migrations())
}

// VerifyMigrations checks the recorded migration history against the known
// steps without applying anything.
func (s *Store) VerifyMigrations(ctx context.Context) error {
	unlock, err := s.acquireShared(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	return s.engine().Verify(ctx, s.Migrations())
}

func (s *Store) engine() *migrate.Engine {
	var opts []migrate.Option
	if s.logger != nil {
		opts = append(opts, migrate.WithLogger(s.logger))
	}
	return migrate.NewEngine(s.db, s.target.Dialect, opts...)
}

// Mutate runs fn inside a transaction while holding the exclusive lock:
//  1. Acquire exclusive lock
//  2. Begin transaction
//  3. Run fn
//  4. Commit (rollback on any error)
//  5. Release lock
//
// Errors not already classified are wrapped as *task.StorageError for op.
func (s *Store) Mutate(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	unlock, err := s.acquireExclusive(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return task.WrapStorage(op, fmt.Errorf("beginning transaction: %w", err))
	}
	defer func() { _ = tx.Rollback() }()
	s.logf("tx: begin %s", op)

	if err := fn(tx); err != nil {
		s.logf("tx: rollback %s", op)
		return task.WrapStorage(op, err)
	}

	if err := tx.Commit(); err != nil {
		return task.WrapStorage(op, fmt.Errorf("committing transaction: %w", err))
	}
	s.logf("tx: commit %s", op)
	return nil
}

// Query runs fn against the database while holding the shared lock.
func (s *Store) Query(ctx context.Context, op string, fn func(db *sql.DB) error) error {
	unlock, err := s.acquireShared(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	return task.WrapStorage(op, fn(s.db))
}

// acquireExclusive takes the write lock. Targets without a lock file return a
// no-op unlock.
func (s *Store) acquireExclusive(ctx context.Context) (unlock func(), err error) {
	return s.acquire(ctx, "exclusive", func(fl *flock.Flock, lctx context.Context) (bool, error) {
		return fl.TryLockContext(lctx, lockRetryDelay)
	})
}

// acquireShared takes the read lock. Targets without a lock file return a
// no-op unlock.
func (s *Store) acquireShared(ctx context.Context) (unlock func(), err error) {
	return s.acquire(ctx, "shared", func(fl *flock.Flock, lctx context.Context) (bool, error) {
		return fl.TryRLockContext(lctx, lockRetryDelay)
	})
}

func (s *Store) acquire(ctx context.Context, kind string, try func(*flock.Flock, context.Context) (bool, error)) (func(), error) {
	lockPath := s.target.LockPath()
	if lockPath == "" {
		return func() {}, nil
	}

	fl := flock.New(lockPath)
	lctx, cancel := context.WithTimeout(ctx, s.lockTimeout)

	s.logf("lock: acquiring %s lock", kind)
	locked, err := try(fl, lctx)
	if !locked || err != nil {
		cancel()
		return nil, &task.StorageError{
			Op:  "lock",
			Err: fmt.Errorf("could not acquire lock on %s - another process may be using taskman", lockPath),
		}
	}
	s.logf("lock: %s lock acquired", kind)

	return func() {
		if err := fl.Unlock(); err != nil {
			log.Printf("warning: releasing %s: %v", lockPath, err)
		}
		cancel()
		s.logf("lock: %s lock released", kind)
	}, nil
}

func (s *Store) logf(format string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Log(fmt.Sprintf(format, args...))
	}
}
