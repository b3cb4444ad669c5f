package storage

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"github.com/leeovery/taskman/internal/task"
)

// openTestStore opens a migrated SQLite store in a temp directory and returns
// it with the database file path.
func openTestStore(t *testing.T, opts ...Option) (*Store, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "tasks.db")
	s, err := Open(context.Background(), dbPath, opts...)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, dbPath
}

type recordingLogger struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recordingLogger) Log(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *recordingLogger) joined() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return strings.Join(r.msgs, "\n")
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("it creates the database file and applies migrations", func(t *testing.T) {
		s, dbPath := openTestStore(t)

		if _, err := os.Stat(dbPath); err != nil {
			t.Fatalf("database file not created: %v", err)
		}
		var count int
		if err := s.DB().QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
			t.Fatalf("query ledger: %v", err)
		}
		if count != len(s.Migrations()) {
			t.Errorf("ledger rows = %d, want %d", count, len(s.Migrations()))
		}
	})

	t.Run("it reopens an existing database without reapplying migrations", func(t *testing.T) {
		s, dbPath := openTestStore(t)
		if _, err := s.CreateTask(ctx, "Persisted", nil); err != nil {
			t.Fatalf("CreateTask: %v", err)
		}
		s.Close()

		logger := &recordingLogger{}
		reopened, err := Open(ctx, dbPath, WithLogger(logger))
		if err != nil {
			t.Fatalf("reopen: %v", err)
		}
		defer reopened.Close()

		if !strings.Contains(logger.joined(), "migrate: schema up to date") {
			t.Errorf("expected up-to-date log, got:\n%s", logger.joined())
		}
		tasks, err := reopened.ListTasks(ctx)
		if err != nil {
			t.Fatalf("ListTasks: %v", err)
		}
		if len(tasks) != 1 || tasks[0].Title != "Persisted" {
			t.Errorf("tasks = %+v, want one Persisted task", tasks)
		}
	})

	t.Run("it fails with a storage error when the URL is empty", func(t *testing.T) {
		_, err := Open(ctx, "")
		if !task.IsStorage(err) {
			t.Fatalf("Open(\"\") error = %v, want *task.StorageError", err)
		}
	})

	t.Run("it fails with a storage error when the database cannot be reached", func(t *testing.T) {
		missing := filepath.Join(t.TempDir(), "no", "such", "dir", "tasks.db")
		_, err := Open(ctx, missing)
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if !task.IsStorage(err) {
			t.Errorf("error = %T, want *task.StorageError", err)
		}
	})

	t.Run("it fails when the migration history is corrupted", func(t *testing.T) {
		s, dbPath := openTestStore(t)
		if _, err := s.DB().Exec("UPDATE schema_migrations SET checksum = 'tampered' WHERE version = '0001'"); err != nil {
			t.Fatalf("tampering ledger: %v", err)
		}
		s.Close()

		_, err := Open(ctx, dbPath)
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if !task.IsStorage(err) || !strings.Contains(err.Error(), "was modified after being applied") {
			t.Errorf("error = %v, want checksum mismatch storage error", err)
		}
	})

	t.Run("it can open without applying migrations", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "tasks.db")
		s, err := Open(ctx, dbPath, WithoutMigrations())
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		defer s.Close()

		statuses, err := s.MigrationStatus(ctx)
		if err != nil {
			t.Fatalf("MigrationStatus: %v", err)
		}
		for _, st := range statuses {
			if st.Applied {
				t.Errorf("%s applied, want pending", st.Version)
			}
		}

		applied, err := s.Migrate(ctx)
		if err != nil {
			t.Fatalf("Migrate: %v", err)
		}
		if len(applied) != len(s.Migrations()) {
			t.Errorf("applied %v, want all %d", applied, len(s.Migrations()))
		}
	})
}

func TestStoreLocking(t *testing.T) {
	ctx := context.Background()

	t.Run("it holds the exclusive lock during a mutation", func(t *testing.T) {
		s, dbPath := openTestStore(t)
		fl := flock.New(dbPath + ".lock")

		inMutation := make(chan struct{})
		done := make(chan struct{})

		go func() {
			defer close(done)
			err := s.Mutate(ctx, "test", func(tx *sql.Tx) error {
				close(inMutation)
				time.Sleep(100 * time.Millisecond)
				return nil
			})
			if err != nil {
				t.Errorf("Mutate: %v", err)
			}
		}()

		<-inMutation

		lctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()
		locked, _ := fl.TryLockContext(lctx, 10*time.Millisecond)
		if locked {
			_ = fl.Unlock()
			t.Error("expected exclusive lock to be held by Store during Mutate, but was able to acquire it")
		}

		<-done
	})

	t.Run("it allows other readers during a query", func(t *testing.T) {
		s, dbPath := openTestStore(t)
		fl := flock.New(dbPath + ".lock")

		inQuery := make(chan struct{})
		done := make(chan struct{})

		go func() {
			defer close(done)
			err := s.Query(ctx, "test", func(db *sql.DB) error {
				close(inQuery)
				time.Sleep(100 * time.Millisecond)
				return nil
			})
			if err != nil {
				t.Errorf("Query: %v", err)
			}
		}()

		<-inQuery

		lctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()
		locked, err := fl.TryRLockContext(lctx, 10*time.Millisecond)
		if err != nil || !locked {
			t.Errorf("expected shared lock to be acquirable during Query, locked=%v err=%v", locked, err)
		} else {
			_ = fl.Unlock()
		}

		<-done
	})

	t.Run("it returns a lock error when another process holds the lock", func(t *testing.T) {
		s, dbPath := openTestStore(t, WithLockTimeout(100*time.Millisecond))
		fl := flock.New(dbPath + ".lock")
		if err := fl.Lock(); err != nil {
			t.Fatalf("locking: %v", err)
		}
		defer fl.Unlock()

		_, err := s.CreateTask(ctx, "Blocked", nil)
		if err == nil {
			t.Fatal("expected lock error, got nil")
		}
		var se *task.StorageError
		if !errors.As(err, &se) || se.Op != "lock" {
			t.Fatalf("error = %v, want lock StorageError", err)
		}
		if !strings.Contains(err.Error(), "another process may be using taskman") {
			t.Errorf("error = %q", err.Error())
		}
	})

	t.Run("it releases the lock after a failed mutation", func(t *testing.T) {
		s, dbPath := openTestStore(t)
		err := s.Mutate(ctx, "failing", func(tx *sql.Tx) error {
			return errors.New("boom")
		})
		if err == nil {
			t.Fatal("expected error, got nil")
		}

		fl := flock.New(dbPath + ".lock")
		locked, err := fl.TryLock()
		if err != nil || !locked {
			t.Fatalf("lock not released: locked=%v err=%v", locked, err)
		}
		_ = fl.Unlock()
	})

	t.Run("it rolls back a failed mutation", func(t *testing.T) {
		s, _ := openTestStore(t)
		err := s.Mutate(ctx, "failing insert", func(tx *sql.Tx) error {
			if _, err := tx.Exec("INSERT INTO tasks (title, completed) VALUES ('ghost', 0)"); err != nil {
				return err
			}
			return errors.New("abort after insert")
		})
		if !task.IsStorage(err) {
			t.Fatalf("error = %v, want *task.StorageError", err)
		}

		tasks, err := s.ListTasks(ctx)
		if err != nil {
			t.Fatalf("ListTasks: %v", err)
		}
		if len(tasks) != 0 {
			t.Errorf("expected rollback to leave 0 tasks, got %d", len(tasks))
		}
	})

	t.Run("it logs lock and transaction steps", func(t *testing.T) {
		logger := &recordingLogger{}
		s, _ := openTestStore(t, WithLogger(logger))
		if _, err := s.CreateTask(ctx, "Logged", nil); err != nil {
			t.Fatalf("CreateTask: %v", err)
		}

		out := logger.joined()
		for _, want := range []string{
			"store: opening sqlite database",
			"lock: acquiring exclusive lock",
			"lock: exclusive lock acquired",
			"tx: begin insert task",
			"tx: commit insert task",
			"lock: exclusive lock released",
			"store: created task 1",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("log missing %q:\n%s", want, out)
			}
		}
	})
}
