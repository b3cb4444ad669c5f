package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/leeovery/taskman/internal/task"
)

const selectTaskColumns = "SELECT id, title, description, completed FROM tasks"

// CreateTask inserts a new task with completed=false and returns it with its
// assigned id. The id comes from the insert's own result inside the same
// transaction, so concurrent writers cannot cause the wrong row to be returned.
func (s *Store) CreateTask(ctx context.Context, title string, description *string) (task.Task, error) {
	if err := task.ValidateTitle(title); err != nil {
		return task.Task{}, err
	}

	var created task.Task
	err := s.Mutate(ctx, "insert task", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO tasks (title, description, completed) VALUES (?, ?, ?)",
			title, nullString(description), false,
		)
		if err != nil {
			return fmt.Errorf("inserting task: %w", err)
		}

		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading generated id: %w", err)
		}

		created, err = getTaskTx(ctx, tx, id)
		return err
	})
	if err != nil {
		return task.Task{}, err
	}

	s.logf("store: created task %d", created.ID)
	return created, nil
}

// GetTask returns the task with the given id, or *task.NotFoundError.
func (s *Store) GetTask(ctx context.Context, id int64) (task.Task, error) {
	var found task.Task
	err := s.Query(ctx, "read task", func(db *sql.DB) error {
		var err error
		found, err = scanTask(db.QueryRowContext(ctx, selectTaskColumns+" WHERE id = ?", id).Scan)
		if errors.Is(err, sql.ErrNoRows) {
			return &task.NotFoundError{ID: id}
		}
		return err
	})
	if err != nil {
		return task.Task{}, err
	}
	return found, nil
}

// ListTasks returns every task ordered by id.
func (s *Store) ListTasks(ctx context.Context) ([]task.Task, error) {
	tasks := []task.Task{}
	err := s.EachTask(ctx, func(t task.Task) error {
		tasks = append(tasks, t)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// EachTask streams every task, ordered by id, to fn as rows are read. An
// error from fn stops iteration and is returned unchanged.
func (s *Store) EachTask(ctx context.Context, fn func(task.Task) error) error {
	var fnErr error
	err := s.Query(ctx, "list tasks", func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, selectTaskColumns+" ORDER BY id ASC")
		if err != nil {
			return fmt.Errorf("querying tasks: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			t, err := scanTask(rows.Scan)
			if err != nil {
				return err
			}
			if err := fn(t); err != nil {
				fnErr = err
				return nil
			}
		}
		return rows.Err()
	})
	if fnErr != nil {
		return fnErr
	}
	return err
}

// UpdateTask sets the completed flag on the task with the given id and
// returns the updated row. A missing id yields *task.NotFoundError and leaves
// storage untouched. Setting the flag to its current value is a no-op.
func (s *Store) UpdateTask(ctx context.Context, id int64, completed bool) (task.Task, error) {
	var updated task.Task
	err := s.Mutate(ctx, "update task", func(tx *sql.Tx) error {
		if _, err := getTaskTx(ctx, tx, id); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, "UPDATE tasks SET completed = ? WHERE id = ?", completed, id); err != nil {
			return fmt.Errorf("updating task %d: %w", id, err)
		}

		var err error
		updated, err = getTaskTx(ctx, tx, id)
		return err
	})
	if err != nil {
		return task.Task{}, err
	}

	s.logf("store: set task %d completed=%t", id, completed)
	return updated, nil
}

// DeleteTask removes the task with the given id and returns the number of
// rows deleted. Deleting a missing id returns 0 and no error.
func (s *Store) DeleteTask(ctx context.Context, id int64) (int64, error) {
	var deleted int64
	err := s.Mutate(ctx, "delete task", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("deleting task %d: %w", id, err)
		}
		deleted, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("reading rows affected: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logf("store: deleted %d task(s) with id %d", deleted, id)
	return deleted, nil
}

// getTaskTx reads one task inside tx, mapping a missing row to NotFoundError.
func getTaskTx(ctx context.Context, tx *sql.Tx, id int64) (task.Task, error) {
	t, err := scanTask(tx.QueryRowContext(ctx, selectTaskColumns+" WHERE id = ?", id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return task.Task{}, &task.NotFoundError{ID: id}
	}
	return t, err
}

// scanTask reads the selectTaskColumns of one row via scan.
func scanTask(scan func(dest ...interface{}) error) (task.Task, error) {
	var t task.Task
	var description sql.NullString
	if err := scan(&t.ID, &t.Title, &description, &t.Completed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return task.Task{}, err
		}
		return task.Task{}, fmt.Errorf("scanning task row: %w", err)
	}
	if description.Valid {
		d := description.String
		t.Description = &d
	}
	return t, nil
}

// nullString maps an optional string to a nullable column value.
func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
