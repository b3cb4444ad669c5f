package cli

import (
	"io"

	"github.com/leeovery/taskman/internal/migrate"
	"github.com/leeovery/taskman/internal/task"
)

// Formatter renders command results.
type Formatter interface {
	// FormatAdded renders a newly created task (add).
	FormatAdded(w io.Writer, t task.Task) error
	// FormatTaskList renders every task (list).
	FormatTaskList(w io.Writer, tasks []task.Task) error
	// FormatTaskDetail renders a single task (show).
	FormatTaskDetail(w io.Writer, t task.Task) error
	// FormatCompleted renders a task just marked complete (complete).
	FormatCompleted(w io.Writer, t task.Task) error
	// FormatDeleted renders the number of rows a delete removed.
	FormatDeleted(w io.Writer, id int64, count int64) error
	// FormatApplied renders the labels of migrations just applied (migrate).
	FormatApplied(w io.Writer, applied []string) error
	// FormatMigrationStatus renders each migration's state (migrate status).
	FormatMigrationStatus(w io.Writer, statuses []migrate.StepStatus) error
}

// rowStreamer is implemented by formatters that can write list rows as they
// are read instead of buffering the whole result.
type rowStreamer interface {
	FormatTaskRow(w io.Writer, t task.Task) error
}
