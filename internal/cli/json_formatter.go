package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/leeovery/taskman/internal/migrate"
	"github.com/leeovery/taskman/internal/task"
)

// JSONFormatter renders results as 2-space indented JSON with snake_case keys.
// A missing description is null; an empty list is [].
type JSONFormatter struct{}

type jsonDeleted struct {
	ID      int64 `json:"id"`
	Deleted int64 `json:"deleted"`
}

type jsonApplied struct {
	Applied []string `json:"applied"`
}

// jsonStepStatus omits applied_at for pending migrations.
type jsonStepStatus struct {
	Version   string `json:"version"`
	Name      string `json:"name"`
	Applied   bool   `json:"applied"`
	AppliedAt string `json:"applied_at,omitempty"`
}

func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal error: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// FormatAdded renders the new task object.
func (f *JSONFormatter) FormatAdded(w io.Writer, t task.Task) error {
	return writeJSON(w, t)
}

// FormatTaskList renders an array of task objects.
func (f *JSONFormatter) FormatTaskList(w io.Writer, tasks []task.Task) error {
	if tasks == nil {
		tasks = []task.Task{}
	}
	return writeJSON(w, tasks)
}

// FormatTaskDetail renders one task object.
func (f *JSONFormatter) FormatTaskDetail(w io.Writer, t task.Task) error {
	return writeJSON(w, t)
}

// FormatCompleted renders the completed task object.
func (f *JSONFormatter) FormatCompleted(w io.Writer, t task.Task) error {
	return writeJSON(w, t)
}

// FormatDeleted renders {"id": <id>, "deleted": <n>}.
func (f *JSONFormatter) FormatDeleted(w io.Writer, id int64, count int64) error {
	return writeJSON(w, jsonDeleted{ID: id, Deleted: count})
}

// FormatApplied renders {"applied": [...]}.
func (f *JSONFormatter) FormatApplied(w io.Writer, applied []string) error {
	if applied == nil {
		applied = []string{}
	}
	return writeJSON(w, jsonApplied{Applied: applied})
}

// FormatMigrationStatus renders an array of migration states.
func (f *JSONFormatter) FormatMigrationStatus(w io.Writer, statuses []migrate.StepStatus) error {
	rows := make([]jsonStepStatus, 0, len(statuses))
	for _, st := range statuses {
		row := jsonStepStatus{Version: st.Version, Name: st.Name, Applied: st.Applied}
		if st.Applied {
			row.AppliedAt = st.AppliedAt.Format(time.RFC3339)
		}
		rows = append(rows, row)
	}
	return writeJSON(w, rows)
}
