package cli

import (
	"fmt"
	"io"
	"time"

	toon "github.com/toon-format/toon-go"

	"github.com/leeovery/taskman/internal/migrate"
	"github.com/leeovery/taskman/internal/task"
)

// taskListHeader is the tabular header for a task list, kept in sync with taskObject.
const taskListHeader = "tasks[%d]{id,title,description,completed}:"

// ToonFormatter renders results as TOON (Token-Oriented Object Notation).
type ToonFormatter struct{}

// taskObject builds the TOON object for one task. A missing description is null.
func taskObject(t task.Task) toon.Object {
	var description interface{}
	if t.Description != nil {
		description = *t.Description
	}
	return toon.NewObject(
		toon.Field{Key: "id", Value: t.ID},
		toon.Field{Key: "title", Value: t.Title},
		toon.Field{Key: "description", Value: description},
		toon.Field{Key: "completed", Value: t.Completed},
	)
}

func writeToon(w io.Writer, doc toon.Object) error {
	out, err := toon.MarshalString(doc)
	if err != nil {
		return fmt.Errorf("toon marshal error: %w", err)
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

// FormatAdded renders the new task under a "task" key.
func (f *ToonFormatter) FormatAdded(w io.Writer, t task.Task) error {
	return f.FormatTaskDetail(w, t)
}

// FormatTaskList renders tasks[N]{id,title,description,completed}: with one
// row per task. An empty list renders the header alone.
func (f *ToonFormatter) FormatTaskList(w io.Writer, tasks []task.Task) error {
	if len(tasks) == 0 {
		_, err := fmt.Fprintf(w, taskListHeader+"\n", 0)
		return err
	}

	objects := make([]toon.Object, len(tasks))
	for i, t := range tasks {
		objects[i] = taskObject(t)
	}
	return writeToon(w, toon.NewObject(toon.Field{Key: "tasks", Value: objects}))
}

// FormatTaskDetail renders a single task under a "task" key.
func (f *ToonFormatter) FormatTaskDetail(w io.Writer, t task.Task) error {
	return writeToon(w, toon.NewObject(toon.Field{Key: "task", Value: taskObject(t)}))
}

// FormatCompleted renders the completed task under a "task" key.
func (f *ToonFormatter) FormatCompleted(w io.Writer, t task.Task) error {
	return f.FormatTaskDetail(w, t)
}

// FormatDeleted renders the requested id and the number of rows removed.
func (f *ToonFormatter) FormatDeleted(w io.Writer, id int64, count int64) error {
	return writeToon(w, toon.NewObject(toon.Field{Key: "deleted", Value: toon.NewObject(
		toon.Field{Key: "id", Value: id},
		toon.Field{Key: "count", Value: count},
	)}))
}

// FormatApplied renders applied[N]: followed by the labels.
func (f *ToonFormatter) FormatApplied(w io.Writer, applied []string) error {
	if applied == nil {
		applied = []string{}
	}
	return writeToon(w, toon.NewObject(toon.Field{Key: "applied", Value: applied}))
}

// FormatMigrationStatus renders migrations[N]{version,name,applied,applied_at}:.
func (f *ToonFormatter) FormatMigrationStatus(w io.Writer, statuses []migrate.StepStatus) error {
	if len(statuses) == 0 {
		_, err := fmt.Fprintln(w, "migrations[0]{version,name,applied,applied_at}:")
		return err
	}

	objects := make([]toon.Object, len(statuses))
	for i, st := range statuses {
		appliedAt := ""
		if st.Applied {
			appliedAt = st.AppliedAt.Format(time.RFC3339)
		}
		objects[i] = toon.NewObject(
			toon.Field{Key: "version", Value: st.Version},
			toon.Field{Key: "name", Value: st.Name},
			toon.Field{Key: "applied", Value: st.Applied},
			toon.Field{Key: "applied_at", Value: appliedAt},
		)
	}
	return writeToon(w, toon.NewObject(toon.Field{Key: "migrations", Value: objects}))
}
