package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/leeovery/taskman/internal/migrate"
	"github.com/leeovery/taskman/internal/task"
)

// noneDescription is how a missing description is printed.
const noneDescription = "None"

// PlainFormatter renders the one-line summaries printed by default.
type PlainFormatter struct{}

func plainRow(t task.Task) string {
	return fmt.Sprintf("ID: %d, Title: %s, Description: %s, Completed: %t",
		t.ID, t.Title, t.DescriptionOr(noneDescription), t.Completed)
}

// FormatAdded writes "Added task: ID: ..., Completed: false".
func (f *PlainFormatter) FormatAdded(w io.Writer, t task.Task) error {
	_, err := fmt.Fprintf(w, "Added task: %s\n", plainRow(t))
	return err
}

// FormatTaskRow writes one list line.
func (f *PlainFormatter) FormatTaskRow(w io.Writer, t task.Task) error {
	_, err := fmt.Fprintln(w, plainRow(t))
	return err
}

// FormatTaskList writes one line per task and nothing for an empty list.
func (f *PlainFormatter) FormatTaskList(w io.Writer, tasks []task.Task) error {
	for _, t := range tasks {
		if err := f.FormatTaskRow(w, t); err != nil {
			return err
		}
	}
	return nil
}

// FormatTaskDetail writes one labelled field per line.
func (f *PlainFormatter) FormatTaskDetail(w io.Writer, t task.Task) error {
	_, err := fmt.Fprintf(w, "ID:          %d\nTitle:       %s\nDescription: %s\nCompleted:   %t\n",
		t.ID, t.Title, t.DescriptionOr(noneDescription), t.Completed)
	return err
}

// FormatCompleted writes "Completed task: ID: <id>, Title: <title>".
func (f *PlainFormatter) FormatCompleted(w io.Writer, t task.Task) error {
	_, err := fmt.Fprintf(w, "Completed task: ID: %d, Title: %s\n", t.ID, t.Title)
	return err
}

// FormatDeleted writes "Deleted <n> task(s)".
func (f *PlainFormatter) FormatDeleted(w io.Writer, _ int64, count int64) error {
	_, err := fmt.Fprintf(w, "Deleted %d task(s)\n", count)
	return err
}

// FormatApplied writes one line per applied migration.
func (f *PlainFormatter) FormatApplied(w io.Writer, applied []string) error {
	if len(applied) == 0 {
		_, err := fmt.Fprintln(w, "Schema is up to date.")
		return err
	}
	for _, label := range applied {
		if _, err := fmt.Fprintf(w, "Applied %s\n", label); err != nil {
			return err
		}
	}
	return nil
}

// FormatMigrationStatus writes one line per migration with its state.
func (f *PlainFormatter) FormatMigrationStatus(w io.Writer, statuses []migrate.StepStatus) error {
	for _, st := range statuses {
		state := "pending"
		if st.Applied {
			state = "applied " + st.AppliedAt.Format(time.RFC3339)
		}
		label := st.Version + "_" + st.Name
		if _, err := fmt.Fprintf(w, "%-24s %s\n", label, state); err != nil {
			return err
		}
	}
	return nil
}
