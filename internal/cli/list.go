package cli

import (
	"fmt"

	"github.com/leeovery/taskman/internal/task"
)

// runList implements `taskman list`. Plain and quiet output stream rows as
// they are read; other formats buffer the full list.
func runList(cc *commandContext, args []string) error {
	if err := rejectArgs("list", args); err != nil {
		return err
	}

	store, err := cc.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if cc.fc.Quiet {
		return store.EachTask(cc.ctx, func(t task.Task) error {
			_, err := fmt.Fprintln(cc.stdout, t.ID)
			return err
		})
	}

	if rs, ok := cc.formatter.(rowStreamer); ok {
		return store.EachTask(cc.ctx, func(t task.Task) error {
			return rs.FormatTaskRow(cc.stdout, t)
		})
	}

	tasks, err := store.ListTasks(cc.ctx)
	if err != nil {
		return err
	}
	return cc.formatter.FormatTaskList(cc.stdout, tasks)
}
