package cli

import "fmt"

// runShow implements `taskman show <id>`.
func runShow(cc *commandContext, args []string) error {
	id, err := parseIDArg("show", args)
	if err != nil {
		return err
	}

	store, err := cc.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	t, err := store.GetTask(cc.ctx, id)
	if err != nil {
		return err
	}

	if cc.fc.Quiet {
		_, err := fmt.Fprintln(cc.stdout, t.ID)
		return err
	}
	return cc.formatter.FormatTaskDetail(cc.stdout, t)
}
