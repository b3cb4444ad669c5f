package cli

// runComplete implements `taskman complete <id>`. Completing an already
// completed task succeeds and prints the same summary.
func runComplete(cc *commandContext, args []string) error {
	id, err := parseIDArg("complete", args)
	if err != nil {
		return err
	}

	store, err := cc.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	updated, err := store.UpdateTask(cc.ctx, id, true)
	if err != nil {
		return err
	}

	if cc.fc.Quiet {
		return nil
	}
	return cc.formatter.FormatCompleted(cc.stdout, updated)
}
