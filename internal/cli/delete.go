package cli

// runDelete implements `taskman delete <id>`. A missing id is not an error:
// it reports zero tasks deleted.
func runDelete(cc *commandContext, args []string) error {
	id, err := parseIDArg("delete", args)
	if err != nil {
		return err
	}

	store, err := cc.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.DeleteTask(cc.ctx, id)
	if err != nil {
		return err
	}

	if cc.fc.Quiet {
		return nil
	}
	return cc.formatter.FormatDeleted(cc.stdout, id, n)
}
