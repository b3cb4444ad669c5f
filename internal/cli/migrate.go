package cli

import (
	"github.com/leeovery/taskman/internal/storage"
)

// runMigrate implements `taskman migrate` and `taskman migrate status`.
func runMigrate(cc *commandContext, args []string) error {
	status := false
	switch {
	case len(args) == 0:
	case len(args) == 1 && args[0] == "status":
		status = true
	default:
		return usageError("migrate", "unexpected argument %q", args[0])
	}

	store, err := cc.openStore(storage.WithoutMigrations())
	if err != nil {
		return err
	}
	defer store.Close()

	if status {
		statuses, err := store.MigrationStatus(cc.ctx)
		if err != nil {
			return err
		}
		if cc.fc.Quiet {
			return nil
		}
		return cc.formatter.FormatMigrationStatus(cc.stdout, statuses)
	}

	applied, err := store.Migrate(cc.ctx)
	if err != nil {
		return err
	}
	if cc.fc.Quiet {
		return nil
	}
	return cc.formatter.FormatApplied(cc.stdout, applied)
}
