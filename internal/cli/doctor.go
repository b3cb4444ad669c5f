package cli

import (
	"github.com/leeovery/taskman/internal/doctor"
	"github.com/leeovery/taskman/internal/storage"
)

// runDoctor implements `taskman doctor`. It opens the database without
// applying migrations, so pending steps are reported rather than fixed.
// Doctor always writes human-readable text regardless of format flags.
func runDoctor(cc *commandContext, args []string) error {
	if err := rejectArgs("doctor", args); err != nil {
		return err
	}

	store, err := cc.openStore(storage.WithoutMigrations())
	if err != nil {
		return err
	}
	defer store.Close()

	report := doctor.NewDefaultRunner().RunAll(cc.ctx, store)
	doctor.FormatReport(cc.stdout, report)

	if doctor.ExitCode(report) != 0 {
		return errSilent
	}
	return nil
}
