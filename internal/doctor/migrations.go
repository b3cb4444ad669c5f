package doctor

import (
	"context"
	"fmt"
	"strings"

	"github.com/leeovery/taskman/internal/storage"
)

// MigrationLedgerCheck verifies schema_migrations against the known steps and
// reports migrations that have not been applied yet.
type MigrationLedgerCheck struct{}

const migrationCheckName = "Migrations"

// Run fails with an error when the recorded history is inconsistent and with a
// warning when steps are pending.
func (c *MigrationLedgerCheck) Run(ctx context.Context, s *storage.Store) []CheckResult {
	if err := s.VerifyMigrations(ctx); err != nil {
		return []CheckResult{{
			Name:       migrationCheckName,
			Severity:   SeverityError,
			Details:    err.Error(),
			Suggestion: "Restore the database from a backup or reconcile schema_migrations manually",
		}}
	}

	statuses, err := s.MigrationStatus(ctx)
	if err != nil {
		return []CheckResult{{
			Name:     migrationCheckName,
			Severity: SeverityError,
			Details:  fmt.Sprintf("could not read migration status: %v", err),
		}}
	}

	var pending []string
	for _, st := range statuses {
		if !st.Applied {
			pending = append(pending, st.Version+"_"+st.Name)
		}
	}
	if len(pending) > 0 {
		return []CheckResult{{
			Name:       migrationCheckName,
			Severity:   SeverityWarning,
			Details:    fmt.Sprintf("%d pending: %s", len(pending), strings.Join(pending, ", ")),
			Suggestion: "Run `taskman migrate` to apply them",
		}}
	}

	return []CheckResult{{Name: migrationCheckName, Passed: true, Severity: SeverityError}}
}
