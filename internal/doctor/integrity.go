package doctor

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/leeovery/taskman/internal/migrate"
	"github.com/leeovery/taskman/internal/storage"
)

// StorageIntegrityCheck asks the database engine to verify its own storage:
// PRAGMA quick_check on SQLite, CHECK TABLE on MySQL.
type StorageIntegrityCheck struct{}

const integrityCheckName = "Storage integrity"

// Run reports one error result per problem the engine returns.
func (c *StorageIntegrityCheck) Run(ctx context.Context, s *storage.Store) []CheckResult {
	var problems []string
	err := s.Query(ctx, "integrity check", func(db *sql.DB) error {
		var err error
		if s.Target().Dialect == migrate.DialectMySQL {
			problems, err = mysqlCheckTable(ctx, db)
		} else {
			problems, err = sqliteQuickCheck(ctx, db)
		}
		return err
	})
	if err != nil {
		return []CheckResult{{
			Name:     integrityCheckName,
			Severity: SeverityError,
			Details:  fmt.Sprintf("integrity check could not run: %v", err),
		}}
	}

	if len(problems) == 0 {
		return []CheckResult{{Name: integrityCheckName, Passed: true, Severity: SeverityError}}
	}

	results := make([]CheckResult, 0, len(problems))
	for _, p := range problems {
		results = append(results, CheckResult{
			Name:       integrityCheckName,
			Severity:   SeverityError,
			Details:    p,
			Suggestion: "Restore the database from a backup",
		})
	}
	return results
}

func sqliteQuickCheck(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, "PRAGMA quick_check")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var problems []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, err
		}
		if line != "ok" {
			problems = append(problems, line)
		}
	}
	return problems, rows.Err()
}

func mysqlCheckTable(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, "CHECK TABLE tasks")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var problems []string
	for rows.Next() {
		var table, op, msgType, msgText string
		if err := rows.Scan(&table, &op, &msgType, &msgText); err != nil {
			return nil, err
		}
		if !strings.EqualFold(msgText, "OK") {
			problems = append(problems, fmt.Sprintf("%s: %s", msgType, msgText))
		}
	}
	return problems, rows.Err()
}
