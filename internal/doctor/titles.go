package doctor

import (
	"context"
	"fmt"

	"github.com/leeovery/taskman/internal/storage"
	"github.com/leeovery/taskman/internal/task"
)

// BlankTitleCheck finds stored tasks whose title would fail validation, which
// can only happen through writes that bypass taskman.
type BlankTitleCheck struct{}

const titleCheckName = "Task titles"

// Run returns one error result per offending task.
func (c *BlankTitleCheck) Run(ctx context.Context, s *storage.Store) []CheckResult {
	if !tasksTableExists(ctx, s) {
		return []CheckResult{{Name: titleCheckName, Passed: true, Severity: SeverityError}}
	}

	var results []CheckResult
	err := s.EachTask(ctx, func(t task.Task) error {
		if err := task.ValidateTitle(t.Title); err != nil {
			results = append(results, CheckResult{
				Name:       titleCheckName,
				Severity:   SeverityError,
				Details:    fmt.Sprintf("task %d: %v", t.ID, err),
				Suggestion: fmt.Sprintf("Delete it with `taskman delete %d`", t.ID),
			})
		}
		return nil
	})
	if err != nil {
		return []CheckResult{{
			Name:     titleCheckName,
			Severity: SeverityError,
			Details:  fmt.Sprintf("could not read tasks: %v", err),
		}}
	}

	if len(results) == 0 {
		return []CheckResult{{Name: titleCheckName, Passed: true, Severity: SeverityError}}
	}
	return results
}

// tasksTableExists reports whether the first migration, which creates the
// tasks table, has been applied.
func tasksTableExists(ctx context.Context, s *storage.Store) bool {
	statuses, err := s.MigrationStatus(ctx)
	if err != nil || len(statuses) == 0 {
		return false
	}
	return statuses[0].Applied
}
