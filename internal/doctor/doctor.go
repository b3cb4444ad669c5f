// Package doctor runs read-only diagnostic checks against a taskman database.
// Every registered check runs, even after an earlier one fails.
package doctor

import (
	"context"

	"github.com/leeovery/taskman/internal/storage"
)

// Severity indicates whether a failed check should fail the doctor run.
type Severity string

const (
	// SeverityError fails the run with exit code 1.
	SeverityError Severity = "error"
	// SeverityWarning is reported but leaves the exit code at 0.
	SeverityWarning Severity = "warning"
)

// CheckResult is the outcome of one check evaluation. A failing result
// carries Details and, where a fix exists, a Suggestion.
type CheckResult struct {
	Name       string
	Passed     bool
	Severity   Severity
	Details    string
	Suggestion string
}

// Check is a single diagnostic. A passing check returns exactly one result
// with Passed true; a failing check may return several.
type Check interface {
	Run(ctx context.Context, s *storage.Store) []CheckResult
}

// DiagnosticReport collects results in registration order.
type DiagnosticReport struct {
	Results []CheckResult
}

// HasErrors reports whether any result failed with SeverityError.
func (r *DiagnosticReport) HasErrors() bool {
	return r.ErrorCount() > 0
}

// ErrorCount returns the number of failed error-severity results.
func (r *DiagnosticReport) ErrorCount() int {
	return r.count(SeverityError)
}

// WarningCount returns the number of failed warning-severity results.
func (r *DiagnosticReport) WarningCount() int {
	return r.count(SeverityWarning)
}

func (r *DiagnosticReport) count(sev Severity) int {
	n := 0
	for _, result := range r.Results {
		if !result.Passed && result.Severity == sev {
			n++
		}
	}
	return n
}

// DiagnosticRunner executes an ordered list of checks.
type DiagnosticRunner struct {
	checks []Check
}

// NewDiagnosticRunner creates a runner with no checks.
func NewDiagnosticRunner() *DiagnosticRunner {
	return &DiagnosticRunner{}
}

// NewDefaultRunner creates a runner with the standard taskman checks.
func NewDefaultRunner() *DiagnosticRunner {
	r := NewDiagnosticRunner()
	r.Register(&MigrationLedgerCheck{})
	r.Register(&StorageIntegrityCheck{})
	r.Register(&BlankTitleCheck{})
	return r
}

// Register appends a check.
func (d *DiagnosticRunner) Register(check Check) {
	d.checks = append(d.checks, check)
}

// RunAll executes every registered check against s.
func (d *DiagnosticRunner) RunAll(ctx context.Context, s *storage.Store) DiagnosticReport {
	var results []CheckResult
	for _, check := range d.checks {
		results = append(results, check.Run(ctx, s)...)
	}
	return DiagnosticReport{Results: results}
}
