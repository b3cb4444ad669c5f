package migrate

import (
	"fmt"
	"sort"
	"strings"
)

// ChecksumMismatchError is returned when an applied migration's recorded
// checksum no longer matches the migration shipped with the binary.
type ChecksumMismatchError struct {
	Version  string
	Name     string
	Recorded string
	Expected string
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("migration %s_%s was modified after being applied (recorded checksum %s, expected %s)",
		e.Version, e.Name, shortSum(e.Recorded), shortSum(e.Expected))
}

// UnknownVersionError is returned when the ledger records versions that the
// running binary does not know about, meaning the history is ahead of or
// diverged from this build.
//
//	Unknown migration versions in schema_migrations:
//	  - 0003
//	  - 0004
type UnknownVersionError struct {
	Versions []string
}

func (e *UnknownVersionError) Error() string {
	sorted := make([]string, len(e.Versions))
	copy(sorted, e.Versions)
	sort.Strings(sorted)

	var b strings.Builder
	b.WriteString("Unknown migration versions in schema_migrations:")
	for _, v := range sorted {
		fmt.Fprintf(&b, "\n  - %s", v)
	}
	return b.String()
}

// DuplicateVersionError is returned when a migration list contains the same
// version twice. Nothing is applied in that case.
type DuplicateVersionError struct {
	Version string
}

func (e *DuplicateVersionError) Error() string {
	return fmt.Sprintf("duplicate migration version %q", e.Version)
}

// StepError is returned when a single migration fails to apply. The
// migration's transaction has been rolled back.
type StepError struct {
	Label string
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("applying migration %s: %v", e.Label, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func shortSum(s string) string {
	if len(s) > 12 {
		return s[:12]
	}
	return s
}
