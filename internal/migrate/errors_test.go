package migrate

import (
	"errors"
	"testing"
)

func TestUnknownVersionError(t *testing.T) {
	t.Run("it lists unknown versions sorted with indent dash prefix", func(t *testing.T) {
		err := &UnknownVersionError{Versions: []string{"0004", "0003"}}
		want := "Unknown migration versions in schema_migrations:\n  - 0003\n  - 0004"
		if got := err.Error(); got != want {
			t.Errorf("Error() =\n%q\nwant\n%q", got, want)
		}
	})

	t.Run("it does not reorder the caller's slice", func(t *testing.T) {
		versions := []string{"0009", "0001"}
		_ = (&UnknownVersionError{Versions: versions}).Error()
		if versions[0] != "0009" {
			t.Errorf("Versions mutated: %v", versions)
		}
	})
}

func TestChecksumMismatchError(t *testing.T) {
	t.Run("it names the migration and shortens both checksums", func(t *testing.T) {
		err := &ChecksumMismatchError{
			Version:  "0001",
			Name:     "create_tasks",
			Recorded: "aaaaaaaaaaaaaaaaaaaa",
			Expected: "bbbbbbbbbbbbbbbbbbbb",
		}
		want := "migration 0001_create_tasks was modified after being applied (recorded checksum aaaaaaaaaaaa, expected bbbbbbbbbbbb)"
		if got := err.Error(); got != want {
			t.Errorf("Error() =\n%q\nwant\n%q", got, want)
		}
	})
}

func TestStepError(t *testing.T) {
	t.Run("it unwraps to the cause", func(t *testing.T) {
		cause := errors.New("syntax error")
		err := &StepError{Label: "0002_broken", Err: cause}
		if !errors.Is(err, cause) {
			t.Error("errors.Is(err, cause) = false, want true")
		}
		if err.Error() != "applying migration 0002_broken: syntax error" {
			t.Errorf("Error() = %q", err.Error())
		}
	})
}
