package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
}

func envOf(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func TestResolve(t *testing.T) {
	t.Run("it prefers the --db flag over every other source", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, DotEnvName, "DATABASE_URL=dotenv.db\n")
		writeFile(t, dir, FileName, "database_url: yaml.db\n")

		cfg, err := Resolve(Options{
			FlagURL: "flag.db",
			Getenv:  envOf(map[string]string{"DATABASE_URL": "env.db"}),
			Dir:     dir,
		})
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if cfg.DatabaseURL != "flag.db" || cfg.Source != SourceFlag {
			t.Errorf("cfg = %+v, want flag.db from flag", cfg)
		}
	})

	t.Run("it uses the environment before the .env file", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, DotEnvName, "DATABASE_URL=dotenv.db\n")

		cfg, err := Resolve(Options{
			Getenv: envOf(map[string]string{"DATABASE_URL": "env.db"}),
			Dir:    dir,
		})
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if cfg.DatabaseURL != "env.db" || cfg.Source != SourceEnv {
			t.Errorf("cfg = %+v, want env.db from environment", cfg)
		}
	})

	t.Run("it reads DATABASE_URL from the .env file", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, DotEnvName, "# local settings\nDATABASE_URL=\"sqlite://tasks.db\"\nOTHER=1\n")
		writeFile(t, dir, FileName, "database_url: yaml.db\n")

		cfg, err := Resolve(Options{Getenv: envOf(nil), Dir: dir})
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if cfg.DatabaseURL != "sqlite://tasks.db" || cfg.Source != SourceDotEnv {
			t.Errorf("cfg = %+v, want sqlite://tasks.db from .env", cfg)
		}
	})

	t.Run("it does not modify the process environment when reading .env", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, DotEnvName, "TASKMAN_TEST_ONLY_VAR=leaked\n")

		if _, err := Resolve(Options{Getenv: envOf(nil), Dir: dir}); err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if v := os.Getenv("TASKMAN_TEST_ONLY_VAR"); v != "" {
			t.Errorf("process env modified: TASKMAN_TEST_ONLY_VAR=%q", v)
		}
	})

	t.Run("it falls back to taskman.yaml", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, FileName, "database_url: yaml.db\nformat: json\nlock_timeout: 250ms\n")

		cfg, err := Resolve(Options{Getenv: envOf(nil), Dir: dir})
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if cfg.DatabaseURL != "yaml.db" || cfg.Source != SourceFile {
			t.Errorf("cfg = %+v, want yaml.db from taskman.yaml", cfg)
		}
		if cfg.Format != "json" {
			t.Errorf("Format = %q, want json", cfg.Format)
		}
		if cfg.LockTimeout != 250*time.Millisecond {
			t.Errorf("LockTimeout = %v, want 250ms", cfg.LockTimeout)
		}
	})

	t.Run("it keeps yaml format and lock timeout when the URL comes from elsewhere", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, FileName, "format: toon\nlock_timeout: 2s\n")

		cfg, err := Resolve(Options{FlagURL: "flag.db", Getenv: envOf(nil), Dir: dir})
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if cfg.Format != "toon" || cfg.LockTimeout != 2*time.Second {
			t.Errorf("cfg = %+v, want toon format and 2s timeout", cfg)
		}
	})

	t.Run("it leaves the URL empty when no source sets it", func(t *testing.T) {
		cfg, err := Resolve(Options{Getenv: envOf(nil), Dir: t.TempDir()})
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if cfg.Source != SourceNone {
			t.Errorf("Source = %q, want none", cfg.Source)
		}
		_, err = cfg.RequireDatabaseURL()
		if !errors.Is(err, ErrMissingDatabaseURL) {
			t.Errorf("RequireDatabaseURL error = %v, want ErrMissingDatabaseURL", err)
		}
		if err.Error() != "DATABASE_URL must be set" {
			t.Errorf("message = %q", err.Error())
		}
	})

	t.Run("it ignores a whitespace-only environment value", func(t *testing.T) {
		cfg, err := Resolve(Options{
			Getenv: envOf(map[string]string{"DATABASE_URL": "   "}),
			Dir:    t.TempDir(),
		})
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if cfg.DatabaseURL != "" {
			t.Errorf("DatabaseURL = %q, want empty", cfg.DatabaseURL)
		}
	})

	t.Run("it rejects an invalid lock_timeout", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, FileName, "lock_timeout: soon\n")

		_, err := Resolve(Options{Getenv: envOf(nil), Dir: dir})
		if err == nil || !strings.Contains(err.Error(), "invalid lock_timeout") {
			t.Errorf("error = %v, want invalid lock_timeout", err)
		}
	})

	t.Run("it rejects malformed yaml", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, FileName, "database_url: [unclosed\n")

		_, err := Resolve(Options{Getenv: envOf(nil), Dir: dir})
		if err == nil || !strings.Contains(err.Error(), "parsing") {
			t.Errorf("error = %v, want parse error", err)
		}
	})
}
