// Package config resolves taskman settings from flags, the environment, a
// .env file and an optional taskman.yaml in the working directory.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvDatabaseURL is the variable holding the storage connection string.
const EnvDatabaseURL = "DATABASE_URL"

// FileName is the optional YAML settings file looked up in the working directory.
const FileName = "taskman.yaml"

// DotEnvName is the optional dotenv file looked up in the working directory.
const DotEnvName = ".env"

// ErrMissingDatabaseURL is returned when no source provides a database URL.
var ErrMissingDatabaseURL = errors.New("DATABASE_URL must be set")

// Source names where the database URL came from.
type Source string

const (
	SourceNone   Source = ""
	SourceFlag   Source = "--db flag"
	SourceEnv    Source = "environment"
	SourceDotEnv Source = DotEnvName
	SourceFile   Source = FileName
)

// File is the on-disk shape of taskman.yaml.
type File struct {
	DatabaseURL string `yaml:"database_url"`
	Format      string `yaml:"format"`
	LockTimeout string `yaml:"lock_timeout"`
}

// Config is the resolved configuration for one invocation.
type Config struct {
	DatabaseURL string
	Source      Source
	// Format is the default output format from taskman.yaml, empty if unset.
	Format string
	// LockTimeout is zero when unset, meaning the store default applies.
	LockTimeout time.Duration
}

// Options carries the inputs to Resolve. Getenv defaults to os.Getenv and Dir
// to the current directory.
type Options struct {
	FlagURL string
	Getenv  func(string) string
	Dir     string
}

// Resolve builds the Config. The database URL is taken from the first
// non-empty of: the --db flag, the DATABASE_URL environment variable, the .env
// file, taskman.yaml. A missing URL is not an error here; see RequireDatabaseURL.
func Resolve(opts Options) (Config, error) {
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}

	file, err := LoadFile(filepath.Join(dir, FileName))
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	cfg.Format = strings.TrimSpace(file.Format)
	if file.LockTimeout != "" {
		d, err := time.ParseDuration(file.LockTimeout)
		if err != nil {
			return Config{}, fmt.Errorf("%s: invalid lock_timeout %q: %w", FileName, file.LockTimeout, err)
		}
		if d <= 0 {
			return Config{}, fmt.Errorf("%s: lock_timeout must be positive, got %s", FileName, file.LockTimeout)
		}
		cfg.LockTimeout = d
	}

	if v := strings.TrimSpace(opts.FlagURL); v != "" {
		cfg.DatabaseURL, cfg.Source = v, SourceFlag
		return cfg, nil
	}
	if v := strings.TrimSpace(getenv(EnvDatabaseURL)); v != "" {
		cfg.DatabaseURL, cfg.Source = v, SourceEnv
		return cfg, nil
	}

	env, err := LoadDotEnv(filepath.Join(dir, DotEnvName))
	if err != nil {
		return Config{}, err
	}
	if v := strings.TrimSpace(env[EnvDatabaseURL]); v != "" {
		cfg.DatabaseURL, cfg.Source = v, SourceDotEnv
		return cfg, nil
	}

	if v := strings.TrimSpace(file.DatabaseURL); v != "" {
		cfg.DatabaseURL, cfg.Source = v, SourceFile
	}
	return cfg, nil
}

// RequireDatabaseURL returns the database URL or ErrMissingDatabaseURL.
func (c Config) RequireDatabaseURL() (string, error) {
	if c.DatabaseURL == "" {
		return "", ErrMissingDatabaseURL
	}
	return c.DatabaseURL, nil
}

// LoadFile reads taskman.yaml at path. A missing file yields a zero File.
func LoadFile(path string) (File, error) {
	var f File
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return f, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return f, fmt.Errorf("parsing %s: %w", path, err)
	}
	return f, nil
}

// LoadDotEnv reads the dotenv file at path without touching the process
// environment. A missing file yields an empty map.
func LoadDotEnv(path string) (map[string]string, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	env, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return env, nil
}
