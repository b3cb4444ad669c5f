package cli

import (
	"errors"
	"fmt"
)

// OutputFormat selects how command results are rendered.
type OutputFormat string

const (
	// FormatPlain is the default one-line-per-record text format.
	FormatPlain OutputFormat = "plain"
	// FormatTOON is Token-Oriented Object Notation.
	FormatTOON OutputFormat = "toon"
	// FormatJSON is indented JSON with snake_case keys.
	FormatJSON OutputFormat = "json"
)

// FormatConfig holds the resolved output configuration passed to handlers.
type FormatConfig struct {
	Format  OutputFormat
	Quiet   bool
	Verbose bool
}

// ResolveFormat picks the output format. At most one format flag may be set;
// with none, the configured default applies, then plain.
func ResolveFormat(plainFlag, toonFlag, jsonFlag bool, configured string) (OutputFormat, error) {
	count := 0
	for _, set := range []bool{plainFlag, toonFlag, jsonFlag} {
		if set {
			count++
		}
	}
	if count > 1 {
		return "", errors.New("only one format flag allowed: --plain, --toon, or --json")
	}

	switch {
	case plainFlag:
		return FormatPlain, nil
	case toonFlag:
		return FormatTOON, nil
	case jsonFlag:
		return FormatJSON, nil
	}

	switch OutputFormat(configured) {
	case "":
		return FormatPlain, nil
	case FormatPlain, FormatTOON, FormatJSON:
		return OutputFormat(configured), nil
	default:
		return "", fmt.Errorf("invalid format %q in taskman.yaml: want plain, toon or json", configured)
	}
}

// Formatter returns the concrete Formatter for the configured format.
func (c FormatConfig) Formatter() Formatter {
	switch c.Format {
	case FormatJSON:
		return &JSONFormatter{}
	case FormatTOON:
		return &ToonFormatter{}
	default:
		return &PlainFormatter{}
	}
}
