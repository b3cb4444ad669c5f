// Package cli implements the taskman command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/leeovery/taskman/internal/config"
	"github.com/leeovery/taskman/internal/storage"
)

// App is the taskman CLI application. Zero-valued fields fall back to the
// process's stdout, stderr, working directory and environment.
type App struct {
	Stdout io.Writer
	Stderr io.Writer
	Getwd  func() (string, error)
	Getenv func(string) string
}

// NewApp creates an App bound to the real process.
func NewApp() *App {
	return &App{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Getwd:  os.Getwd,
		Getenv: os.Getenv,
	}
}

// globalFlags holds flags accepted by every command.
type globalFlags struct {
	quiet   bool
	verbose bool
	plain   bool
	toon    bool
	json    bool
	db      string
	help    bool
}

// handler runs one command. args excludes the command name and global flags.
type handler func(cc *commandContext, args []string) error

var handlers = map[string]handler{
	"add":      runAdd,
	"list":     runList,
	"complete": runComplete,
	"delete":   runDelete,
	"show":     runShow,
	"migrate":  runMigrate,
	"doctor":   runDoctor,
}

// errSilent signals a failed run whose output has already been written.
var errSilent = errors.New("silent failure")

// Run parses args and dispatches the command. args[0] is the program name.
// It returns the process exit code: 0 on success, 1 on any error.
func (a *App) Run(args []string) int {
	a.applyDefaults()

	flags, subcmd, cmdArgs, err := parseArgs(args[1:])
	if err != nil {
		return a.fail(err)
	}

	if subcmd == "" || subcmd == "help" {
		return a.runHelp(cmdArgs)
	}
	if flags.help {
		return a.runHelp([]string{subcmd})
	}

	h, ok := handlers[subcmd]
	if !ok {
		return a.fail(fmt.Errorf("unknown command '%s'. Run 'taskman help' for usage.", subcmd))
	}

	cc, err := a.newCommandContext(flags)
	if err != nil {
		return a.fail(err)
	}

	if err := h(cc, cmdArgs); err != nil {
		if errors.Is(err, errSilent) {
			return 1
		}
		return a.fail(err)
	}
	return 0
}

func (a *App) applyDefaults() {
	if a.Stdout == nil {
		a.Stdout = os.Stdout
	}
	if a.Stderr == nil {
		a.Stderr = os.Stderr
	}
	if a.Getwd == nil {
		a.Getwd = os.Getwd
	}
	if a.Getenv == nil {
		a.Getenv = os.Getenv
	}
}

func (a *App) fail(err error) int {
	fmt.Fprintf(a.Stderr, "Error: %s\n", err)
	return 1
}

// parseArgs separates global flags from the command and its arguments.
// Global flags may appear anywhere except as the value of a command flag or
// after a "--" terminator, which is passed through to the command.
func parseArgs(args []string) (globalFlags, string, []string, error) {
	var flags globalFlags
	var subcmd string
	var rest []string

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "--quiet", "-q":
			flags.quiet = true
		case "--verbose", "-v":
			flags.verbose = true
		case "--plain":
			flags.plain = true
		case "--toon":
			flags.toon = true
		case "--json":
			flags.json = true
		case "--help", "-h":
			flags.help = true
		case "--db":
			i++
			if i >= len(args) {
				return flags, "", nil, errors.New("--db requires a value")
			}
			flags.db = args[i]
		case "--":
			rest = append(rest, args[i:]...)
			i = len(args)
		default:
			if subcmd == "" && !strings.HasPrefix(arg, "-") {
				subcmd = arg
				continue
			}
			rest = append(rest, arg)
			if takesValue(arg) && i+1 < len(args) {
				i++
				rest = append(rest, args[i])
			}
		}
	}

	if subcmd == "" && len(rest) > 0 {
		return flags, "", nil, fmt.Errorf("unknown flag %q. Run 'taskman help' for usage.", rest[0])
	}
	return flags, subcmd, rest, nil
}

// takesValue reports whether a command flag consumes the next argument.
func takesValue(flag string) bool {
	return flag == "--description" || flag == "-d"
}

// commandContext carries the resolved per-invocation state into handlers.
type commandContext struct {
	ctx       context.Context
	stdout    io.Writer
	stderr    io.Writer
	fc        FormatConfig
	formatter Formatter
	logger    *VerboseLogger
	cfg       config.Config
}

func (a *App) newCommandContext(flags globalFlags) (*commandContext, error) {
	dir, err := a.Getwd()
	if err != nil {
		return nil, fmt.Errorf("could not determine working directory: %w", err)
	}

	cfg, err := config.Resolve(config.Options{
		FlagURL: flags.db,
		Getenv:  a.Getenv,
		Dir:     dir,
	})
	if err != nil {
		return nil, err
	}

	format, err := ResolveFormat(flags.plain, flags.toon, flags.json, cfg.Format)
	if err != nil {
		return nil, err
	}

	fc := FormatConfig{Format: format, Quiet: flags.quiet, Verbose: flags.verbose}
	cc := &commandContext{
		ctx:       context.Background(),
		stdout:    a.Stdout,
		stderr:    a.Stderr,
		fc:        fc,
		formatter: fc.Formatter(),
		logger:    NewVerboseLogger(a.Stderr, flags.verbose),
		cfg:       cfg,
	}
	if cfg.Source != config.SourceNone {
		cc.logger.Log(fmt.Sprintf("config: database URL from %s", cfg.Source))
	}
	cc.logger.Log(fmt.Sprintf("format: %s", format))
	return cc, nil
}

// openStore connects to the configured database. Callers must Close it.
func (cc *commandContext) openStore(opts ...storage.Option) (*storage.Store, error) {
	url, err := cc.cfg.RequireDatabaseURL()
	if err != nil {
		return nil, err
	}
	opts = append(opts, storeOpts(cc)...)
	return storage.Open(cc.ctx, url, opts...)
}
