package cli

import (
	"fmt"
	"strings"

	"github.com/leeovery/taskman/internal/task"
)

// addFlags holds the parsed arguments for the add command.
type addFlags struct {
	title         string
	titleProvided bool
	description   *string
}

// parseAddArgs parses `add <title> [--description <text>]`. The description
// flag may come before or after the title and also accepts -d and
// --description=<text>. Arguments after "--" are always positional.
func parseAddArgs(args []string) (*addFlags, error) {
	flags := &addFlags{}
	positionalOnly := false

	setTitle := func(arg string) error {
		if flags.titleProvided {
			return usageError("add", "unexpected argument %q", arg)
		}
		flags.title = arg
		flags.titleProvided = true
		return nil
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if positionalOnly {
			if err := setTitle(arg); err != nil {
				return nil, err
			}
			continue
		}

		switch {
		case arg == "--":
			positionalOnly = true
		case arg == "--description" || arg == "-d":
			i++
			if i >= len(args) {
				return nil, usageError("add", "%s requires a value", arg)
			}
			flags.description = task.StringPtr(args[i])
		case strings.HasPrefix(arg, "--description="):
			flags.description = task.StringPtr(strings.TrimPrefix(arg, "--description="))
		case strings.HasPrefix(arg, "-") && arg != "-":
			return nil, usageError("add", "unknown flag %q for add command", arg)
		default:
			if err := setTitle(arg); err != nil {
				return nil, err
			}
		}
	}

	if !flags.titleProvided {
		return nil, usageError("add", "title is required")
	}
	return flags, nil
}

// runAdd implements `taskman add`.
func runAdd(cc *commandContext, args []string) error {
	flags, err := parseAddArgs(args)
	if err != nil {
		return err
	}
	if err := task.ValidateTitle(flags.title); err != nil {
		return err
	}

	store, err := cc.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	created, err := store.CreateTask(cc.ctx, flags.title, flags.description)
	if err != nil {
		return err
	}

	if cc.fc.Quiet {
		_, err := fmt.Fprintln(cc.stdout, created.ID)
		return err
	}
	return cc.formatter.FormatAdded(cc.stdout, created)
}
