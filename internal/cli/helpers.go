package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leeovery/taskman/internal/task"
)

// usageError formats a usage problem together with the command's usage line.
func usageError(cmd string, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	if info := findCommand(cmd); info != nil {
		return fmt.Errorf("%s. Usage: %s", msg, info.Usage)
	}
	return fmt.Errorf("%s", msg)
}

// parseIDArg parses the single <id> positional argument of cmd.
func parseIDArg(cmd string, args []string) (int64, error) {
	var positional []string
	for _, arg := range args {
		if arg == "--" {
			continue
		}
		if strings.HasPrefix(arg, "-") && len(positional) == 0 && !isNegativeNumber(arg) {
			return 0, usageError(cmd, "unknown flag %q for %s command", arg, cmd)
		}
		positional = append(positional, arg)
	}

	switch len(positional) {
	case 0:
		return 0, usageError(cmd, "task id is required")
	case 1:
	default:
		return 0, usageError(cmd, "unexpected argument %q", positional[1])
	}

	id, err := strconv.ParseInt(positional[0], 10, 64)
	if err != nil {
		return 0, usageError(cmd, "invalid task id %q", positional[0])
	}
	if err := task.ValidateID(id); err != nil {
		return 0, err
	}
	return id, nil
}

func isNegativeNumber(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

// rejectArgs fails when a command that takes no arguments was given some.
func rejectArgs(cmd string, args []string) error {
	if len(args) > 0 {
		return usageError(cmd, "unexpected argument %q", args[0])
	}
	return nil
}
