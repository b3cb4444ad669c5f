package cli

import (
	"fmt"
	"io"
)

// flagInfo describes a single command flag for help output.
type flagInfo struct {
	Name string // "--description, -d"
	Arg  string // "<text>", "" for bool
	Desc string
}

// commandInfo describes a command for help output.
type commandInfo struct {
	Name        string
	Summary     string // one-line for top-level listing
	Usage       string // "taskman add <title> [--description <text>]"
	Description string
	Flags       []flagInfo
}

// commands is the ordered registry of all taskman commands.
var commands = []commandInfo{
	{
		Name:    "add",
		Summary: "Add a new task",
		Usage:   "taskman add <title> [--description <text>]",
		Description: "Creates a task with the given title, not yet completed, and prints it\n" +
			"with its assigned ID. The title is stored exactly as given.",
		Flags: []flagInfo{
			{"--description, -d", "<text>", "Task description"},
		},
	},
	{
		Name:        "list",
		Summary:     "List all tasks",
		Usage:       "taskman list",
		Description: "Prints every task ordered by ID, one per line.",
	},
	{
		Name:        "complete",
		Summary:     "Mark a task completed",
		Usage:       "taskman complete <id>",
		Description: "Marks the task with the given ID as completed. Completing an already\ncompleted task succeeds. A missing ID is an error.",
	},
	{
		Name:        "delete",
		Summary:     "Delete a task",
		Usage:       "taskman delete <id>",
		Description: "Deletes the task with the given ID and prints how many tasks were\nremoved. Deleting a missing ID removes nothing and is not an error.",
	},
	{
		Name:        "show",
		Summary:     "Show a single task",
		Usage:       "taskman show <id>",
		Description: "Prints all fields of the task with the given ID.",
	},
	{
		Name:    "migrate",
		Summary: "Apply or inspect schema migrations",
		Usage:   "taskman migrate [status]",
		Description: "Applies pending schema migrations. Every other command also applies\n" +
			"them on startup. With status, lists each migration as applied or pending\n" +
			"without changing anything.",
	},
	{
		Name:    "doctor",
		Summary: "Run diagnostic checks",
		Usage:   "taskman doctor",
		Description: "Runs read-only checks: migration history, storage integrity and task\n" +
			"titles. Exits 1 when an error is found.",
	},
	{
		Name:        "help",
		Summary:     "Show help for a command",
		Usage:       "taskman help [<command>]",
		Description: "Shows usage information. With no argument, lists all commands.\nWith a command name, shows detailed help for that command.",
	},
}

// findCommand returns the commandInfo for the given name, or nil.
func findCommand(name string) *commandInfo {
	for i := range commands {
		if commands[i].Name == name {
			return &commands[i]
		}
	}
	return nil
}

// runHelp prints top-level help, or help for the named command.
func (a *App) runHelp(args []string) int {
	if len(args) == 0 {
		printTopLevelHelp(a.Stdout)
		return 0
	}
	cmd := findCommand(args[0])
	if cmd == nil {
		return a.fail(fmt.Errorf("unknown command '%s'. Run 'taskman help' for usage.", args[0]))
	}
	printCommandHelp(a.Stdout, cmd)
	return 0
}

// printTopLevelHelp writes the full command listing to w.
func printTopLevelHelp(w io.Writer) {
	fmt.Fprintln(w, "Usage: taskman <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-10s%s\n", cmd.Name, cmd.Summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global flags:")
	fmt.Fprintln(w, "  --db <url>      Database URL (overrides DATABASE_URL)")
	fmt.Fprintln(w, "  --quiet, -q     Print IDs only, or nothing")
	fmt.Fprintln(w, "  --verbose, -v   Show debug information on stderr")
	fmt.Fprintln(w, "  --plain         Plain text output (default)")
	fmt.Fprintln(w, "  --toon          TOON output format")
	fmt.Fprintln(w, "  --json          JSON output format")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "The database is read from --db, then DATABASE_URL, then .env, then taskman.yaml.")
	fmt.Fprintln(w, "Run 'taskman help <command>' for detailed help on a command.")
}

// printCommandHelp writes detailed help for a single command to w.
func printCommandHelp(w io.Writer, cmd *commandInfo) {
	fmt.Fprintf(w, "Usage: %s\n", cmd.Usage)
	fmt.Fprintln(w)
	fmt.Fprintln(w, cmd.Description)

	if len(cmd.Flags) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Flags:")
		for _, f := range cmd.Flags {
			label := f.Name
			if f.Arg != "" {
				label += " " + f.Arg
			}
			fmt.Fprintf(w, "  %-24s%s\n", label, f.Desc)
		}
	}
}
