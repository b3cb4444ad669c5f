// Package main is the entry point for the taskman CLI.
package main

import (
	"os"

	"github.com/leeovery/taskman/internal/cli"
)

func main() {
	os.Exit(cli.NewApp().Run(os.Args))
}
