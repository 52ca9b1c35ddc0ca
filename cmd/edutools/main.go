package main

import (
	"os"

	"edutools/cmd/cli"
	"edutools/cmd/tui"
)

func main() {
	// No arguments: open the interactive course browser. Otherwise hand the
	// arguments to the CLI.
	if len(os.Args) <= 1 {
		tui.RunTUI()
	} else {
		cli.RunCLI()
	}
}
