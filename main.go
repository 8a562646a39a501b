package main

import (
	"os"

	"github.com/mintgrab/mintgrab/cmd"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

func main() {
	if err := cmd.Execute(Version); err != nil {
		os.Exit(cmd.ExitCode(err))
	}
}
