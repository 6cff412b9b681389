package main

import (
	"fmt"
	"os"

	"github.com/monokit-dev/monokit/internal/cli"
	"github.com/monokit-dev/monokit/internal/errs"
)

// version, commit, and date are set via ldflags at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	err := cli.Execute(version, commit, date)
	switch {
	case err == nil:
	case errs.IsCancelled(err):
		fmt.Fprintln(os.Stderr, "Cancelled.")
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(errs.ExitCode(err))
}
