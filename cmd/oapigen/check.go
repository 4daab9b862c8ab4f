package main

import (
	"fmt"
	"os"

	"github.com/oapigen/oapigen/internal/runner"
)

// checkCommand implements "oapigen check": run the pipeline through
// derivation and compliance checking of the assembled components, but
// write nothing. Intended for CI.
type checkCommand struct{}

func (c *checkCommand) Execute(args []string) error {
	opts, err := resolveOptions()
	if err != nil {
		return err
	}

	// Advisory config findings only surface here; generate stays quiet
	// about them to keep rebuild loops readable.
	if !cli.Quiet {
		for _, w := range opts.Config.ValidateDetailed().Warnings {
			fmt.Fprintf(os.Stderr, "warning: %s\n", w)
		}
	}

	res := runner.Check(opts)
	if err := report(res); err != nil {
		return err
	}
	if !cli.Quiet && res.Collector.WarningCount() == 0 {
		fmt.Fprintln(os.Stderr, "no problems found")
	}
	return nil
}
