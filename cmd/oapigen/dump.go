package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oapigen/oapigen/internal/runner"
)

// dumpCommand implements "oapigen dump": assemble the components
// document every generated ToSchema method would register and print it
// as deterministic JSON. With --out (or preview.output in the config)
// the document goes to a file instead of stdout.
type dumpCommand struct {
	Out string `long:"out" short:"o" description:"write the document to a file instead of stdout" value-name:"FILE"`
}

func (c *dumpCommand) Execute(args []string) error {
	opts, err := resolveOptions()
	if err != nil {
		return err
	}

	out := c.Out
	if out != "" {
		if !filepath.IsAbs(out) {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("could not get working directory: %w", err)
			}
			out = filepath.Join(cwd, out)
		}
	} else if opts.Config.Preview.Output != "" {
		// Config-relative, like every other path in the config file.
		out = opts.Config.Preview.Output
		if !filepath.IsAbs(out) {
			out = filepath.Join(opts.BaseDir, out)
		}
	}

	if out == "" {
		return report(runner.Dump(opts, os.Stdout))
	}

	var buf bytes.Buffer
	res := runner.Dump(opts, &buf)
	if err := report(res); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	if !cli.Quiet {
		fmt.Fprintf(os.Stderr, "wrote components document: %s\n", out)
	}
	return nil
}
