package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/oapigen/oapigen/internal/buildcache"
	"github.com/oapigen/oapigen/internal/codegen"
	"github.com/oapigen/oapigen/internal/runner"
	"github.com/oapigen/oapigen/internal/watcher"
)

// generateCommand implements "oapigen generate": expand the input
// patterns, derive schemas, and write generated files plus the
// manifest into out_dir.
type generateCommand struct {
	Watch bool `long:"watch" short:"w" description:"stay running and regenerate when input documents change"`
	Force bool `long:"force" description:"regenerate even when inputs and config are unchanged"`
}

func (c *generateCommand) Execute(args []string) error {
	opts, err := resolveOptions()
	if err != nil {
		return err
	}
	opts.Force = c.Force

	if c.Watch {
		return c.watch(opts)
	}

	start := time.Now()
	res := runner.Generate(opts)
	if err := report(res); err != nil {
		return err
	}
	if !cli.Quiet {
		if res.UpToDate {
			fmt.Fprintln(os.Stderr, "up to date")
		} else {
			fmt.Fprintf(os.Stderr, "wrote %d file(s) in %s\n",
				len(res.Written), time.Since(start).Round(time.Millisecond))
		}
	}
	return nil
}

// watch runs an initial generation and then regenerates on every change
// to a matching input document. A failed generation keeps watching.
func (c *generateCommand) watch(opts runner.Options) error {
	generate := func() {
		start := time.Now()
		res := runner.Generate(opts)
		if out := res.Collector.FormatAll(); out != "" {
			fmt.Fprint(os.Stderr, out)
		}
		switch {
		case res.Failed():
			fmt.Fprintln(os.Stderr, "generation failed, waiting for changes...")
		case res.UpToDate:
			fmt.Fprintln(os.Stderr, "up to date")
		default:
			fmt.Fprintf(os.Stderr, "wrote %d file(s) in %s\n",
				len(res.Written), time.Since(start).Round(time.Millisecond))
		}
	}

	generate()

	// Outputs can land inside the watched tree when out_dir is the
	// document directory, so they must never count as inputs.
	match := runner.Matcher(opts.BaseDir, opts.Config.Inputs)
	w := watcher.New(
		[]string{opts.BaseDir},
		func(path string) bool {
			return !isGenerated(path) && match(path)
		},
		100*time.Millisecond,
		func(events []watcher.Event) {
			fmt.Fprintf(os.Stderr, "\ndetected %d change(s), regenerating...\n", len(events))
			generate()
		},
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nshutting down...")
		w.Stop()
	}()

	fmt.Fprintln(os.Stderr, "watching for changes...")
	return w.Watch()
}

func isGenerated(path string) bool {
	if strings.HasSuffix(path, ".gen.go") {
		return true
	}
	switch filepath.Base(path) {
	case codegen.ManifestFileName, buildcache.CacheFileName:
		return true
	}
	return false
}
