package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jessevdk/go-flags"

	"github.com/oapigen/oapigen/internal/config"
	"github.com/oapigen/oapigen/internal/runner"
)

const version = "0.1.0-dev"

// errFailed signals a run whose diagnostics are already on stderr, so
// run maps it to a non-zero exit without printing anything more.
var errFailed = errors.New("failed")

var cli struct {
	ConfigPath  string `long:"config" description:"path to the config file (default: discover oapigen.config.yml upward from the working directory)" value-name:"PATH"`
	Strict      bool   `long:"strict" description:"treat warnings as errors and write nothing when any error occurs"`
	Quiet       bool   `long:"quiet" short:"q" description:"suppress warnings and progress output"`
	ShowVersion bool   `long:"version" short:"v" description:"print version and exit"`

	Generate generateCommand `command:"generate" description:"generate Go declarations and schema methods from type documents (default)"`
	Check    checkCommand    `command:"check" description:"validate documents and the assembled components without writing anything"`
	Dump     dumpCommand     `command:"dump" description:"print the components document the generated package would register"`
	Version  versionCommand  `command:"version" description:"print version"`
}

func main() {
	os.Exit(run())
}

func run() int {
	parser := flags.NewParser(&cli, flags.HelpFlag|flags.PassDoubleDash)
	parser.SubcommandsOptional = true

	_, err := parser.Parse()
	if flags.WroteHelp(err) {
		fmt.Print(err)
		return 0
	}
	if err != nil {
		if errors.Is(err, errFailed) {
			return 1
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	if cli.ShowVersion {
		fmt.Println("oapigen", version)
		return 0
	}

	// No subcommand defaults to generate, so a bare "oapigen" works in
	// go:generate directives and Makefiles.
	if parser.Active == nil {
		if err := cli.Generate.Execute(nil); err != nil {
			if !errors.Is(err, errFailed) {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
			}
			return 1
		}
	}
	return 0
}

type versionCommand struct{}

func (c *versionCommand) Execute(args []string) error {
	fmt.Println("oapigen", version)
	return nil
}

// resolveOptions turns the global flags into runner options: an
// explicit --config wins, otherwise the config file is discovered
// upward from the working directory, otherwise defaults apply with the
// working directory as the base.
func resolveOptions() (runner.Options, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return runner.Options{}, fmt.Errorf("could not get working directory: %w", err)
	}

	cfg := config.DefaultConfig()
	baseDir := cwd

	configPath := cli.ConfigPath
	if configPath == "" {
		configPath = config.Discover(cwd)
	} else if !filepath.IsAbs(configPath) {
		configPath = filepath.Join(cwd, configPath)
	}
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return runner.Options{}, err
		}
		cfg = *loaded
		baseDir = filepath.Dir(configPath)
		if !cli.Quiet {
			fmt.Fprintf(os.Stderr, "loaded config from %s\n", configPath)
		}
	}
	if cli.Strict {
		cfg.Strict = true
	}

	return runner.Options{
		Config:     cfg,
		ConfigPath: configPath,
		BaseDir:    baseDir,
		Version:    version,
		Quiet:      cli.Quiet,
	}, nil
}

// report prints collected diagnostics and converts errored runs into
// errFailed.
func report(res *runner.Result) error {
	if out := res.Collector.FormatAll(); out != "" {
		fmt.Fprint(os.Stderr, out)
	}
	if res.Failed() {
		fmt.Fprintln(os.Stderr, res.Collector.Summary())
		return errFailed
	}
	if !cli.Quiet && res.Collector.WarningCount() > 0 {
		fmt.Fprintln(os.Stderr, res.Collector.Summary())
	}
	return nil
}
