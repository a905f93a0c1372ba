package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

var (
	version = "dev"
	commit  = "none"    //nolint:unused // set via ldflags at build time
	date    = "unknown" //nolint:unused // set via ldflags at build time
)

func newApp() *cli.App {
	return &cli.App{
		Name:    "esmdeps",
		Usage:   "Extract ES module dependencies from JavaScript and TypeScript",
		Version: version,
		Description: `esmdeps walks JavaScript and TypeScript modules and reports their
imports, exports and re-exports the way a bundler records them: one
dependency per import or export, in source order, with star re-exports
linked to the ones before them.

Supports: .js .mjs .cjs .jsx .ts .mts .cts .tsx`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (TOML, YAML, or JSON)",
				EnvVars: []string{"ESMDEPS_CONFIG"},
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose output and debug logging",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Number of parallel workers (0 = auto)",
			},
		},
		Commands: []*cli.Command{
			extractCmd(),
			exportsCmd(),
			graphCmd(),
			watchCmd(),
			cacheCmd(),
			configCmd(),
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		color.Red("Error: %v", err)
		stop()
		os.Exit(1)
	}
}
