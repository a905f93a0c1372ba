package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/panbanda/esmdeps/internal/cache"
	"github.com/panbanda/esmdeps/internal/output"
	"github.com/panbanda/esmdeps/internal/progress"
	"github.com/panbanda/esmdeps/internal/service/extract"
	scannerSvc "github.com/panbanda/esmdeps/internal/service/scanner"
	"github.com/panbanda/esmdeps/pkg/config"
	"github.com/panbanda/esmdeps/pkg/models"
	"github.com/urfave/cli/v2"
)

// valueFlags take an argument, so the word after them is not a path.
var valueFlags = map[string]bool{
	"-f": true, "--format": true,
	"-o": true, "--output": true,
	"-r": true, "--root": true,
	"--debounce": true,
}

// getPaths returns the positional args, defaulting to ["."]. Flags written
// after a path are left in the args by the flag parser and are skipped.
func getPaths(c *cli.Context) []string {
	var paths []string
	args := c.Args().Slice()
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if strings.HasPrefix(arg, "-") && arg != "-" {
			if valueFlags[arg] {
				i++
			}
			continue
		}
		paths = append(paths, arg)
	}
	if len(paths) == 0 {
		return []string{"."}
	}
	return paths
}

// getTrailingFlag returns a string flag, also looking for it after the
// positional args.
func getTrailingFlag(c *cli.Context, name, short, defaultValue string) string {
	if c.IsSet(name) {
		return c.String(name)
	}
	args := c.Args().Slice()
	for i, arg := range args {
		for _, prefix := range []string{"--" + name, "-" + short} {
			if arg == prefix && i+1 < len(args) {
				return args[i+1]
			}
			if value, ok := strings.CutPrefix(arg, prefix+"="); ok {
				return value
			}
		}
	}
	return defaultValue
}

// hasTrailingBool reports whether a bool flag is set before or after the
// positional args.
func hasTrailingBool(c *cli.Context, name string) bool {
	if c.Bool(name) {
		return true
	}
	for _, arg := range c.Args().Slice() {
		if arg == "--"+name || arg == "--"+name+"=true" {
			return true
		}
	}
	return false
}

// outputFlags are shared by every command that prints a report.
func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: text, json, markdown, yaml, toon",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write output to file",
		},
		&cli.BoolFlag{
			Name:  "no-cache",
			Usage: "Disable caching",
		},
	}
}

// loadConfig loads the configuration named by --config, or the one found
// in the working directory, and applies command line overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	result, err := loadConfigResult(c)
	if err != nil {
		return nil, err
	}

	cfg := result.Config
	if workers := c.Int("workers"); workers > 0 {
		cfg.Workers = workers
	}
	if hasTrailingBool(c, "verbose") {
		cfg.Output.Verbose = true
	}
	return cfg, nil
}

// newLogger logs to stderr; verbose runs include debug records.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelWarn
	if cfg.Output.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func newFormatter(c *cli.Context, cfg *config.Config) (*output.Formatter, error) {
	format := getTrailingFlag(c, "format", "f", cfg.Output.Format)
	return output.NewFormatter(output.ParseFormat(format), getTrailingFlag(c, "output", "o", ""), cfg.Output.Color)
}

// displayPath shows paths relative to the working directory when they
// are below it.
func displayPath() output.PathFunc {
	wd, err := os.Getwd()
	if err != nil {
		return nil
	}
	if resolved, err := filepath.EvalSymlinks(wd); err == nil {
		wd = resolved
	}
	return func(path string) string {
		rel, err := filepath.Rel(wd, path)
		if err != nil || strings.HasPrefix(rel, "..") {
			return path
		}
		return rel
	}
}

// newExtractService wires the cache, logger and config into an extract
// service.
func newExtractService(c *cli.Context, cfg *config.Config, logger *slog.Logger) (*extract.Service, error) {
	resultCache, err := cache.FromConfig(cfg.Cache, hasTrailingBool(c, "no-cache"))
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	return extract.New(
		extract.WithConfig(cfg),
		extract.WithCache(resultCache),
		extract.WithLogger(logger),
	), nil
}

// scanAndExtract scans paths and extracts every module found, with a
// progress bar on stderr. A nil report means no modules were found.
func scanAndExtract(ctx context.Context, c *cli.Context, cfg *config.Config, paths []string) (*models.ExtractReport, error) {
	spinner := progress.NewSpinner("Scanning modules...")
	scanResult, err := scannerSvc.New(scannerSvc.WithConfig(cfg)).ScanPaths(paths)
	if err != nil {
		spinner.FinishError(err)
		return nil, err
	}
	if len(scanResult.Files) == 0 {
		spinner.FinishSkipped("no modules")
		color.Yellow("No JavaScript or TypeScript modules found")
		return nil, nil
	}
	spinner.FinishSuccess()

	logger := newLogger(cfg)
	svc, err := newExtractService(c, cfg, logger)
	if err != nil {
		return nil, err
	}

	bar := progress.NewBar("Extracting dependencies...", len(scanResult.Files))
	report, err := svc.ExtractFiles(progress.WithTracker(ctx, bar.Tracker()), scanResult.Files)
	if err != nil {
		bar.FinishError(err)
		return nil, err
	}
	bar.FinishSuccess()

	return report, nil
}
