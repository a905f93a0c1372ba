package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/panbanda/esmdeps/internal/output"
	"github.com/urfave/cli/v2"
)

func extractCmd() *cli.Command {
	return &cli.Command{
		Name:      "extract",
		Aliases:   []string{"x"},
		Usage:     "Extract import and export dependencies of every module",
		ArgsUsage: "[path...]",
		Flags:     outputFlags(),
		Action:    runExtractCmd,
	}
}

func runExtractCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	report, err := scanAndExtract(c.Context, c, cfg, getPaths(c))
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}
	if report == nil {
		return nil
	}

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	if err := formatter.Output(output.ExtractReport(report, cfg.Output.Verbose, displayPath())); err != nil {
		return err
	}

	if n := report.Summary.FailedFiles; n > 0 && !formatter.Format().IsStructured() {
		color.New(color.FgYellow).Fprintf(os.Stderr, "%d of %d files could not be extracted\n", n, report.Summary.TotalFiles)
	}
	return nil
}
