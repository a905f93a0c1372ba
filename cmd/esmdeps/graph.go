package main

import (
	"fmt"

	"github.com/panbanda/esmdeps/internal/graph"
	"github.com/panbanda/esmdeps/internal/output"
	"github.com/urfave/cli/v2"
)

func graphCmd() *cli.Command {
	return &cli.Command{
		Name:      "graph",
		Aliases:   []string{"dag"},
		Usage:     "Build the module graph with cycles and evaluation order",
		ArgsUsage: "[path...]",
		Flags: append(outputFlags(),
			&cli.BoolFlag{
				Name:  "mermaid",
				Usage: "Print only the Mermaid diagram",
			},
		),
		Action: runGraphCmd,
	}
}

func runGraphCmd(c *cli.Context) error {
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

	g := graph.Build(report.Modules, graph.NewRelativeResolver(modulePaths(report.Modules)))
	graphReport := g.Report()

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	if hasTrailingBool(c, "mermaid") {
		_, err := fmt.Fprint(formatter.Writer(), graphReport.Graph.ToMermaid())
		return err
	}
	return formatter.Output(output.GraphReport(graphReport, displayPath()))
}
