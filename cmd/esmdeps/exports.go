package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/panbanda/esmdeps/internal/graph"
	"github.com/panbanda/esmdeps/internal/output"
	"github.com/panbanda/esmdeps/pkg/models"
	"github.com/urfave/cli/v2"
)

func exportsCmd() *cli.Command {
	return &cli.Command{
		Name:      "exports",
		Usage:     "List the names a module exports, following export * re-exports",
		ArgsUsage: "<module>",
		Flags: append(outputFlags(),
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Value:   ".",
				Usage:   "Project directory that re-exported modules are resolved in",
			},
		),
		Action: runExportsCmd,
	}
}

func runExportsCmd(c *cli.Context) error {
	args := getPaths(c)
	if c.NArg() == 0 || len(args) != 1 {
		return errors.New("exports takes exactly one module path")
	}

	module, err := resolvePath(args[0])
	if err != nil {
		return err
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	root := getTrailingFlag(c, "root", "r", ".")
	report, err := scanAndExtract(c.Context, c, cfg, []string{root, module})
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}
	if report == nil {
		return nil
	}
	for _, e := range report.Errors {
		if e.Path == module {
			return fmt.Errorf("%s: %s", args[0], e.Error)
		}
	}

	g := graph.Build(report.Modules, graph.NewRelativeResolver(modulePaths(report.Modules)))
	exports, err := g.LinkExports(module)
	if err != nil {
		return err
	}

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	return formatter.Output(output.ExportsReport(exports, displayPath()))
}

// resolvePath makes path absolute and resolves symlinks, matching the
// paths the scanner reports.
func resolvePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("invalid path %s: %w", path, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", err
	}
	return resolved, nil
}

func modulePaths(modules []models.ModuleReport) []string {
	paths := make([]string, len(modules))
	for i, m := range modules {
		paths[i] = m.Path
	}
	return paths
}
