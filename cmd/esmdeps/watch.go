package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/panbanda/esmdeps/internal/graph"
	"github.com/panbanda/esmdeps/internal/output"
	"github.com/panbanda/esmdeps/internal/service/extract"
	scannerSvc "github.com/panbanda/esmdeps/internal/service/scanner"
	"github.com/panbanda/esmdeps/pkg/models"
	"github.com/panbanda/esmdeps/pkg/watch"
	"github.com/urfave/cli/v2"
)

func watchCmd() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Watch for module changes and re-extract them",
		ArgsUsage: "[path]",
		Flags: append(outputFlags(),
			&cli.DurationFlag{
				Name:  "debounce",
				Value: watch.DefaultDebounce,
				Usage: "How long a file must stay unchanged before it is extracted",
			},
		),
		Action: runWatchCmd,
	}
}

func runWatchCmd(c *cli.Context) error {
	root, err := resolvePath(getPaths(c)[0])
	if err != nil {
		return err
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	report, err := scanAndExtract(c.Context, c, cfg, []string{root})
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	svc, err := newExtractService(c, cfg, newLogger(cfg))
	if err != nil {
		return err
	}
	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	session := newWatchSession(svc, formatter, displayPath(), os.Stderr)
	if report != nil {
		session.load(report)
		color.Green("Extracted %d modules (%d failed)", len(report.Modules), report.Summary.FailedFiles)
	}

	watcher, err := watch.NewWatcher(root, cfg, c.Duration("debounce"))
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Stop()

	scan := scannerSvc.New(scannerSvc.WithConfig(cfg))
	watcher.SetFilter(func(path string) bool { return scan.Accepts(root, path) })
	watcher.SetHandler(session.handle)

	err = watcher.Start(c.Context)
	if errors.Is(err, context.Canceled) {
		fmt.Println("\nStopping watch...")
		return nil
	}
	return err
}

// watchSession keeps the latest report of every module seen while
// watching.
type watchSession struct {
	svc       *extract.Service
	formatter *output.Formatter
	display   output.PathFunc
	errOut    io.Writer
	modules   map[string]models.ModuleReport
	cycles    int
}

func newWatchSession(svc *extract.Service, formatter *output.Formatter, display output.PathFunc, errOut io.Writer) *watchSession {
	return &watchSession{
		svc:       svc,
		formatter: formatter,
		display:   display,
		errOut:    errOut,
		modules:   make(map[string]models.ModuleReport),
	}
}

func (s *watchSession) load(report *models.ExtractReport) {
	for _, m := range report.Modules {
		s.modules[m.Path] = m
	}
	s.cycles = len(s.graph().Cycles())
}

// handle re-extracts changed modules, forgets removed ones and reports
// when the number of import cycles changes.
func (s *watchSession) handle(ctx context.Context, changed, removed []string) {
	for _, path := range changed {
		m, err := s.svc.ExtractFile(ctx, path)
		if err != nil {
			color.New(color.FgRed).Fprintf(s.errOut, "%s: %v\n", s.display.Apply(path), err)
			continue
		}
		s.modules[path] = *m
		if err := s.formatter.Output(output.DependencyTable(m, s.display)); err != nil {
			color.New(color.FgRed).Fprintf(s.errOut, "output: %v\n", err)
		}
	}
	for _, path := range removed {
		delete(s.modules, path)
		if err := s.svc.Forget(path); err != nil {
			color.New(color.FgRed).Fprintf(s.errOut, "%s: %v\n", s.display.Apply(path), err)
		}
	}

	cycles := s.graph().Cycles()
	if len(cycles) != s.cycles {
		color.New(color.FgYellow).Fprintf(s.errOut, "Import cycles: %d -> %d\n", s.cycles, len(cycles))
		s.cycles = len(cycles)
	}
}

func (s *watchSession) graph() *graph.Graph {
	paths := make([]string, 0, len(s.modules))
	for path := range s.modules {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	reports := make([]models.ModuleReport, len(paths))
	for i, path := range paths {
		reports[i] = s.modules[path]
	}
	return graph.Build(reports, graph.NewRelativeResolver(paths))
}
