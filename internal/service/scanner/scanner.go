package scanner

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/panbanda/esmdeps/internal/scanner"
	"github.com/panbanda/esmdeps/pkg/config"
	"github.com/panbanda/esmdeps/pkg/parser"
)

// ScanResult contains the result of a file scan.
type ScanResult struct {
	Files          []string
	LanguageGroups map[parser.Language][]string
	// Roots are the absolute directories the scan started from. A file
	// argument contributes its parent directory.
	Roots []string
}

// Service provides file scanning functionality.
type Service struct {
	config *config.Config
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// New creates a new scanner service.
func New(opts ...Option) *Service {
	s := &Service{}
	for _, opt := range opts {
		opt(s)
	}
	if s.config == nil {
		s.config = config.LoadOrDefault()
	}
	return s
}

// ScanPaths scans files and directories and returns every module found,
// sorted and without duplicates. Explicit file arguments are kept when
// their extension is a supported language, even if an exclude rule would
// skip them during a directory walk.
func (s *Service) ScanPaths(paths []string) (*ScanResult, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	scan := scanner.NewScanner(s.config)
	seen := make(map[string]bool)
	var files, roots []string

	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, path := range paths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, &PathError{Path: path, Err: err}
		}
		info, err := os.Stat(absPath)
		if err != nil {
			return nil, &PathError{Path: path, Err: err}
		}

		if !info.IsDir() {
			if resolved, err := filepath.EvalSymlinks(absPath); err == nil {
				absPath = resolved
			}
			if parser.DetectLanguage(absPath) != parser.LangUnknown {
				add(absPath)
			}
			roots = append(roots, filepath.Dir(absPath))
			continue
		}

		found, err := scan.ScanDir(absPath)
		if err != nil {
			return nil, &ScanError{Path: path, Err: err}
		}
		for _, f := range found {
			add(f)
		}
		if resolved, err := filepath.EvalSymlinks(absPath); err == nil {
			absPath = resolved
		}
		roots = append(roots, absPath)
	}

	sort.Strings(files)
	return &ScanResult{
		Files:          files,
		LanguageGroups: scan.GroupByLanguage(files),
		Roots:          roots,
	}, nil
}

// Accepts reports whether a changed file under root should be extracted.
func (s *Service) Accepts(root, path string) bool {
	ok, err := scanner.NewScanner(s.config).ScanFile(root, path)
	return err == nil && ok
}

// PathError indicates an invalid path.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return "invalid path " + e.Path + ": " + e.Err.Error()
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// ScanError indicates a scanning failure.
type ScanError struct {
	Path string
	Err  error
}

func (e *ScanError) Error() string {
	return "failed to scan directory " + e.Path + ": " + e.Err.Error()
}

func (e *ScanError) Unwrap() error {
	return e.Err
}
