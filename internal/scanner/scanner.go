package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/panbanda/esmdeps/pkg/config"
	"github.com/panbanda/esmdeps/pkg/parser"
)

// Scanner finds JavaScript and TypeScript modules in a directory.
type Scanner struct {
	config   *config.Config
	matchers []matcher
	loaded   string
}

// matcher applies gitignore patterns to paths relative to base.
type matcher struct {
	base string
	m    gitignore.Matcher
}

// NewScanner creates a new file scanner.
func NewScanner(cfg *config.Config) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Scanner{config: cfg}
}

// findGitRoot finds the root of the git repository by looking for .git directory.
// Returns empty string if not in a git repository.
func findGitRoot(start string) string {
	dir := start
	for {
		gitDir := filepath.Join(dir, ".git")
		if info, err := os.Stat(gitDir); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// configPatterns renders the exclude section as gitignore patterns.
func configPatterns(cfg config.ExcludeConfig) []gitignore.Pattern {
	var patterns []gitignore.Pattern
	for _, pattern := range cfg.Patterns {
		patterns = append(patterns, gitignore.ParsePattern(pattern, nil))
	}
	for _, dir := range cfg.Dirs {
		patterns = append(patterns, gitignore.ParsePattern(strings.TrimSuffix(dir, "/")+"/", nil))
	}
	for _, ext := range cfg.Extensions {
		patterns = append(patterns, gitignore.ParsePattern("*"+ext, nil))
	}
	return patterns
}

// loadExcludePatterns builds the matchers for a scan rooted at absRoot.
// Config patterns are relative to the root; .gitignore files are read from
// the enclosing repository, or from the root when there is none.
func (s *Scanner) loadExcludePatterns(absRoot string) {
	if s.loaded == absRoot {
		return
	}
	s.loaded = absRoot
	s.matchers = nil

	if patterns := configPatterns(s.config.Exclude); len(patterns) > 0 {
		s.matchers = append(s.matchers, matcher{base: absRoot, m: gitignore.NewMatcher(patterns)})
	}

	if s.config.Exclude.Gitignore {
		base := findGitRoot(absRoot)
		if base == "" {
			base = absRoot
		}
		if gitPatterns, err := gitignore.ReadPatterns(osfs.New(base), nil); err == nil && len(gitPatterns) > 0 {
			s.matchers = append(s.matchers, matcher{base: base, m: gitignore.NewMatcher(gitPatterns)})
		}
	}
}

// isExcluded checks if an absolute path matches any exclusion pattern.
func (s *Scanner) isExcluded(absPath string, isDir bool) bool {
	for _, m := range s.matchers {
		rel, err := filepath.Rel(m.base, absPath)
		if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
			continue
		}
		if m.m.Match(strings.Split(rel, string(filepath.Separator)), isDir) {
			return true
		}
	}
	return false
}

// ScanDir recursively scans a directory for modules.
// Uses filepath.WalkDir for better performance (avoids stat calls).
// Validates that all paths stay within the root directory to prevent traversal attacks.
func (s *Scanner) ScanDir(root string) ([]string, error) {
	files := make([]string, 0, 256)

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	// Resolve any symlinks in the root path
	absRoot, err = filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, err
	}

	s.loadExcludePatterns(absRoot)

	walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		// Security: validate path stays within root (prevent symlink traversal)
		if d.Type()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil {
				return nil
			}
			if !isWithinRoot(resolved, absRoot) {
				return nil
			}
		}

		if d.IsDir() {
			if path != absRoot && s.isExcluded(path, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if s.isExcluded(path, false) {
			return nil
		}
		if parser.DetectLanguage(path) != parser.LangUnknown {
			files = append(files, path)
		}

		return nil
	})

	return files, walkErr
}

// isWithinRoot checks if a path is contained within the root directory.
// Returns false if the path escapes via symlinks or relative paths.
func isWithinRoot(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)

	// Add separator to prevent "/root2" matching "/root"
	if !strings.HasPrefix(absPath, root+string(filepath.Separator)) && absPath != root {
		return false
	}

	return true
}

// ScanFile reports whether a single file would be picked up by a scan of
// root. Used to filter change events in watch mode.
func (s *Scanner) ScanFile(root, path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return false, err
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, err
	}
	if resolved, err := filepath.EvalSymlinks(absRoot); err == nil {
		absRoot = resolved
	}
	if resolved, err := filepath.EvalSymlinks(absPath); err == nil {
		absPath = resolved
	}
	if !isWithinRoot(absPath, absRoot) {
		return false, nil
	}

	s.loadExcludePatterns(absRoot)

	// Any excluded parent directory excludes the file.
	for dir := filepath.Dir(absPath); dir != absRoot && isWithinRoot(dir, absRoot); dir = filepath.Dir(dir) {
		if s.isExcluded(dir, true) {
			return false, nil
		}
	}
	if s.isExcluded(absPath, false) {
		return false, nil
	}

	return parser.DetectLanguage(path) != parser.LangUnknown, nil
}

// GroupByLanguage groups files by their detected language.
func (s *Scanner) GroupByLanguage(files []string) map[parser.Language][]string {
	groups := make(map[parser.Language][]string)
	for _, f := range files {
		lang := parser.DetectLanguage(f)
		if lang != parser.LangUnknown {
			groups[lang] = append(groups[lang], f)
		}
	}
	return groups
}
