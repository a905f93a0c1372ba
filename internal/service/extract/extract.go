// Package extract runs the dependency walker over files and turns the
// results into serializable reports.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/panbanda/esmdeps/internal/cache"
	"github.com/panbanda/esmdeps/internal/fileproc"
	"github.com/panbanda/esmdeps/pkg/ast/treesitter"
	"github.com/panbanda/esmdeps/pkg/config"
	"github.com/panbanda/esmdeps/pkg/javascript/parser"
	"github.com/panbanda/esmdeps/pkg/javascript/plugin"
	"github.com/panbanda/esmdeps/pkg/models"
	tsparser "github.com/panbanda/esmdeps/pkg/parser"
	"github.com/panbanda/esmdeps/pkg/source"
)

// Service extracts module dependency reports.
type Service struct {
	config  *config.Config
	cache   *cache.Cache
	source  source.ContentSource
	logger  *slog.Logger
	plugins []parser.Plugin
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// WithCache sets the result cache.
func WithCache(c *cache.Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithSource sets where module contents are read from.
func WithSource(src source.ContentSource) Option {
	return func(s *Service) {
		s.source = src
	}
}

// WithLogger sets the logger passed down to the walker.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithPlugins replaces the default plugin set.
func WithPlugins(plugins ...parser.Plugin) Option {
	return func(s *Service) {
		s.plugins = plugins
	}
}

// New creates an extract service. Without options it reads from disk,
// uses the default plugins and caches nothing.
func New(opts ...Option) *Service {
	s := &Service{}
	for _, opt := range opts {
		opt(s)
	}
	if s.config == nil {
		s.config = config.DefaultConfig()
	}
	if s.cache == nil {
		s.cache, _ = cache.New("", 0, false)
	}
	if s.source == nil {
		s.source = source.NewFilesystem()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.plugins == nil {
		s.plugins = plugin.Default()
	}
	return s
}

// ExtractFile extracts a single module.
func (s *Service) ExtractFile(ctx context.Context, path string) (*models.ModuleReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	content, err := s.source.Read(path)
	if err != nil {
		return nil, err
	}
	if limit := s.config.JavaScript.MaxFileSize; limit > 0 && int64(len(content)) > limit {
		return nil, fmt.Errorf("%w: %s (%d bytes)", tsparser.ErrFileTooLarge, path, len(content))
	}

	psr := treesitter.New()
	defer psr.Close()

	report, _, err := s.extract(psr, path, content)
	return report, err
}

// ExtractFiles extracts every file in parallel. Per-file failures are
// reported in the result, not returned; the error is non-nil only when ctx
// was canceled.
func (s *Service) ExtractFiles(ctx context.Context, files []string) (*models.ExtractReport, error) {
	var cached atomic.Int32

	modules, errs := fileproc.MapFiles(ctx, files, s.source, fileproc.Options{
		Workers:     s.config.Workers,
		MaxFileSize: s.config.JavaScript.MaxFileSize,
	}, func(psr *treesitter.Provider, path string, content []byte) (models.ModuleReport, error) {
		report, hit, err := s.extract(psr, path, content)
		if err != nil {
			return models.ModuleReport{}, err
		}
		if hit {
			cached.Add(1)
		}
		return *report, nil
	})

	var failures []models.FileError
	if errs != nil {
		for _, e := range errs.Errors {
			if errors.Is(e.Err, context.Canceled) || errors.Is(e.Err, context.DeadlineExceeded) {
				continue
			}
			s.logger.Warn("extraction failed", slog.String("file", e.Path), slog.String("error", e.Err.Error()))
			failures = append(failures, models.FileError{Path: e.Path, Error: e.Err.Error()})
		}
	}

	report := models.NewExtractReport(modules, failures, int(cached.Load()))
	s.logger.Info("extraction finished",
		slog.Int("files", report.Summary.TotalFiles),
		slog.Int("failed", report.Summary.FailedFiles),
		slog.Int("cached", report.Summary.CachedFiles))

	return report, ctx.Err()
}

// Forget drops the cached report of a module that no longer exists.
func (s *Service) Forget(path string) error {
	return s.cache.Invalidate(s.cacheKey(path))
}

func (s *Service) cacheKey(path string) string {
	return cache.Key(path, cache.Fingerprint(s.config.JavaScript))
}

// extract walks one module, consulting the cache first. The second result
// reports a cache hit.
func (s *Service) extract(psr *treesitter.Provider, path string, content []byte) (*models.ModuleReport, bool, error) {
	hash := cache.HashBytes(content)
	key := s.cacheKey(path)

	if report, ok := s.cache.GetModule(key, hash); ok {
		s.logger.Debug("cache hit", slog.String("file", path))
		return report, true, nil
	}

	mod, err := psr.ParseSource(content, psr.Language(path), path)
	if err != nil {
		return nil, false, err
	}

	p := parser.New(path, content,
		parser.WithOptions(parser.OptionsFromConfig(s.config.JavaScript)),
		parser.WithPlugins(s.plugins...),
		parser.WithLogger(s.logger))
	if err := p.Walk(mod.Program); err != nil {
		return nil, false, err
	}

	report := NewModuleReport(p.Result(), string(mod.Language), content)
	report.Hash = hash

	if err := s.cache.PutModule(key, report); err != nil {
		s.logger.Warn("cache write failed", slog.String("file", path), slog.String("error", err.Error()))
	}
	s.logger.Debug("module extracted",
		slog.String("file", path),
		slog.Int("dependencies", len(report.Dependencies)),
		slog.Int("diagnostics", len(report.Diagnostics)))
	return report, false, nil
}
