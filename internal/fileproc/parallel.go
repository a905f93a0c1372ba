// Package fileproc provides concurrent file processing utilities.
package fileproc

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/panbanda/esmdeps/internal/progress"
	"github.com/panbanda/esmdeps/pkg/ast/treesitter"
	"github.com/panbanda/esmdeps/pkg/parser"
	"github.com/panbanda/esmdeps/pkg/source"
	"github.com/sourcegraph/conc/pool"
)

// ProcessingError represents an error that occurred while processing a file.
type ProcessingError struct {
	Path string
	Err  error
}

func (e ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e ProcessingError) Unwrap() error {
	return e.Err
}

// ProcessingErrors collects multiple file processing errors.
type ProcessingErrors struct {
	Errors []ProcessingError
	mu     sync.Mutex
}

// Add appends an error to the collection (thread-safe).
func (e *ProcessingErrors) Add(path string, err error) {
	e.mu.Lock()
	e.Errors = append(e.Errors, ProcessingError{Path: path, Err: err})
	e.mu.Unlock()
}

// HasErrors returns true if any errors were collected.
func (e *ProcessingErrors) HasErrors() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Errors) > 0
}

// Error implements the error interface.
func (e *ProcessingErrors) Error() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d files failed to process (first: %v)", len(e.Errors), e.Errors[0])
}

// Unwrap returns nil (ProcessingErrors doesn't wrap a single error).
func (e *ProcessingErrors) Unwrap() error {
	return nil
}

// DefaultWorkerMultiplier is the multiplier applied to NumCPU for worker count.
// 2x is optimal for mixed I/O and CGO workloads.
const DefaultWorkerMultiplier = 2

// Options tunes a MapFiles run.
type Options struct {
	// Workers bounds concurrency; <= 0 means 2x NumCPU.
	Workers int
	// MaxFileSize rejects larger files before fn runs; 0 disables the check.
	MaxFileSize int64
}

// Func processes one file's content with a provider owned by the calling
// worker.
type Func[T any] func(psr *treesitter.Provider, path string, content []byte) (T, error)

// MapFiles reads files from src and processes them in parallel. Providers
// are pooled and reused across files, never shared between concurrent
// calls. Results keep the order of files with failed files left out; the
// error collection is nil when every file succeeded. A tracker in ctx is
// ticked once per file.
func MapFiles[T any](ctx context.Context, files []string, src source.ContentSource, opts Options, fn Func[T]) ([]T, *ProcessingErrors) {
	if len(files) == 0 {
		return nil, nil
	}

	maxWorkers := opts.Workers
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU() * DefaultWorkerMultiplier
	}

	tracker := progress.TrackerFromContext(ctx)
	if tracker != nil {
		tracker.Add(len(files))
	}

	providers := newProviderPool(maxWorkers)
	defer providers.close()

	slots := make([]T, len(files))
	ok := make([]bool, len(files))
	errs := &ProcessingErrors{}

	p := pool.New().WithMaxGoroutines(maxWorkers).WithContext(ctx)
	for i, path := range files {
		p.Go(func(ctx context.Context) error {
			defer func() {
				if tracker != nil {
					tracker.Tick(path)
				}
			}()

			select {
			case <-ctx.Done():
				errs.Add(path, ctx.Err())
				return nil
			default:
			}

			content, err := src.Read(path)
			if err != nil {
				errs.Add(path, err)
				return nil
			}
			if opts.MaxFileSize > 0 && int64(len(content)) > opts.MaxFileSize {
				errs.Add(path, fmt.Errorf("%w: %s (%d bytes)", parser.ErrFileTooLarge, path, len(content)))
				return nil
			}

			psr := providers.get()
			defer providers.put(psr)

			result, err := fn(psr, path, content)
			if err != nil {
				errs.Add(path, err)
				return nil // Don't stop pool on individual file errors
			}
			slots[i] = result
			ok[i] = true
			return nil
		})
	}
	_ = p.Wait() // Context errors are already captured in errs

	results := make([]T, 0, len(files))
	for i := range slots {
		if ok[i] {
			results = append(results, slots[i])
		}
	}

	if !errs.HasErrors() {
		return results, nil
	}
	return results, errs
}

// providerPool hands out tree-sitter providers, creating at most one per
// concurrently running worker.
type providerPool struct {
	free chan *treesitter.Provider
	mu   sync.Mutex
	all  []*treesitter.Provider
}

func newProviderPool(size int) *providerPool {
	return &providerPool{free: make(chan *treesitter.Provider, size)}
}

func (pp *providerPool) get() *treesitter.Provider {
	select {
	case psr := <-pp.free:
		return psr
	default:
	}
	psr := treesitter.New()
	pp.mu.Lock()
	pp.all = append(pp.all, psr)
	pp.mu.Unlock()
	return psr
}

func (pp *providerPool) put(psr *treesitter.Provider) {
	select {
	case pp.free <- psr:
	default:
	}
}

func (pp *providerPool) close() {
	pp.mu.Lock()
	defer pp.mu.Unlock()
	for _, psr := range pp.all {
		psr.Close()
	}
	pp.all = nil
}
