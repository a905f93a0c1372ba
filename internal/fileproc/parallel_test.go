package fileproc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/panbanda/esmdeps/internal/progress"
	"github.com/panbanda/esmdeps/pkg/ast/treesitter"
	"github.com/panbanda/esmdeps/pkg/parser"
	"github.com/panbanda/esmdeps/pkg/source"
)

func memoryFiles(n int) ([]string, *source.MemorySource) {
	files := make([]string, n)
	contents := make(map[string]string, n)
	for i := range files {
		files[i] = fmt.Sprintf("src/file%d.js", i)
		contents[files[i]] = fmt.Sprintf("export const v%d = %d;\n", i, i)
	}
	return files, source.NewMemory(contents)
}

func TestMapFiles(t *testing.T) {
	files, src := memoryFiles(3)

	results, errs := MapFiles(context.Background(), files, src, Options{}, func(p *treesitter.Provider, path string, content []byte) (string, error) {
		return filepath.Base(path), nil
	})

	if errs != nil {
		t.Errorf("Unexpected errors: %v", errs)
	}
	want := []string{"file0.js", "file1.js", "file2.js"}
	if !reflect.DeepEqual(results, want) {
		t.Errorf("results = %v, want %v", results, want)
	}
}

func TestMapFiles_EmptyFileList(t *testing.T) {
	results, errs := MapFiles(context.Background(), nil, source.NewMemory(nil), Options{}, func(p *treesitter.Provider, path string, content []byte) (string, error) {
		return path, nil
	})

	if results != nil {
		t.Errorf("Expected nil for empty file list, got %v", results)
	}
	if errs != nil {
		t.Errorf("Expected nil errors for empty file list, got %v", errs)
	}
}

func TestMapFiles_PreservesOrder(t *testing.T) {
	files, src := memoryFiles(100)

	results, errs := MapFiles(context.Background(), files, src, Options{Workers: 8}, func(p *treesitter.Provider, path string, content []byte) (string, error) {
		return path, nil
	})

	if errs != nil {
		t.Fatalf("Unexpected errors: %v", errs)
	}
	if !reflect.DeepEqual(results, files) {
		t.Error("results are not in input order")
	}
}

func TestMapFiles_WithErrors(t *testing.T) {
	files, src := memoryFiles(3)

	var processed atomic.Int32
	results, errs := MapFiles(context.Background(), files, src, Options{}, func(p *treesitter.Provider, path string, content []byte) (string, error) {
		processed.Add(1)
		if filepath.Base(path) == "file1.js" {
			return "", fmt.Errorf("simulated error")
		}
		return filepath.Base(path), nil
	})

	if processed.Load() != 3 {
		t.Errorf("Expected all 3 files to be processed, got %d", processed.Load())
	}
	if !reflect.DeepEqual(results, []string{"file0.js", "file2.js"}) {
		t.Errorf("results = %v", results)
	}
	if errs == nil || len(errs.Errors) != 1 {
		t.Fatalf("Expected 1 error, got %v", errs)
	}
	if errs.Errors[0].Path != "src/file1.js" {
		t.Errorf("error path = %q", errs.Errors[0].Path)
	}
}

func TestMapFiles_ReadError(t *testing.T) {
	_, src := memoryFiles(1)

	results, errs := MapFiles(context.Background(), []string{"missing.js"}, src, Options{}, func(p *treesitter.Provider, path string, content []byte) (int, error) {
		t.Error("fn should not run for unreadable files")
		return 0, nil
	})

	if len(results) != 0 {
		t.Errorf("Expected no results, got %v", results)
	}
	if errs == nil || !errors.Is(errs.Errors[0], os.ErrNotExist) {
		t.Errorf("Expected not-exist error, got %v", errs)
	}
}

func TestMapFiles_SizeLimit(t *testing.T) {
	src := source.NewMemory(map[string]string{
		"small.js": "export {};",
		"large.js": "export const x = '" + string(make([]byte, 200)) + "';",
	})

	results, errs := MapFiles(context.Background(), []string{"small.js", "large.js"}, src, Options{MaxFileSize: 100}, func(p *treesitter.Provider, path string, content []byte) (string, error) {
		return path, nil
	})

	if !reflect.DeepEqual(results, []string{"small.js"}) {
		t.Errorf("results = %v, want only small.js", results)
	}
	if errs == nil || len(errs.Errors) != 1 {
		t.Fatalf("Expected 1 error for large file, got %v", errs)
	}
	if !errors.Is(errs.Errors[0], parser.ErrFileTooLarge) {
		t.Errorf("error = %v, want ErrFileTooLarge", errs.Errors[0])
	}
}

func TestMapFiles_ProviderParses(t *testing.T) {
	files, src := memoryFiles(4)

	results, errs := MapFiles(context.Background(), files, src, Options{}, func(p *treesitter.Provider, path string, content []byte) (int, error) {
		if p == nil {
			return 0, fmt.Errorf("nil provider")
		}
		mod, err := p.ParseSource(content, p.Language(path), path)
		if err != nil {
			return 0, err
		}
		return len(mod.Program.Body), nil
	})

	if errs != nil {
		t.Fatalf("Unexpected errors: %v", errs)
	}
	for i, n := range results {
		if n != 1 {
			t.Errorf("file %d: got %d module items, want 1", i, n)
		}
	}
}

func TestMapFiles_ProviderReuse(t *testing.T) {
	files, src := memoryFiles(100)

	addrs := make(map[uintptr]int)
	var mu sync.Mutex

	_, errs := MapFiles(context.Background(), files, src, Options{Workers: 4}, func(p *treesitter.Provider, path string, content []byte) (int, error) {
		mu.Lock()
		addrs[reflect.ValueOf(p).Pointer()]++
		mu.Unlock()
		return 1, nil
	})

	if errs != nil {
		t.Errorf("Unexpected errors: %v", errs)
	}
	if len(addrs) > 4 {
		t.Errorf("Expected at most 4 providers for 4 workers, got %d", len(addrs))
	}
}

func TestMapFiles_WithProgress(t *testing.T) {
	files, src := memoryFiles(5)

	var progressCount atomic.Int32
	tracker := progress.NewTracker(func(current, total int, path string) {
		progressCount.Add(1)
	})
	ctx := progress.WithTracker(context.Background(), tracker)

	_, errs := MapFiles(ctx, files, src, Options{}, func(p *treesitter.Provider, path string, content []byte) (int, error) {
		if path == files[2] {
			return 0, fmt.Errorf("failed")
		}
		return 1, nil
	})

	if errs == nil {
		t.Error("Expected one error")
	}
	if int(progressCount.Load()) != len(files) {
		t.Errorf("Expected progress callback %d times, got %d", len(files), progressCount.Load())
	}
	if tracker.Total() != len(files) {
		t.Errorf("tracker total = %d, want %d", tracker.Total(), len(files))
	}
}

func TestMapFiles_Cancellation(t *testing.T) {
	files, src := memoryFiles(100)

	ctx, cancel := context.WithCancel(context.Background())

	var processed atomic.Int32
	go func() {
		for processed.Load() < 10 {
			runtime.Gosched()
		}
		cancel()
	}()

	results, errs := MapFiles(ctx, files, src, Options{Workers: 2}, func(p *treesitter.Provider, path string, content []byte) (string, error) {
		processed.Add(1)
		for i := 0; i < 1000; i++ {
			runtime.Gosched()
		}
		return path, nil
	})

	errorCount := 0
	if errs != nil {
		errorCount = len(errs.Errors)
		for _, e := range errs.Errors {
			if !errors.Is(e.Err, context.Canceled) {
				t.Errorf("unexpected error %v", e)
			}
		}
	}
	if len(results)+errorCount != len(files) {
		t.Errorf("results (%d) + errors (%d) should equal file count (%d)",
			len(results), errorCount, len(files))
	}
}

func TestProcessingError(t *testing.T) {
	cause := fmt.Errorf("parse failed")
	err := ProcessingError{Path: "/path/to/file.js", Err: cause}
	if err.Error() != "/path/to/file.js: parse failed" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("ProcessingError should unwrap to its cause")
	}
}

func TestProcessingErrors(t *testing.T) {
	errs := &ProcessingErrors{}

	if errs.HasErrors() {
		t.Error("Empty ProcessingErrors should not have errors")
	}
	if errs.Error() != "no errors" {
		t.Errorf("Empty error message = %q, want 'no errors'", errs.Error())
	}

	errs.Add("/file1.js", fmt.Errorf("error1"))
	if !errs.HasErrors() {
		t.Error("ProcessingErrors with one error should have errors")
	}
	if errs.Error() != "/file1.js: error1" {
		t.Errorf("Single error message = %q", errs.Error())
	}

	errs.Add("/file2.js", fmt.Errorf("error2"))
	if errs.Error() != "2 files failed to process (first: /file1.js: error1)" {
		t.Errorf("Multiple error message = %q", errs.Error())
	}
	if errs.Unwrap() != nil {
		t.Error("Unwrap() should return nil")
	}
}

func TestProcessingErrors_ThreadSafe(t *testing.T) {
	errs := &ProcessingErrors{}
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			errs.Add(fmt.Sprintf("/file%d.js", n), fmt.Errorf("error %d", n))
		}(i)
	}
	wg.Wait()

	if len(errs.Errors) != 100 {
		t.Errorf("Expected 100 errors, got %d", len(errs.Errors))
	}
}

func BenchmarkMapFiles(b *testing.B) {
	files, src := memoryFiles(200)
	for i := 0; i < b.N; i++ {
		MapFiles(context.Background(), files, src, Options{}, func(p *treesitter.Provider, path string, content []byte) (int, error) {
			mod, err := p.ParseSource(content, p.Language(path), path)
			if err != nil {
				return 0, err
			}
			return len(mod.Program.Body), nil
		})
	}
}
