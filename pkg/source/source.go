package source

import (
	"fmt"
	"os"
	"sync"
)

// ContentSource provides file content from a specific source.
type ContentSource interface {
	// Read returns the content of the file at path.
	Read(path string) ([]byte, error)
}

// FilesystemSource reads files from the local filesystem.
type FilesystemSource struct{}

// NewFilesystem creates a source that reads from the filesystem.
func NewFilesystem() *FilesystemSource {
	return &FilesystemSource{}
}

// Read implements ContentSource.
func (f *FilesystemSource) Read(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// MemorySource serves files from an in-memory map.
// It is safe for concurrent use by multiple goroutines.
type MemorySource struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemory creates a source backed by files, keyed by path.
func NewMemory(files map[string]string) *MemorySource {
	m := &MemorySource{files: make(map[string][]byte, len(files))}
	for path, content := range files {
		m.files[path] = []byte(content)
	}
	return m
}

// Put stores or replaces the content of path.
func (m *MemorySource) Put(path string, content []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = content
}

// Read implements ContentSource.
func (m *MemorySource) Read(path string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	content, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, os.ErrNotExist)
	}
	return content, nil
}
