// Package cache stores extraction results on disk, keyed by module path and
// validated against the module's content hash.
package cache

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/panbanda/esmdeps/pkg/config"
	"github.com/panbanda/esmdeps/pkg/models"
	"github.com/zeebo/blake3"
)

// schemaVersion is mixed into every fingerprint. Bump it whenever the
// shape of models.ModuleReport changes.
const schemaVersion = "esmdeps-report-v2"

// Cache provides file-based caching for extraction results.
type Cache struct {
	dir     string
	ttl     time.Duration
	enabled bool
}

// Entry represents a cached result.
type Entry struct {
	Hash      string    `json:"hash"`
	Timestamp time.Time `json:"timestamp"`
	Data      []byte    `json:"data"`
}

// New creates a new cache instance. A ttlHours of zero or less keeps
// entries until their content hash stops matching.
func New(dir string, ttlHours int, enabled bool) (*Cache, error) {
	c := &Cache{dir: dir, ttl: time.Duration(ttlHours) * time.Hour, enabled: enabled}
	if !enabled {
		return c, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}
	return c, nil
}

// FromConfig opens the cache described by cfg. Disabled when noCache is set.
func FromConfig(cfg config.CacheConfig, noCache bool) (*Cache, error) {
	return New(cfg.Dir, cfg.TTL, cfg.Enabled && !noCache)
}

// Enabled reports whether reads and writes reach the disk.
func (c *Cache) Enabled() bool {
	return c != nil && c.enabled
}

// HashBytes returns the hex BLAKE3 digest of data.
func HashBytes(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Fingerprint identifies the extraction settings a result was produced
// with. Results cached under one fingerprint are never served for another.
func Fingerprint(js config.JavaScriptConfig) string {
	return HashBytes([]byte(fmt.Sprintf("%s|%+v", schemaVersion, js)))
}

// Key builds the cache key for a module extracted under fingerprint.
func Key(path, fingerprint string) string {
	return fingerprint + ":" + path
}

// Lookup retrieves a cached entry only if the hash matches and the entry
// has not expired.
func (c *Cache) Lookup(key, hash string) ([]byte, bool) {
	if !c.Enabled() {
		return nil, false
	}

	path := c.keyPath(key)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	var entry Entry
	if json.Unmarshal(raw, &entry) != nil || entry.Hash != hash {
		return nil, false
	}
	if c.expired(entry.Timestamp) {
		_ = os.Remove(path)
		return nil, false
	}
	return entry.Data, true
}

// Store writes data to the cache under key, tagged with hash.
func (c *Cache) Store(key, hash string, data []byte) error {
	if !c.Enabled() {
		return nil
	}

	raw, err := json.Marshal(Entry{Hash: hash, Timestamp: time.Now(), Data: data})
	if err != nil {
		return err
	}
	return os.WriteFile(c.keyPath(key), raw, 0o600)
}

// GetModule returns the cached report for key when hash still matches.
func (c *Cache) GetModule(key, hash string) (*models.ModuleReport, bool) {
	data, ok := c.Lookup(key, hash)
	if !ok {
		return nil, false
	}
	var report models.ModuleReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, false
	}
	return &report, true
}

// PutModule caches a report under key.
func (c *Cache) PutModule(key string, report *models.ModuleReport) error {
	if !c.Enabled() || report == nil {
		return nil
	}
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return c.Store(key, report.Hash, data)
}

// Invalidate drops the entry stored under key. A missing entry is not an
// error.
func (c *Cache) Invalidate(key string) error {
	if !c.Enabled() {
		return nil
	}
	err := os.Remove(c.keyPath(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// keyPath maps a key to its entry file.
func (c *Cache) keyPath(key string) string {
	sum := blake3.Sum256([]byte(key))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:])+entryExt)
}

const entryExt = ".json"

// Usage summarizes the entries on disk.
type Usage struct {
	Dir     string    `json:"dir"`
	Entries int       `json:"entries"`
	Expired int       `json:"expired"`
	Bytes   int64     `json:"bytes"`
	Oldest  time.Time `json:"oldest,omitzero"`
	Newest  time.Time `json:"newest,omitzero"`
}

// Usage scans the cache directory. Entries are dated by their write time.
func (c *Cache) Usage() (*Usage, error) {
	u := &Usage{Dir: c.dir}
	if !c.Enabled() {
		return u, nil
	}
	err := c.eachEntry(func(path string, info fs.FileInfo) error {
		u.Entries++
		u.Bytes += info.Size()
		if c.expired(info.ModTime()) {
			u.Expired++
		}
		if t := info.ModTime(); u.Oldest.IsZero() || t.Before(u.Oldest) {
			u.Oldest = t
		}
		if t := info.ModTime(); t.After(u.Newest) {
			u.Newest = t
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Prune removes expired entries and returns how many were removed. With
// all set every entry is removed.
func (c *Cache) Prune(all bool) (int, error) {
	if !c.Enabled() {
		return 0, nil
	}
	removed := 0
	err := c.eachEntry(func(path string, info fs.FileInfo) error {
		if !all && !c.expired(info.ModTime()) {
			return nil
		}
		if err := os.Remove(path); err != nil {
			return err
		}
		removed++
		return nil
	})
	return removed, err
}

func (c *Cache) expired(written time.Time) bool {
	return c.ttl > 0 && time.Since(written) > c.ttl
}

// eachEntry calls fn for every entry file in the cache directory. A
// missing directory has no entries.
func (c *Cache) eachEntry(fn func(path string, info fs.FileInfo) error) error {
	dirEntries, err := os.ReadDir(c.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading cache dir: %w", err)
	}
	for _, de := range dirEntries {
		if de.IsDir() || filepath.Ext(de.Name()) != entryExt {
			continue
		}
		info, err := de.Info()
		if err != nil {
			return err
		}
		if err := fn(filepath.Join(c.dir, de.Name()), info); err != nil {
			return err
		}
	}
	return nil
}
