package tracker

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/flanksource/commons/logger"
	"github.com/lintdock/lintdock/models"
)

// Fingerprint is the (mtime, size) identity of a file as of its last
// analysis. Content is deliberately not hashed: a file whose content changes
// while mtime and size collide will not be flagged.
type Fingerprint struct {
	LastModified time.Time `json:"lastModified"`
	FileSize     int64     `json:"fileSize"`
}

// Tracker decides which files changed since they were last analyzed. It is
// the sole writer of the fingerprint cache file; all access is serialized
// internally.
type Tracker struct {
	mu        sync.Mutex
	cachePath string
	entries   map[string]Fingerprint
}

// New creates a tracker backed by the JSON cache file at cachePath. A
// missing or corrupt cache is treated as a cold start; entries for files
// that no longer exist are pruned on load.
func New(cachePath string) *Tracker {
	t := &Tracker{
		cachePath: cachePath,
		entries:   make(map[string]Fingerprint),
	}
	t.load()
	return t
}

// DefaultCachePath returns the per-installation fingerprint cache location.
func DefaultCachePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("%w: resolve home directory: %v", models.ErrIOFailure, err)
	}
	return filepath.Join(homeDir, ".cache", "lintdock", "fingerprints.json"), nil
}

func (t *Tracker) load() {
	data, err := os.ReadFile(t.cachePath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warnf("Failed to read fingerprint cache %s: %v", t.cachePath, err)
		}
		return
	}

	var entries map[string]Fingerprint
	if err := json.Unmarshal(data, &entries); err != nil {
		logger.Warnf("Corrupt fingerprint cache %s, starting cold: %v", t.cachePath, err)
		return
	}

	for path, fp := range entries {
		if _, err := os.Stat(path); err != nil {
			continue // file is gone, drop its fingerprint
		}
		t.entries[path] = fp
	}
}

// persist writes the cache back to disk. Failure to persist is logged and
// never fatal; the worst case is re-analyzing unchanged files next run.
// Callers must hold t.mu.
func (t *Tracker) persist() {
	data, err := json.MarshalIndent(t.entries, "", "  ")
	if err != nil {
		logger.Warnf("Failed to encode fingerprint cache: %v", err)
		return
	}

	if err := os.MkdirAll(filepath.Dir(t.cachePath), 0755); err != nil {
		logger.Warnf("Failed to create fingerprint cache directory: %v", err)
		return
	}
	if err := os.WriteFile(t.cachePath, data, 0644); err != nil {
		logger.Warnf("Failed to write fingerprint cache %s: %v", t.cachePath, err)
	}
}

// HasChanged reports whether path differs from its recorded fingerprint.
// Unknown files and files whose attributes cannot be read are always
// "changed" — the tracker fails open toward re-analysis.
func (t *Tracker) HasChanged(path string) bool {
	t.mu.Lock()
	fp, ok := t.entries[path]
	t.mu.Unlock()
	if !ok {
		return true
	}

	info, err := os.Stat(path)
	if err != nil {
		return true
	}

	return !info.ModTime().Equal(fp.LastModified) || info.Size() != fp.FileSize
}

// RecordAnalyzed stores the current fingerprint of path after a successful
// analysis.
func (t *Tracker) RecordAnalyzed(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: stat %s: %v", models.ErrIOFailure, path, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[path] = Fingerprint{
		LastModified: info.ModTime(),
		FileSize:     info.Size(),
	}
	t.persist()
	return nil
}

// ChangedFiles filters the candidate set down to the files that changed
// since last recorded, preserving order.
func (t *Tracker) ChangedFiles(candidates []string) []string {
	var changed []string
	for _, path := range candidates {
		if t.HasChanged(path) {
			changed = append(changed, path)
		}
	}
	return changed
}

// Untrack drops the fingerprint for a deleted file.
func (t *Tracker) Untrack(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.entries[path]; !ok {
		return
	}
	delete(t.entries, path)
	t.persist()
}
