package files

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Directories that never contain analyzable sources: build artifacts,
// package manager caches, and version-control metadata.
var excludedDirs = map[string]bool{
	".git":         true,
	".svn":         true,
	".hg":          true,
	".build":       true,
	".swiftpm":     true,
	"build":        true,
	"DerivedData":  true,
	"Pods":         true,
	"Carthage":     true,
	"node_modules": true,
	"vendor":       true,
}

// Finder enumerates Swift source files under a workspace root.
type Finder struct {
	// Excludes holds additional doublestar patterns matched against
	// workspace-relative paths.
	Excludes []string
}

// Walk streams every Swift source file under root to fn, skipping excluded
// directories. Enumeration stops when fn returns an error; fs.SkipAll stops
// it without error. Streaming keeps memory bounded on very large trees.
func (f *Finder) Walk(root string, fn func(path string) error) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}

		if d.IsDir() {
			if path != root && (excludedDirs[d.Name()] || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.EqualFold(filepath.Ext(path), ".swift") {
			return nil
		}

		if f.excluded(root, path) {
			return nil
		}

		return fn(path)
	})
	if err == fs.SkipAll {
		return nil
	}
	return err
}

// Find materializes the full list of Swift source files under root.
func (f *Finder) Find(root string) ([]string, error) {
	var found []string
	err := f.Walk(root, func(path string) error {
		found = append(found, path)
		return nil
	})
	return found, err
}

func (f *Finder) excluded(root, path string) bool {
	if len(f.Excludes) == 0 {
		return false
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)

	for _, pattern := range f.Excludes {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}
