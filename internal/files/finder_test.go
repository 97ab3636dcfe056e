package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, root string, rel string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("let x = 1\n"), 0644))
}

func relAll(t *testing.T, root string, paths []string) []string {
	t.Helper()
	out := make([]string, len(paths))
	for i, p := range paths {
		rel, err := filepath.Rel(root, p)
		require.NoError(t, err)
		out[i] = filepath.ToSlash(rel)
	}
	return out
}

func TestFind_OnlySwiftSources(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "Sources/A.swift")
	touch(t, root, "Sources/B.SWIFT")
	touch(t, root, "README.md")
	touch(t, root, "Makefile")

	finder := &Finder{}
	found, err := finder.Find(root)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Sources/A.swift", "Sources/B.SWIFT"}, relAll(t, root, found))
}

func TestFind_SkipsBuildAndDependencyDirs(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "Sources/A.swift")
	touch(t, root, ".build/Generated.swift")
	touch(t, root, "Pods/Dep/Dep.swift")
	touch(t, root, "Carthage/Checkouts/X.swift")
	touch(t, root, "DerivedData/Y.swift")
	touch(t, root, ".git/hooks/Z.swift")
	touch(t, root, ".hidden/W.swift")

	finder := &Finder{}
	found, err := finder.Find(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sources/A.swift"}, relAll(t, root, found))
}

func TestFind_AppliesExcludePatterns(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "Sources/A.swift")
	touch(t, root, "Sources/Generated/G.swift")
	touch(t, root, "Tests/T.swift")

	finder := &Finder{Excludes: []string{"**/Generated/**", "Tests/**"}}
	found, err := finder.Find(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sources/A.swift"}, relAll(t, root, found))
}

func TestWalk_StopsOnCallbackError(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "Sources/A.swift")
	touch(t, root, "Sources/B.swift")

	finder := &Finder{}
	seen := 0
	err := finder.Walk(root, func(path string) error {
		seen++
		return os.ErrClosed
	})
	require.ErrorIs(t, err, os.ErrClosed)
	assert.Equal(t, 1, seen)
}
