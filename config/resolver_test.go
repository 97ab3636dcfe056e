package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/lintdock/lintdock/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_OverrideWins(t *testing.T) {
	workspace := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(workspace, DefaultName), []byte("a: 1\n"), 0644))

	override := filepath.Join(t.TempDir(), "custom.yml")
	require.NoError(t, os.WriteFile(override, []byte("b: 2\n"), 0644))

	got, err := Resolve(workspace, override)
	require.NoError(t, err)
	assert.Equal(t, override, got)
}

func TestResolve_MissingOverrideFails(t *testing.T) {
	_, err := Resolve(t.TempDir(), filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrIOFailure))
}

func TestResolve_WorkspaceBoundDefault(t *testing.T) {
	workspace := t.TempDir()
	bound := filepath.Join(workspace, DefaultName)
	require.NoError(t, os.WriteFile(bound, []byte("a: 1\n"), 0644))

	got, err := Resolve(workspace, "")
	require.NoError(t, err)
	assert.Equal(t, bound, got)
}

func TestResolve_NoneIsNotAnError(t *testing.T) {
	got, err := Resolve(t.TempDir(), "")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()

	valid := filepath.Join(dir, "valid.yml")
	require.NoError(t, os.WriteFile(valid, []byte("line_length: 140\ndisabled_rules:\n  - todo\n"), 0644))
	assert.NoError(t, Validate(valid))

	invalid := filepath.Join(dir, "invalid.yml")
	require.NoError(t, os.WriteFile(invalid, []byte(":\n\t- not yaml"), 0644))
	err := Validate(invalid)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidOutput))
}

func TestHash(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultName)
	require.NoError(t, os.WriteFile(path, []byte("line_length: 140\n"), 0644))

	first, err := Hash(path)
	require.NoError(t, err)
	again, err := Hash(path)
	require.NoError(t, err)
	assert.Equal(t, first, again, "hash is stable for identical content")

	require.NoError(t, os.WriteFile(path, []byte("line_length: 100\n"), 0644))
	changed, err := Hash(path)
	require.NoError(t, err)
	assert.NotEqual(t, first, changed)

	empty, err := Hash("")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
