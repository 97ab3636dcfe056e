package swiftlint

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lintdock/lintdock/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubTool writes an executable shell script standing in for swiftlint.
func stubTool(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "swiftlint")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755))
	return path
}

func TestLint_ToolNotFound(t *testing.T) {
	cli := &CLI{Binary: "lintdock-test-no-such-tool", Timeout: time.Second}

	_, err := cli.Lint(context.Background(), "", t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrToolNotFound))
}

func TestLint_Timeout(t *testing.T) {
	cli := &CLI{Binary: stubTool(t, "sleep 5"), Timeout: 100 * time.Millisecond}

	start := time.Now()
	_, err := cli.Lint(context.Background(), "", t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrToolTimeout))
	assert.Less(t, time.Since(start), 2*time.Second, "the subprocess must be terminated, not waited out")
}

func TestLint_EmptyStdoutIsZeroFindings(t *testing.T) {
	cli := &CLI{Binary: stubTool(t, "exit 0"), Timeout: time.Second}

	raw, err := cli.Lint(context.Background(), "", t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestLint_NonZeroExitWithPayloadIsFindings(t *testing.T) {
	script := `echo '[{"file": "/ws/A.swift", "line": 1, "rule_id": "todo", "severity": "warning", "reason": "x"}]'
exit 2`
	cli := &CLI{Binary: stubTool(t, script), Timeout: time.Second}

	raw, err := cli.Lint(context.Background(), "", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "todo")
}

func TestLint_NonZeroExitWithoutOutputFails(t *testing.T) {
	cli := &CLI{Binary: stubTool(t, "echo 'boom' >&2\nexit 3"), Timeout: time.Second}

	_, err := cli.Lint(context.Background(), "", t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrAnalysisFailed))
	assert.Contains(t, err.Error(), "boom")
}

func TestLint_PassesConfigAndFiles(t *testing.T) {
	cli := &CLI{Binary: stubTool(t, `echo "$@"`), Timeout: time.Second}

	raw, err := cli.Lint(context.Background(), "/cfg/.swiftlint.yml", t.TempDir(), "Sources/A.swift")
	require.NoError(t, err)
	out := string(raw)
	assert.Contains(t, out, "lint --reporter json")
	assert.Contains(t, out, "--config /cfg/.swiftlint.yml")
	assert.Contains(t, out, "Sources/A.swift")
}

func TestRules_InvokesRulesSubcommand(t *testing.T) {
	cli := &CLI{Binary: stubTool(t, `echo "$@"`), Timeout: time.Second}

	raw, err := cli.Rules(context.Background())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "rules --format json")
}
