package swiftlint

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/flanksource/commons/logger"
	"github.com/lintdock/lintdock/models"
)

// DefaultTimeout bounds a single SwiftLint invocation. A hung external
// process must never block the orchestrator indefinitely.
const DefaultTimeout = 2 * time.Minute

// CLI invokes the SwiftLint binary as a subprocess. Each invocation is
// independent and stateless, so a single CLI value is safe for concurrent
// use across a batch.
type CLI struct {
	Binary  string
	Timeout time.Duration
}

// New returns a CLI using the swiftlint binary from PATH with the default
// timeout.
func New() *CLI {
	return &CLI{Binary: "swiftlint", Timeout: DefaultTimeout}
}

// Lint runs `swiftlint lint --reporter json` against the workspace (or the
// given files, when any are passed) and returns raw stdout. Empty stdout
// from a clean exit means zero findings, not an error.
func (c *CLI) Lint(ctx context.Context, configPath, workspace string, files ...string) ([]byte, error) {
	args := []string{"lint", "--reporter", "json"}
	if configPath != "" {
		args = append(args, "--config", configPath)
	}
	if len(files) > 0 {
		args = append(args, files...)
	} else {
		args = append(args, workspace)
	}

	return c.run(ctx, workspace, args)
}

// Rules runs `swiftlint rules --format json` and returns raw stdout.
func (c *CLI) Rules(ctx context.Context) ([]byte, error) {
	return c.run(ctx, "", []string{"rules", "--format", "json"})
}

// RuleDescription fetches the documentation for a single rule. Used by the
// enrichment pool, which applies its own per-item timeout.
func (c *CLI) RuleDescription(ctx context.Context, id string) ([]byte, error) {
	return c.run(ctx, "", []string{"rules", id})
}

func (c *CLI) run(ctx context.Context, dir string, args []string) ([]byte, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, c.Binary, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debugf("Executing: %s %s", c.Binary, strings.Join(args, " "))

	err := cmd.Run()
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s %s exceeded %v", models.ErrToolTimeout, c.Binary, args[0], timeout)
		}
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s is not installed or not on PATH", models.ErrToolNotFound, c.Binary)
		}

		// SwiftLint exits non-zero when it reports findings; stdout carrying
		// a payload means the run itself succeeded.
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(bytes.TrimSpace(stdout.Bytes())) > 0 {
			logger.Debugf("%s exited %d with output, treating as findings", c.Binary, exitErr.ExitCode())
			return stdout.Bytes(), nil
		}

		return nil, fmt.Errorf("%w: %s %s: %v: %s",
			models.ErrAnalysisFailed, c.Binary, args[0], err, strings.TrimSpace(stderr.String()))
	}

	return stdout.Bytes(), nil
}
