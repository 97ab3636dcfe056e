package analysis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/flanksource/commons/logger"
	"github.com/lintdock/lintdock/config"
	"github.com/lintdock/lintdock/linters/swiftlint"
	"github.com/lintdock/lintdock/models"
	"golang.org/x/sync/errgroup"
)

// DefaultBatchSize bounds how many changed files are analyzed per batch,
// which in turn bounds peak subprocess concurrency and memory.
const DefaultBatchSize = 10

// ToolRunner invokes the external analysis tool. Passing files restricts
// the invocation to those paths; otherwise the whole workspace is linted.
type ToolRunner interface {
	Lint(ctx context.Context, configPath, workspace string, files ...string) ([]byte, error)
}

// ViolationStore is the persistence surface the orchestrator commits to.
type ViolationStore interface {
	Store(workspace string, violations []models.Violation) error
	StoreForFiles(workspace string, files []string, violations []models.Violation) error
}

// ChangeTracker decides incremental scope and records analyzed files.
type ChangeTracker interface {
	HasChanged(path string) bool
	RecordAnalyzed(path string) error
}

// SourceWalker streams candidate source files under a workspace root.
type SourceWalker interface {
	Walk(root string, fn func(path string) error) error
}

// Orchestrator coordinates a full or incremental analysis run: it resolves
// the active configuration, drives the tool and parser, commits results, and
// publishes progress. At most one run is in flight per orchestrator;
// starting a new run cancels the previous one and waits for it to unwind.
//
// All collaborators are injected so tests can substitute fakes per-case.
type Orchestrator struct {
	runner    ToolRunner
	store     ViolationStore
	tracker   ChangeTracker
	finder    SourceWalker
	batchSize int

	mu          sync.Mutex
	state       State
	lastOutcome State
	cancel      context.CancelFunc
	done        chan struct{}

	progress atomic.Pointer[Progress]
}

// NewOrchestrator wires an orchestrator from its collaborators.
func NewOrchestrator(runner ToolRunner, store ViolationStore, tracker ChangeTracker, finder SourceWalker) *Orchestrator {
	o := &Orchestrator{
		runner:    runner,
		store:     store,
		tracker:   tracker,
		finder:    finder,
		batchSize: DefaultBatchSize,
		state:     StateIdle,
	}
	o.progress.Store(&Progress{})
	return o
}

// SetBatchSize overrides the incremental batch size. Values below 1 keep
// the default.
func (o *Orchestrator) SetBatchSize(n int) {
	if n >= 1 {
		o.batchSize = n
	}
}

// Progress returns a copy of the latest progress snapshot.
func (o *Orchestrator) Progress() Progress {
	return *o.progress.Load()
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// LastOutcome returns the terminal state of the most recent run, or
// StateIdle when no run has finished yet.
func (o *Orchestrator) LastOutcome() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastOutcome
}

// Cancel stops the in-flight run, if any. Batches already committed stay
// committed.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	cancel := o.cancel
	o.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// begin transitions to running, first cancelling and waiting out any active
// run so two runs never race to write the same workspace's snapshot.
func (o *Orchestrator) begin(ctx context.Context) (context.Context, func(State)) {
	o.mu.Lock()
	for o.state == StateRunning {
		cancel, done := o.cancel, o.done
		o.mu.Unlock()
		cancel()
		<-done
		o.mu.Lock()
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	o.state = StateRunning
	o.cancel = cancel
	o.done = done
	o.mu.Unlock()

	finish := func(outcome State) {
		p := o.Progress()
		p.Running = false
		o.progress.Store(&p)

		o.mu.Lock()
		o.lastOutcome = outcome
		o.state = StateIdle
		o.cancel = nil
		o.mu.Unlock()

		cancel()
		close(done)
	}
	return runCtx, finish
}

func (o *Orchestrator) setProgress(p Progress) {
	o.progress.Store(&p)
}

// Analyze performs a full-workspace run: one tool invocation over the whole
// tree, with the stored snapshot replaced atomically on success.
func (o *Orchestrator) Analyze(ctx context.Context, workspace, configOverride string) (*models.AnalysisResult, error) {
	workspace, err := validateWorkspace(workspace)
	if err != nil {
		return nil, err
	}

	runCtx, finish := o.begin(ctx)
	started := time.Now()
	o.setProgress(Progress{StartedAt: started, Running: true})

	configPath, configHash, err := o.resolveConfig(workspace, configOverride)
	if err != nil {
		finish(StateFailed)
		return nil, err
	}

	raw, err := o.runner.Lint(runCtx, configPath, workspace)
	if err != nil {
		if runCtx.Err() != nil && !errors.Is(err, models.ErrToolTimeout) {
			finish(StateCancelled)
			return nil, runCtx.Err()
		}
		finish(StateFailed)
		return nil, wrapRunError(err)
	}

	violations, err := swiftlint.Parse(raw, workspace)
	if err != nil {
		finish(StateFailed)
		return nil, err
	}
	for i := range violations {
		violations[i].Workspace = workspace
	}

	if err := o.store.Store(workspace, violations); err != nil {
		finish(StateFailed)
		return nil, err
	}

	// Refresh fingerprints so a follow-up incremental run starts from this
	// snapshot. Recording failures only cost a re-analysis later.
	analyzed := 0
	if o.finder != nil && o.tracker != nil {
		_ = o.finder.Walk(workspace, func(path string) error {
			analyzed++
			if err := o.tracker.RecordAnalyzed(path); err != nil {
				logger.Warnf("Failed to record fingerprint for %s: %v", path, err)
			}
			return nil
		})
	}

	o.setProgress(Progress{
		StartedAt:       started,
		FilesProcessed:  analyzed,
		TotalFiles:      analyzed,
		ViolationsFound: len(violations),
		Running:         true,
	})

	finish(StateCompleted)
	return &models.AnalysisResult{
		Workspace:     workspace,
		Violations:    violations,
		FilesAnalyzed: analyzed,
		ConfigPath:    configPath,
		ConfigHash:    configHash,
		Duration:      time.Since(started),
	}, nil
}

// AnalyzeChangedFiles performs an incremental run scoped to the files the
// tracker reports as changed. Files are processed in batches; each batch is
// committed independently, so cancellation keeps completed batches.
func (o *Orchestrator) AnalyzeChangedFiles(ctx context.Context, workspace, configOverride string) (*models.AnalysisResult, error) {
	workspace, err := validateWorkspace(workspace)
	if err != nil {
		return nil, err
	}

	runCtx, finish := o.begin(ctx)
	started := time.Now()
	o.setProgress(Progress{StartedAt: started, Running: true})

	configPath, configHash, err := o.resolveConfig(workspace, configOverride)
	if err != nil {
		finish(StateFailed)
		return nil, err
	}

	var (
		pending    []string
		violations []models.Violation
		processed  int
	)

	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		if err := runCtx.Err(); err != nil {
			return err
		}

		batch := pending
		pending = nil
		batchViolations, err := o.analyzeBatch(runCtx, workspace, configPath, batch)
		if err != nil {
			return err
		}

		violations = append(violations, batchViolations...)
		processed += len(batch)

		for _, path := range batch {
			if err := o.tracker.RecordAnalyzed(path); err != nil {
				logger.Warnf("Failed to record fingerprint for %s: %v", path, err)
			}
		}

		p := o.Progress()
		p.CurrentFile = batch[len(batch)-1]
		p.FilesProcessed = processed
		p.ViolationsFound = len(violations)
		o.setProgress(p)
		return nil
	}

	// Stream the enumeration: changed files are batched and analyzed as the
	// walk discovers them, so the full candidate list is never materialized.
	walkErr := o.finder.Walk(workspace, func(path string) error {
		if err := runCtx.Err(); err != nil {
			return err
		}
		if !o.tracker.HasChanged(path) {
			return nil
		}
		pending = append(pending, path)
		if len(pending) >= o.batchSize {
			return flush()
		}
		return nil
	})
	if walkErr == nil {
		walkErr = flush()
	}

	if walkErr != nil {
		if runCtx.Err() != nil && !errors.Is(walkErr, models.ErrToolTimeout) {
			finish(StateCancelled)
			return nil, walkErr
		}
		finish(StateFailed)
		return nil, wrapRunError(walkErr)
	}

	p := o.Progress()
	p.TotalFiles = processed
	o.setProgress(p)

	finish(StateCompleted)
	return &models.AnalysisResult{
		Workspace:     workspace,
		Violations:    violations,
		FilesAnalyzed: processed,
		ConfigPath:    configPath,
		ConfigHash:    configHash,
		Duration:      time.Since(started),
		Skipped:       processed == 0,
	}, nil
}

// analyzeBatch lints the batch's files in parallel, bounded by the batch
// size, and commits the batch's violations in one transaction.
func (o *Orchestrator) analyzeBatch(ctx context.Context, workspace, configPath string, batch []string) ([]models.Violation, error) {
	var (
		mu         sync.Mutex
		violations []models.Violation
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.batchSize)
	for _, path := range batch {
		g.Go(func() error {
			raw, err := o.runner.Lint(gctx, configPath, workspace, path)
			if err != nil {
				return err
			}

			parsed, err := swiftlint.Parse(raw, workspace)
			if err != nil {
				return err
			}

			mu.Lock()
			violations = append(violations, parsed...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	relPaths := make([]string, len(batch))
	for i, path := range batch {
		rel, err := filepath.Rel(workspace, path)
		if err != nil {
			rel = path
		}
		relPaths[i] = rel
	}
	for i := range violations {
		violations[i].Workspace = workspace
	}

	if err := o.store.StoreForFiles(workspace, relPaths, violations); err != nil {
		return nil, err
	}
	return violations, nil
}

func (o *Orchestrator) resolveConfig(workspace, override string) (string, string, error) {
	configPath, err := config.Resolve(workspace, override)
	if err != nil {
		return "", "", err
	}
	if configPath == "" {
		return "", "", nil
	}

	if err := config.Validate(configPath); err != nil {
		return "", "", err
	}
	hash, err := config.Hash(configPath)
	if err != nil {
		return "", "", err
	}
	return configPath, hash, nil
}

func validateWorkspace(workspace string) (string, error) {
	abs, err := filepath.Abs(workspace)
	if err != nil {
		return "", fmt.Errorf("%w: %s", models.ErrWorkspaceNotFound, workspace)
	}

	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s", models.ErrWorkspaceNotFound, abs)
	}
	return abs, nil
}

// wrapRunError folds untyped causes into the analysis-failed bucket while
// letting already-typed failures pass through.
func wrapRunError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, models.ErrToolNotFound),
		errors.Is(err, models.ErrToolTimeout),
		errors.Is(err, models.ErrInvalidOutput),
		errors.Is(err, models.ErrIOFailure),
		errors.Is(err, models.ErrWorkspaceNotFound),
		errors.Is(err, models.ErrAnalysisFailed):
		return err
	default:
		return fmt.Errorf("%w: %v", models.ErrAnalysisFailed, err)
	}
}
