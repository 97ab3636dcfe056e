package cmd

import (
	"fmt"
	"time"

	"github.com/flanksource/clicky"
	"github.com/flanksource/clicky/task"
	commonsContext "github.com/flanksource/commons/context"
	"github.com/lintdock/lintdock/analysis"
	"github.com/lintdock/lintdock/internal/cache"
	"github.com/lintdock/lintdock/internal/files"
	"github.com/lintdock/lintdock/internal/tracker"
	"github.com/lintdock/lintdock/linters/swiftlint"
	"github.com/lintdock/lintdock/models"
	"github.com/spf13/cobra"
)

var (
	analyzeConfig      string
	analyzeIncremental bool
	analyzeBatchSize   int
	analyzeTimeout     time.Duration
	analyzeExcludes    []string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [workspace]",
	Short: "Run SwiftLint against a workspace and store the violations",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		workspace := workspaceArg(args)

		orch, store, err := newStack()
		if err != nil {
			return err
		}
		defer store.Close()

		name := fmt.Sprintf("Analyzing %s", workspace)
		if analyzeIncremental {
			name = fmt.Sprintf("Analyzing changed files in %s", workspace)
		}

		t := clicky.StartTask[*models.AnalysisResult](name, func(ctx commonsContext.Context, t *task.Task) (*models.AnalysisResult, error) {
			if analyzeIncremental {
				return orch.AnalyzeChangedFiles(cmd.Context(), workspace, analyzeConfig)
			}
			return orch.Analyze(cmd.Context(), workspace, analyzeConfig)
		})

		result, err := t.GetResult()
		if err != nil {
			t.Task.SetName(fmt.Sprintf("%s (failed)", workspace))
			t.Task.Failed()
			return err
		}

		if len(result.Violations) > 0 {
			t.Task.SetName(fmt.Sprintf("%s (%d violations)", workspace, len(result.Violations)))
			t.Task.Warning()
		} else {
			t.Task.SetName(workspace)
			t.Task.Success()
		}

		return outputManager().Output(result)
	},
}

// newStack wires the orchestrator with its production collaborators.
func newStack() (*analysis.Orchestrator, *cache.ViolationStore, error) {
	store, err := cache.OpenDefaultStore()
	if err != nil {
		return nil, nil, err
	}

	cachePath, err := tracker.DefaultCachePath()
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	cli := swiftlint.New()
	if analyzeTimeout > 0 {
		cli.Timeout = analyzeTimeout
	}

	orch := analysis.NewOrchestrator(
		cli,
		store,
		tracker.New(cachePath),
		&files.Finder{Excludes: analyzeExcludes},
	)
	orch.SetBatchSize(analyzeBatchSize)
	return orch, store, nil
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeConfig, "config", "", "SwiftLint config path (default is <workspace>/.swiftlint.yml)")
	analyzeCmd.Flags().BoolVarP(&analyzeIncremental, "incremental", "i", false, "Only analyze files changed since the last run")
	analyzeCmd.Flags().IntVar(&analyzeBatchSize, "batch-size", analysis.DefaultBatchSize, "Changed files analyzed per batch")
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", swiftlint.DefaultTimeout, "Wall-clock timeout per SwiftLint invocation")
	analyzeCmd.Flags().StringSliceVar(&analyzeExcludes, "exclude", nil, "Additional glob patterns to exclude (workspace-relative)")

	rootCmd.AddCommand(analyzeCmd)
}
