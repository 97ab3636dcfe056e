package cmd

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/flanksource/commons/logger"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

var (
	watchDebounce    time.Duration
	watchMinInterval time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch [workspace]",
	Short: "Watch a workspace and run incremental analysis on changes",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		workspace, err := filepath.Abs(workspaceArg(args))
		if err != nil {
			return err
		}

		orch, store, err := newStack()
		if err != nil {
			return err
		}
		defer store.Close()

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return err
		}
		defer watcher.Close()

		if err := watchTree(watcher, workspace); err != nil {
			return err
		}

		logger.Infof("Watching %s for changes", workspace)

		ctx := cmd.Context()
		limiter := rate.NewLimiter(rate.Every(watchMinInterval), 1)

		// Change bursts collapse into one run: each event re-arms the
		// debounce timer, and the limiter spaces successive runs out.
		debounce := time.NewTimer(watchDebounce)
		debounce.Stop()

		for {
			select {
			case <-ctx.Done():
				orch.Cancel()
				return nil

			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if event.Op.Has(fsnotify.Create) {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						_ = watchTree(watcher, event.Name)
					}
				}
				if strings.EqualFold(filepath.Ext(event.Name), ".swift") {
					debounce.Reset(watchDebounce)
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				logger.Warnf("Watcher error: %v", err)

			case <-debounce.C:
				if err := limiter.Wait(ctx); err != nil {
					orch.Cancel()
					return nil
				}

				result, err := orch.AnalyzeChangedFiles(ctx, workspace, analyzeConfig)
				if err != nil {
					logger.Errorf("Incremental analysis failed: %v", err)
					continue
				}
				if !result.Skipped {
					logger.Infof("Analyzed %d changed files, %d violations", result.FilesAnalyzed, len(result.Violations))
					_ = outputManager().Output(result)
				}
			}
		}
	},
}

// watchTree registers root and every non-excluded subdirectory.
func watchTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			logger.Debugf("Cannot watch %s: %v", path, err)
		}
		return nil
	})
}

func init() {
	watchCmd.Flags().StringVar(&analyzeConfig, "config", "", "SwiftLint config path (default is <workspace>/.swiftlint.yml)")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "Quiet period before a change burst triggers analysis")
	watchCmd.Flags().DurationVar(&watchMinInterval, "min-interval", 5*time.Second, "Minimum interval between analysis runs")

	rootCmd.AddCommand(watchCmd)
}
