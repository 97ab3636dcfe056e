package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/lintdock/lintdock/internal/cache"
	"github.com/lintdock/lintdock/models"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var (
	filterRules      []string
	filterFiles      []string
	filterSeverities []string
	filterSuppressed bool
	filterSince      time.Duration
	countOnly        bool
)

var violationsCmd = &cobra.Command{
	Use:   "violations [workspace]",
	Short: "Query stored violations for a workspace",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		workspace, err := filepath.Abs(workspaceArg(args))
		if err != nil {
			return err
		}

		store, err := cache.OpenDefaultStore()
		if err != nil {
			return err
		}
		defer store.Close()

		filter := models.ViolationFilter{
			Rules:          filterRules,
			Files:          filterFiles,
			Severities:     lo.Map(filterSeverities, func(s string, _ int) models.Severity { return models.ParseSeverity(s) }),
			SuppressedOnly: filterSuppressed,
		}
		if filterSince > 0 {
			filter.DetectedAfter = time.Now().Add(-filterSince)
		}

		if countOnly {
			count, err := store.Count(workspace, filter)
			if err != nil {
				return err
			}
			fmt.Println(count)
			return nil
		}

		violations, err := store.Fetch(workspace, filter)
		if err != nil {
			return err
		}
		return outputManager().PrintViolations(violations)
	},
}

var purgeCmd = &cobra.Command{
	Use:   "purge [workspace]",
	Short: "Remove every stored violation for a workspace",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		workspace, err := filepath.Abs(workspaceArg(args))
		if err != nil {
			return err
		}

		store, err := cache.OpenDefaultStore()
		if err != nil {
			return err
		}
		defer store.Close()

		return store.DeleteAll(workspace)
	},
}

var suppressReason string

var suppressCmd = &cobra.Command{
	Use:   "suppress <id>...",
	Short: "Suppress violations by id with an audit reason",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := cache.OpenDefaultStore()
		if err != nil {
			return err
		}
		defer store.Close()

		return store.Suppress(args, suppressReason)
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <id>...",
	Short: "Mark violations resolved by id",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := cache.OpenDefaultStore()
		if err != nil {
			return err
		}
		defer store.Close()

		return store.Resolve(args)
	},
}

func init() {
	violationsCmd.Flags().StringSliceVar(&filterRules, "rule", nil, "Filter by rule identifier")
	violationsCmd.Flags().StringSliceVar(&filterFiles, "file", nil, "Filter by workspace-relative file path")
	violationsCmd.Flags().StringSliceVar(&filterSeverities, "severity", nil, "Filter by severity (warning, error)")
	violationsCmd.Flags().BoolVar(&filterSuppressed, "suppressed", false, "Only show suppressed violations")
	violationsCmd.Flags().DurationVar(&filterSince, "since", 0, "Only show violations detected within this duration")
	violationsCmd.Flags().BoolVar(&countOnly, "count", false, "Print only the matching count")

	suppressCmd.Flags().StringVar(&suppressReason, "reason", "", "Audit reason for the suppression")
	suppressCmd.MarkFlagRequired("reason")

	violationsCmd.AddCommand(purgeCmd)
	rootCmd.AddCommand(violationsCmd)
	rootCmd.AddCommand(suppressCmd)
	rootCmd.AddCommand(resolveCmd)
}
