package cmd

import (
	"time"

	"github.com/flanksource/clicky"
	"github.com/flanksource/clicky/task"
	commonsContext "github.com/flanksource/commons/context"
	"github.com/lintdock/lintdock/analysis"
	"github.com/lintdock/lintdock/linters/swiftlint"
	"github.com/lintdock/lintdock/models"
	"github.com/spf13/cobra"
)

var (
	rulesDetails bool
	rulesTimeout time.Duration
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the rules SwiftLint knows about",
	RunE: func(cmd *cobra.Command, args []string) error {
		cli := swiftlint.New()

		t := clicky.StartTask[[]models.Rule]("Fetching rules", func(ctx commonsContext.Context, t *task.Task) ([]models.Rule, error) {
			raw, err := cli.Rules(cmd.Context())
			if err != nil {
				return nil, err
			}

			rules, err := swiftlint.ParseRules(raw)
			if err != nil {
				return nil, err
			}

			if rulesDetails {
				rules = analysis.EnrichRules(cmd.Context(), rules, cli, rulesTimeout, analysis.DefaultEnrichWorkers)
			}
			return rules, nil
		})

		rules, err := t.GetResult()
		if err != nil {
			t.Task.Failed()
			return err
		}
		t.Task.Success()

		return outputManager().PrintRules(rules)
	},
}

func init() {
	rulesCmd.Flags().BoolVar(&rulesDetails, "details", false, "Fetch each rule's documentation (best effort)")
	rulesCmd.Flags().DurationVar(&rulesTimeout, "detail-timeout", analysis.DefaultEnrichTimeout, "Per-rule timeout for detail fetches")

	rootCmd.AddCommand(rulesCmd)
}
