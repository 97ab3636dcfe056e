package cmd

import (
	"fmt"
	"os"

	"github.com/flanksource/clicky"
	"github.com/flanksource/commons/logger"
	"github.com/lintdock/lintdock/output"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile     string
	jsonOutput  bool
	compact     bool
	showVersion bool
)

var rootCmd = &cobra.Command{
	Use:   "lintdock",
	Short: "SwiftLint analysis manager with persistent violation tracking",
	Long: `lintdock runs SwiftLint against a workspace, stores the resulting
violations in an embedded database, and tracks file changes so repeat runs
only analyze what changed.

Violations can be queried, suppressed with an audit reason, and resolved
without re-running the analysis.`,
	Run: func(cmd *cobra.Command, args []string) {
		if showVersion {
			printVersion()
			return
		}
		cmd.Help()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Flush any background clicky tasks before exiting.
	if exitCode := clicky.WaitForGlobalCompletion(); exitCode != 0 {
		os.Exit(exitCode)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "config file (default is $HOME/.lintdock.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "Format output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&compact, "compact", "c", false, "Compact output showing summary only")
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Print version information")

	logger.BindFlags(rootCmd.PersistentFlags())
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".lintdock")
	}

	viper.SetEnvPrefix("LINTDOCK")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		logger.Infof("Using config file: %s", viper.ConfigFileUsed())
	}
}

func outputManager() *output.Manager {
	format := "table"
	if jsonOutput {
		format = "json"
	}
	m := output.NewManager(format)
	m.SetCompact(compact)
	return m
}

// workspaceArg resolves the positional workspace argument, defaulting to the
// current directory.
func workspaceArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}
