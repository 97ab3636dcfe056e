package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var getVersionInfo func() (version, commit, date string)

// SetVersionInfo is called by main to inject build-time version metadata.
func SetVersionInfo(fn func() (string, string, string)) {
	getVersionInfo = fn
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		printVersion()
	},
}

func printVersion() {
	if getVersionInfo == nil {
		fmt.Println("lintdock version dev")
		return
	}
	version, commit, date := getVersionInfo()
	fmt.Printf("lintdock version %s (commit: %s, built: %s)\n", version, commit, date)
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
