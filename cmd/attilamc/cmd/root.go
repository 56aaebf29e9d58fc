// Package cmd provides the command-line interface for attilamc.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "attilamc",
	Short: "attilamc simulates a GDDR3 memory channel controller.",
	Long: `attilamc simulates a GDDR3 memory channel controller driven by ` +
		`a synthetic traffic generator. It checks every read against the ` +
		`data that was written and reports the scheduler, channel, and ` +
		`module counters.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
