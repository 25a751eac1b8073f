// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "contrib-tally",
	Short: "A CLI tool to attribute commit contributions across repositories.",
	Long: `contrib-tally aggregates per-contributor commit counts for a primary
project and its satellite projects over a release window of the primary
project. Satellite activity is credited to whichever primary release
window directly follows it; bot committers are counted separately.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Add a persistent flag for verbose output, available to all commands.
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
}

// commandLogger builds the progress logger: silent by default, standard
// error when --verbose is set.
func commandLogger(cmd *cobra.Command) *log.Logger {
	verbose, _ := cmd.InheritedFlags().GetBool("verbose")
	logger := log.New(io.Discard, "", log.LstdFlags)
	if verbose {
		logger.SetOutput(os.Stderr)
	}
	return logger
}
