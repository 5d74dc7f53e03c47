package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "photoacoustic-core",
	Short: "Real-time photoacoustic signal processing server",
	Long: `photoacoustic-core runs a configurable acquisition -> processing graph ->
computing pipeline over a WAV file, a microphone, or a synthetic mock
source, broadcasting frames and intermediate taps to any number of
subscribers without blocking the producer.

Commands:
  - serve: run the acquisition driver, processing graph, and broadcast
    infrastructure as a long-lived daemon
  - bench: drive the pipeline against a mock source for a fixed duration
    and report throughput`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
