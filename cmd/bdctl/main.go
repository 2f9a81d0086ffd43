// Bdctl is a control utility for BirdDog NDI converter devices.
//
// It talks to a device's REST API for source routing, mode switching, and
// power control, and to the device's web configuration interface for the
// settings the REST API does not expose. No hardware modification or vendor
// software is required.
//
// Usage:
//
//	bdctl [command] [flags]
//
// See 'bdctl --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/birddog-tools/bdctl/internal/birddog"
	"github.com/birddog-tools/bdctl/internal/logging"
	"github.com/birddog-tools/bdctl/internal/ui"
	"github.com/birddog-tools/bdctl/internal/version"
)

func main() {
	if err := logging.InitializeFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
	}
	defer logging.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.RenderError(birddog.ShortMessage(err)))
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "bdctl",
	Short: "BirdDog NDI Converter Control Utility",
	Long: `A standalone utility for controlling BirdDog NDI converter devices.

Provides source routing, encode/decode mode switching, video output and
analog audio configuration, and device power control over the network.

Set BDCTL_LOG_LEVEL=debug to see the HTTP traffic.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("bdctl %s\n", version.Full())
	},
}
