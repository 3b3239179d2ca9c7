// =============================================================================
// Sales Order Aggregator - Version Command
// =============================================================================
//
// COMMAND USAGE:
//   orders version
//
// OUTPUT:
//   Sales Order Aggregator
//   Version:    0.3.0
//   Build Date: unknown
//   Go Version: go1.24.11
//
// =============================================================================

package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Set at build time:
//   go build -ldflags "-X '<module>/cmd.Version=0.3.0' -X '<module>/cmd.BuildDate=2026-10-17'"
var (
	Version   = "0.3.0"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display the application version",
	Long:  `Display the application version, build date, and Go runtime version.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Sales Order Aggregator")
		fmt.Fprintf(out, "Version:    %s\n", Version)
		fmt.Fprintf(out, "Build Date: %s\n", BuildDate)
		fmt.Fprintf(out, "Go Version: %s\n", runtime.Version())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
