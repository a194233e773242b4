// Command qrtrctl inspects the local QRTR bus: the nodes currently
// published, the services a node exports, and a live feed of directory
// changes. Grounded on the teacher's cmd/pollen status/daemon commands:
// cobra subcommands, a lipgloss table renderer, zap logging via
// pkg/observability/logging.
package main

import (
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/qrtrlink/qrtr-go/pkg/observability/logging"
)

const defaultLookupTimeout = 2 * time.Second

func main() {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "qrtrctl",
		Short: "Inspect the local QRTR bus",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Init(verbose)
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().Duration("timeout", defaultLookupTimeout, "initial lookup timeout")

	rootCmd.AddCommand(newNodesCmd(), newServicesCmd(), newWatchCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
