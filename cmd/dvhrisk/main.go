// Command dvhrisk runs the DVH uncertainty-propagation pipelines from
// the command line: Monte-Carlo OED batches, cross-patient DVH
// sampling and response-model DVH transforms.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "dvhrisk",
		Short:         "Monte-Carlo uncertainty propagation for DVH dose-response analysis",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newProcessCmd(), newSampleCmd(), newApplyCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}
}
