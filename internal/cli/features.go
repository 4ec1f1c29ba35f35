// internal/cli/features.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arc-language/ffsys/pkg/features"
)

var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "List FFmpeg components and which are enabled",
	Args:  cobra.NoArgs,
	RunE:  runFeatures,
}

func runFeatures(cmd *cobra.Command, args []string) error {
	set, err := features.ParseList(config.Features)
	if err != nil {
		return err
	}

	fmt.Printf("Features:\n")
	for _, f := range features.All() {
		marker := " "
		if set.Has(f) {
			marker = "*"
		}
		fmt.Printf("  %s %-9s lib%-11s %s\n", marker, f, f.Library(), f.Define())
	}
	fmt.Printf("\n* = enabled\n")
	return nil
}
