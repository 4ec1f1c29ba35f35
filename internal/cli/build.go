// internal/cli/build.go
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Provision FFmpeg, derive the link plan and generate bindings",
	Long: `Run the whole pipeline for one target.

Examples:
  ffsys build --native
  ffsys build --native --features codec,format,util
  ffsys build --wasm --features util`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	b, err := newBuilder()
	if err != nil {
		return err
	}

	fmt.Printf("Building FFmpeg for %s (%s)...\n", b.Target(), b.Features())
	res, err := b.Build(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("✓ Installed at %s\n", res.Prefix.Path)
	if res.Aggregate != nil {
		fmt.Printf("✓ Linked %s\n", res.Aggregate.Path)
	} else {
		fmt.Printf("✓ %s\n", res.Plan.CgoLDFlags())
	}
	fmt.Printf("✓ Bindings written to %s\n", res.Bindings)
	return nil
}
