// internal/cli/bindgen.go
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arc-language/ffsys"
)

var bindgenCheck bool

var bindgenCmd = &cobra.Command{
	Use:   "bindgen",
	Short: "Generate Go bindings for the selected features",
	Long: `Generate Go bindings with c-for-go for the installed FFmpeg.

With --check nothing is written; the command fails if the bindings on disk
differ from freshly generated ones and prints the difference.`,
	Args: cobra.NoArgs,
	RunE: runBindgen,
}

func init() {
	bindgenCmd.Flags().BoolVar(&bindgenCheck, "check", false, "verify the bindings are up to date instead of writing them")
}

func runBindgen(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	b, err := newBuilder()
	if err != nil {
		return err
	}

	p, err := b.Provision(ctx)
	if err != nil {
		return err
	}
	plan, err := b.Plan(p)
	if err != nil {
		return err
	}
	flags := b.BindingFlags(plan)

	if bindgenCheck {
		diff, err := b.CheckBindings(ctx, p, flags)
		if err != nil {
			return err
		}
		if diff != "" {
			fmt.Print(diff)
			return fmt.Errorf("%w: bindings are out of date", ffsys.ErrBindings)
		}
		fmt.Println("✓ Bindings are up to date")
		return nil
	}

	dir, err := b.Bindings(ctx, p, flags)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Bindings written to %s\n", dir)
	return nil
}
