// internal/cli/link.go
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arc-language/ffsys/pkg/link"
)

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Print the link directives for the selected features",
	Long: `Provision FFmpeg and print the directives needed to link the selected
libraries. In aggregate mode the libraries are first linked into the single
configured artifact.`,
	Args: cobra.NoArgs,
	RunE: runLink,
}

func runLink(cmd *cobra.Command, args []string) error {
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

	if plan.Mode == link.ModeAggregate {
		lib, err := b.Aggregate(ctx, plan)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Linked %d libraries into %s\n", len(plan.Libs), lib.Path)
	}

	for _, obj := range plan.Objects {
		fmt.Printf("  %s\n", obj)
	}
	fmt.Println(strings.Join(b.BindingFlags(plan), " "))
	return nil
}
