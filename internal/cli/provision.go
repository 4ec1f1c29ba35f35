// internal/cli/provision.go
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Install FFmpeg through spack and print its prefix",
	Args:  cobra.NoArgs,
	RunE:  runProvision,
}

func runProvision(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	b, err := newBuilder()
	if err != nil {
		return err
	}

	p, err := b.Provision(ctx)
	if err != nil {
		return err
	}

	session, err := b.Session(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Target:  %s\n", b.Target())
	fmt.Printf("Spack:   %s\n", session.Bin())
	if root := session.Root(); root != "" {
		fmt.Printf("Root:    %s\n", root)
	}
	fmt.Printf("Prefix:  %s\n", p.Path)
	fmt.Printf("Include: %s\n", p.Include())
	fmt.Printf("Lib:     %s\n", p.Lib())
	return nil
}
