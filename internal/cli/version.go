// internal/cli/version.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arc-language/ffsys"
	"github.com/arc-language/ffsys/pkg/spack"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ffsys version %s\n", ffsys.Version)
		fmt.Printf("spack %s (%s)\n", spack.DefaultRef, spack.DefaultRepoURL)
		fmt.Println("https://github.com/arc-language/ffsys")
	},
}
