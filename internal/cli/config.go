package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arc-language/ffsys/pkg/core"
	"github.com/arc-language/ffsys/pkg/platform"
)

var forceConfig bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the ffsys configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the current configuration to the config file",
	Long: `Write the current configuration, including --native/--wasm,
--features and --recipe, to the config file so later runs need no flags.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

func init() {
	configInitCmd.Flags().BoolVar(&forceConfig, "force", false, "overwrite an existing config file")
	configCmd.AddCommand(configInitCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if path == "" {
		p, err := core.DefaultConfigPath()
		if err != nil {
			return fmt.Errorf("locating config file: %w", err)
		}
		path = p
	}
	if _, err := os.Stat(path); err == nil && !forceConfig {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	cfg := *config
	if native || wasm {
		target, err := platform.SelectTarget(native, wasm)
		if err != nil {
			return err
		}
		cfg.Target = string(target)
	}
	if err := core.SaveConfig(&cfg, path); err != nil {
		return err
	}
	fmt.Printf("✓ Wrote %s\n", path)
	return nil
}
