// internal/cli/root.go
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arc-language/ffsys"
	"github.com/arc-language/ffsys/pkg/core"
	"github.com/arc-language/ffsys/pkg/platform"
	"github.com/arc-language/ffsys/pkg/spack"
)

var (
	cfgFile      string
	debug        bool
	verbose      bool
	native       bool
	wasm         bool
	featureFlags []string
	recipeFile   string
	config       *core.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "ffsys",
	Short: "FFmpeg provisioning and binding generator",
	Long: `ffsys - FFmpeg provisioning and binding generator

Installs FFmpeg through spack for the host or for WebAssembly, derives the
link directives for the selected libraries, and generates Go bindings for
exactly the same selection.`,
	Version:       ffsys.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute executes the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/ffsys/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "pass --verbose to spack install")
	rootCmd.PersistentFlags().BoolVar(&native, "native", false, "build for the host")
	rootCmd.PersistentFlags().BoolVar(&wasm, "wasm", false, "cross-build for WebAssembly with emscripten")
	rootCmd.PersistentFlags().StringSliceVar(&featureFlags, "features", nil, "FFmpeg components to enable (default: all)")
	rootCmd.PersistentFlags().StringVar(&recipeFile, "recipe", "", "TOML recipe with the spack specs to use")
	rootCmd.MarkFlagsMutuallyExclusive("native", "wasm")

	// Add commands
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(provisionCmd)
	rootCmd.AddCommand(linkCmd)
	rootCmd.AddCommand(bindgenCmd)
	rootCmd.AddCommand(featuresCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
}

func initConfig() {
	var err error
	config, err = core.LoadConfig(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		config = core.DefaultConfig()
	}

	// Override config with flags
	if len(featureFlags) > 0 {
		config.Features = featureFlags
	}
	if recipeFile != "" {
		config.Recipe = recipeFile
	}
	if debug {
		config.Debug = true
	}
}

// newBuilder builds from the loaded config. --native/--wasm win over the
// target key; with neither flag the config must name a target.
func newBuilder() (*ffsys.Builder, error) {
	opts := &ffsys.Options{
		Config:  config,
		UsePath: true,
	}
	if native || wasm {
		target, err := platform.SelectTarget(native, wasm)
		if err != nil {
			return nil, err
		}
		opts.Target = target
	} else if config.Target == "" {
		return nil, fmt.Errorf("select a target with --native or --wasm")
	}
	if verbose {
		opts.Verbosity = spack.Verbose
	}
	return ffsys.NewBuilder(opts)
}
