// pkg/bindgen/generate.go
package bindgen

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/arc-language/ffsys/pkg/platform"
)

// Generator turns a Config into Go bindings under outDir.
type Generator interface {
	Generate(ctx context.Context, cfg *Config, outDir string) error
}

// Runner executes the generator binary and returns its combined output
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// CForGo drives the external c-for-go generator.
type CForGo struct {
	Bin    string // Default: c-for-go
	Run    Runner // Default: os/exec
	Logger *log.Logger
}

// Generate writes the manifest to a temporary directory and runs c-for-go
// once. The package is written to outDir/<cfg.Package>.
func (g CForGo) Generate(ctx context.Context, cfg *Config, outDir string) error {
	bin := g.Bin
	if bin == "" {
		bin = "c-for-go"
	}
	run := g.Run
	if run == nil {
		if !platform.CommandExists(bin) {
			return fmt.Errorf("%s not found in PATH (go install github.com/xlab/c-for-go@latest)", bin)
		}
		run = execRunner
	}
	logger := g.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	data, err := cfg.Manifest()
	if err != nil {
		return err
	}

	tmp, err := os.MkdirTemp("", "ffsys-bindgen-*")
	if err != nil {
		return fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	manifestPath := filepath.Join(tmp, cfg.Package+".yml")
	if err := os.WriteFile(manifestPath, data, 0644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	args := []string{"-nostamp", "-out", outDir, manifestPath}
	logger.Printf("Running: %s %s", bin, strings.Join(args, " "))
	if out, err := run(ctx, bin, args...); err != nil {
		logger.Printf("❌ %s failed", bin)
		return fmt.Errorf("%s failed: %w: %s", bin, err, strings.TrimSpace(string(out)))
	}

	logger.Printf("✓ Generated bindings in %s", filepath.Join(outDir, cfg.Package))
	return nil
}

// Generate runs gen into cfg.Output
func Generate(ctx context.Context, gen Generator, cfg *Config) error {
	if cfg.Output == "" {
		return fmt.Errorf("bindings output directory is required")
	}
	return gen.Generate(ctx, cfg, cfg.Output)
}
