// pkg/core/config.go
package core

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SpackConfig selects the spack checkout
type SpackConfig struct {
	Root        string `yaml:"root,omitempty"`         // Existing checkout; skips fetching
	Repo        string `yaml:"repo,omitempty"`         // Git URL to clone
	Ref         string `yaml:"ref,omitempty"`          // Tag or branch
	ArchiveURL  string `yaml:"archive_url,omitempty"`  // Release tarball instead of git
	ArchiveHash string `yaml:"archive_hash,omitempty"` // e.g. sha256:...
}

// BindingsConfig controls binding generation
type BindingsConfig struct {
	Output  string `yaml:"output"`
	Package string `yaml:"package"`
}

// LinkConfig controls link plan consumption
type LinkConfig struct {
	Mode   string `yaml:"mode"`             // direct or aggregate
	Output string `yaml:"output,omitempty"` // Aggregate artifact path; default dist/libffmpeg.<ext>
	Linker string `yaml:"linker,omitempty"` // Default: cc, emcc for wasm
}

// Config holds ffsys configuration
type Config struct {
	Target    string         `yaml:"target,omitempty"` // native or wasm
	Features  []string       `yaml:"features,omitempty"`
	CachePath string         `yaml:"cache_path"`
	Spack     SpackConfig    `yaml:"spack"`
	Recipe    string         `yaml:"recipe,omitempty"` // TOML recipe path; empty uses the built-in one
	Header    string         `yaml:"header"`
	Bindings  BindingsConfig `yaml:"bindings"`
	Link      LinkConfig     `yaml:"link"`
	Selection string         `yaml:"selection,omitempty"` // unique or first
	Debug     bool           `yaml:"debug"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	cfg := &Config{
		CachePath: getDefaultCachePath(),
		Header:    filepath.Join("include", "ffmpeg.h"),
		Bindings: BindingsConfig{
			Output:  "bindings",
			Package: "ffmpeg",
		},
		Link: LinkConfig{
			Mode: "direct",
		},
		Selection: "unique",
	}
	cfg.Spack.Root = os.Getenv("FFSYS_SPACK_ROOT")
	return cfg
}

// DefaultConfigPath returns $HOME/.config/ffsys/config.yaml
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "ffsys", "config.yaml"), nil
}

// LoadConfig loads configuration from file. Keys missing from the file keep
// their defaults; a missing file yields DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultConfigPath()
		if err != nil {
			return DefaultConfig(), nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// environment wins over the file
	if p := os.Getenv("FFSYS_CACHE_PATH"); p != "" {
		cfg.CachePath = p
	}
	if p := os.Getenv("FFSYS_SPACK_ROOT"); p != "" {
		cfg.Spack.Root = p
	}

	return cfg, nil
}

// SaveConfig saves configuration to file
func SaveConfig(cfg *Config, path string) error {
	if path == "" {
		p, err := DefaultConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

func getDefaultCachePath() string {
	if path := os.Getenv("FFSYS_CACHE_PATH"); path != "" {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "ffsys")
	}

	return filepath.Join(home, ".cache", "ffsys")
}
