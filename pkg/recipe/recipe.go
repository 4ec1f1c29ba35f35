// pkg/recipe/recipe.go
package recipe

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed default.toml
var defaultRecipe string

// Placeholders substituted into cross templates
const (
	ToolchainPlaceholder = "{toolchain}"
	CompilerPlaceholder  = "{compiler}"
)

// Recipe holds the spack specs that provision one library.
type Recipe struct {
	Name   string `toml:"name"`
	Native Native `toml:"native"`
	Cross  Cross  `toml:"cross"`
}

// Native is the spec installed directly with the host compiler
type Native struct {
	Target string `toml:"target"`
}

// Cross describes the toolchain bootstrap for cross-compilation.
type Cross struct {
	Toolchain       string `toml:"toolchain"`
	CompilerInstall string `toml:"compiler_install"` // must contain {toolchain}
	CompilerFind    string `toml:"compiler_find"`
	CompilerName    string `toml:"compiler_name"` // expected prefix of the discovered compiler spec
	Target          string `toml:"target"`        // must contain {compiler}
}

// Default returns the built-in FFmpeg recipe
func Default() *Recipe {
	r, err := Parse(defaultRecipe)
	if err != nil {
		panic(fmt.Sprintf("recipe: built-in recipe is invalid: %v", err))
	}
	return r
}

// Load reads a recipe file. An empty path yields the built-in recipe.
func Load(path string) (*Recipe, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("recipe: reading %s: %w", path, err)
	}

	r, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("recipe: %s: %w", path, err)
	}
	return r, nil
}

// Parse decodes and validates a recipe
func Parse(data string) (*Recipe, error) {
	var r Recipe
	md, err := toml.Decode(data, &r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown keys: %v", undecoded)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Validate checks that every spec needed by both pipelines is present
func (r *Recipe) Validate() error {
	missing := []string{}
	for key, val := range map[string]string{
		"native.target":          r.Native.Target,
		"cross.toolchain":        r.Cross.Toolchain,
		"cross.compiler_install": r.Cross.CompilerInstall,
		"cross.compiler_find":    r.Cross.CompilerFind,
		"cross.compiler_name":    r.Cross.CompilerName,
		"cross.target":           r.Cross.Target,
	} {
		if strings.TrimSpace(val) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("missing required keys: %s", strings.Join(missing, ", "))
	}
	if !strings.Contains(r.Cross.CompilerInstall, ToolchainPlaceholder) {
		return fmt.Errorf("cross.compiler_install must reference %s", ToolchainPlaceholder)
	}
	if !strings.Contains(r.Cross.Target, CompilerPlaceholder) {
		return fmt.Errorf("cross.target must reference %s", CompilerPlaceholder)
	}
	return nil
}

// CompilerInstallSpec renders the compiler install spec pinned to a toolchain
func (c Cross) CompilerInstallSpec(toolchain string) string {
	return strings.ReplaceAll(c.CompilerInstall, ToolchainPlaceholder, toolchain)
}

// TargetSpec renders the cross target spec built with compiler
func (c Cross) TargetSpec(compiler string) string {
	return strings.ReplaceAll(c.Target, CompilerPlaceholder, compiler)
}
