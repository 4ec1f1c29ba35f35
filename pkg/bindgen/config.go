// pkg/bindgen/config.go
package bindgen

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/arc-language/ffsys/pkg/features"
	"github.com/arc-language/ffsys/pkg/platform"
	"github.com/arc-language/ffsys/pkg/prefix"
)

// DefaultPackage is the Go package name of the generated bindings
const DefaultPackage = "ffmpeg"

// Allow-lists. Only declarations matching one of these are translated.
var (
	AllowedTypes     = []string{"AV.*", "Swr.*", "LIBAV.*"}
	AllowedVars      = []string{"Swr.*", "LIBAV.*", "FF_.*", "AV_.*"}
	AllowedFunctions = []string{"av.*", "swr.*"}
)

// Options holds the optional parts of a Config
type Options struct {
	Package     string
	Target      platform.Target
	IncludeDirs []string // In addition to the prefix include dir
	LDFlags     []string // Emitted as the LDFLAGS cgo flag group
}

// Config describes one binding generation run.
type Config struct {
	Header      string   // Entry-point header
	Output      string   // Parent directory; bindings land in Output/Package
	Package     string
	IncludeDirs []string
	Defines     []string // One per enabled feature
	Types       []string
	Vars        []string
	Functions   []string
	ClangArgs   []string
	LDFlags     []string
	Arch        string
}

// NewConfig builds the generation config for an installation. set must be
// the same feature selection the link plan was derived from.
func NewConfig(p prefix.Prefix, header string, set features.Set, output string, opts *Options) *Config {
	if opts == nil {
		opts = &Options{}
	}
	pkg := opts.Package
	if pkg == "" {
		pkg = DefaultPackage
	}

	includes := []string{p.Include()}
	if dir := filepath.Dir(header); dir != "." {
		includes = append(includes, dir)
	}
	includes = append(includes, opts.IncludeDirs...)

	var clangArgs []string
	if opts.Target == platform.TargetWasm {
		clangArgs = []string{
			"-I/usr/include",
			"-I/usr/include/" + platform.HostArchTriple(),
			"-fvisibility=default",
		}
	}

	return &Config{
		Header:      header,
		Output:      output,
		Package:     pkg,
		IncludeDirs: includes,
		Defines:     set.Defines(),
		Types:       append([]string(nil), AllowedTypes...),
		Vars:        append([]string(nil), AllowedVars...),
		Functions:   append([]string(nil), AllowedFunctions...),
		ClangArgs:   clangArgs,
		LDFlags:     append([]string(nil), opts.LDFlags...),
		Arch:        parserArch(),
	}
}

// Dir returns the directory holding the generated package
func (c *Config) Dir() string {
	return filepath.Join(c.Output, c.Package)
}

// CFlags returns the compiler flags shared by the parser and cgo
func (c *Config) CFlags() []string {
	flags := make([]string, 0, len(c.IncludeDirs)+len(c.Defines)+len(c.ClangArgs))
	for _, dir := range c.IncludeDirs {
		flags = append(flags, "-I"+dir)
	}
	for _, def := range c.Defines {
		flags = append(flags, "-D"+def)
	}
	return append(flags, c.ClangArgs...)
}

func parserArch() string {
	switch runtime.GOARCH {
	case "arm64":
		return "aarch64"
	case "arm":
		return "arm"
	case "386":
		return "i386"
	default:
		return "x86_64"
	}
}

type flagGroup struct {
	Name  string   `yaml:"name"`
	Flags []string `yaml:"flags"`
}

type generatorSection struct {
	PackageName        string      `yaml:"PackageName"`
	PackageDescription string      `yaml:"PackageDescription"`
	PackageLicense     string      `yaml:"PackageLicense,omitempty"`
	Includes           []string    `yaml:"Includes"`
	FlagGroups         []flagGroup `yaml:"FlagGroups"`
}

type parserSection struct {
	Arch         string         `yaml:"Arch"`
	IncludePaths []string       `yaml:"IncludePaths"`
	SourcesPaths []string       `yaml:"SourcesPaths"`
	Defines      map[string]int `yaml:"Defines"`
}

type rule struct {
	Action string `yaml:"action"`
	From   string `yaml:"from"`
}

type translatorSection struct {
	Rules map[string][]rule `yaml:"Rules"`
}

type manifest struct {
	Generator  generatorSection  `yaml:"GENERATOR"`
	Parser     parserSection     `yaml:"PARSER"`
	Translator translatorSection `yaml:"TRANSLATOR"`
}

func acceptRules(patterns []string) []rule {
	rules := make([]rule, len(patterns))
	for i, p := range patterns {
		rules[i] = rule{Action: "accept", From: "^" + p + "$"}
	}
	return rules
}

// Manifest renders the c-for-go manifest for c
func (c *Config) Manifest() ([]byte, error) {
	if c.Header == "" {
		return nil, fmt.Errorf("header is required")
	}

	defines := make(map[string]int, len(c.Defines))
	for _, def := range c.Defines {
		defines[def] = 1
	}

	groups := []flagGroup{{Name: "CFLAGS", Flags: c.CFlags()}}
	if len(c.LDFlags) > 0 {
		groups = append(groups, flagGroup{Name: "LDFLAGS", Flags: c.LDFlags})
	}

	m := manifest{
		Generator: generatorSection{
			PackageName:        c.Package,
			PackageDescription: "FFmpeg bindings (" + strings.Join(c.Defines, ", ") + ")",
			Includes:           []string{filepath.Base(c.Header)},
			FlagGroups:         groups,
		},
		Parser: parserSection{
			Arch:         c.Arch,
			IncludePaths: c.IncludeDirs,
			SourcesPaths: []string{c.Header},
			Defines:      defines,
		},
		Translator: translatorSection{
			Rules: map[string][]rule{
				"type":     acceptRules(c.Types),
				"const":    acceptRules(c.Vars),
				"function": acceptRules(c.Functions),
			},
		},
	}

	data, err := yaml.Marshal(&m)
	if err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}
	return data, nil
}
