// pkg/spack/compiler.go
package spack

import (
	"bufio"
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed find_compilers.py
var findCompilersScript string

// compilerPathsEnv carries the search paths into the embedded script
const compilerPathsEnv = "FFSYS_COMPILER_PATHS"

// CompilerPaths holds the executables of one compiler toolchain
type CompilerPaths struct {
	CC  string `yaml:"cc"`
	CXX string `yaml:"cxx"`
	F77 string `yaml:"f77"`
	FC  string `yaml:"fc"`
}

// CompilerDescriptor is one entry of spack's compilers.yaml
type CompilerDescriptor struct {
	Spec            string            `yaml:"spec"`
	Paths           CompilerPaths     `yaml:"paths"`
	Flags           map[string]string `yaml:"flags,omitempty"`
	OperatingSystem string            `yaml:"operating_system"`
	Target          string            `yaml:"target"`
	Modules         []string          `yaml:"modules"`
	Environment     map[string]any    `yaml:"environment,omitempty"`
	ExtraRpaths     []string          `yaml:"extra_rpaths,omitempty"`
}

// SpecString returns the compiler spec, e.g. "emscripten@3.1.10", suitable
// for use after '%' in a package spec.
func (c CompilerDescriptor) SpecString() string {
	return strings.TrimSpace(c.Spec)
}

type compilersFile struct {
	Compilers []struct {
		Compiler CompilerDescriptor `yaml:"compiler"`
	} `yaml:"compilers"`
}

// parseCompilersYAML decodes compilers.yaml-shaped output
func parseCompilersYAML(data []byte) ([]CompilerDescriptor, error) {
	var file compilersFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing compilers yaml: %w", err)
	}
	descs := make([]CompilerDescriptor, 0, len(file.Compilers))
	for _, entry := range file.Compilers {
		if entry.Compiler.Spec == "" {
			return nil, fmt.Errorf("compiler entry without spec")
		}
		descs = append(descs, entry.Compiler)
	}
	return descs, nil
}

// CompilerFind registers compilers found under Paths in spack's persistent
// configuration.
type CompilerFind struct {
	Spack *Invocation
	Paths []string
}

func (c CompilerFind) String() string {
	return "compiler find " + strings.Join(c.Paths, " ")
}

// CompilerFind runs `spack compiler find` and returns the specs of newly
// added compilers. Compilers that were already registered are not reported;
// finding nothing new is success.
func (c CompilerFind) CompilerFind(ctx context.Context) ([]string, error) {
	args := append([]string{"compiler", "find"}, c.Paths...)
	out, err := c.Spack.run(ctx, nil, args...)
	if err != nil {
		return nil, commandError(KindCompilerFind, c, err)
	}

	added, err := parseCompilerFindOutput(out.Stdout)
	if err != nil {
		return nil, commandError(KindCompilerFind, c, err)
	}
	c.Spack.logger.Printf("Registered %d new compiler(s): %v", len(added), added)
	return added, nil
}

var addedCompilersLine = regexp.MustCompile(`^==> Added (\d+) new compilers? to`)

func parseCompilerFindOutput(data []byte) ([]string, error) {
	var added []string
	collecting := false
	want := 0

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "==>") {
			collecting = false
			if m := addedCompilersLine.FindStringSubmatch(line); m != nil {
				want, _ = strconv.Atoi(m[1])
				collecting = true
			}
			continue
		}
		if collecting {
			added = append(added, strings.Fields(line)...)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading compiler find output: %w", err)
	}
	if len(added) != want {
		return nil, fmt.Errorf("spack reported %d new compilers but listed %d", want, len(added))
	}
	return added, nil
}

// FindCompilerSpecs reports the compilers under Paths without touching any
// spack configuration.
type FindCompilerSpecs struct {
	Spack *Invocation
	Paths []string
}

func (f FindCompilerSpecs) String() string {
	return "find compiler specs " + strings.Join(f.Paths, " ")
}

// FindCompilerSpecs runs an embedded script through `spack python`.
func (f FindCompilerSpecs) FindCompilerSpecs(ctx context.Context) ([]CompilerDescriptor, error) {
	env := map[string]string{
		compilerPathsEnv: strings.Join(f.Paths, string(os.PathListSeparator)),
	}
	out, err := f.Spack.run(ctx, env, "python", "-c", findCompilersScript)
	if err != nil {
		return nil, commandError(KindFindCompilerSpecs, f, err)
	}

	descs, err := parseCompilersYAML(out.Stdout)
	if err != nil {
		return nil, commandError(KindFindCompilerSpecs, f, err)
	}
	return descs, nil
}
