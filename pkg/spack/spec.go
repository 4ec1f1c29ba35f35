// pkg/spack/spec.go
package spack

import (
	"fmt"
	"strings"
)

// Spec is a spack spec query as passed on the command line, e.g.
// "ffmpeg@4.4.1~alsa%gcc". Syntax is not validated locally; spack rejects
// malformed specs when it resolves them.
type Spec string

// NewSpec builds a spec from a query string
func NewSpec(query string) Spec {
	return Spec(strings.TrimSpace(query))
}

func (s Spec) String() string {
	return string(s)
}

// Args splits the spec into command-line words. Spack joins them back
// together, so "emscripten@3: ^ /abc" survives the split.
func (s Spec) Args() []string {
	return strings.Fields(string(s))
}

// CompilerRef names the compiler a spec was built with
type CompilerRef struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

func (c CompilerRef) String() string {
	if c.Version == "" {
		return c.Name
	}
	return c.Name + "@" + c.Version
}

// Arch is the architecture triple of a concrete spec
type Arch struct {
	Platform   string `json:"platform"`
	PlatformOS string `json:"platform_os"`
	Target     any    `json:"target"` // a string or a microarchitecture object
}

// Dependency is one edge of a concrete spec
type Dependency struct {
	Name       string         `json:"name"`
	Hash       string         `json:"hash"`
	Type       []string       `json:"type,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// FoundSpec is a concrete, installed spec as reported by `spack find --json`.
// Its hash identifies exactly one build and is stable for as long as that
// build stays installed.
type FoundSpec struct {
	Name         string         `json:"name"`
	Version      string         `json:"version"`
	Arch         Arch           `json:"arch"`
	Compiler     CompilerRef    `json:"compiler"`
	Namespace    string         `json:"namespace"`
	Parameters   map[string]any `json:"parameters"`
	Dependencies []Dependency   `json:"dependencies"`
	Hash         string         `json:"hash"`
}

// HashedSpec returns a spec that matches only this build
func (f FoundSpec) HashedSpec() Spec {
	return Spec(fmt.Sprintf("%s@%s/%s", f.Name, f.Version, f.Hash))
}

// DependsOn reports whether hash is a direct dependency of f
func (f FoundSpec) DependsOn(hash string) bool {
	for _, dep := range f.Dependencies {
		if dep.Hash == hash {
			return true
		}
	}
	return false
}

// ShortHash returns the first 7 characters of the hash, as spack prints it
func (f FoundSpec) ShortHash() string {
	if len(f.Hash) > 7 {
		return f.Hash[:7]
	}
	return f.Hash
}

func (f FoundSpec) String() string {
	return fmt.Sprintf("%s@%s%%%s/%s", f.Name, f.Version, f.Compiler, f.ShortHash())
}
