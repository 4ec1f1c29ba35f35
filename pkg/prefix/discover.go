// pkg/prefix/discover.go
package prefix

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/arc-language/ffsys/pkg/platform"
)

// ErrNoLibDir is returned when a prefix has no lib/ directory
var ErrNoLibDir = errors.New("prefix has no lib directory")

// Discover walks p's lib/ tree and returns every file whose name matches the
// library pattern for kind on goos. Entries are returned in walk order;
// non-matching entries are skipped.
func Discover(p Prefix, kind platform.LibraryKind, goos string) ([]Library, error) {
	root := p.Lib()
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNoLibDir, root)
	}

	pattern := platform.LibraryPattern(kind, goos)
	var libs []Library

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		m := pattern.FindStringSubmatch(d.Name())
		if m == nil {
			return nil
		}
		libs = append(libs, Library{
			Path: path,
			Name: LibraryName(m[1]),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	return libs, nil
}

// Names returns the distinct library names in first-seen order
func Names(libs []Library) []LibraryName {
	seen := make(map[LibraryName]bool)
	var names []LibraryName
	for _, lib := range libs {
		if !seen[lib.Name] {
			seen[lib.Name] = true
			names = append(names, lib.Name)
		}
	}
	return names
}

// Query looks up a fixed set of libraries in a prefix.
type Query struct {
	Needed []LibraryName
	Kind   platform.LibraryKind
	GOOS   string
}

// Find discovers the libraries of p and keeps the needed ones. Missing
// libraries are not an error here; link.Derive enforces completeness.
func (q Query) Find(p Prefix) ([]Library, error) {
	all, err := Discover(p, q.Kind, q.GOOS)
	if err != nil {
		return nil, err
	}

	needed := make(map[LibraryName]bool, len(q.Needed))
	for _, n := range q.Needed {
		needed[n] = true
	}

	var libs []Library
	for _, lib := range all {
		if needed[lib.Name] {
			libs = append(libs, lib)
		}
	}
	return libs, nil
}
