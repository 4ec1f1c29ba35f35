// pkg/bindgen/check.go
package bindgen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Check regenerates the bindings into a scratch directory and compares them
// with what is checked in under cfg.Dir(). It returns a unified diff, empty
// when the bindings are current.
func Check(ctx context.Context, gen Generator, cfg *Config) (string, error) {
	tmp, err := os.MkdirTemp("", "ffsys-bindcheck-*")
	if err != nil {
		return "", fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	if err := gen.Generate(ctx, cfg, tmp); err != nil {
		return "", err
	}

	fresh, err := readGoFiles(filepath.Join(tmp, cfg.Package))
	if err != nil {
		return "", err
	}
	current, err := readGoFiles(cfg.Dir())
	if err != nil && !os.IsNotExist(err) {
		return "", err
	}

	names := make(map[string]bool)
	for name := range fresh {
		names[name] = true
	}
	for name := range current {
		names[name] = true
	}
	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	var b strings.Builder
	for _, name := range sorted {
		a, had := current[name]
		z, has := fresh[name]
		if had && has && a == z {
			continue
		}
		from, to := "a/"+name, "b/"+name
		if !had {
			from = "/dev/null"
		}
		if !has {
			to = "/dev/null"
		}
		diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(a),
			B:        difflib.SplitLines(z),
			FromFile: from,
			ToFile:   to,
			Context:  3,
		})
		if err != nil {
			return "", fmt.Errorf("diffing %s: %w", name, err)
		}
		b.WriteString(diff)
	}
	return b.String(), nil
}

// readGoFiles returns the generated sources of dir keyed by file name
func readGoFiles(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	files := make(map[string]string)
	for _, e := range entries {
		if e.IsDir() || !isGenerated(e.Name()) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", e.Name(), err)
		}
		files[e.Name()] = string(data)
	}
	return files, nil
}

func isGenerated(name string) bool {
	switch filepath.Ext(name) {
	case ".go", ".h", ".c":
		return true
	}
	return false
}
