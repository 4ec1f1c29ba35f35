// pkg/spack/find.go
package spack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Find lists installed specs matching a query. It never modifies state.
type Find struct {
	Spack *Invocation
	Spec  Spec
}

func (f Find) String() string {
	return "find " + f.Spec.String()
}

// Find runs `spack find --json`. No match is an empty result, not an error.
// Results keep spack's ordering.
func (f Find) Find(ctx context.Context) ([]FoundSpec, error) {
	args := append([]string{"find", "--json"}, f.Spec.Args()...)
	out, err := f.Spack.run(ctx, nil, args...)
	if err != nil {
		if isNoMatch(err) {
			return nil, nil
		}
		return nil, commandError(KindFind, f, err)
	}

	found, err := parseFindJSON(out.Stdout)
	if err != nil {
		return nil, commandError(KindFind, f, err)
	}

	f.Spack.logger.Printf("Found %d spec(s) for %s", len(found), f.Spec)
	return found, nil
}

func parseFindJSON(data []byte) ([]FoundSpec, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	var found []FoundSpec
	if err := json.Unmarshal(data, &found); err != nil {
		return nil, fmt.Errorf("parsing spack find output: %w", err)
	}
	for i, spec := range found {
		if spec.Hash == "" {
			return nil, fmt.Errorf("spack find result %d (%s) has no hash", i, spec.Name)
		}
	}
	return found, nil
}

// isNoMatch reports whether a failed find only meant "nothing installed".
func isNoMatch(err error) bool {
	var runErr *RunError
	if !errors.As(err, &runErr) {
		return false
	}
	msg := strings.ToLower(string(runErr.Stderr))
	return strings.Contains(msg, "no package matches") ||
		strings.Contains(msg, "matches no installed packages")
}
