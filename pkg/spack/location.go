// pkg/spack/location.go
package spack

import (
	"context"
	"fmt"
	"strings"

	"github.com/arc-language/ffsys/pkg/prefix"
)

// FindPrefix locates the install prefix of a concrete spec.
type FindPrefix struct {
	Spack *Invocation
	Spec  Spec // Usually FoundSpec.HashedSpec()
}

func (f FindPrefix) String() string {
	return "location --install-dir " + f.Spec.String()
}

// FindPrefix runs `spack location --install-dir`. It returns nil when the
// spec is not installed. Results for hashed specs are memoized for the
// lifetime of the session; misses are not.
func (f FindPrefix) FindPrefix(ctx context.Context) (*prefix.Prefix, error) {
	hashed := strings.Contains(string(f.Spec), "/")
	if hashed {
		if p, ok := f.Spack.prefixes.Get(f.Spec); ok {
			return &p, nil
		}
	}

	args := append([]string{"location", "--install-dir"}, f.Spec.Args()...)
	out, err := f.Spack.run(ctx, nil, args...)
	if err != nil {
		if isNoMatch(err) {
			f.Spack.logger.Printf("%s is not installed", f.Spec)
			return nil, nil
		}
		return nil, commandError(KindFindPrefix, f, err)
	}

	path := strings.TrimSpace(string(out.Stdout))
	if path == "" {
		return nil, commandError(KindFindPrefix, f, fmt.Errorf("empty location output"))
	}
	// spack may print warnings before the path; the path is the last line
	if i := strings.LastIndexByte(path, '\n'); i >= 0 {
		path = strings.TrimSpace(path[i+1:])
	}

	p := prefix.Prefix{Path: path}
	if hashed {
		f.Spack.prefixes.Add(f.Spec, p)
	}
	return &p, nil
}
