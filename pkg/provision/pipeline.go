// pkg/provision/pipeline.go
package provision

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/arc-language/ffsys/pkg/platform"
	"github.com/arc-language/ffsys/pkg/prefix"
	"github.com/arc-language/ffsys/pkg/recipe"
	"github.com/arc-language/ffsys/pkg/spack"
)

var (
	// ErrNoMatch indicates a find returned nothing usable
	ErrNoMatch = errors.New("no installed spec matches")

	// ErrAmbiguous indicates a find returned more than one candidate
	ErrAmbiguous = errors.New("more than one installed spec matches")

	// ErrMissingArtifact indicates a resolved spec has no install prefix
	ErrMissingArtifact = errors.New("resolved spec has no install prefix")

	// ErrAssertion indicates the discovered compiler set is not as expected
	ErrAssertion = errors.New("compiler discovery assertion failed")
)

// Pipeline produces the install prefix of the target library.
type Pipeline interface {
	// Name identifies the pipeline for logs
	Name() string

	// EnsurePrefix installs whatever is missing and returns the prefix.
	// It is safe to call again after a failure: spack skips finished installs.
	EnsurePrefix(ctx context.Context) (*prefix.Prefix, error)
}

// Selection decides which of several find results is used.
type Selection string

const (
	// SelectUnique requires exactly one match
	SelectUnique Selection = "unique"
	// SelectFirst takes the first match spack reports
	SelectFirst Selection = "first"
)

// ParseSelection parses a selection policy name
func ParseSelection(s string) (Selection, error) {
	switch Selection(s) {
	case "", SelectUnique:
		return SelectUnique, nil
	case SelectFirst:
		return SelectFirst, nil
	default:
		return "", fmt.Errorf("unknown selection policy: %s", s)
	}
}

// Options configures a pipeline
type Options struct {
	Selection Selection
	Verbosity spack.Verbosity
	Logger    *log.Logger
}

// New returns the pipeline for target. The choice is made once here and
// never revisited.
func New(target platform.Target, session *spack.Invocation, r *recipe.Recipe, opts *Options) (Pipeline, error) {
	if session == nil {
		return nil, fmt.Errorf("spack session is required")
	}
	if r == nil {
		r = recipe.Default()
	}
	if opts == nil {
		opts = &Options{}
	}
	if opts.Selection == "" {
		opts.Selection = SelectUnique
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}

	switch target {
	case platform.TargetNative:
		return &Direct{
			spack:  session,
			spec:   spack.NewSpec(r.Native.Target),
			opts:   *opts,
			logger: opts.Logger,
		}, nil
	case platform.TargetWasm:
		return &Toolchain{
			spack:  session,
			cross:  r.Cross,
			opts:   *opts,
			logger: opts.Logger,
			stage:  ToolchainPending,
			trace:  []Stage{ToolchainPending},
		}, nil
	default:
		return nil, fmt.Errorf("unsupported target: %s", target)
	}
}

// selectSpec applies the selection policy. keep, if non-nil, filters the
// candidates first.
func selectSpec(policy Selection, query spack.Spec, found []spack.FoundSpec, keep func(spack.FoundSpec) bool) (spack.FoundSpec, error) {
	candidates := found
	if keep != nil {
		candidates = nil
		for _, f := range found {
			if keep(f) {
				candidates = append(candidates, f)
			}
		}
	}

	switch {
	case len(candidates) == 0:
		return spack.FoundSpec{}, fmt.Errorf("%w %q (%d found before filtering)", ErrNoMatch, query, len(found))
	case len(candidates) == 1 || policy == SelectFirst:
		return candidates[0], nil
	default:
		hashes := make([]string, len(candidates))
		for i, c := range candidates {
			hashes[i] = c.ShortHash()
		}
		return spack.FoundSpec{}, fmt.Errorf("%w %q: %v", ErrAmbiguous, query, hashes)
	}
}

// requirePrefix runs FindPrefix and turns absence into ErrMissingArtifact
func requirePrefix(ctx context.Context, session *spack.Invocation, found spack.FoundSpec) (*prefix.Prefix, error) {
	p, err := spack.FindPrefix{Spack: session, Spec: found.HashedSpec()}.FindPrefix(ctx)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingArtifact, found.HashedSpec())
	}
	return p, nil
}
