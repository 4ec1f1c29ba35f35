// pkg/provision/direct.go
package provision

import (
	"context"
	"log"

	"github.com/arc-language/ffsys/pkg/prefix"
	"github.com/arc-language/ffsys/pkg/spack"
)

// Direct installs the target with the host toolchain: install, find, locate.
type Direct struct {
	spack  *spack.Invocation
	spec   spack.Spec
	opts   Options
	logger *log.Logger

	outcome spack.InstallOutcome
}

func (d *Direct) Name() string { return "direct" }

// Outcome reports what the last EnsurePrefix install did
func (d *Direct) Outcome() spack.InstallOutcome {
	return d.outcome
}

// EnsurePrefix installs the target spec and returns its prefix
func (d *Direct) EnsurePrefix(ctx context.Context) (*prefix.Prefix, error) {
	d.logger.Printf("Ensuring %s", d.spec)

	install := spack.Install{Spack: d.spack, Spec: d.spec, Verbosity: d.opts.Verbosity}
	found, outcome, err := install.InstallFind(ctx)
	if err != nil {
		return nil, err
	}
	d.outcome = outcome

	resolved, err := selectSpec(d.opts.Selection, d.spec, found, nil)
	if err != nil {
		return nil, err
	}

	p, err := requirePrefix(ctx, d.spack, resolved)
	if err != nil {
		return nil, err
	}

	d.logger.Printf("✓ %s is at %s", resolved, p.Path)
	return p, nil
}
