// pkg/spack/install.go
package spack

import (
	"bytes"
	"context"
	"fmt"
)

// Verbosity controls how much output spack install produces
type Verbosity int

const (
	Standard Verbosity = iota
	Verbose
)

// InstallOutcome reports what an install did. Changed is false when every
// requested package was already installed.
type InstallOutcome struct {
	Changed bool
}

// Install builds and installs a spec and its dependencies.
type Install struct {
	Spack     *Invocation
	Spec      Spec
	Verbosity Verbosity
}

func (i Install) String() string {
	return "install " + i.Spec.String()
}

func (i Install) args() []string {
	args := []string{"install", "--fail-fast"}
	if i.Verbosity == Verbose {
		args = append(args, "--verbose")
	}
	return append(args, i.Spec.Args()...)
}

// Install runs `spack install`. Installing an already-installed spec
// succeeds with Changed=false.
func (i Install) Install(ctx context.Context) (InstallOutcome, error) {
	return i.InstallWithEnv(ctx, nil)
}

// InstallWithEnv runs `spack install` inside an environment produced by Load,
// e.g. to make a bootstrapped compiler visible to the build.
func (i Install) InstallWithEnv(ctx context.Context, env Environment) (InstallOutcome, error) {
	out, err := i.Spack.run(ctx, env, i.args()...)
	if err != nil {
		return InstallOutcome{}, commandError(KindInstall, i, err)
	}

	outcome := InstallOutcome{
		Changed: bytes.Contains(out.Stdout, []byte("Successfully installed")) ||
			bytes.Contains(out.Stderr, []byte("Successfully installed")),
	}
	if outcome.Changed {
		i.Spack.logger.Printf("✓ Installed %s", i.Spec)
	} else {
		i.Spack.logger.Printf("✓ %s already installed", i.Spec)
	}
	return outcome, nil
}

// InstallFind installs the spec and then finds the concrete specs matching
// it. Choosing among several matches is left to the caller.
func (i Install) InstallFind(ctx context.Context) ([]FoundSpec, InstallOutcome, error) {
	outcome, err := i.Install(ctx)
	if err != nil {
		return nil, outcome, err
	}

	find := Find{Spack: i.Spack, Spec: i.Spec}
	found, err := find.Find(ctx)
	if err != nil {
		return nil, outcome, err
	}
	if len(found) == 0 {
		return nil, outcome, commandError(KindFind, find, fmt.Errorf("nothing matches %q right after installing it", i.Spec))
	}
	return found, outcome, nil
}
