// pkg/provision/toolchain.go
package provision

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/arc-language/ffsys/pkg/prefix"
	"github.com/arc-language/ffsys/pkg/recipe"
	"github.com/arc-language/ffsys/pkg/spack"
)

// Toolchain cross-compiles the target by first bootstrapping a compiler
// through spack. The seven steps run strictly in order; the first failure
// aborts the run.
type Toolchain struct {
	spack  *spack.Invocation
	cross  recipe.Cross
	opts   Options
	logger *log.Logger

	stage Stage
	trace []Stage
}

func (t *Toolchain) Name() string { return "toolchain" }

// Stage returns the current state
func (t *Toolchain) Stage() Stage {
	return t.stage
}

// Trace returns every state visited by the last run, in order
func (t *Toolchain) Trace() []Stage {
	return append([]Stage(nil), t.trace...)
}

func (t *Toolchain) advance(next Stage) {
	t.logger.Printf("  %s -> %s", t.stage, next)
	t.stage = next
	t.trace = append(t.trace, next)
}

func (t *Toolchain) fail(step int, err error) (*prefix.Prefix, error) {
	failed := &StageError{Stage: t.stage, Step: step, Err: err}
	t.stage = Failed
	t.trace = append(t.trace, Failed)
	t.logger.Printf("❌ %v", failed)
	return nil, failed
}

// EnsurePrefix runs the bootstrap and returns the cross-built target prefix.
func (t *Toolchain) EnsurePrefix(ctx context.Context) (*prefix.Prefix, error) {
	t.stage = ToolchainPending
	t.trace = []Stage{ToolchainPending}

	// 1. toolchain
	toolchainSpec := spack.NewSpec(t.cross.Toolchain)
	t.logger.Printf("Step 1: installing toolchain %s", toolchainSpec)
	found, _, err := spack.Install{Spack: t.spack, Spec: toolchainSpec, Verbosity: t.opts.Verbosity}.InstallFind(ctx)
	if err != nil {
		return t.fail(1, err)
	}
	toolchain, err := selectSpec(t.opts.Selection, toolchainSpec, found, nil)
	if err != nil {
		return t.fail(1, err)
	}
	t.advance(CompilerInstalling)

	// 2. compiler, pinned to the toolchain by hash
	compilerInstall := spack.NewSpec(t.cross.CompilerInstallSpec(toolchain.HashedSpec().String()))
	t.logger.Printf("Step 2: installing compiler %s", compilerInstall)
	if _, err := (spack.Install{Spack: t.spack, Spec: compilerInstall, Verbosity: t.opts.Verbosity}).Install(ctx); err != nil {
		return t.fail(2, err)
	}
	t.advance(CompilerResolving)

	// 3. re-resolve the compiler. The find query cannot name the toolchain
	// hash, so unique selection keeps only builds depending on it.
	compilerQuery := spack.NewSpec(t.cross.CompilerFind)
	t.logger.Printf("Step 3: finding compiler %s", compilerQuery)
	found, err = spack.Find{Spack: t.spack, Spec: compilerQuery}.Find(ctx)
	if err != nil {
		return t.fail(3, err)
	}
	var keep func(spack.FoundSpec) bool
	if t.opts.Selection == SelectUnique {
		keep = func(f spack.FoundSpec) bool { return f.DependsOn(toolchain.Hash) }
	}
	compiler, err := selectSpec(t.opts.Selection, compilerQuery, found, keep)
	if err != nil {
		return t.fail(3, err)
	}

	// 4. compiler prefix
	t.logger.Printf("Step 4: locating %s", compiler)
	compilerPrefix, err := requirePrefix(ctx, t.spack, compiler)
	if err != nil {
		return t.fail(4, err)
	}
	t.advance(CompilerPrefixed)

	// 5. register the compiler, then describe it without touching config
	t.logger.Printf("Step 5: registering compiler at %s", compilerPrefix.Path)
	paths := []string{compilerPrefix.Path}
	added, err := spack.CompilerFind{Spack: t.spack, Paths: paths}.CompilerFind(ctx)
	if err != nil {
		return t.fail(5, err)
	}
	if len(added) > 1 {
		return t.fail(5, fmt.Errorf("%w: compiler find registered %d compilers under %s: %v", ErrAssertion, len(added), compilerPrefix.Path, added))
	}
	descs, err := spack.FindCompilerSpecs{Spack: t.spack, Paths: paths}.FindCompilerSpecs(ctx)
	if err != nil {
		return t.fail(5, err)
	}
	if len(descs) != 1 {
		return t.fail(5, fmt.Errorf("%w: expected exactly one compiler under %s, found %d", ErrAssertion, compilerPrefix.Path, len(descs)))
	}
	desc := descs[0]
	if !strings.HasPrefix(desc.SpecString(), t.cross.CompilerName) {
		return t.fail(5, fmt.Errorf("%w: discovered compiler %q is not %s", ErrAssertion, desc.SpecString(), t.cross.CompilerName))
	}
	t.advance(CompilerRegistered)

	// 6. environment
	t.logger.Printf("Step 6: loading %s", compiler.HashedSpec())
	env, err := spack.Load{Spack: t.spack, Specs: []spack.Spec{compiler.HashedSpec()}}.Load(ctx)
	if err != nil {
		return t.fail(6, err)
	}
	t.advance(EnvironmentLoaded)

	// 7. target, built with the bootstrapped compiler
	targetSpec := spack.NewSpec(t.cross.TargetSpec(desc.SpecString()))
	t.logger.Printf("Step 7: installing %s", targetSpec)
	if _, err := (spack.Install{Spack: t.spack, Spec: targetSpec, Verbosity: t.opts.Verbosity}).InstallWithEnv(ctx, env); err != nil {
		return t.fail(7, err)
	}
	t.advance(TargetInstalled)

	found, err = spack.Find{Spack: t.spack, Spec: targetSpec}.Find(ctx)
	if err != nil {
		return t.fail(7, err)
	}
	target, err := selectSpec(t.opts.Selection, targetSpec, found, nil)
	if err != nil {
		return t.fail(7, err)
	}
	p, err := requirePrefix(ctx, t.spack, target)
	if err != nil {
		return t.fail(7, err)
	}
	t.advance(Done)

	t.logger.Printf("✓ %s is at %s", target, p.Path)
	return p, nil
}
