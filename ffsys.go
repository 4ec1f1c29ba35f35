// ffsys.go
package ffsys

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/arc-language/ffsys/pkg/bindgen"
	"github.com/arc-language/ffsys/pkg/core"
	"github.com/arc-language/ffsys/pkg/features"
	"github.com/arc-language/ffsys/pkg/link"
	"github.com/arc-language/ffsys/pkg/platform"
	"github.com/arc-language/ffsys/pkg/prefix"
	"github.com/arc-language/ffsys/pkg/provision"
	"github.com/arc-language/ffsys/pkg/recipe"
	"github.com/arc-language/ffsys/pkg/spack"
)

// Version is the ffsys release
const Version = "0.1.0"

// Re-export the types callers need for a build
type (
	Target     = platform.Target
	FeatureSet = features.Set
	Prefix     = prefix.Prefix
	Plan       = link.Plan
)

const (
	TargetNative = platform.TargetNative
	TargetWasm   = platform.TargetWasm
)

// Options configures a Builder
type Options struct {
	Target   platform.Target
	Features features.Set // Zero means every feature
	Config   *core.Config // Default: core.DefaultConfig()
	Recipe   *recipe.Recipe

	Verbosity spack.Verbosity
	Logger    *log.Logger

	// Overrides for the external processes. Nil uses the real ones.
	Executor   spack.Executor
	Generator  bindgen.Generator
	LinkRunner link.Runner
	UsePath    bool // Accept a spack found on PATH before fetching
}

// Builder runs the provisioning, link and binding steps for one target. It
// owns the single feature selection that both the link plan and the bindings
// are derived from.
type Builder struct {
	target platform.Target
	set    features.Set
	cfg    *core.Config
	recipe *recipe.Recipe
	opts   Options
	logger *log.Logger

	session *spack.Invocation
}

// Result is what a full build produced
type Result struct {
	Prefix    *prefix.Prefix
	Plan      *link.Plan
	Aggregate *prefix.Library // Set in aggregate mode
	Bindings  string          // Directory of the generated package
}

// NewBuilder validates options and returns a Builder. No subprocess runs
// until a step is called.
func NewBuilder(opts *Options) (*Builder, error) {
	if opts == nil {
		opts = &Options{}
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = core.DefaultConfig()
	}

	target := opts.Target
	if target == "" {
		t, err := platform.ParseTarget(cfg.Target)
		if err != nil {
			return nil, err
		}
		target = t
	}

	set := opts.Features
	if set.Empty() {
		s, err := features.ParseList(cfg.Features)
		if err != nil {
			return nil, err
		}
		set = s
	}

	r := opts.Recipe
	if r == nil {
		loaded, err := recipe.Load(cfg.Recipe)
		if err != nil {
			return nil, err
		}
		r = loaded
	}

	logger := opts.Logger
	if logger == nil {
		if cfg.Debug {
			logger = log.New(os.Stderr, "[ffsys] ", log.LstdFlags)
		} else {
			logger = log.New(io.Discard, "", 0)
		}
	}

	return &Builder{
		target: target,
		set:    set,
		cfg:    cfg,
		recipe: r,
		opts:   *opts,
		logger: logger,
	}, nil
}

// Target returns the platform being built for
func (b *Builder) Target() platform.Target {
	return b.target
}

// Features returns the feature selection shared by every step
func (b *Builder) Features() features.Set {
	return b.set
}

// Session summons spack on first use and returns the shared session
func (b *Builder) Session(ctx context.Context) (*spack.Invocation, error) {
	if b.session != nil {
		return b.session, nil
	}
	session, err := spack.Summon(ctx, spack.SummonOptions{
		Root:        b.cfg.Spack.Root,
		UsePath:     b.opts.UsePath,
		Repo:        b.cfg.Spack.Repo,
		Ref:         b.cfg.Spack.Ref,
		ArchiveURL:  b.cfg.Spack.ArchiveURL,
		ArchiveHash: b.cfg.Spack.ArchiveHash,
		CachePath:   b.cfg.CachePath,
		Config: &spack.Config{
			Executor: b.opts.Executor,
			Logger:   b.logger,
		},
	})
	if err != nil {
		return nil, wrap("summon", ErrSummon, err)
	}
	b.session = session
	return session, nil
}

// Provision runs the pipeline for the target and returns the install prefix
func (b *Builder) Provision(ctx context.Context) (*prefix.Prefix, error) {
	session, err := b.Session(ctx)
	if err != nil {
		return nil, err
	}

	selection, err := provision.ParseSelection(b.cfg.Selection)
	if err != nil {
		return nil, wrap("provision", ErrProvision, err)
	}
	pipeline, err := provision.New(b.target, session, b.recipe, &provision.Options{
		Selection: selection,
		Verbosity: b.opts.Verbosity,
		Logger:    b.logger,
	})
	if err != nil {
		return nil, wrap("provision", ErrProvision, err)
	}

	b.logger.Printf("Provisioning %s with the %s pipeline", b.target, pipeline.Name())
	p, err := pipeline.EnsurePrefix(ctx)
	if err != nil {
		return nil, wrap("provision "+string(b.target), ErrProvision, err)
	}
	b.logger.Printf("✓ FFmpeg installed at %s", p)
	return p, nil
}

// libraryKind is the kind of library the target's build installs
func (b *Builder) libraryKind() platform.LibraryKind {
	if b.target == platform.TargetWasm {
		return platform.Static
	}
	return platform.Dynamic
}

// Plan discovers the libraries under p and derives the link plan
func (b *Builder) Plan(p *prefix.Prefix) (*link.Plan, error) {
	mode, err := link.ParseMode(b.cfg.Link.Mode)
	if err != nil {
		return nil, wrap("link", ErrLink, err)
	}

	query := prefix.Query{
		Kind: b.libraryKind(),
		GOOS: b.target.GOOS(),
	}
	for _, name := range b.set.Libraries() {
		query.Needed = append(query.Needed, prefix.LibraryName(name))
	}
	libs, err := query.Find(*p)
	if err != nil {
		return nil, wrap("discover", ErrLink, err)
	}
	b.logger.Printf("Discovered %d library file(s) under %s: %v", len(libs), p.Lib(), prefix.Names(libs))

	plan, err := link.Derive(*p, libs, b.set, mode)
	if err != nil {
		return nil, wrap("link", ErrLink, err)
	}
	return plan, nil
}

// Aggregate links the plan into the configured single artifact
func (b *Builder) Aggregate(ctx context.Context, plan *link.Plan) (*prefix.Library, error) {
	linker := b.cfg.Link.Linker
	if linker == "" {
		linker = link.DefaultLinker(b.target)
	}
	lib, err := plan.Aggregate(ctx, link.Aggregator{
		Linker: linker,
		Output: b.aggregateOutput(),
		Run:    b.opts.LinkRunner,
		GOOS:   b.target.GOOS(),
		Logger: b.logger,
	})
	if err != nil {
		return nil, wrap("aggregate", ErrLink, err)
	}
	return lib, nil
}

// aggregateOutput is the configured artifact path, or dist/ plus the
// target's shared library name for ffmpeg.
func (b *Builder) aggregateOutput() string {
	if b.cfg.Link.Output != "" {
		return b.cfg.Link.Output
	}
	return filepath.Join("dist", platform.LibraryFileName("ffmpeg", platform.Dynamic, b.target.GOOS()))
}

// BindingsConfig builds the generation config for p. ldflags are embedded
// in the generated cgo preamble.
func (b *Builder) BindingsConfig(p *prefix.Prefix, ldflags []string) *bindgen.Config {
	return bindgen.NewConfig(*p, b.cfg.Header, b.set, b.cfg.Bindings.Output, &bindgen.Options{
		Package: b.cfg.Bindings.Package,
		Target:  b.target,
		LDFlags: ldflags,
	})
}

func (b *Builder) generator() bindgen.Generator {
	if b.opts.Generator != nil {
		return b.opts.Generator
	}
	return bindgen.CForGo{Logger: b.logger}
}

// Bindings generates the bindings for p into the configured output
func (b *Builder) Bindings(ctx context.Context, p *prefix.Prefix, ldflags []string) (string, error) {
	cfg := b.BindingsConfig(p, ldflags)
	if err := bindgen.Generate(ctx, b.generator(), cfg); err != nil {
		return "", wrap("bindgen", ErrBindings, err)
	}
	return cfg.Dir(), nil
}

// CheckBindings reports how the checked-in bindings differ from fresh ones.
// An empty diff means they are current.
func (b *Builder) CheckBindings(ctx context.Context, p *prefix.Prefix, ldflags []string) (string, error) {
	diff, err := bindgen.Check(ctx, b.generator(), b.BindingsConfig(p, ldflags))
	if err != nil {
		return "", wrap("bindgen check", ErrBindings, err)
	}
	return diff, nil
}

// LinkFlags returns the directives the bindings link with
func LinkFlags(plan *link.Plan, aggregate *prefix.Library) []string {
	if aggregate != nil {
		return []string{"-L" + filepath.Dir(aggregate.Path), "-l" + string(aggregate.Name)}
	}
	return plan.Directives()
}

// BindingFlags returns the directives the bindings link with when plan is
// consumed in its configured mode. In aggregate mode this names the
// configured artifact without running the linker.
func (b *Builder) BindingFlags(plan *link.Plan) []string {
	if plan.Mode != link.ModeAggregate {
		return LinkFlags(plan, nil)
	}
	out := b.aggregateOutput()
	if abs, err := filepath.Abs(out); err == nil {
		out = abs
	}
	lib := link.OutputLibrary(out)
	return LinkFlags(plan, &lib)
}

// Build runs every step in order: summon, provision, discover and link,
// then generate bindings. The first failure stops the build.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	b.logger.Printf("Building %s with features %s", b.target, b.set)

	p, err := b.Provision(ctx)
	if err != nil {
		return nil, err
	}
	result := &Result{Prefix: p}

	plan, err := b.Plan(p)
	if err != nil {
		return nil, err
	}
	result.Plan = plan

	if plan.Mode == link.ModeAggregate {
		lib, err := b.Aggregate(ctx, plan)
		if err != nil {
			return nil, err
		}
		result.Aggregate = lib
	}

	dir, err := b.Bindings(ctx, p, LinkFlags(plan, result.Aggregate))
	if err != nil {
		return nil, err
	}
	result.Bindings = dir

	b.logger.Printf("✓ Build complete: %s", plan)
	return result, nil
}
