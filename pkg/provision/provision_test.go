package provision_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/arc-language/ffsys/pkg/platform"
	"github.com/arc-language/ffsys/pkg/provision"
	"github.com/arc-language/ffsys/pkg/recipe"
	"github.com/arc-language/ffsys/pkg/spack"
	"github.com/arc-language/ffsys/pkg/spack/spacktest"
)

const (
	ffmpegHash = "ffffffffffffffffffffffffffffffff"
	llvmHash   = "11111111111111111111111111111111"
	emsdkHash  = "eeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"
	otherHash  = "22222222222222222222222222222222"
	wasmHash   = "wwwwwwwwwwwwwwwwwwwwwwwwwwwwwwww"
)

func findJSON(entries ...string) string {
	return "[" + strings.Join(entries, ",") + "]"
}

func found(name, version, hash string, deps ...string) string {
	var edges []string
	for _, d := range deps {
		edges = append(edges, fmt.Sprintf(`{"name":"dep","hash":%q,"type":["build","link"]}`, d))
	}
	return fmt.Sprintf(`{"name":%q,"version":%q,"compiler":{"name":"gcc","version":"12.2.0"},"hash":%q,"dependencies":[%s]}`,
		name, version, hash, strings.Join(edges, ","))
}

func newPipeline(t *testing.T, fake *spacktest.Fake, target platform.Target, opts *provision.Options) provision.Pipeline {
	t.Helper()
	p, err := provision.New(target, fake.Session(t), recipe.Default(), opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestDirectIsIdempotent(t *testing.T) {
	fake := &spacktest.Fake{}
	fake.On("install", "--fail-fast", "ffmpeg@4.4.1~alsa%gcc").
		Stdout("[+] /opt/spack/opt/ffmpeg\nSuccessfully installed ffmpeg\n").
		Stdout("[+] ffmpeg@4.4.1 is already installed\n")
	fake.On("find", "--json", "ffmpeg@4.4.1~alsa%gcc").Stdout(findJSON(found("ffmpeg", "4.4.1", ffmpegHash)))
	fake.On("location", "--install-dir", "ffmpeg@4.4.1/"+ffmpegHash).Stdout("/opt/spack/opt/ffmpeg-4.4.1\n")

	p := newPipeline(t, fake, platform.TargetNative, nil)
	direct, ok := p.(*provision.Direct)
	if !ok {
		t.Fatalf("native target built %T, want *provision.Direct", p)
	}

	first, err := p.EnsurePrefix(context.Background())
	if err != nil {
		t.Fatalf("first EnsurePrefix: %v", err)
	}
	if !direct.Outcome().Changed {
		t.Error("first run should report a change")
	}

	second, err := p.EnsurePrefix(context.Background())
	if err != nil {
		t.Fatalf("second EnsurePrefix: %v", err)
	}
	if direct.Outcome().Changed {
		t.Error("second run should report no change")
	}
	if first.Path != second.Path || first.Path != "/opt/spack/opt/ffmpeg-4.4.1" {
		t.Errorf("prefixes = %q, %q", first.Path, second.Path)
	}
	if n := fake.Count("location"); n != 1 {
		t.Errorf("location called %d times, want 1 (memoized)", n)
	}
}

func TestDirectSelection(t *testing.T) {
	twoBuilds := findJSON(found("ffmpeg", "4.4.1", ffmpegHash), found("ffmpeg", "4.4.1", otherHash))

	tests := []struct {
		name      string
		selection provision.Selection
		wantErr   error
	}{
		{"unique", provision.SelectUnique, provision.ErrAmbiguous},
		{"first", provision.SelectFirst, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &spacktest.Fake{}
			fake.On("install").Stdout("")
			fake.On("find", "--json").Stdout(twoBuilds)
			fake.On("location", "--install-dir", "ffmpeg@4.4.1/"+ffmpegHash).Stdout("/opt/ffmpeg-a\n")

			p := newPipeline(t, fake, platform.TargetNative, &provision.Options{Selection: tt.selection})
			got, err := p.EnsurePrefix(context.Background())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				if fake.Count("location") != 0 {
					t.Error("location should not run after an ambiguous find")
				}
				return
			}
			if err != nil {
				t.Fatalf("EnsurePrefix: %v", err)
			}
			if got.Path != "/opt/ffmpeg-a" {
				t.Errorf("prefix = %q", got.Path)
			}
		})
	}
}

func TestDirectMissingArtifact(t *testing.T) {
	fake := &spacktest.Fake{}
	fake.On("install").Stdout("")
	fake.On("find", "--json").Stdout(findJSON(found("ffmpeg", "4.4.1", ffmpegHash)))
	fake.On("location").Fail(1, "==> Error: Spec 'ffmpeg' matches no installed packages.")

	p := newPipeline(t, fake, platform.TargetNative, nil)
	if _, err := p.EnsurePrefix(context.Background()); !errors.Is(err, provision.ErrMissingArtifact) {
		t.Fatalf("err = %v, want ErrMissingArtifact", err)
	}
}

const (
	compilerFindOut = "==> Added 1 new compiler to /root/.spack/linux/compilers.yaml\n    emscripten@3.1.10\n==> Compilers are defined in the following files:\n    /root/.spack/linux/compilers.yaml\n"
	compilerYAML    = `compilers:
- compiler:
    spec: emscripten@3.1.10
    paths:
      cc: /opt/emsdk/bin/emcc
      cxx: /opt/emsdk/bin/em++
      f77: null
      fc: null
    operating_system: ubuntu22.04
    target: x86_64
    modules: []
`
	twoCompilersYAML = compilerYAML + `- compiler:
    spec: clang@14.0.6
    paths:
      cc: /opt/emsdk/bin/clang
      cxx: /opt/emsdk/bin/clang++
    operating_system: ubuntu22.04
    target: x86_64
    modules: []
`
)

// scriptToolchain answers every bootstrap step successfully.
func scriptToolchain(fake *spacktest.Fake) {
	fake.On("install", "--fail-fast", "llvm@14:+lld+clang+multiple-definitions~libcxx").Stdout("")
	fake.On("find", "--json", "llvm@14:+lld+clang+multiple-definitions~libcxx").
		Stdout(findJSON(found("llvm", "14.0.6", llvmHash)))

	fake.On("install", "--fail-fast", "emscripten@3:", "^", "llvm@14.0.6/"+llvmHash).Stdout("Successfully installed emscripten\n")
	fake.On("find", "--json", "emscripten@3:+create-standard-executables").
		Stdout(findJSON(found("emscripten", "3.1.10", otherHash), found("emscripten", "3.1.10", emsdkHash, llvmHash)))
	fake.On("location", "--install-dir", "emscripten@3.1.10/"+emsdkHash).Stdout("/opt/emsdk\n")

	fake.On("compiler", "find", "/opt/emsdk").Stdout(compilerFindOut)
	fake.On("python", "-c").Stdout(compilerYAML)
	fake.On("load", "--sh", "emscripten@3.1.10/"+emsdkHash).
		Stdout("export PATH=/opt/emsdk/bin:/usr/bin;\nexport EMSDK=/opt/emsdk;\nunset SOMETHING;\n")

	fake.On("install", "--fail-fast", "ffmpeg@4.4.1+web-only%emscripten@3.1.10").
		Check(func(cmd spack.Cmd) error {
			if cmd.Env["EMSDK"] != "/opt/emsdk" {
				return fmt.Errorf("target install ran without the compiler environment: %v", cmd.Env)
			}
			return nil
		}).
		Stdout("Successfully installed ffmpeg\n")
	fake.On("find", "--json", "ffmpeg@4.4.1+web-only%emscripten@3.1.10").
		Stdout(findJSON(found("ffmpeg", "4.4.1", wasmHash, emsdkHash)))
	fake.On("location", "--install-dir", "ffmpeg@4.4.1/"+wasmHash).Stdout("/opt/spack/opt/ffmpeg-wasm\n")
}

func toolchainPipeline(t *testing.T, fake *spacktest.Fake) *provision.Toolchain {
	t.Helper()
	p := newPipeline(t, fake, platform.TargetWasm, nil)
	tc, ok := p.(*provision.Toolchain)
	if !ok {
		t.Fatalf("wasm target built %T, want *provision.Toolchain", p)
	}
	return tc
}

func TestToolchainHappyPath(t *testing.T) {
	fake := &spacktest.Fake{}
	scriptToolchain(fake)
	tc := toolchainPipeline(t, fake)

	p, err := tc.EnsurePrefix(context.Background())
	if err != nil {
		t.Fatalf("EnsurePrefix: %v", err)
	}
	if p.Path != "/opt/spack/opt/ffmpeg-wasm" {
		t.Errorf("prefix = %q", p.Path)
	}

	want := []provision.Stage{
		provision.ToolchainPending,
		provision.CompilerInstalling,
		provision.CompilerResolving,
		provision.CompilerPrefixed,
		provision.CompilerRegistered,
		provision.EnvironmentLoaded,
		provision.TargetInstalled,
		provision.Done,
	}
	if got := tc.Trace(); !reflect.DeepEqual(got, want) {
		t.Errorf("Trace() = %v, want %v", got, want)
	}
	if tc.Stage() != provision.Done {
		t.Errorf("Stage() = %v", tc.Stage())
	}
}

func TestToolchainCompilerAlreadyRegistered(t *testing.T) {
	fake := &spacktest.Fake{}
	scriptToolchain(fake)
	fake.On("compiler", "find", "/opt/emsdk").Stdout("==> Found no new compilers\n==> Compilers are defined in the following files:\n    /root/.spack/linux/compilers.yaml\n")
	tc := toolchainPipeline(t, fake)

	if _, err := tc.EnsurePrefix(context.Background()); err != nil {
		t.Fatalf("EnsurePrefix: %v", err)
	}
}

func TestToolchainAmbiguousCompilers(t *testing.T) {
	fake := &spacktest.Fake{}
	scriptToolchain(fake)
	fake.On("python", "-c").Stdout(twoCompilersYAML)
	tc := toolchainPipeline(t, fake)

	_, err := tc.EnsurePrefix(context.Background())
	if !errors.Is(err, provision.ErrAssertion) {
		t.Fatalf("err = %v, want ErrAssertion", err)
	}
	var stageErr *provision.StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("err = %T, want *StageError", err)
	}
	if stageErr.Stage != provision.CompilerPrefixed || stageErr.Step != 5 {
		t.Errorf("failed at %v step %d, want %v step 5", stageErr.Stage, stageErr.Step, provision.CompilerPrefixed)
	}
	if tc.Stage() != provision.Failed {
		t.Errorf("Stage() = %v, want Failed", tc.Stage())
	}
	if fake.Count("load") != 0 {
		t.Error("load should not run after the compiler assertion fails")
	}
	if fake.Count("install", "--fail-fast", "ffmpeg@4.4.1+web-only%emscripten@3.1.10") != 0 {
		t.Error("target install should not run after the compiler assertion fails")
	}
}

func TestToolchainWrongCompilerName(t *testing.T) {
	fake := &spacktest.Fake{}
	scriptToolchain(fake)
	fake.On("python", "-c").Stdout(strings.Replace(compilerYAML, "emscripten@3.1.10", "clang@14.0.6", 1))
	tc := toolchainPipeline(t, fake)

	if _, err := tc.EnsurePrefix(context.Background()); !errors.Is(err, provision.ErrAssertion) {
		t.Fatalf("err = %v, want ErrAssertion", err)
	}
}

func TestToolchainCompilerNotFound(t *testing.T) {
	fake := &spacktest.Fake{}
	scriptToolchain(fake)
	fake.On("find", "--json", "emscripten@3:+create-standard-executables").Stdout("[]")
	tc := toolchainPipeline(t, fake)

	_, err := tc.EnsurePrefix(context.Background())
	if !errors.Is(err, provision.ErrNoMatch) {
		t.Fatalf("err = %v, want ErrNoMatch", err)
	}
	var stageErr *provision.StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != provision.CompilerResolving || stageErr.Step != 3 {
		t.Fatalf("err = %v, want failure at compiler-resolving step 3", err)
	}
	if n := fake.Count("location"); n != 0 {
		t.Errorf("location called %d times, want 0", n)
	}
	want := []provision.Stage{
		provision.ToolchainPending,
		provision.CompilerInstalling,
		provision.CompilerResolving,
		provision.Failed,
	}
	if got := tc.Trace(); !reflect.DeepEqual(got, want) {
		t.Errorf("Trace() = %v, want %v", got, want)
	}
}

func TestToolchainCompilerMustDependOnToolchain(t *testing.T) {
	fake := &spacktest.Fake{}
	scriptToolchain(fake)
	fake.On("find", "--json", "emscripten@3:+create-standard-executables").
		Stdout(findJSON(found("emscripten", "3.1.10", otherHash)))
	tc := toolchainPipeline(t, fake)

	if _, err := tc.EnsurePrefix(context.Background()); !errors.Is(err, provision.ErrNoMatch) {
		t.Fatalf("err = %v, want ErrNoMatch", err)
	}
}

func TestToolchainInstallFailure(t *testing.T) {
	fake := &spacktest.Fake{}
	scriptToolchain(fake)
	fake.On("install", "--fail-fast", "emscripten@3:", "^", "llvm@14.0.6/"+llvmHash).Fail(1, "==> Error: emscripten build failed")
	tc := toolchainPipeline(t, fake)

	_, err := tc.EnsurePrefix(context.Background())
	var cmdErr *spack.CommandError
	if !errors.As(err, &cmdErr) || cmdErr.Kind != spack.KindInstall {
		t.Fatalf("err = %v, want install CommandError", err)
	}
	var stageErr *provision.StageError
	if !errors.As(err, &stageErr) || stageErr.Step != 2 {
		t.Fatalf("err = %v, want step 2 failure", err)
	}
}

func TestParseSelection(t *testing.T) {
	for in, want := range map[string]provision.Selection{
		"":       provision.SelectUnique,
		"unique": provision.SelectUnique,
		"first":  provision.SelectFirst,
	} {
		got, err := provision.ParseSelection(in)
		if err != nil || got != want {
			t.Errorf("ParseSelection(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := provision.ParseSelection("newest"); err == nil {
		t.Error("ParseSelection(newest) should fail")
	}
}

// assertFailedAt checks a bootstrap failure's stage, step and trace
func assertFailedAt(t *testing.T, tc *provision.Toolchain, err error, stage provision.Stage, step int) {
	t.Helper()
	var stageErr *provision.StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("err = %v (%T), want *StageError", err, err)
	}
	if stageErr.Stage != stage || stageErr.Step != step {
		t.Errorf("failed at %v step %d, want %v step %d", stageErr.Stage, stageErr.Step, stage, step)
	}
	trace := tc.Trace()
	if len(trace) == 0 || trace[len(trace)-1] != provision.Failed {
		t.Errorf("Trace() = %v, want it to end in Failed", trace)
	}
	if tc.Stage() != provision.Failed {
		t.Errorf("Stage() = %v, want Failed", tc.Stage())
	}
}

const targetInstall = "ffmpeg@4.4.1+web-only%emscripten@3.1.10"

func TestToolchainRegistersTooManyCompilers(t *testing.T) {
	fake := &spacktest.Fake{}
	scriptToolchain(fake)
	fake.On("compiler", "find", "/opt/emsdk").
		Stdout("==> Added 2 new compilers to /root/.spack/linux/compilers.yaml\n    emscripten@3.1.10  clang@14.0.6\n==> Compilers are defined in the following files:\n    /root/.spack/linux/compilers.yaml\n")
	tc := toolchainPipeline(t, fake)

	_, err := tc.EnsurePrefix(context.Background())
	if !errors.Is(err, provision.ErrAssertion) {
		t.Fatalf("err = %v, want ErrAssertion", err)
	}
	assertFailedAt(t, tc, err, provision.CompilerPrefixed, 5)
	for _, later := range [][]string{{"python"}, {"load"}, {"install", "--fail-fast", targetInstall}} {
		if n := fake.Count(later...); n != 0 {
			t.Errorf("%v ran %d times after the assertion failed", later, n)
		}
	}
}

func TestToolchainLoadFailure(t *testing.T) {
	fake := &spacktest.Fake{}
	scriptToolchain(fake)
	fake.On("load", "--sh", "emscripten@3.1.10/"+emsdkHash).Fail(1, "==> Error: emscripten is not installed")
	tc := toolchainPipeline(t, fake)

	_, err := tc.EnsurePrefix(context.Background())
	var cmdErr *spack.CommandError
	if !errors.As(err, &cmdErr) || cmdErr.Kind != spack.KindLoad {
		t.Fatalf("err = %v, want load CommandError", err)
	}
	assertFailedAt(t, tc, err, provision.CompilerRegistered, 6)
	if n := fake.Count("install", "--fail-fast", targetInstall); n != 0 {
		t.Errorf("target install ran %d times without an environment", n)
	}
	if n := fake.Count("find", "--json", targetInstall); n != 0 {
		t.Errorf("target find ran %d times", n)
	}
}

func TestToolchainTargetPrefixMissing(t *testing.T) {
	fake := &spacktest.Fake{}
	scriptToolchain(fake)
	fake.On("location", "--install-dir", "ffmpeg@4.4.1/"+wasmHash).
		Fail(1, "==> Error: Spec 'ffmpeg@4.4.1/"+wasmHash+"' matches no installed packages.")
	tc := toolchainPipeline(t, fake)

	p, err := tc.EnsurePrefix(context.Background())
	if !errors.Is(err, provision.ErrMissingArtifact) {
		t.Fatalf("err = %v, want ErrMissingArtifact", err)
	}
	if p != nil {
		t.Errorf("prefix = %v, want nil", p)
	}
	assertFailedAt(t, tc, err, provision.TargetInstalled, 7)
	if n := fake.Count("install", "--fail-fast", targetInstall); n != 1 {
		t.Errorf("target install ran %d times, want 1", n)
	}
}
