// pkg/link/aggregate.go
package link

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/arc-language/ffsys/pkg/platform"
	"github.com/arc-language/ffsys/pkg/prefix"
)

// DefaultLinker returns the linker driver used for target
func DefaultLinker(target platform.Target) string {
	if target == platform.TargetWasm {
		return "emcc"
	}
	return "cc"
}

// Runner executes the linker. It returns the combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Aggregator links a plan's artifacts into a single shared library.
type Aggregator struct {
	Linker string // Default: cc
	Output string // Path of the single artifact written
	Run    Runner // Default: os/exec
	GOOS   string // Target OS; darwin's ld64 takes -all_load
	Logger *log.Logger
}

// Aggregate writes one shared library containing every retained artifact and
// returns it. Nothing else is written.
func (p *Plan) Aggregate(ctx context.Context, a Aggregator) (*prefix.Library, error) {
	if a.Output == "" {
		return nil, fmt.Errorf("aggregate output path is required")
	}
	if len(p.Objects) == 0 {
		return nil, fmt.Errorf("nothing to aggregate")
	}
	linker := a.Linker
	if linker == "" {
		linker = "cc"
	}
	run := a.Run
	if run == nil {
		run = execRunner
	}
	logger := a.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	out, err := filepath.Abs(a.Output)
	if err != nil {
		return nil, fmt.Errorf("resolving output path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	args := []string{"-shared", "-o", out}
	args = append(args, wholeArchive(a.GOOS, p.Objects)...)

	logger.Printf("Running: %s %s", linker, strings.Join(args, " "))
	if output, err := run(ctx, linker, args...); err != nil {
		logger.Printf("❌ %s failed", linker)
		return nil, fmt.Errorf("%s failed: %w: %s", linker, err, strings.TrimSpace(string(output)))
	}

	logger.Printf("✓ Aggregated %d libraries into %s", len(p.Objects), out)
	lib := OutputLibrary(out)
	return &lib, nil
}

// wholeArchive wraps objects so the linker keeps every member.
func wholeArchive(goos string, objects []string) []string {
	if goos == "darwin" {
		return append([]string{"-Wl,-all_load"}, objects...)
	}
	args := append([]string{"-Wl,--whole-archive"}, objects...)
	return append(args, "-Wl,--no-whole-archive")
}

// OutputLibrary describes the artifact Aggregate writes to path, deriving
// its link name from the file name: libffmpeg.so -> ffmpeg.
func OutputLibrary(path string) prefix.Library {
	base := filepath.Base(path)
	if i := strings.IndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	return prefix.Library{Path: path, Name: prefix.LibraryName(strings.TrimPrefix(base, "lib"))}
}
