// pkg/platform/target.go
package platform

import (
	"fmt"
	"runtime"
	"strings"
)

// Target is the platform the FFmpeg libraries are provisioned for. It is
// chosen once per build and never switched afterwards.
type Target string

const (
	// TargetNative builds for the host with the system compiler
	TargetNative Target = "native"
	// TargetWasm cross-compiles with an emscripten toolchain bootstrapped by spack
	TargetWasm Target = "wasm"
)

// SelectTarget turns the exclusive --native/--wasm choice into a Target.
// Selecting neither or both is a configuration error.
func SelectTarget(native, wasm bool) (Target, error) {
	switch {
	case native && wasm:
		return "", fmt.Errorf("exactly one target must be selected, got both native and wasm")
	case native:
		return TargetNative, nil
	case wasm:
		return TargetWasm, nil
	default:
		return "", fmt.Errorf("exactly one target must be selected, got neither native nor wasm")
	}
}

// ParseTarget parses a target name from configuration.
func ParseTarget(s string) (Target, error) {
	switch Target(strings.ToLower(strings.TrimSpace(s))) {
	case TargetNative, "linux", "host":
		return TargetNative, nil
	case TargetWasm, "emscripten", "wasm32":
		return TargetWasm, nil
	case "":
		return "", fmt.Errorf("no target configured")
	default:
		return "", fmt.Errorf("unsupported target: %s", s)
	}
}

// GOOS returns the operating system whose library naming applies to t.
// Emscripten output follows Unix naming.
func (t Target) GOOS() string {
	if t == TargetWasm {
		return "linux"
	}
	return runtime.GOOS
}

// String returns the string representation of the target
func (t Target) String() string {
	return string(t)
}

// HostArchTriple returns the Debian multiarch directory name for the host,
// e.g. "x86_64-linux-gnu".
func HostArchTriple() string {
	arch := runtime.GOARCH
	switch arch {
	case "amd64":
		arch = "x86_64"
	case "arm64":
		arch = "aarch64"
	case "386":
		arch = "i386"
	}
	return arch + "-linux-gnu"
}
