// pkg/platform/library.go
package platform

import (
	"fmt"
	"regexp"
)

// LibraryKind distinguishes shared objects from static archives
type LibraryKind int

const (
	Dynamic LibraryKind = iota
	Static
)

func (k LibraryKind) String() string {
	if k == Static {
		return "static"
	}
	return "dynamic"
}

var (
	// libavcodec.so, libavutil.so.56, libavutil.so.56.70.100
	linuxShared = regexp.MustCompile(`^lib([^./]+)\.so(?:\.[0-9]+)*$`)
	// libavcodec.dylib, libavcodec.58.dylib
	darwinShared = regexp.MustCompile(`^lib([^./]+)(?:\.[0-9]+)*\.dylib$`)
	// avcodec-58.dll
	windowsShared = regexp.MustCompile(`^([^./-]+)(?:-[0-9]+)?\.dll$`)
	unixStatic    = regexp.MustCompile(`^lib([^./]+)\.a$`)
	windowsStatic = regexp.MustCompile(`^([^./]+)\.lib$`)
)

// LibraryPattern returns the filename pattern for libraries of the given kind
// on goos. The first submatch is the canonical library name.
func LibraryPattern(kind LibraryKind, goos string) *regexp.Regexp {
	switch kind {
	case Static:
		if goos == "windows" {
			return windowsStatic
		}
		return unixStatic
	default:
		switch goos {
		case "darwin", "ios":
			return darwinShared
		case "windows":
			return windowsShared
		default:
			return linuxShared
		}
	}
}

// LibraryFileName returns the unversioned filename for a library name.
func LibraryFileName(name string, kind LibraryKind, goos string) string {
	switch {
	case kind == Static && goos == "windows":
		return name + ".lib"
	case kind == Static:
		return "lib" + name + ".a"
	case goos == "darwin" || goos == "ios":
		return fmt.Sprintf("lib%s.dylib", name)
	case goos == "windows":
		return name + ".dll"
	default:
		return fmt.Sprintf("lib%s.so", name)
	}
}
