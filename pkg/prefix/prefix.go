// pkg/prefix/prefix.go
package prefix

import (
	"path/filepath"
)

// Prefix is the installation root of one spack package. It is produced by
// the provisioning pipeline and only read afterwards.
type Prefix struct {
	Path string
}

// Include returns the header root (<prefix>/include)
func (p Prefix) Include() string {
	return filepath.Join(p.Path, "include")
}

// Lib returns the library root (<prefix>/lib)
func (p Prefix) Lib() string {
	return filepath.Join(p.Path, "lib")
}

func (p Prefix) String() string {
	return p.Path
}

// LibraryName is the canonical short name of a library, e.g. "avcodec" for
// libavcodec.so.58.
type LibraryName string

// Library represents a found library file
type Library struct {
	Path string      // Absolute path to library file
	Name LibraryName // Canonical name extracted from the filename
}

// Dir returns the directory containing the library file
func (l Library) Dir() string {
	return filepath.Dir(l.Path)
}
