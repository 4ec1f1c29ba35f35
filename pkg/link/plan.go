// pkg/link/plan.go
package link

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/arc-language/ffsys/pkg/features"
	"github.com/arc-language/ffsys/pkg/prefix"
)

// ErrUnsatisfied is returned when an enabled feature's library is missing
// from the installation
var ErrUnsatisfied = errors.New("enabled features have no installed library")

// Mode selects how the plan is consumed
type Mode string

const (
	// ModeDirect links against the installed libraries in place
	ModeDirect Mode = "direct"
	// ModeAggregate links every retained artifact into one shared library
	ModeAggregate Mode = "aggregate"
)

// ParseMode parses a link mode name. Empty means direct.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeDirect:
		return ModeDirect, nil
	case ModeAggregate:
		return ModeAggregate, nil
	default:
		return "", fmt.Errorf("unknown link mode: %s", s)
	}
}

// linkOrder lists libraries dependents-first, as static linkers need them
var linkOrder = []prefix.LibraryName{
	"avdevice",
	"avfilter",
	"avformat",
	"avcodec",
	"postproc",
	"swresample",
	"swscale",
	"avutil",
}

// Plan is the set of libraries to link for one feature selection.
type Plan struct {
	Mode       Mode
	SearchDirs []string             // Distinct directories, first-seen order
	Libs       []prefix.LibraryName // Link names, dependents first
	Objects    []string             // One artifact per library, same order as Libs
}

// Derive keeps the discovered libraries that belong to an enabled feature.
// Every enabled feature must have at least one library in libs.
func Derive(p prefix.Prefix, libs []prefix.Library, set features.Set, mode Mode) (*Plan, error) {
	if set.Empty() {
		return nil, fmt.Errorf("no features enabled")
	}

	wanted := make(map[prefix.LibraryName]bool)
	for _, name := range set.Libraries() {
		wanted[prefix.LibraryName(name)] = true
	}

	// several files may carry one name (libavcodec.so, libavcodec.so.58);
	// keep the shortest file name, which is the unversioned link name
	byName := make(map[prefix.LibraryName]prefix.Library)
	for _, lib := range libs {
		if !wanted[lib.Name] {
			continue
		}
		if cur, ok := byName[lib.Name]; !ok || shorter(lib.Path, cur.Path) {
			byName[lib.Name] = lib
		}
	}

	var missing []string
	for name := range wanted {
		if _, ok := byName[name]; !ok {
			missing = append(missing, string(name))
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w under %s: %s", ErrUnsatisfied, p.Lib(), strings.Join(missing, ", "))
	}

	plan := &Plan{Mode: mode}
	seenDir := make(map[string]bool)
	for _, name := range linkOrder {
		lib, ok := byName[name]
		if !ok {
			continue
		}
		plan.Libs = append(plan.Libs, name)
		plan.Objects = append(plan.Objects, lib.Path)
		if dir := lib.Dir(); !seenDir[dir] {
			seenDir[dir] = true
			plan.SearchDirs = append(plan.SearchDirs, dir)
		}
	}
	return plan, nil
}

func shorter(a, b string) bool {
	an, bn := filepath.Base(a), filepath.Base(b)
	if len(an) != len(bn) {
		return len(an) < len(bn)
	}
	return an < bn
}

// Directives returns the linker flags for direct mode
func (p *Plan) Directives() []string {
	flags := make([]string, 0, len(p.SearchDirs)+len(p.Libs))
	for _, dir := range p.SearchDirs {
		flags = append(flags, "-L"+dir)
	}
	for _, name := range p.Libs {
		flags = append(flags, "-l"+string(name))
	}
	return flags
}

// CgoLDFlags renders the directives as a cgo preamble line
func (p *Plan) CgoLDFlags() string {
	return "#cgo LDFLAGS: " + strings.Join(p.Directives(), " ")
}

func (p *Plan) String() string {
	return fmt.Sprintf("%s link of %d libraries: %s", p.Mode, len(p.Libs), strings.Join(p.Directives(), " "))
}
