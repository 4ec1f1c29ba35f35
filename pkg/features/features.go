// pkg/features/features.go
package features

import (
	"fmt"
	"strings"
)

// Feature selects one FFmpeg sub-component.
type Feature uint8

const (
	Codec Feature = iota
	Device
	Filter
	Format
	Util
	Postproc
	Resample
	Scale

	numFeatures
)

var names = [numFeatures]string{
	Codec:    "codec",
	Device:   "device",
	Filter:   "filter",
	Format:   "format",
	Util:     "util",
	Postproc: "postproc",
	Resample: "resample",
	Scale:    "scale",
}

var libraries = [numFeatures]string{
	Codec:    "avcodec",
	Device:   "avdevice",
	Filter:   "avfilter",
	Format:   "avformat",
	Util:     "avutil",
	Postproc: "postproc",
	Resample: "swresample",
	Scale:    "swscale",
}

// All returns every feature in declaration order.
func All() []Feature {
	all := make([]Feature, 0, numFeatures)
	for f := Feature(0); f < numFeatures; f++ {
		all = append(all, f)
	}
	return all
}

// String returns the short flag name (e.g. "codec").
func (f Feature) String() string {
	if f >= numFeatures {
		return fmt.Sprintf("feature(%d)", uint8(f))
	}
	return names[f]
}

// Library returns the shared library base name (e.g. "avcodec").
func (f Feature) Library() string {
	return libraries[f]
}

// Define returns the preprocessor define guarding this component in ffmpeg.h.
func (f Feature) Define() string {
	return "LIB" + strings.ToUpper(libraries[f])
}

// Parse accepts a feature name, its library name, or its "lib"-prefixed
// crate-style name ("codec", "avcodec", "libavcodec").
func Parse(s string) (Feature, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.TrimPrefix(key, "lib")
	for f := Feature(0); f < numFeatures; f++ {
		if key == names[f] || key == libraries[f] {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown feature %q (valid: %s)", s, strings.Join(names[:], ", "))
}

// Set is the build-time feature selection. It is built once and passed to
// every consumer; the zero value selects nothing.
type Set uint16

// Of returns a set containing fs.
func Of(fs ...Feature) Set {
	var s Set
	for _, f := range fs {
		s = s.With(f)
	}
	return s
}

// Full returns a set with every feature enabled.
func Full() Set {
	return Of(All()...)
}

// ParseList parses a list of feature names. Entries may themselves be
// comma-separated. An empty list yields Full.
func ParseList(items []string) (Set, error) {
	var s Set
	seen := false
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			f, err := Parse(part)
			if err != nil {
				return 0, err
			}
			s = s.With(f)
			seen = true
		}
	}
	if !seen {
		return Full(), nil
	}
	return s, nil
}

func (s Set) With(f Feature) Set { return s | 1<<f }

func (s Set) Has(f Feature) bool { return s&(1<<f) != 0 }

func (s Set) Empty() bool { return s == 0 }

// Features returns the enabled features in declaration order.
func (s Set) Features() []Feature {
	var out []Feature
	for f := Feature(0); f < numFeatures; f++ {
		if s.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// Libraries returns the library names of the enabled features.
func (s Set) Libraries() []string {
	var out []string
	for _, f := range s.Features() {
		out = append(out, f.Library())
	}
	return out
}

// Defines returns the preprocessor defines of the enabled features.
func (s Set) Defines() []string {
	var out []string
	for _, f := range s.Features() {
		out = append(out, f.Define())
	}
	return out
}

func (s Set) String() string {
	fs := s.Features()
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = f.String()
	}
	return strings.Join(parts, ",")
}
