package prefix

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/arc-language/ffsys/pkg/platform"
)

// makePrefix creates a prefix with the given files under lib/.
func makePrefix(t *testing.T, files ...string) Prefix {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "include"), 0755); err != nil {
		t.Fatal(err)
	}
	for _, f := range files {
		path := filepath.Join(root, "lib", f)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
	return Prefix{Path: root}
}

func sortedNames(libs []Library) []string {
	var out []string
	for _, n := range Names(libs) {
		out = append(out, string(n))
	}
	sort.Strings(out)
	return out
}

func TestDiscoverExtractsNames(t *testing.T) {
	p := makePrefix(t, "libavcodec.so", "libfoo.txt", "libavutil.so.56")

	libs, err := Discover(p, platform.Dynamic, "linux")
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	got := sortedNames(libs)
	if len(got) != 2 || got[0] != "avcodec" || got[1] != "avutil" {
		t.Errorf("names = %v, want [avcodec avutil]", got)
	}
}

func TestDiscoverRecursive(t *testing.T) {
	p := makePrefix(t,
		"libavformat.so.58",
		filepath.Join("pkgconfig", "libavformat.pc"),
		filepath.Join("nested", "libswscale.so"),
		"libavformat.a",
	)

	libs, err := Discover(p, platform.Dynamic, "linux")
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	got := sortedNames(libs)
	if len(got) != 2 || got[0] != "avformat" || got[1] != "swscale" {
		t.Errorf("names = %v", got)
	}

	static, err := Discover(p, platform.Static, "linux")
	if err != nil {
		t.Fatalf("Discover static: %v", err)
	}
	if len(static) != 1 || static[0].Name != "avformat" {
		t.Errorf("static = %v", static)
	}
}

func TestDiscoverNoLibDir(t *testing.T) {
	_, err := Discover(Prefix{Path: t.TempDir()}, platform.Dynamic, "linux")
	if !errors.Is(err, ErrNoLibDir) {
		t.Errorf("err = %v, want ErrNoLibDir", err)
	}
}

func TestQueryFind(t *testing.T) {
	p := makePrefix(t, "libavutil.so", "libavcodec.so", "libavformat.so")

	q := Query{
		Needed: []LibraryName{"avutil", "avcodec"},
		Kind:   platform.Dynamic,
		GOOS:   "linux",
	}
	libs, err := q.Find(p)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	got := sortedNames(libs)
	if len(got) != 2 || got[0] != "avcodec" || got[1] != "avutil" {
		t.Errorf("names = %v", got)
	}
	for _, lib := range libs {
		if lib.Dir() != p.Lib() {
			t.Errorf("Dir() = %s, want %s", lib.Dir(), p.Lib())
		}
	}
}
