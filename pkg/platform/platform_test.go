package platform

import "testing"

func TestSelectTarget(t *testing.T) {
	if _, err := SelectTarget(false, false); err == nil {
		t.Error("neither target should be an error")
	}
	if _, err := SelectTarget(true, true); err == nil {
		t.Error("both targets should be an error")
	}
	if got, err := SelectTarget(true, false); err != nil || got != TargetNative {
		t.Errorf("SelectTarget(native) = %v, %v", got, err)
	}
	if got, err := SelectTarget(false, true); err != nil || got != TargetWasm {
		t.Errorf("SelectTarget(wasm) = %v, %v", got, err)
	}
}

func TestParseTarget(t *testing.T) {
	for in, want := range map[string]Target{
		"native":     TargetNative,
		"WASM":       TargetWasm,
		"emscripten": TargetWasm,
	} {
		got, err := ParseTarget(in)
		if err != nil || got != want {
			t.Errorf("ParseTarget(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseTarget(""); err == nil {
		t.Error("empty target should fail")
	}
	if _, err := ParseTarget("riscv"); err == nil {
		t.Error("unknown target should fail")
	}
}

func TestLibraryPattern(t *testing.T) {
	tests := []struct {
		kind LibraryKind
		goos string
		file string
		want string
	}{
		{Dynamic, "linux", "libavcodec.so", "avcodec"},
		{Dynamic, "linux", "libavutil.so.56", "avutil"},
		{Dynamic, "linux", "libavutil.so.56.70.100", "avutil"},
		{Dynamic, "linux", "libfoo.txt", ""},
		{Dynamic, "linux", "libavcodec.a", ""},
		{Dynamic, "linux", "libavcodec.so.debug", ""},
		{Dynamic, "darwin", "libavcodec.58.dylib", "avcodec"},
		{Dynamic, "darwin", "libavcodec.dylib", "avcodec"},
		{Dynamic, "windows", "avcodec-58.dll", "avcodec"},
		{Static, "linux", "libswscale.a", "swscale"},
		{Static, "linux", "libswscale.so", ""},
	}
	for _, tt := range tests {
		m := LibraryPattern(tt.kind, tt.goos).FindStringSubmatch(tt.file)
		got := ""
		if m != nil {
			got = m[1]
		}
		if got != tt.want {
			t.Errorf("%s/%s %q: got %q, want %q", tt.kind, tt.goos, tt.file, got, tt.want)
		}
	}
}

func TestLibraryFileName(t *testing.T) {
	if got := LibraryFileName("avutil", Dynamic, "linux"); got != "libavutil.so" {
		t.Errorf("got %q", got)
	}
	if got := LibraryFileName("avutil", Static, "linux"); got != "libavutil.a" {
		t.Errorf("got %q", got)
	}
	if got := LibraryFileName("avutil", Dynamic, "darwin"); got != "libavutil.dylib" {
		t.Errorf("got %q", got)
	}
}
