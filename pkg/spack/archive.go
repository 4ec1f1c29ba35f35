// pkg/spack/archive.go
package spack

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"
	"zombiezen.com/go/nix"
)

// verifyArchiveHash checks a file against a "sha256:<digest>" or SRI hash.
func verifyArchiveHash(path, expected string) error {
	want, err := nix.ParseHash(expected)
	if err != nil {
		return fmt.Errorf("parsing expected hash: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	hasher := nix.NewHasher(want.Type())
	if _, err := io.Copy(hasher, f); err != nil {
		return fmt.Errorf("computing hash: %w", err)
	}

	got := hasher.SumHash()
	if got.String() != want.String() {
		return fmt.Errorf("hash mismatch: expected %v, got %v", want, got)
	}
	return nil
}

// decompressor picks the stream decoder from the archive name
func decompressor(name string, r io.Reader) (io.Reader, error) {
	switch {
	case strings.HasSuffix(name, ".tar.xz"), strings.HasSuffix(name, ".txz"):
		return xz.NewReader(r)
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return gzip.NewReader(r)
	case strings.HasSuffix(name, ".tar"):
		return r, nil
	default:
		return nil, fmt.Errorf("unsupported archive format: %s", filepath.Base(name))
	}
}

// extractArchive unpacks a release tarball into dest, dropping the single
// top-level directory (spack-0.19.0/...) that releases are wrapped in.
func extractArchive(archivePath, dest string) (int, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return 0, fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	r, err := decompressor(archivePath, f)
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(dest, 0755); err != nil {
		return 0, fmt.Errorf("creating destination directory: %w", err)
	}
	dest = filepath.Clean(dest)

	fileCount := 0
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fileCount, fmt.Errorf("reading archive entry: %w", err)
		}

		rel := stripTopDir(hdr.Name)
		if rel == "" {
			continue
		}
		target := filepath.Join(dest, rel)
		if !within(dest, target) {
			return fileCount, fmt.Errorf("archive entry escapes destination: %s", hdr.Name)
		}
		if link, ok := symlinkedParent(dest, target); ok {
			return fileCount, fmt.Errorf("archive entry %s is below symlink %s", hdr.Name, link)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return fileCount, fmt.Errorf("creating directory %s: %w", target, err)
			}
		case tar.TypeSymlink:
			if filepath.IsAbs(hdr.Linkname) || !within(dest, filepath.Join(filepath.Dir(target), hdr.Linkname)) {
				return fileCount, fmt.Errorf("archive symlink %s points outside destination: %s", hdr.Name, hdr.Linkname)
			}
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return fileCount, fmt.Errorf("creating parent directory: %w", err)
			}
			if err := os.Symlink(hdr.Linkname, target); err != nil && !os.IsExist(err) {
				return fileCount, fmt.Errorf("creating symlink: %w", err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return fileCount, fmt.Errorf("creating parent directory: %w", err)
			}
			perm := os.FileMode(0644)
			if hdr.Mode&0111 != 0 {
				perm = 0755
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
			if err != nil {
				return fileCount, fmt.Errorf("creating file %s: %w", target, err)
			}
			_, err = io.Copy(out, tr)
			out.Close()
			if err != nil {
				return fileCount, fmt.Errorf("writing file: %w", err)
			}
			fileCount++
		default:
			// Ignore other types
		}
	}

	return fileCount, nil
}

// within reports whether path is dest or lies below it
func within(dest, path string) bool {
	rel, err := filepath.Rel(dest, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator))
}

// symlinkedParent returns the first existing directory between dest and
// target that is a symlink. Entries are never written through symlinks.
func symlinkedParent(dest, target string) (string, bool) {
	rel, err := filepath.Rel(dest, filepath.Dir(target))
	if err != nil || rel == "." {
		return "", false
	}
	cur := dest
	for _, part := range strings.Split(rel, string(os.PathSeparator)) {
		cur = filepath.Join(cur, part)
		info, err := os.Lstat(cur)
		if err != nil {
			return "", false
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return cur, true
		}
	}
	return "", false
}

func stripTopDir(name string) string {
	name = strings.TrimPrefix(filepath.ToSlash(name), "./")
	_, rest, ok := strings.Cut(name, "/")
	if !ok {
		return ""
	}
	return filepath.FromSlash(strings.TrimSuffix(rest, "/"))
}
