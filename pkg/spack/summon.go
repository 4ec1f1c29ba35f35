// pkg/spack/summon.go
package spack

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/arc-language/ffsys/pkg/platform"
)

const (
	// DefaultRepoURL is the upstream spack repository
	DefaultRepoURL = "https://github.com/spack/spack"
	// DefaultRef is the spack release the recipes are written against
	DefaultRef = "v0.19.0"
)

// SummonOptions controls how a spack installation is located or fetched
type SummonOptions struct {
	Root        string // Existing spack checkout; used as-is when set
	UsePath     bool   // Accept a `spack` found on PATH
	Repo        string // Git repository to clone from (default: DefaultRepoURL)
	Ref         string // Tag or branch to check out (default: DefaultRef)
	ArchiveURL  string // Release tarball (.tar.xz, .tar.gz); preferred over Repo when set
	ArchiveHash string // Optional "sha256:..." hash of ArchiveURL
	CachePath   string // Where fetched checkouts live, as <cache>/spack/<ref>
	Config      *Config
}

// Summon locates or fetches spack and returns a verified session. Nothing
// else in the pipeline runs until this succeeds.
func Summon(ctx context.Context, opts SummonOptions) (*Invocation, error) {
	if opts.Repo == "" {
		opts.Repo = DefaultRepoURL
	}
	if opts.Ref == "" {
		opts.Ref = DefaultRef
	}

	bin, root, err := locate(ctx, opts)
	if err != nil {
		return nil, commandError(KindSummon, nil, err)
	}

	inv, err := NewInvocation(bin, root, opts.Config)
	if err != nil {
		return nil, commandError(KindSummon, nil, err)
	}

	version, err := inv.CheckVersion(ctx)
	if err != nil {
		return nil, commandError(KindSummon, nil, fmt.Errorf("spack at %s is not usable: %w", bin, err))
	}
	inv.logger.Printf("✓ Summoned spack %s (%s)", version, bin)
	return inv, nil
}

func locate(ctx context.Context, opts SummonOptions) (bin, root string, err error) {
	if opts.Root != "" {
		bin = filepath.Join(opts.Root, "bin", "spack")
		if _, err := os.Stat(bin); err != nil {
			return "", "", fmt.Errorf("no spack executable in %s: %w", opts.Root, err)
		}
		return bin, opts.Root, nil
	}

	if opts.UsePath {
		if p := platform.CommandPath("spack"); p != "" {
			return p, "", nil
		}
	}

	if opts.CachePath == "" {
		return "", "", fmt.Errorf("spack not found and no cache path configured to fetch it into")
	}

	root = filepath.Join(opts.CachePath, "spack", sanitizeRef(opts.Ref))
	bin = filepath.Join(root, "bin", "spack")
	if _, err := os.Stat(bin); err == nil {
		return bin, root, nil
	}

	if opts.ArchiveURL != "" {
		err = fetchArchive(ctx, opts, root)
	} else {
		err = cloneRepo(ctx, opts, root)
	}
	if err != nil {
		os.RemoveAll(root)
		return "", "", err
	}

	if _, err := os.Stat(bin); err != nil {
		return "", "", fmt.Errorf("fetched spack has no bin/spack: %w", err)
	}
	return bin, root, nil
}

var releaseTag = regexp.MustCompile(`^v\d+(\.\d+)*$`)

// refName maps "v0.19.0" to a tag and anything else to a branch
func refName(ref string) plumbing.ReferenceName {
	if releaseTag.MatchString(ref) {
		return plumbing.NewTagReferenceName(ref)
	}
	return plumbing.NewBranchReferenceName(ref)
}

func sanitizeRef(ref string) string {
	return strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(ref)
}

// cloneRepo makes a shallow single-branch clone of spack at opts.Ref
func cloneRepo(ctx context.Context, opts SummonOptions, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}

	_, err := git.PlainCloneContext(ctx, dest, false, &git.CloneOptions{
		URL:           opts.Repo,
		ReferenceName: refName(opts.Ref),
		SingleBranch:  true,
		Depth:         1,
		Tags:          git.NoTags,
	})
	if err != nil {
		return fmt.Errorf("git clone %s@%s failed: %w", opts.Repo, opts.Ref, err)
	}
	return nil
}

// fetchArchive downloads, verifies and unpacks a spack release tarball
func fetchArchive(ctx context.Context, opts SummonOptions, dest string) error {
	tmp, err := os.CreateTemp("", "ffsys-spack-*"+archiveSuffix(opts.ArchiveURL))
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	err = NewClient().Download(ctx, opts.ArchiveURL, tmp)
	tmp.Close()
	if err != nil {
		return fmt.Errorf("downloading %s: %w", opts.ArchiveURL, err)
	}

	if opts.ArchiveHash != "" {
		if err := verifyArchiveHash(tmp.Name(), opts.ArchiveHash); err != nil {
			return fmt.Errorf("verifying %s: %w", opts.ArchiveURL, err)
		}
	}

	if _, err := extractArchive(tmp.Name(), dest); err != nil {
		return fmt.Errorf("extracting %s: %w", opts.ArchiveURL, err)
	}
	return nil
}

func archiveSuffix(url string) string {
	for _, ext := range []string{".tar.xz", ".tar.gz", ".txz", ".tgz", ".tar"} {
		if strings.HasSuffix(url, ext) {
			return ext
		}
	}
	return ""
}
