// pkg/spack/invocation.go
package spack

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/arc-language/ffsys/pkg/prefix"
)

// prefixCacheSize bounds the per-session FindPrefix memo
const prefixCacheSize = 256

// Config configures a spack session
type Config struct {
	Executor Executor    // Default: ExecExecutor{}
	Logger   *log.Logger // Custom logger (optional)
	Debug    bool        // Enable debug logging
}

// Invocation is a summoned spack session. It is shared by pointer across the
// whole pipeline and never re-spawned.
type Invocation struct {
	bin      string
	root     string
	version  string
	exec     Executor
	logger   *log.Logger
	prefixes *lru.Cache[Spec, prefix.Prefix]
}

// NewInvocation creates a session for the spack executable at bin.
// root is the spack checkout (empty for a system spack).
func NewInvocation(bin, root string, cfg *Config) (*Invocation, error) {
	if bin == "" {
		return nil, fmt.Errorf("spack executable path is required")
	}
	if cfg == nil {
		cfg = &Config{}
	}

	executor := cfg.Executor
	if executor == nil {
		executor = ExecExecutor{}
	}

	logger := cfg.Logger
	if logger == nil {
		if cfg.Debug {
			logger = log.New(log.Writer(), "[spack] ", log.LstdFlags)
		} else {
			logger = log.New(io.Discard, "", 0)
		}
	}

	cache, err := lru.New[Spec, prefix.Prefix](prefixCacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating prefix cache: %w", err)
	}

	return &Invocation{
		bin:      bin,
		root:     root,
		exec:     executor,
		logger:   logger,
		prefixes: cache,
	}, nil
}

// Bin returns the spack executable path
func (s *Invocation) Bin() string {
	return s.bin
}

// Root returns the spack checkout directory, if known
func (s *Invocation) Root() string {
	return s.root
}

// Version returns the version reported by `spack --version`, once checked
func (s *Invocation) Version() string {
	return s.version
}

// CheckVersion runs `spack --version` to prove the session is usable.
func (s *Invocation) CheckVersion(ctx context.Context) (string, error) {
	out, err := s.run(ctx, nil, "--version")
	if err != nil {
		return "", err
	}
	s.version = strings.TrimSpace(string(out.Stdout))
	return s.version, nil
}

func (s *Invocation) run(ctx context.Context, env map[string]string, args ...string) (Output, error) {
	cmd := Cmd{Path: s.bin, Args: args, Env: env}
	s.logger.Printf("Running: %s", cmd)
	out, err := s.exec.Run(ctx, cmd)
	if err != nil {
		s.logger.Printf("❌ %s failed: %v", args[0], err)
	}
	return out, err
}
