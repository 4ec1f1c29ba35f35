// Package spacktest provides a scripted spack executor for tests.
package spacktest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/arc-language/ffsys/pkg/spack"
)

// Response is one scripted reply.
type Response struct {
	Stdout   string
	Stderr   string
	ExitCode int // non-zero makes Run return a *spack.RunError
}

// Rule answers invocations whose arguments start with Prefix.
type Rule struct {
	Prefix    []string
	responses []Response
	hits      int
	check     func(spack.Cmd) error
}

// Respond appends a reply. Successive matching calls consume replies in
// order; the last one repeats.
func (r *Rule) Respond(resp Response) *Rule {
	r.responses = append(r.responses, resp)
	return r
}

// Stdout is shorthand for a successful reply.
func (r *Rule) Stdout(out string) *Rule {
	return r.Respond(Response{Stdout: out})
}

// Fail is shorthand for a failing reply.
func (r *Rule) Fail(code int, stderr string) *Rule {
	return r.Respond(Response{ExitCode: code, Stderr: stderr})
}

// Check installs a hook run before answering; a non-nil error fails the call.
func (r *Rule) Check(fn func(spack.Cmd) error) *Rule {
	r.check = fn
	return r
}

// Fake is a spack.Executor that answers from rules.
type Fake struct {
	mu    sync.Mutex
	rules []*Rule
	Calls []spack.Cmd
}

// On registers a rule. The longest matching prefix wins; among equal
// prefixes the rule registered last wins, so tests can override a script.
func (f *Fake) On(prefix ...string) *Rule {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := &Rule{Prefix: prefix}
	f.rules = append(f.rules, r)
	return r
}

// Run implements spack.Executor.
func (f *Fake) Run(ctx context.Context, cmd spack.Cmd) (spack.Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, cmd)

	var best *Rule
	for _, r := range f.rules {
		if hasPrefix(cmd.Args, r.Prefix) && (best == nil || len(r.Prefix) >= len(best.Prefix)) {
			best = r
		}
	}
	if best == nil || len(best.responses) == 0 {
		return spack.Output{}, &spack.RunError{
			Cmd:      cmd,
			ExitCode: 127,
			Stderr:   []byte("unexpected spack call: " + strings.Join(cmd.Args, " ")),
			Err:      errors.New("unexpected call"),
		}
	}
	if best.check != nil {
		if err := best.check(cmd); err != nil {
			return spack.Output{}, err
		}
	}

	i := best.hits
	if i >= len(best.responses) {
		i = len(best.responses) - 1
	}
	best.hits++
	resp := best.responses[i]

	out := spack.Output{Stdout: []byte(resp.Stdout), Stderr: []byte(resp.Stderr)}
	if resp.ExitCode != 0 {
		return out, &spack.RunError{
			Cmd:      cmd,
			ExitCode: resp.ExitCode,
			Stderr:   out.Stderr,
			Err:      errors.New("exit status"),
		}
	}
	return out, nil
}

// Count returns how many calls started with prefix.
func (f *Fake) Count(prefix ...string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if hasPrefix(c.Args, prefix) {
			n++
		}
	}
	return n
}

// Session returns an invocation backed by f.
func (f *Fake) Session(t testing.TB) *spack.Invocation {
	t.Helper()
	inv, err := spack.NewInvocation("/opt/spack/bin/spack", "/opt/spack", &spack.Config{Executor: f})
	if err != nil {
		t.Fatalf("NewInvocation: %v", err)
	}
	return inv
}

func hasPrefix(args, prefix []string) bool {
	if len(prefix) > len(args) {
		return false
	}
	for i, p := range prefix {
		if args[i] != p {
			return false
		}
	}
	return true
}
