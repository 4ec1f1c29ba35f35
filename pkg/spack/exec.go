// pkg/spack/exec.go
package spack

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
)

// Cmd is one spack subprocess invocation.
type Cmd struct {
	Path string            // Executable
	Args []string          // Arguments, not including Path
	Env  map[string]string // Overlay applied on top of the process environment
}

func (c Cmd) String() string {
	return strings.Join(append([]string{c.Path}, c.Args...), " ")
}

// Output holds what a subprocess wrote.
type Output struct {
	Stdout []byte
	Stderr []byte
}

// Executor runs subprocesses. The default implementation uses os/exec;
// tests substitute a scripted fake.
type Executor interface {
	Run(ctx context.Context, cmd Cmd) (Output, error)
}

// RunError reports a subprocess that exited unsuccessfully.
type RunError struct {
	Cmd      Cmd
	ExitCode int
	Stderr   []byte
	Err      error
}

func (e *RunError) Error() string {
	msg := strings.TrimSpace(string(e.Stderr))
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("%s: exit status %d: %s", e.Cmd, e.ExitCode, msg)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// ExecExecutor runs commands with os/exec.
type ExecExecutor struct {
	// Stream, if set, receives a copy of stdout and stderr as they are written.
	Stream io.Writer
}

// Run executes cmd and waits for it to finish
func (x ExecExecutor) Run(ctx context.Context, cmd Cmd) (Output, error) {
	c := exec.CommandContext(ctx, cmd.Path, cmd.Args...)
	if len(cmd.Env) > 0 {
		c.Env = Environment(cmd.Env).Apply(os.Environ())
	}

	var stdout, stderr bytes.Buffer
	if x.Stream != nil {
		c.Stdout = io.MultiWriter(&stdout, x.Stream)
		c.Stderr = io.MultiWriter(&stderr, x.Stream)
	} else {
		c.Stdout = &stdout
		c.Stderr = &stderr
	}

	err := c.Run()
	out := Output{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err != nil {
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		return out, &RunError{Cmd: cmd, ExitCode: code, Stderr: out.Stderr, Err: err}
	}
	return out, nil
}

// mergeEnv overlays override onto a KEY=VALUE list, sorted by key.
func mergeEnv(base []string, override map[string]string) []string {
	envMap := make(map[string]string, len(base))
	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			envMap[k] = v
		}
	}
	for k, v := range override {
		envMap[k] = v
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+envMap[k])
	}
	return out
}
