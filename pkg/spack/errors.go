// pkg/spack/errors.go
package spack

import (
	"fmt"
)

// CommandKind identifies which spack command failed
type CommandKind string

const (
	KindInstall           CommandKind = "install"
	KindFind              CommandKind = "find"
	KindFindPrefix        CommandKind = "find-prefix"
	KindCompilerFind      CommandKind = "compiler-find"
	KindFindCompilerSpecs CommandKind = "find-compiler-specs"
	KindLoad              CommandKind = "load"
	KindSummon            CommandKind = "summon"
)

// CommandError wraps a failure of one command together with the command
// value that produced it.
type CommandError struct {
	Kind    CommandKind
	Command fmt.Stringer // The originating command, for diagnostics
	Err     error        // Underlying transport or parse error
}

func (e *CommandError) Error() string {
	if e.Command != nil {
		return fmt.Sprintf("spack %s (%s): %v", e.Kind, e.Command, e.Err)
	}
	return fmt.Sprintf("spack %s: %v", e.Kind, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

func commandError(kind CommandKind, cmd fmt.Stringer, err error) error {
	return &CommandError{Kind: kind, Command: cmd, Err: err}
}
