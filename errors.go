// errors.go
package ffsys

import (
	"errors"
	"fmt"
)

var (
	// ErrSummon indicates spack could not be located, fetched or run
	ErrSummon = errors.New("spack unavailable")

	// ErrProvision indicates the target library could not be installed
	ErrProvision = errors.New("provisioning failed")

	// ErrLink indicates the installation does not satisfy the feature selection
	ErrLink = errors.New("link plan failed")

	// ErrBindings indicates binding generation failed or is stale
	ErrBindings = errors.New("binding generation failed")
)

// Error wraps an error with the build step that produced it
type Error struct {
	Op   string // Operation that failed
	Kind error  // One of the sentinels above
	Err  error  // Underlying error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap exposes both the sentinel and the cause to errors.Is and errors.As
func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func wrap(op string, kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: kind, Err: err}
}
