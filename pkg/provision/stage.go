// pkg/provision/stage.go
package provision

import "fmt"

// Stage is a state of the toolchain bootstrap. Stages only move forward;
// any failure moves to Failed.
type Stage int

const (
	ToolchainPending Stage = iota
	CompilerInstalling
	CompilerResolving
	CompilerPrefixed
	CompilerRegistered
	EnvironmentLoaded
	TargetInstalled
	Done
	Failed
)

var stageNames = map[Stage]string{
	ToolchainPending:   "toolchain-pending",
	CompilerInstalling: "compiler-installing",
	CompilerResolving:  "compiler-resolving",
	CompilerPrefixed:   "compiler-prefixed",
	CompilerRegistered: "compiler-registered",
	EnvironmentLoaded:  "environment-loaded",
	TargetInstalled:    "target-installed",
	Done:               "done",
	Failed:             "failed",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// StageError is the terminal Failed state: the stage the pipeline was in,
// the bootstrap step (1-7) that failed, and the cause. Err is usually a
// *spack.CommandError or one of the package's sentinel errors.
type StageError struct {
	Stage Stage
	Step  int
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("toolchain bootstrap failed at step %d (%s): %v", e.Step, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
