// pkg/platform/utils.go
package platform

import (
	"os/exec"
)

// CommandPath returns the resolved path of cmd in PATH, or "" if absent
func CommandPath(cmd string) string {
	p, err := exec.LookPath(cmd)
	if err != nil {
		return ""
	}
	return p
}

// CommandExists checks if a command is available in PATH
func CommandExists(cmd string) bool {
	return CommandPath(cmd) != ""
}
