// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"docknode/pkg/types"
)

// Mode is the execution mode decided by the override check. Exactly one
// mode is chosen per invocation; there is no hybrid execution.
type Mode string

const (
	// ModeContainerized runs the tool inside a container (the default).
	ModeContainerized Mode = "containerized"
	// ModeLocal runs the host-installed tool, bypassing containers.
	ModeLocal Mode = "local"
)

// ErrToolNotFound is returned when local mode is requested but the tool
// does not exist on the search path outside the shim directory. Local
// mode is an explicit opt-in, so there is no containerized fallback.
var ErrToolNotFound = errors.New("tool not found on PATH outside the shim directory")

// ResolveMode applies the override check: EnvMode equal to "local" or a
// truthy EnvLocal selects local execution. Everything else is
// containerized.
func ResolveMode(req *InvocationRequest) Mode {
	if req.Getenv(EnvMode) == ModeLocalValue || req.IsTruthy(EnvLocal) {
		return ModeLocal
	}
	return ModeContainerized
}

// LookupLocalTool finds the real tool on the search path with the shim's
// own install directory removed. Removing shimDir is what prevents the
// shim from resolving — and endlessly re-invoking — itself.
func LookupLocalTool(tool types.Tool, pathEnv, shimDir string) (string, error) {
	cleanShim := filepath.Clean(shimDir)

	for _, dir := range filepath.SplitList(pathEnv) {
		if dir == "" {
			continue
		}
		if filepath.Clean(dir) == cleanShim {
			continue
		}

		candidate := filepath.Join(dir, tool.String())
		if isExecutable(candidate) {
			return candidate, nil
		}
	}

	return "", ErrToolNotFound
}

// ShimDir returns the directory holding the currently running shim
// binary. Symlinks are not resolved: the shim directory is the directory
// the symlink farm lives in, which is exactly what must be stripped from
// the search path.
func ShimDir() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	return filepath.Dir(exe)
}

// isExecutable reports whether path is a regular file the current user
// can execute.
func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if strings.HasSuffix(strings.ToLower(path), ".exe") {
		return true
	}
	return info.Mode()&0o111 != 0
}
