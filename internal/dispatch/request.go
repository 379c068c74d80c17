// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"os"
	"strings"

	"docknode/pkg/types"
)

// Environment variables forming the per-invocation override surface.
// All are optional; the truthy token set is {"1","true","yes","on"},
// case-sensitive.
const (
	// EnvImage is a total image override, winning over every version file.
	EnvImage = "DOCKER_NODE_IMAGE"
	// EnvPorts overrides the dev-server host port list (comma-separated).
	EnvPorts = "DOCKER_NODE_PORTS"
	// EnvOAuthPort overrides the login-callback port.
	EnvOAuthPort = "DOCKER_NODE_OAUTH_PORT"
	// EnvMode selects the execution mode; the value "local" bypasses
	// containerization.
	EnvMode = "DOCKER_NODE_MODE"
	// EnvLocal is a boolean-like local-execution toggle.
	EnvLocal = "DOCKER_NODE_LOCAL"
	// EnvSocket is a boolean-like opt-in for container socket bridging.
	EnvSocket = "DOCKER_NODE_SOCKET"
	// EnvSocketActive is the marker set inside bridged containers so
	// nested invocations skip redundant bridging.
	EnvSocketActive = "DOCKER_NODE_SOCKET_ACTIVE"
	// EnvRunArgs carries extra raw engine flags, shell-quoted.
	EnvRunArgs = "DOCKER_NODE_RUN_ARGS"
	// EnvVerbose is a boolean-like debug-logging toggle.
	EnvVerbose = "DOCKER_NODE_VERBOSE"
)

// ModeLocalValue is the EnvMode value selecting local execution.
const ModeLocalValue = "local"

// InvocationRequest captures one shim invocation. It is constructed once
// at process start and never mutated afterwards.
type InvocationRequest struct {
	// Tool is the intercepted toolchain command.
	Tool types.Tool
	// Args is the ordered argument list, forwarded verbatim.
	Args []string
	// WorkDir is the current working directory at invocation time.
	WorkDir string
	// Env is the environment snapshot.
	Env map[string]string
}

// NewRequest builds an InvocationRequest from the current process state.
func NewRequest(tool types.Tool, args []string) (*InvocationRequest, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return &InvocationRequest{
		Tool:    tool,
		Args:    args,
		WorkDir: wd,
		Env:     snapshotEnviron(os.Environ()),
	}, nil
}

// Getenv returns the snapshot value for key, "" when unset.
func (r *InvocationRequest) Getenv(key string) string {
	return r.Env[key]
}

// IsTruthy reports whether the snapshot value for key is one of the
// truthy tokens. Any other value, including unset, is falsy.
func (r *InvocationRequest) IsTruthy(key string) bool {
	return isTruthy(r.Env[key])
}

// isTruthy implements the fixed case-sensitive token set.
func isTruthy(value string) bool {
	switch value {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// snapshotEnviron converts the os.Environ() slice form into a map.
// Later duplicates win, matching the resolution order of the libc
// environment.
func snapshotEnviron(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}
