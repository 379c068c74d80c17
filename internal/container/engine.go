// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"fmt"
	"os/exec"
)

// Engine is the interface docknode needs from a container runtime.
// Both implementations shell out to the engine CLI; the dispatcher never
// talks to a daemon API directly because the generated command must be
// hand-off-able to the invocation executor as a plain process.
type Engine interface {
	// Name returns the engine name (docker or podman).
	Name() string
	// Available checks if the engine is installed and its daemon reachable.
	Available() bool
	// Version returns the engine server version.
	Version(ctx context.Context) (string, error)
	// SocketCandidates returns the well-known control socket paths for
	// this engine, in priority order.
	SocketCandidates() []string
	// RunArgs constructs the full argument list for a `run` invocation.
	RunArgs(opts RunOptions) []string
	// CreateCommand creates an exec.Cmd invoking the engine binary.
	CreateCommand(ctx context.Context, args ...string) *exec.Cmd
}

// EngineType identifies the container engine type.
type EngineType string

const (
	EngineTypeDocker EngineType = "docker"
	EngineTypePodman EngineType = "podman"
)

// ErrEngineNotAvailable is returned when no usable container engine exists.
type ErrEngineNotAvailable struct {
	Engine string
	Reason string
}

func (e *ErrEngineNotAvailable) Error() string {
	return fmt.Sprintf("container engine '%s' is not available: %s", e.Engine, e.Reason)
}

// NewEngine creates a container engine honoring the preference, falling
// back to the other engine when the preferred one is unavailable.
func NewEngine(preferredType EngineType) (Engine, error) {
	switch preferredType {
	case EngineTypeDocker:
		engine := NewDockerEngine()
		if engine.Available() {
			return engine, nil
		}
		podmanEngine := NewPodmanEngine()
		if podmanEngine.Available() {
			return podmanEngine, nil
		}
		return nil, &ErrEngineNotAvailable{
			Engine: "docker",
			Reason: "docker is not installed or not running, and podman fallback is also not available",
		}

	case EngineTypePodman:
		engine := NewPodmanEngine()
		if engine.Available() {
			return engine, nil
		}
		dockerEngine := NewDockerEngine()
		if dockerEngine.Available() {
			return dockerEngine, nil
		}
		return nil, &ErrEngineNotAvailable{
			Engine: "podman",
			Reason: "podman is not installed or not running, and docker fallback is also not available",
		}

	default:
		return nil, fmt.Errorf("unknown container engine type: %s", preferredType)
	}
}

// AutoDetectEngine finds an available container engine, preferring Docker
// (the common case for Node.js development environments).
func AutoDetectEngine() (Engine, error) {
	docker := NewDockerEngine()
	if docker.Available() {
		return docker, nil
	}

	podman := NewPodmanEngine()
	if podman.Available() {
		return podman, nil
	}

	return nil, &ErrEngineNotAvailable{
		Engine: "any",
		Reason: "no container engine (docker or podman) is available on this system",
	}
}
