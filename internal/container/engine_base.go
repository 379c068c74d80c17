// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

var (
	// ErrInvalidNetworkPort is the sentinel error wrapped by InvalidNetworkPortError.
	ErrInvalidNetworkPort = errors.New("invalid network port")

	// ErrInvalidVolumeMount is the sentinel error wrapped by InvalidVolumeMountError.
	ErrInvalidVolumeMount = errors.New("invalid volume mount")
)

type (
	// ExecCommandFunc is the function signature for creating exec.Cmd.
	// This allows injection of mock implementations for testing.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// BaseCLIEngineOption configures a BaseCLIEngine.
	BaseCLIEngineOption func(*BaseCLIEngine)

	// BaseCLIEngine provides the common implementation for CLI-based
	// container engines. Docker and Podman engines embed this struct;
	// argument building and command creation live here, engine-specific
	// methods (Available, Version, SocketCandidates) on the concrete types.
	BaseCLIEngine struct {
		name        string
		binaryPath  string // resolved at construction via exec.LookPath
		execCommand ExecCommandFunc
	}

	// NetworkPort represents a TCP port number for container port mappings.
	// A valid port must be in the range 1-65535.
	NetworkPort int

	// InvalidNetworkPortError is returned when a NetworkPort is out of range.
	InvalidNetworkPortError struct {
		Value NetworkPort
	}

	// VolumeMount represents a bind mount specification.
	VolumeMount struct {
		HostPath      string
		ContainerPath string
		ReadOnly      bool
	}

	// InvalidVolumeMountError is returned when a VolumeMount has empty paths.
	InvalidVolumeMountError struct {
		Value VolumeMount
	}

	// PortMapping represents a host:container port binding. docknode always
	// binds 1:1, but the two fields stay separate so the rendered mapping
	// is explicit.
	PortMapping struct {
		HostPort      NetworkPort
		ContainerPort NetworkPort
	}

	// RunOptions contains options for running a container.
	RunOptions struct {
		// Image is the image reference to run.
		Image string
		// Command is the in-container command and its arguments.
		Command []string
		// WorkDir is the working directory inside the container.
		WorkDir string
		// Env contains environment variable overrides passed with -e.
		Env map[string]string
		// EnvKeys lists variable names forwarded from the host environment
		// (rendered as bare -e NAME so the engine reads the current value).
		EnvKeys []string
		// Volumes are the bind mounts.
		Volumes []VolumeMount
		// Ports are the port bindings.
		Ports []PortMapping
		// Remove removes the container after exit.
		Remove bool
		// Interactive keeps stdin attached (-i).
		Interactive bool
		// TTY allocates a pseudo-terminal (-t).
		TTY bool
		// ExtraArgs are raw engine flags appended before the image
		// (user-supplied via DOCKER_NODE_RUN_ARGS).
		ExtraArgs []string
	}
)

// String returns the decimal representation of the NetworkPort.
func (p NetworkPort) String() string { return strconv.Itoa(int(p)) }

// Validate returns an error if the NetworkPort is outside 1-65535.
func (p NetworkPort) Validate() error {
	if p < 1 || p > 65535 {
		return &InvalidNetworkPortError{Value: p}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidNetworkPortError) Error() string {
	return fmt.Sprintf("invalid network port %d: must be in range 1-65535", e.Value)
}

// Unwrap returns ErrInvalidNetworkPort for errors.Is() compatibility.
func (e *InvalidNetworkPortError) Unwrap() error { return ErrInvalidNetworkPort }

// Validate returns an error if either side of the mount is empty.
func (v VolumeMount) Validate() error {
	if strings.TrimSpace(v.HostPath) == "" || strings.TrimSpace(v.ContainerPath) == "" {
		return &InvalidVolumeMountError{Value: v}
	}
	return nil
}

// String returns the mount in "host:container[:ro]" format for -v.
func (v VolumeMount) String() string {
	s := v.HostPath + ":" + v.ContainerPath
	if v.ReadOnly {
		s += ":ro"
	}
	return s
}

// Error implements the error interface.
func (e *InvalidVolumeMountError) Error() string {
	return fmt.Sprintf("invalid volume mount %q: both host and container paths must be non-empty", e.Value.String())
}

// Unwrap returns ErrInvalidVolumeMount for errors.Is() compatibility.
func (e *InvalidVolumeMountError) Unwrap() error { return ErrInvalidVolumeMount }

// Validate returns an error if either port of the mapping is invalid.
func (p PortMapping) Validate() error {
	var errs []error
	if err := p.HostPort.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := p.ContainerPort.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// String returns the mapping in "host:container" format for -p.
func (p PortMapping) String() string {
	return fmt.Sprintf("%d:%d", p.HostPort, p.ContainerPort)
}

// Validate checks every typed field of the RunOptions.
func (o RunOptions) Validate() error {
	var errs []error
	if strings.TrimSpace(o.Image) == "" {
		errs = append(errs, errors.New("image must be non-empty"))
	}
	for _, v := range o.Volumes {
		if err := v.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, p := range o.Ports {
		if err := p.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WithExecCommand sets a custom exec command function for testing.
func WithExecCommand(fn ExecCommandFunc) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		e.execCommand = fn
	}
}

// NewBaseCLIEngine creates a new base engine with the given binary path.
func NewBaseCLIEngine(name, binaryPath string, opts ...BaseCLIEngineOption) *BaseCLIEngine {
	e := &BaseCLIEngine{
		name:        name,
		binaryPath:  binaryPath,
		execCommand: exec.CommandContext,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the engine name used in error messages.
func (e *BaseCLIEngine) Name() string {
	return e.name
}

// BinaryPath returns the path to the container engine binary.
func (e *BaseCLIEngine) BinaryPath() string {
	return e.binaryPath
}

// RunArgs constructs arguments for a container run command.
//
// Generated command: <binary> run [options] [extra args] <image> [command...]
func (e *BaseCLIEngine) RunArgs(opts RunOptions) []string {
	args := []string{"run"}

	if opts.Remove {
		args = append(args, "--rm")
	}

	if opts.WorkDir != "" {
		args = append(args, "-w", opts.WorkDir)
	}

	if opts.Interactive {
		args = append(args, "-i")
	}

	if opts.TTY {
		args = append(args, "-t")
	}

	for k, v := range opts.Env {
		args = append(args, "-e", fmt.Sprintf("%s=%s", k, v))
	}

	for _, k := range opts.EnvKeys {
		args = append(args, "-e", k)
	}

	for _, v := range opts.Volumes {
		args = append(args, "-v", v.String())
	}

	for _, p := range opts.Ports {
		args = append(args, "-p", p.String())
	}

	args = append(args, opts.ExtraArgs...)

	args = append(args, opts.Image)
	args = append(args, opts.Command...)

	return args
}

// CreateCommand creates an exec.Cmd for the given arguments.
// The caller owns stdin/stdout/stderr wiring.
func (e *BaseCLIEngine) CreateCommand(ctx context.Context, args ...string) *exec.Cmd {
	return e.execCommand(ctx, e.binaryPath, args...)
}

// RunCommandWithOutput executes a command with stdout captured.
func (e *BaseCLIEngine) RunCommandWithOutput(ctx context.Context, args ...string) (string, error) {
	cmd := e.CreateCommand(ctx, args...)
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("command %s %v failed: %w", e.binaryPath, args, err)
	}
	return string(out), nil
}
