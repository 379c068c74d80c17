// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"context"
	"errors"
	"os/exec"

	"docknode/internal/config"
	"docknode/internal/container"
	"docknode/internal/execproc"
	"docknode/internal/issue"
	"docknode/internal/version"
	"docknode/pkg/types"

	"github.com/charmbracelet/log"
)

type (
	// EngineFactory produces the container engine for an invocation.
	// Injectable so tests can supply a mock engine.
	EngineFactory func(preferred string) (container.Engine, error)

	// ProcessRunner runs the final command. Injectable for tests.
	ProcessRunner func(cmd *exec.Cmd, interactive bool) (types.ExitCode, error)

	// Dispatcher executes the four-stage pipeline for one invocation.
	Dispatcher struct {
		cfg         *config.Config
		newEngine   EngineFactory
		run         ProcessRunner
		shimDir     string
		builderOpts []PlanBuilderOption
	}

	// DispatcherOption configures a Dispatcher.
	DispatcherOption func(*Dispatcher)
)

// WithEngineFactory overrides engine construction (tests).
func WithEngineFactory(fn EngineFactory) DispatcherOption {
	return func(d *Dispatcher) { d.newEngine = fn }
}

// WithProcessRunner overrides process execution (tests).
func WithProcessRunner(fn ProcessRunner) DispatcherOption {
	return func(d *Dispatcher) { d.run = fn }
}

// WithShimDir overrides the shim install directory stripped from PATH in
// local mode.
func WithShimDir(dir string) DispatcherOption {
	return func(d *Dispatcher) { d.shimDir = dir }
}

// WithPlanBuilderOptions forwards options to the PlanBuilder (tests).
func WithPlanBuilderOptions(opts ...PlanBuilderOption) DispatcherOption {
	return func(d *Dispatcher) { d.builderOpts = opts }
}

// NewDispatcher creates a Dispatcher with production defaults.
func NewDispatcher(cfg *config.Config, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		cfg:     cfg,
		run:     execproc.Run,
		shimDir: ShimDir(),
		newEngine: func(preferred string) (container.Engine, error) {
			if preferred != "" {
				return container.NewEngine(container.EngineType(preferred))
			}
			return container.AutoDetectEngine()
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch runs the full pipeline for req and returns the exit code of
// the underlying command. Dispatcher-level failures return exit code 1
// with an actionable error; the invoked command's own exit code is
// propagated unchanged.
func (d *Dispatcher) Dispatch(ctx context.Context, req *InvocationRequest) (types.ExitCode, error) {
	if ResolveMode(req) == ModeLocal {
		return d.dispatchLocal(ctx, req)
	}
	return d.dispatchContainerized(ctx, req)
}

// Plan resolves the ExecutionPlan for req without running anything.
// Used by the `docknode plan` dry-run command.
func (d *Dispatcher) Plan(req *InvocationRequest) (*ExecutionPlan, error) {
	if ResolveMode(req) == ModeLocal {
		path, err := LookupLocalTool(req.Tool, req.Getenv("PATH"), d.shimDir)
		if err != nil {
			return nil, d.toolNotFoundError(req, err)
		}
		return &ExecutionPlan{Mode: ModeLocal, LocalPath: path}, nil
	}

	engine, err := d.engine()
	if err != nil {
		return nil, err
	}
	return d.buildPlan(req, engine)
}

// dispatchLocal resolves the host tool and runs it directly. No container
// is ever started on this path, even when the lookup fails.
func (d *Dispatcher) dispatchLocal(ctx context.Context, req *InvocationRequest) (types.ExitCode, error) {
	path, err := LookupLocalTool(req.Tool, req.Getenv("PATH"), d.shimDir)
	if err != nil {
		return 1, d.toolNotFoundError(req, err)
	}

	log.Debug("dispatching locally", "tool", req.Tool, "path", path)

	cmd := exec.CommandContext(ctx, path, req.Args...)
	return d.run(cmd, false)
}

// dispatchContainerized resolves the image, builds the plan, and hands
// the engine command to the process runner.
func (d *Dispatcher) dispatchContainerized(ctx context.Context, req *InvocationRequest) (types.ExitCode, error) {
	engine, err := d.engine()
	if err != nil {
		return 1, err
	}

	plan, err := d.buildPlan(req, engine)
	if err != nil {
		return 1, err
	}

	log.Debug("dispatching in container",
		"tool", req.Tool,
		"image", plan.Image.Ref,
		"source", plan.Image.Source,
		"interactive", plan.Interactive,
		"ports", len(plan.RunOpts.Ports),
		"socket", plan.SocketBridged)

	args := engine.RunArgs(plan.RunOpts)
	cmd := engine.CreateCommand(ctx, args...)
	return d.run(cmd, plan.Interactive)
}

// buildPlan runs stages 2 and 3: image resolution and environment
// construction.
func (d *Dispatcher) buildPlan(req *InvocationRequest, engine container.Engine) (*ExecutionPlan, error) {
	resolver := version.Resolver{
		DefaultMajor: d.cfg.DefaultVersion,
		Variant:      d.cfg.ImageVariant,
		Override:     req.Getenv(EnvImage),
	}
	img := resolver.Resolve(req.WorkDir)

	builder := NewPlanBuilder(d.cfg, engine, d.builderOpts...)
	plan, err := builder.Build(req, img)
	if err != nil {
		if errors.Is(err, ErrSocketNotFound) {
			return nil, issue.NewErrorContext().
				WithOperation("bridge container control socket").
				WithSuggestion("Start the container engine so its socket exists").
				WithSuggestion("Unset " + EnvSocket + " if bridging is not needed").
				Wrap(err).
				BuildError()
		}
		return nil, issue.WrapWithOperation(err, "build execution plan")
	}

	plan.RunOpts.Command = ContainerCommand(req.Tool, req.Args)
	if err := plan.RunOpts.Validate(); err != nil {
		return nil, issue.WrapWithOperation(err, "validate execution plan")
	}
	return plan, nil
}

// engine constructs the container engine, translating unavailability into
// an actionable error. This check runs before any plan is built so setup
// problems fail fast.
func (d *Dispatcher) engine() (container.Engine, error) {
	engine, err := d.newEngine(d.cfg.Engine)
	if err != nil {
		var notAvail *container.ErrEngineNotAvailable
		if errors.As(err, &notAvail) {
			return nil, issue.NewErrorContext().
				WithOperation("locate container engine").
				WithSuggestion("Install docker or podman and ensure the daemon is running").
				WithSuggestion("Set DOCKER_NODE_LOCAL=1 to run the host-installed tool instead").
				Wrap(err).
				BuildError()
		}
		return nil, err
	}
	return engine, nil
}

// toolNotFoundError wraps a local-mode lookup failure with context.
func (d *Dispatcher) toolNotFoundError(req *InvocationRequest, err error) error {
	return issue.NewErrorContext().
		WithOperation("resolve local tool").
		WithResource(req.Tool.String()).
		WithSuggestion("Install " + req.Tool.String() + " on the host").
		WithSuggestion("Unset " + EnvLocal + " and " + EnvMode + " to run containerized instead").
		Wrap(err).
		BuildError()
}
