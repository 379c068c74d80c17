// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"docknode/internal/config"
	"docknode/internal/container"
	"docknode/internal/version"
	"docknode/pkg/types"

	"golang.org/x/term"
	"mvdan.cc/sh/v3/shell"
)

// ContainerWorkDir is where the invocation's working directory is mounted.
const ContainerWorkDir = "/workspace"

// ContainerSocketPath is where a bridged control socket appears in-container.
const ContainerSocketPath = "/var/run/docker.sock"

// ErrSocketNotFound is returned when socket bridging was requested but no
// control socket exists at any well-known path. Bridging is an explicit
// opt-in, so running without the capability would be silently wrong.
var ErrSocketNotFound = errors.New("no container control socket found")

// devServerKeywords are the argument tokens that enable dev-server port
// mapping. Matching is token-exact against individual arguments, not
// substring: `npm run dev` matches on the "dev" token, a package named
// "development-utils" does not.
var devServerKeywords = map[string]struct{}{
	"dev":     {},
	"start":   {},
	"serve":   {},
	"vite":    {},
	"nuxt":    {},
	"next":    {},
	"webpack": {},
	"rollup":  {},
}

// nonInteractiveFlags suppress terminal allocation even when both stdio
// streams are terminals. Version and help checks must never hang waiting
// on a TTY in scripted contexts.
var nonInteractiveFlags = map[string]struct{}{
	"--version": {},
	"--help":    {},
	"-v":        {},
	"-h":        {},
}

// oauthLoginTool/oauthLoginSub name the subcommand pair that always gets
// the OAuth callback port: `wrangler login` opens a browser on the host
// that must reach the contained process.
const (
	oauthLoginTool = "wrangler"
	oauthLoginSub  = "login"
)

type (
	// ExecutionPlan is the finished decision for one invocation, built
	// incrementally through the pipeline stages and consumed exactly once
	// by the invocation executor. It is never persisted.
	ExecutionPlan struct {
		// Mode is the chosen execution mode.
		Mode Mode
		// LocalPath is the resolved host binary (local mode only).
		LocalPath string
		// Image is the resolved container image (containerized mode only).
		Image version.ResolvedImage
		// RunOpts are the container run options (containerized mode only).
		RunOpts container.RunOptions
		// Interactive records the terminal-attachment decision.
		Interactive bool
		// SocketBridged records whether a control socket is mounted.
		SocketBridged bool
	}

	// TerminalChecker reports whether a file descriptor is a terminal.
	// Injectable so tests can simulate attached and detached streams.
	TerminalChecker func(fd int) bool

	// FileChecker reports whether a host path exists as a file or socket.
	// Injectable so tests can simulate socket and credentials presence.
	FileChecker func(path string) bool

	// PlanBuilder constructs ExecutionPlans. The zero value is not usable;
	// call NewPlanBuilder.
	PlanBuilder struct {
		cfg        *config.Config
		engine     container.Engine
		isTerminal TerminalChecker
		fileExists FileChecker
		homeDir    string
	}

	// PlanBuilderOption configures a PlanBuilder.
	PlanBuilderOption func(*PlanBuilder)
)

// WithTerminalChecker overrides terminal detection (tests).
func WithTerminalChecker(fn TerminalChecker) PlanBuilderOption {
	return func(b *PlanBuilder) { b.isTerminal = fn }
}

// WithFileChecker overrides host file detection (tests).
func WithFileChecker(fn FileChecker) PlanBuilderOption {
	return func(b *PlanBuilder) { b.fileExists = fn }
}

// WithHomeDir overrides the home directory used for the credentials mount.
func WithHomeDir(dir string) PlanBuilderOption {
	return func(b *PlanBuilder) { b.homeDir = dir }
}

// NewPlanBuilder creates a PlanBuilder for the given configuration and
// engine. The engine supplies socket candidate paths; it may be nil when
// only local plans will be built.
func NewPlanBuilder(cfg *config.Config, engine container.Engine, opts ...PlanBuilderOption) *PlanBuilder {
	b := &PlanBuilder{
		cfg:    cfg,
		engine: engine,
		isTerminal: func(fd int) bool {
			return term.IsTerminal(fd)
		},
		fileExists: func(path string) bool {
			_, err := os.Stat(path)
			return err == nil
		},
	}
	if home, err := os.UserHomeDir(); err == nil {
		b.homeDir = home
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build constructs the containerized ExecutionPlan for req with the
// resolved image. Fatal conditions (missing socket, malformed extra run
// args) are returned before any container is started; no partial plan is
// ever run.
func (b *PlanBuilder) Build(req *InvocationRequest, img version.ResolvedImage) (*ExecutionPlan, error) {
	plan := &ExecutionPlan{
		Mode:  ModeContainerized,
		Image: img,
	}

	opts := container.RunOptions{
		Image:   img.Ref,
		WorkDir: ContainerWorkDir,
		Remove:  true,
		Env:     map[string]string{},
	}

	// Working directory and per-tool caches. The cache directories are
	// created by the install tooling; if absent the engine surfaces the
	// mount failure itself.
	opts.Volumes = append(opts.Volumes, container.VolumeMount{
		HostPath:      req.WorkDir,
		ContainerPath: ContainerWorkDir,
	})
	opts.Volumes = append(opts.Volumes, b.cacheMounts(req.Tool)...)

	// Credentials are optional; absence is not an error.
	if b.homeDir != "" {
		gitconfig := filepath.Join(b.homeDir, ".gitconfig")
		if b.fileExists(gitconfig) {
			opts.Volumes = append(opts.Volumes, container.VolumeMount{
				HostPath:      gitconfig,
				ContainerPath: "/root/.gitconfig",
				ReadOnly:      true,
			})
		}
	}

	plan.Interactive = b.wantsInteractive(req.Args)
	opts.Interactive = plan.Interactive
	opts.TTY = plan.Interactive

	ports, err := b.resolvePorts(req)
	if err != nil {
		return nil, err
	}
	opts.Ports = ports

	if req.IsTruthy(EnvSocket) {
		bridged, err := b.bridgeSocket(req, &opts)
		if err != nil {
			return nil, err
		}
		plan.SocketBridged = bridged
	}

	extra, err := parseExtraRunArgs(req.Getenv(EnvRunArgs))
	if err != nil {
		return nil, err
	}
	opts.ExtraArgs = extra

	plan.RunOpts = opts
	return plan, nil
}

// cacheMounts returns the fixed per-tool cache mounts: the invoked tool's
// package-manager cache plus the shared corepack registry cache.
func (b *PlanBuilder) cacheMounts(tool types.Tool) []container.VolumeMount {
	root := b.cfg.CacheRoot

	mounts := []container.VolumeMount{{
		HostPath:      filepath.Join(root, "corepack"),
		ContainerPath: "/root/.cache/node/corepack",
	}}

	switch tool {
	case types.ToolYarn:
		mounts = append(mounts, container.VolumeMount{
			HostPath:      filepath.Join(root, "yarn"),
			ContainerPath: "/usr/local/share/.cache/yarn",
		})
	case types.ToolPnpm:
		mounts = append(mounts, container.VolumeMount{
			HostPath:      filepath.Join(root, "pnpm"),
			ContainerPath: "/root/.local/share/pnpm",
		})
	default: // node, npm, npx share the npm cache
		mounts = append(mounts, container.VolumeMount{
			HostPath:      filepath.Join(root, "npm"),
			ContainerPath: "/root/.npm",
		})
	}

	return mounts
}

// wantsInteractive decides terminal attachment: both stdin and stdout
// must be terminals and no non-interactive flag may be present.
func (b *PlanBuilder) wantsInteractive(args []string) bool {
	for _, arg := range args {
		if _, ok := nonInteractiveFlags[arg]; ok {
			return false
		}
	}
	return b.isTerminal(int(os.Stdin.Fd())) && b.isTerminal(int(os.Stdout.Fd()))
}

// resolvePorts computes the port bindings: the configured dev-server list
// when a keyword matches, plus the OAuth callback port for the login
// subcommand pair. All bindings are host-to-container 1:1.
func (b *PlanBuilder) resolvePorts(req *InvocationRequest) ([]container.PortMapping, error) {
	var mappings []container.PortMapping

	if matchesDevServer(req.Args) {
		ports, err := b.devServerPorts(req)
		if err != nil {
			return nil, err
		}
		for _, p := range ports {
			mappings = append(mappings, oneToOne(p))
		}
	}

	if hasLoginPair(req.Args) {
		port := b.cfg.OAuthPort
		if raw := req.Getenv(EnvOAuthPort); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid %s value %q: %w", EnvOAuthPort, raw, err)
			}
			port = parsed
		}
		mappings = append(mappings, oneToOne(port))
	}

	return mappings, nil
}

// devServerPorts returns the EnvPorts override when set, else the
// configured default list.
func (b *PlanBuilder) devServerPorts(req *InvocationRequest) ([]int, error) {
	raw := req.Getenv(EnvPorts)
	if raw == "" {
		return b.cfg.Ports, nil
	}

	var ports []int
	for _, field := range strings.Split(raw, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		p, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("invalid %s entry %q: %w", EnvPorts, field, err)
		}
		ports = append(ports, p)
	}
	return ports, nil
}

// bridgeSocket locates the engine control socket and mounts it into the
// container. Returns false without error when the invocation already runs
// inside a bridged container (marker present). Returns ErrSocketNotFound
// when bridging was requested but no socket exists.
func (b *PlanBuilder) bridgeSocket(req *InvocationRequest, opts *container.RunOptions) (bool, error) {
	if req.Getenv(EnvSocketActive) != "" {
		return false, nil
	}

	var candidates []string
	if b.engine != nil {
		candidates = b.engine.SocketCandidates()
	}

	for _, candidate := range candidates {
		if !b.fileExists(candidate) {
			continue
		}
		opts.Volumes = append(opts.Volumes, container.VolumeMount{
			HostPath:      candidate,
			ContainerPath: ContainerSocketPath,
		})
		opts.Env["DOCKER_HOST"] = "unix://" + ContainerSocketPath
		opts.Env[EnvSocketActive] = "1"
		return true, nil
	}

	return false, fmt.Errorf("%w (checked %s)", ErrSocketNotFound, strings.Join(candidates, ", "))
}

// parseExtraRunArgs splits the shell-quoted EnvRunArgs value into engine
// flags. Quoting follows POSIX shell word-splitting rules.
func parseExtraRunArgs(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	fields, err := shell.Fields(raw, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value: %w", EnvRunArgs, err)
	}
	return fields, nil
}

// matchesDevServer reports whether any argument token is a dev-server
// keyword.
func matchesDevServer(args []string) bool {
	for _, arg := range args {
		if _, ok := devServerKeywords[arg]; ok {
			return true
		}
	}
	return false
}

// hasLoginPair reports whether the argument list contains the adjacent
// pair naming the OAuth login flow (e.g. `npx wrangler login`).
func hasLoginPair(args []string) bool {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == oauthLoginTool && args[i+1] == oauthLoginSub {
			return true
		}
	}
	return false
}

func oneToOne(port int) container.PortMapping {
	return container.PortMapping{
		HostPort:      container.NetworkPort(port),
		ContainerPort: container.NetworkPort(port),
	}
}
