// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"context"
	"errors"
	"slices"
	"testing"

	"docknode/internal/config"
	"docknode/internal/container"
	"docknode/internal/version"
	"docknode/pkg/types"
)

// fakeEngine satisfies container.Engine with canned socket candidates.
type fakeEngine struct {
	*container.BaseCLIEngine
	sockets []string
}

func newFakeEngine(sockets ...string) *fakeEngine {
	return &fakeEngine{
		BaseCLIEngine: container.NewBaseCLIEngine("docker", "/usr/bin/docker"),
		sockets:       sockets,
	}
}

func (e *fakeEngine) Available() bool { return true }

func (e *fakeEngine) Version(ctx context.Context) (string, error) { return "fake", nil }

func (e *fakeEngine) SocketCandidates() []string { return e.sockets }

var _ container.Engine = (*fakeEngine)(nil)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.CacheRoot = "/cache/docknode"
	return cfg
}

func testBuilder(t *testing.T, engine container.Engine, tty bool, existing ...string) *PlanBuilder {
	t.Helper()
	return NewPlanBuilder(testConfig(), engine,
		WithTerminalChecker(func(int) bool { return tty }),
		WithFileChecker(func(path string) bool { return slices.Contains(existing, path) }),
		WithHomeDir("/home/u"),
	)
}

func testImage() version.ResolvedImage {
	return version.ResolvedImage{Ref: "node:22-slim", Major: "22", Source: version.SourceDefault}
}

func testReq(tool types.Tool, args []string, env map[string]string) *InvocationRequest {
	if env == nil {
		env = map[string]string{}
	}
	return &InvocationRequest{Tool: tool, Args: args, WorkDir: "/proj", Env: env}
}

func TestMatchesDevServer(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want bool
	}{
		{name: "npm run dev", args: []string{"run", "dev"}, want: true},
		{name: "yarn dev", args: []string{"dev"}, want: true},
		{name: "vite via npx", args: []string{"vite"}, want: true},
		{name: "start", args: []string{"start"}, want: true},
		{name: "install", args: []string{"install"}, want: false},
		{name: "substring does not match", args: []string{"install", "development-utils"}, want: false},
		{name: "empty", args: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchesDevServer(tt.args); got != tt.want {
				t.Errorf("matchesDevServer(%v) = %v, want %v", tt.args, got, tt.want)
			}
		})
	}
}

func TestHasLoginPair(t *testing.T) {
	if !hasLoginPair([]string{"wrangler", "login"}) {
		t.Error("adjacent pair should match")
	}
	if !hasLoginPair([]string{"--yes", "wrangler", "login"}) {
		t.Error("pair later in the list should match")
	}
	if hasLoginPair([]string{"wrangler", "deploy"}) {
		t.Error("wrangler without login should not match")
	}
	if hasLoginPair([]string{"login"}) {
		t.Error("login without wrangler should not match")
	}
	if hasLoginPair([]string{"wrangler", "--help", "login"}) {
		t.Error("non-adjacent pair should not match")
	}
}

func TestBuildInteractivity(t *testing.T) {
	tests := []struct {
		name string
		tty  bool
		args []string
		want bool
	}{
		{name: "tty and plain args", tty: true, args: []string{"install"}, want: true},
		{name: "no tty", tty: false, args: []string{"install"}, want: false},
		{name: "version flag suppresses", tty: true, args: []string{"--version"}, want: false},
		{name: "short version flag suppresses", tty: true, args: []string{"-v"}, want: false},
		{name: "help flag suppresses", tty: true, args: []string{"install", "--help"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := testBuilder(t, newFakeEngine(), tt.tty)
			plan, err := b.Build(testReq(types.ToolNpm, tt.args, nil), testImage())
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			if plan.Interactive != tt.want {
				t.Errorf("Interactive = %v, want %v", plan.Interactive, tt.want)
			}
			if plan.RunOpts.TTY != tt.want || plan.RunOpts.Interactive != tt.want {
				t.Errorf("RunOpts tty/interactive = %v/%v, want %v", plan.RunOpts.TTY, plan.RunOpts.Interactive, tt.want)
			}
		})
	}
}

func TestBuildDefaultInstallPlan(t *testing.T) {
	b := testBuilder(t, newFakeEngine(), false)
	plan, err := b.Build(testReq(types.ToolNpm, []string{"install"}, nil), testImage())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if plan.Mode != ModeContainerized {
		t.Errorf("Mode = %q", plan.Mode)
	}
	if plan.RunOpts.Image != "node:22-slim" {
		t.Errorf("Image = %q", plan.RunOpts.Image)
	}
	if len(plan.RunOpts.Ports) != 0 {
		t.Errorf("Ports = %v, want none for install", plan.RunOpts.Ports)
	}
	if plan.Interactive {
		t.Error("Interactive = true without terminals")
	}
	if !plan.RunOpts.Remove {
		t.Error("containers must be removed after exit")
	}
	if plan.RunOpts.WorkDir != ContainerWorkDir {
		t.Errorf("WorkDir = %q", plan.RunOpts.WorkDir)
	}

	wantMounts := []string{
		"/proj:/workspace",
		"/cache/docknode/corepack:/root/.cache/node/corepack",
		"/cache/docknode/npm:/root/.npm",
	}
	var gotMounts []string
	for _, v := range plan.RunOpts.Volumes {
		gotMounts = append(gotMounts, v.String())
	}
	if !slices.Equal(gotMounts, wantMounts) {
		t.Errorf("Volumes = %v, want %v", gotMounts, wantMounts)
	}
}

func TestBuildPerToolCacheMounts(t *testing.T) {
	tests := []struct {
		tool      types.Tool
		wantMount string
	}{
		{tool: types.ToolNpm, wantMount: "/cache/docknode/npm:/root/.npm"},
		{tool: types.ToolNpx, wantMount: "/cache/docknode/npm:/root/.npm"},
		{tool: types.ToolNode, wantMount: "/cache/docknode/npm:/root/.npm"},
		{tool: types.ToolYarn, wantMount: "/cache/docknode/yarn:/usr/local/share/.cache/yarn"},
		{tool: types.ToolPnpm, wantMount: "/cache/docknode/pnpm:/root/.local/share/pnpm"},
	}

	for _, tt := range tests {
		t.Run(tt.tool.String(), func(t *testing.T) {
			b := testBuilder(t, newFakeEngine(), false)
			plan, err := b.Build(testReq(tt.tool, []string{"install"}, nil), testImage())
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}

			var mounts []string
			for _, v := range plan.RunOpts.Volumes {
				mounts = append(mounts, v.String())
			}
			if !slices.Contains(mounts, tt.wantMount) {
				t.Errorf("Volumes %v missing %q", mounts, tt.wantMount)
			}
		})
	}
}

func TestBuildGitconfigMountedReadOnlyWhenPresent(t *testing.T) {
	b := testBuilder(t, newFakeEngine(), false, "/home/u/.gitconfig")
	plan, err := b.Build(testReq(types.ToolNpm, []string{"install"}, nil), testImage())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	found := false
	for _, v := range plan.RunOpts.Volumes {
		if v.String() == "/home/u/.gitconfig:/root/.gitconfig:ro" {
			found = true
		}
	}
	if !found {
		t.Errorf("gitconfig mount missing from %v", plan.RunOpts.Volumes)
	}
}

func TestBuildDevServerPorts(t *testing.T) {
	t.Run("defaults when keyword matches", func(t *testing.T) {
		b := testBuilder(t, newFakeEngine(), false)
		plan, err := b.Build(testReq(types.ToolYarn, []string{"dev"}, nil), testImage())
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}

		want := []string{"3000:3000", "5173:5173", "8080:8080"}
		var got []string
		for _, p := range plan.RunOpts.Ports {
			got = append(got, p.String())
		}
		if !slices.Equal(got, want) {
			t.Errorf("Ports = %v, want %v", got, want)
		}
	})

	t.Run("env override wins", func(t *testing.T) {
		b := testBuilder(t, newFakeEngine(), false)
		env := map[string]string{EnvPorts: "3000,4000"}
		plan, err := b.Build(testReq(types.ToolYarn, []string{"dev"}, env), testImage())
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}

		want := []string{"3000:3000", "4000:4000"}
		var got []string
		for _, p := range plan.RunOpts.Ports {
			got = append(got, p.String())
		}
		if !slices.Equal(got, want) {
			t.Errorf("Ports = %v, want %v", got, want)
		}
	})

	t.Run("malformed env override is fatal", func(t *testing.T) {
		b := testBuilder(t, newFakeEngine(), false)
		env := map[string]string{EnvPorts: "3000,http"}
		if _, err := b.Build(testReq(types.ToolYarn, []string{"dev"}, env), testImage()); err == nil {
			t.Fatal("malformed port list should be rejected before any container starts")
		}
	})
}

func TestBuildOAuthPort(t *testing.T) {
	t.Run("login pair binds default port despite no dev keyword", func(t *testing.T) {
		b := testBuilder(t, newFakeEngine(), false)
		plan, err := b.Build(testReq(types.ToolNpx, []string{"wrangler", "login"}, nil), testImage())
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}

		var got []string
		for _, p := range plan.RunOpts.Ports {
			got = append(got, p.String())
		}
		if !slices.Equal(got, []string{"8976:8976"}) {
			t.Errorf("Ports = %v, want [8976:8976]", got)
		}
	})

	t.Run("dedicated env override", func(t *testing.T) {
		b := testBuilder(t, newFakeEngine(), false)
		env := map[string]string{EnvOAuthPort: "9000"}
		plan, err := b.Build(testReq(types.ToolNpx, []string{"wrangler", "login"}, env), testImage())
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}

		if len(plan.RunOpts.Ports) != 1 || plan.RunOpts.Ports[0].String() != "9000:9000" {
			t.Errorf("Ports = %v, want [9000:9000]", plan.RunOpts.Ports)
		}
	})
}

func TestBuildSocketBridging(t *testing.T) {
	t.Run("first existing candidate wins", func(t *testing.T) {
		engine := newFakeEngine("/sock/a", "/sock/b")
		b := testBuilder(t, engine, false, "/sock/b")
		env := map[string]string{EnvSocket: "1"}

		plan, err := b.Build(testReq(types.ToolNpm, []string{"install"}, env), testImage())
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}

		if !plan.SocketBridged {
			t.Fatal("SocketBridged = false")
		}
		mounted := false
		for _, v := range plan.RunOpts.Volumes {
			if v.String() == "/sock/b:"+ContainerSocketPath {
				mounted = true
			}
		}
		if !mounted {
			t.Errorf("socket mount missing from %v", plan.RunOpts.Volumes)
		}
		if plan.RunOpts.Env["DOCKER_HOST"] != "unix://"+ContainerSocketPath {
			t.Errorf("DOCKER_HOST = %q", plan.RunOpts.Env["DOCKER_HOST"])
		}
		if plan.RunOpts.Env[EnvSocketActive] != "1" {
			t.Error("bridging marker not propagated")
		}
	})

	t.Run("priority order respected", func(t *testing.T) {
		engine := newFakeEngine("/sock/a", "/sock/b")
		b := testBuilder(t, engine, false, "/sock/a", "/sock/b")
		env := map[string]string{EnvSocket: "1"}

		plan, err := b.Build(testReq(types.ToolNpm, nil, env), testImage())
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}

		for _, v := range plan.RunOpts.Volumes {
			if v.ContainerPath == ContainerSocketPath && v.HostPath != "/sock/a" {
				t.Errorf("bridged %q, want the higher-priority /sock/a", v.HostPath)
			}
		}
	})

	t.Run("no socket anywhere is fatal", func(t *testing.T) {
		engine := newFakeEngine("/sock/a", "/sock/b")
		b := testBuilder(t, engine, false)
		env := map[string]string{EnvSocket: "1"}

		_, err := b.Build(testReq(types.ToolNpm, nil, env), testImage())
		if !errors.Is(err, ErrSocketNotFound) {
			t.Fatalf("error = %v, want ErrSocketNotFound", err)
		}
	})

	t.Run("marker suppresses nested bridging", func(t *testing.T) {
		engine := newFakeEngine("/sock/a")
		b := testBuilder(t, engine, false, "/sock/a")
		env := map[string]string{EnvSocket: "1", EnvSocketActive: "1"}

		plan, err := b.Build(testReq(types.ToolNpm, nil, env), testImage())
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		if plan.SocketBridged {
			t.Error("nested invocation must not re-bridge")
		}
	})

	t.Run("opt-out skips detection entirely", func(t *testing.T) {
		engine := newFakeEngine("/sock/a")
		b := testBuilder(t, engine, false, "/sock/a")

		plan, err := b.Build(testReq(types.ToolNpm, nil, nil), testImage())
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		if plan.SocketBridged {
			t.Error("bridging without opt-in")
		}
	})
}

func TestBuildExtraRunArgs(t *testing.T) {
	b := testBuilder(t, newFakeEngine(), false)
	env := map[string]string{EnvRunArgs: `--network host -e "FOO=a b"`}

	plan, err := b.Build(testReq(types.ToolNpm, nil, env), testImage())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	want := []string{"--network", "host", "-e", "FOO=a b"}
	if !slices.Equal(plan.RunOpts.ExtraArgs, want) {
		t.Errorf("ExtraArgs = %v, want %v", plan.RunOpts.ExtraArgs, want)
	}
}
