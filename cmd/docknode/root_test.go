// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"docknode/internal/container"
	"docknode/internal/dispatch"
	"docknode/internal/issue"
	"docknode/internal/version"
	"docknode/pkg/types"
)

func TestShimTool(t *testing.T) {
	tests := []struct {
		name     string
		argv0    string
		wantTool types.Tool
		wantOK   bool
	}{
		{name: "bare tool name", argv0: "npm", wantTool: types.ToolNpm, wantOK: true},
		{name: "absolute shim path", argv0: "/home/dev/.docknode/bin/yarn", wantTool: types.ToolYarn, wantOK: true},
		{name: "windows executable suffix", argv0: `C:\shims\node.exe`, wantTool: types.ToolNode, wantOK: true},
		{name: "own binary name", argv0: "/usr/local/bin/docknode", wantOK: false},
		{name: "unrelated binary", argv0: "/bin/bash", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool, ok := shimTool(tt.argv0)
			if ok != tt.wantOK {
				t.Fatalf("shimTool(%q) ok = %v, want %v", tt.argv0, ok, tt.wantOK)
			}
			if ok && tool != tt.wantTool {
				t.Errorf("shimTool(%q) = %q, want %q", tt.argv0, tool, tt.wantTool)
			}
		})
	}
}

func TestExitErrorMessage(t *testing.T) {
	bare := &ExitError{Code: 42}
	if got := bare.Error(); got != "exit status 42" {
		t.Errorf("Error() = %q, want %q", got, "exit status 42")
	}

	wrapped := &ExitError{Code: 1, Err: errors.New("engine gone")}
	if got := wrapped.Error(); got != "engine gone" {
		t.Errorf("Error() = %q, want %q", got, "engine gone")
	}
	if !errors.Is(wrapped, wrapped.Err) {
		t.Error("expected Unwrap to expose the underlying error")
	}
}

func TestFormatErrorForDisplay(t *testing.T) {
	plain := errors.New("plain failure")
	if got := formatErrorForDisplay(plain, false); got != "plain failure" {
		t.Errorf("plain error = %q", got)
	}

	actionable := issue.NewErrorContext().
		WithOperation("resolve container engine").
		WithSuggestion("install Docker or Podman").
		Wrap(errors.New("not found")).
		BuildError()
	got := formatErrorForDisplay(actionable, false)
	if !strings.Contains(got, "resolve container engine") {
		t.Errorf("formatted error missing operation: %q", got)
	}
	if !strings.Contains(got, "install Docker or Podman") {
		t.Errorf("formatted error missing suggestion: %q", got)
	}
}

func TestRenderPlanContainerized(t *testing.T) {
	req := &dispatch.InvocationRequest{
		Tool: types.ToolNpm,
		Args: []string{"install"},
	}
	plan := &dispatch.ExecutionPlan{
		Mode: dispatch.ModeContainerized,
		Image: version.ResolvedImage{
			Ref:    "node:20-slim",
			Major:  "20",
			Source: version.SourceNvmrc,
		},
		RunOpts: container.RunOptions{
			WorkDir: dispatch.ContainerWorkDir,
			Volumes: []container.VolumeMount{
				{HostPath: "/proj", ContainerPath: dispatch.ContainerWorkDir},
			},
			Ports: []container.PortMapping{
				{HostPort: 3000, ContainerPort: 3000},
			},
		},
		Interactive: true,
	}

	var buf bytes.Buffer
	renderPlan(&buf, req, plan)
	out := buf.String()

	for _, want := range []string{"npm", "node:20-slim", ".nvmrc", "/proj:/workspace", "3000:3000", "npm install"} {
		if !strings.Contains(out, want) {
			t.Errorf("plan output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderPlanLocal(t *testing.T) {
	req := &dispatch.InvocationRequest{
		Tool: types.ToolNode,
		Args: []string{"--version"},
	}
	plan := &dispatch.ExecutionPlan{
		Mode:      dispatch.ModeLocal,
		LocalPath: "/usr/bin/node",
	}

	var buf bytes.Buffer
	renderPlan(&buf, req, plan)
	out := buf.String()

	if !strings.Contains(out, "/usr/bin/node") {
		t.Errorf("plan output missing local binary path:\n%s", out)
	}
	if strings.Contains(out, "Image:") {
		t.Errorf("local plan should not print image details:\n%s", out)
	}
}
