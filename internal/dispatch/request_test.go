// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"testing"

	"docknode/pkg/types"
)

func TestIsTruthy(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"1", true},
		{"true", true},
		{"yes", true},
		{"on", true},
		{"", false},
		{"0", false},
		{"false", false},
		{"TRUE", false}, // case-sensitive by contract
		{"On", false},
		{"enabled", false},
	}

	for _, tt := range tests {
		if got := isTruthy(tt.value); got != tt.want {
			t.Errorf("isTruthy(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestRequestEnvSnapshot(t *testing.T) {
	env := snapshotEnviron([]string{"PATH=/usr/bin", "DOCKER_NODE_LOCAL=1", "EMPTY=", "MALFORMED"})

	req := &InvocationRequest{Tool: types.ToolNode, Env: env}

	if got := req.Getenv("PATH"); got != "/usr/bin" {
		t.Errorf("Getenv(PATH) = %q", got)
	}
	if got := req.Getenv("EMPTY"); got != "" {
		t.Errorf("Getenv(EMPTY) = %q", got)
	}
	if got := req.Getenv("MISSING"); got != "" {
		t.Errorf("Getenv(MISSING) = %q", got)
	}
	if !req.IsTruthy(EnvLocal) {
		t.Error("IsTruthy(DOCKER_NODE_LOCAL) = false for value 1")
	}
}

func TestSnapshotEnvironLaterDuplicateWins(t *testing.T) {
	env := snapshotEnviron([]string{"K=first", "K=second"})
	if env["K"] != "second" {
		t.Errorf("K = %q, want second", env["K"])
	}
}
