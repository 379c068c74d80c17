// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"testing"
)

func TestParseTool(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   Tool
		wantOK bool
	}{
		{name: "node", input: "node", want: ToolNode, wantOK: true},
		{name: "npm", input: "npm", want: ToolNpm, wantOK: true},
		{name: "npx", input: "npx", want: ToolNpx, wantOK: true},
		{name: "yarn", input: "yarn", want: ToolYarn, wantOK: true},
		{name: "pnpm", input: "pnpm", want: ToolPnpm, wantOK: true},
		{name: "unrelated binary", input: "python", wantOK: false},
		{name: "empty", input: "", wantOK: false},
		{name: "case sensitive", input: "NPM", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTool(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseTool(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ParseTool(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestToolValidate_UnknownWrapsSentinel(t *testing.T) {
	err := Tool("make").Validate()
	if err == nil {
		t.Fatal("expected error for unknown tool")
	}
	if !errors.Is(err, ErrUnknownTool) {
		t.Errorf("error %v does not wrap ErrUnknownTool", err)
	}
}

func TestExitCodeValidate(t *testing.T) {
	tests := []struct {
		name    string
		code    ExitCode
		wantErr bool
	}{
		{name: "success", code: 0},
		{name: "generic failure", code: 1},
		{name: "max", code: 255},
		{name: "negative", code: -1, wantErr: true},
		{name: "out of range", code: 256, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.code.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrInvalidExitCode) {
				t.Errorf("error %v does not wrap ErrInvalidExitCode", err)
			}
		})
	}
}

func TestExitCodeIsEngineFailure(t *testing.T) {
	if !ExitCode(125).IsEngineFailure() || !ExitCode(126).IsEngineFailure() {
		t.Error("125 and 126 should be engine failures")
	}
	if ExitCode(0).IsEngineFailure() || ExitCode(2).IsEngineFailure() {
		t.Error("0 and 2 are not engine failures")
	}
}
