// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
)

// ErrUnknownTool is the sentinel error wrapped by UnknownToolError.
var ErrUnknownTool = errors.New("unknown tool")

const (
	// ToolNode is the Node.js runtime binary.
	ToolNode Tool = "node"
	// ToolNpm is the npm package manager.
	ToolNpm Tool = "npm"
	// ToolNpx is the npm package runner.
	ToolNpx Tool = "npx"
	// ToolYarn is the yarn package manager.
	ToolYarn Tool = "yarn"
	// ToolPnpm is the pnpm package manager.
	ToolPnpm Tool = "pnpm"
)

type (
	// Tool identifies one of the Node.js toolchain commands the shim
	// intercepts. The zero value ("") is invalid.
	Tool string

	// UnknownToolError is returned when a Tool is not one of the
	// intercepted toolchain commands.
	UnknownToolError struct {
		Value Tool
	}
)

// KnownTools returns all tools the shim intercepts, in presentation order.
func KnownTools() []Tool {
	return []Tool{ToolNode, ToolNpm, ToolNpx, ToolYarn, ToolPnpm}
}

// ParseTool maps a command basename to a Tool, reporting whether it is one
// of the intercepted toolchain commands.
func ParseTool(name string) (Tool, bool) {
	t := Tool(name)
	if t.Validate() != nil {
		return "", false
	}
	return t, true
}

// Validate returns an error if the Tool is not an intercepted command.
func (t Tool) Validate() error {
	switch t {
	case ToolNode, ToolNpm, ToolNpx, ToolYarn, ToolPnpm:
		return nil
	default:
		return &UnknownToolError{Value: t}
	}
}

// String returns the command name of the Tool.
func (t Tool) String() string { return string(t) }

// Error implements the error interface.
func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q (valid: node, npm, npx, yarn, pnpm)", e.Value)
}

// Unwrap returns ErrUnknownTool so callers can use errors.Is for programmatic detection.
func (e *UnknownToolError) Unwrap() error { return ErrUnknownTool }
