// SPDX-License-Identifier: MPL-2.0

// Package types holds small domain value types shared across docknode
// packages: intercepted tool names and process exit codes. Each type
// carries its own validation and a typed error that wraps a sentinel for
// errors.Is checks.
package types
