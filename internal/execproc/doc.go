// SPDX-License-Identifier: MPL-2.0

// Package execproc runs the final resolved command as a transparent
// substitute for process replacement: the child inherits the caller's
// standard streams, receives forwarded signals, and its exact exit code
// becomes the shim's exit code. Interactive invocations are attached to a
// pseudo-terminal with raw mode and window resize propagation so full-
// screen tools behave as if run directly.
package execproc
