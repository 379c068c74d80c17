// SPDX-License-Identifier: MPL-2.0

// Package container provides an abstraction layer for container runtimes
// (Docker/Podman). Engines build `run` argument lists from typed options
// and hand back plain exec.Cmd values; running, stream wiring, and exit
// code propagation belong to the caller.
package container
