// SPDX-License-Identifier: MPL-2.0

//go:build windows

package execproc

import (
	"os/exec"

	"docknode/pkg/types"
)

// runInteractive falls back to plain stream inheritance on Windows, where
// the engine CLI performs its own console handling for -t.
func runInteractive(cmd *exec.Cmd) (types.ExitCode, error) {
	return runPlain(cmd)
}
