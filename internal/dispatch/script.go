// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"strings"

	"docknode/pkg/types"
)

// setupScript is the in-container bootstrap run before the tool itself.
// Every setup step is best-effort: corepack activates the yarn/pnpm shims
// when the image ships it, and a docker CLI is installed only when the
// control socket was bridged in and the image lacks one. Failures are
// swallowed — these are conveniences, and the user's command must run
// regardless. The final exec replaces the shell with the tool so signals
// and the exit code pass through untouched.
const setupScript = `corepack enable >/dev/null 2>&1 || true
if [ -n "$` + EnvSocketActive + `" ] && ! command -v docker >/dev/null 2>&1; then
  (apt-get update && apt-get install -y --no-install-recommends docker.io) >/dev/null 2>&1 || true
fi
exec "$0" "$@"`

// ContainerCommand builds the in-container command: a setup-then-exec
// shell wrapper around the verbatim tool invocation. With `sh -c`, the
// word after the script becomes $0 and the rest $@, so the tool and its
// arguments pass through without re-quoting.
func ContainerCommand(tool types.Tool, args []string) []string {
	cmd := []string{"/bin/sh", "-c", setupScript, tool.String()}
	return append(cmd, args...)
}

// DescribeCommand renders the in-container command for display (plan
// output). The bootstrap script is elided to keep the summary readable.
func DescribeCommand(tool types.Tool, args []string) string {
	parts := append([]string{tool.String()}, args...)
	return strings.Join(parts, " ")
}
