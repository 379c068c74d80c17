// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"docknode/internal/config"
	"docknode/internal/container"
	"docknode/internal/dispatch"

	"github.com/spf13/cobra"
)

// doctorCheckTimeout bounds each engine probe so a hung daemon cannot
// stall the whole report.
const doctorCheckTimeout = 5 * time.Second

// doctorCmd inspects the host environment and reports everything a
// dispatch depends on: engine availability, control sockets, and the
// effective paths.
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check container engine and environment health",
	Long: `Check that the host environment can dispatch toolchain commands:
which container engines are installed and reachable, where their control
sockets live, and which directories docknode reads and writes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		healthy := runDoctor(cmd.Context(), os.Stdout)
		if !healthy {
			return &ExitError{Code: 1}
		}
		return nil
	},
}

// runDoctor writes the full report and reports whether at least one
// container engine is usable.
func runDoctor(ctx context.Context, w io.Writer) bool {
	fmt.Fprintln(w, TitleStyle.Render("docknode doctor"))
	fmt.Fprintln(w)

	engines := []container.Engine{
		container.NewDockerEngine(),
		container.NewPodmanEngine(),
	}

	anyAvailable := false
	for _, eng := range engines {
		if reportEngine(ctx, w, eng) {
			anyAvailable = true
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, LabelStyle.Render("  Paths:"))
	if dir, err := config.ConfigDir(); err == nil {
		fmt.Fprintf(w, "    config:    %s\n", ValueStyle.Render(dir))
	}
	fmt.Fprintf(w, "    cache:     %s\n", ValueStyle.Render(cfg.CacheRoot))
	fmt.Fprintf(w, "    shim dir:  %s\n", ValueStyle.Render(dispatch.ShimDir()))

	fmt.Fprintln(w)
	if anyAvailable {
		fmt.Fprintln(w, SuccessStyle.Render("  ✓ ready to dispatch"))
	} else {
		fmt.Fprintln(w, ErrorStyle.Render("  ✗ no container engine available"))
		fmt.Fprintln(w, SubtitleStyle.Render("    install Docker or Podman, or set DOCKER_NODE_LOCAL=1 to run host tools"))
	}
	return anyAvailable
}

// reportEngine prints one engine's availability, server version, and
// control socket status.
func reportEngine(ctx context.Context, w io.Writer, eng container.Engine) bool {
	ctx, cancel := context.WithTimeout(ctx, doctorCheckTimeout)
	defer cancel()

	fmt.Fprintln(w, LabelStyle.Render("  "+eng.Name()+":"))

	if !eng.Available() {
		fmt.Fprintf(w, "    %s\n", ErrorStyle.Render("not available"))
		return false
	}

	fmt.Fprintf(w, "    %s", SuccessStyle.Render("available"))
	if version, err := eng.Version(ctx); err == nil {
		fmt.Fprintf(w, " %s", SubtitleStyle.Render("(server "+version+")"))
	}
	fmt.Fprintln(w)

	for _, candidate := range eng.SocketCandidates() {
		if _, err := os.Stat(candidate); err == nil {
			fmt.Fprintf(w, "    socket: %s\n", ValueStyle.Render(candidate))
			return true
		}
	}
	fmt.Fprintf(w, "    socket: %s\n", WarningStyle.Render("none found (socket bridging disabled)"))
	return true
}
