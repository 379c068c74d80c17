// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for docknode.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"docknode/internal/config"
	"docknode/internal/dispatch"
	"docknode/internal/issue"
	"docknode/pkg/types"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables verbose output
	verbose bool
	// cfgDir allows specifying a custom config directory
	cfgDir string

	// cfg is the loaded configuration, populated by initRootConfig.
	cfg *config.Config

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "docknode",
		Short: "Run Node.js toolchain commands in containers, transparently",
		Long: TitleStyle.Render("docknode") + SubtitleStyle.Render(" - container shim for the Node.js toolchain") + `

docknode intercepts node, npm, npx, yarn, and pnpm invocations and runs
them inside a version-matched Node.js container. The container image is
picked from the project's .nvmrc, .node-version, or package.json engines
field, the project directory is mounted as the working directory, and
the command's exit code is propagated unchanged.

Install shim symlinks named after the tools (node, npm, ...) pointing at
the docknode binary, and every toolchain invocation is containerized
without changing how you type commands.

` + SubtitleStyle.Render("Examples:") + `
  docknode run npm install      Run 'npm install' in a container
  docknode plan yarn dev        Show the execution plan without running
  docknode doctor               Check container engine health
  docknode config show          Show effective configuration

` + SubtitleStyle.Render("Environment:") + `
  DOCKER_NODE_IMAGE       Exact image override (skips version detection)
  DOCKER_NODE_LOCAL=1     Run the host-installed tool instead
  DOCKER_NODE_PORTS       Comma-separated dev server ports to publish
  DOCKER_NODE_RUN_ARGS    Extra arguments for the engine run command`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
)

func init() {
	cobra.OnInitialize(initRootConfig)

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgDir, "config-dir", "", "config directory (default is $HOME/.config/docknode)")

	// Add subcommands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(docsCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute is the CLI entry point, called by main.main().
//
// When the binary is invoked through a shim symlink named after a known
// tool (node, npm, npx, yarn, pnpm), argv is forwarded verbatim to the
// dispatcher: no cobra parsing happens, so tool flags like `npm install
// --verbose` are never intercepted. Otherwise the management command
// tree runs.
func Execute() {
	if tool, ok := shimTool(os.Args[0]); ok {
		os.Exit(int(runShim(tool, os.Args[1:])))
	}

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(1)
	}
}

// shimTool reports the tool a shim invocation stands for, based on the
// basename of argv[0]. A binary actually named docknode never matches.
func shimTool(argv0 string) (types.Tool, bool) {
	name := filepath.Base(argv0)
	name = strings.TrimSuffix(name, ".exe")
	return types.ParseTool(name)
}

// runShim dispatches a shim invocation and returns the exit code to
// propagate. Errors are rendered to stderr; the contained process's
// output streams are untouched.
func runShim(tool types.Tool, args []string) types.ExitCode {
	initRootConfig()

	req, err := dispatch.NewRequest(tool, args)
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
		return 1
	}
	if req.IsTruthy(dispatch.EnvVerbose) {
		log.SetLevel(log.DebugLevel)
	}

	code, err := dispatch.NewDispatcher(cfg).Dispatch(context.Background(), req)
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
		if code == 0 {
			code = 1
		}
	}
	return code
}

// initRootConfig reads the config file and applies global flags.
func initRootConfig() {
	if cfgDir != "" {
		config.SetConfigDirOverride(cfgDir)
	}

	loaded, err := config.Load()
	if err != nil {
		// Config problems must never block a dispatch; warn and fall
		// back to defaults.
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, verbose))
		loaded = config.DefaultConfig()
	}
	cfg = loaded

	if verbose || cfg.Verbose {
		log.SetLevel(log.DebugLevel)
	}
}

// formatErrorForDisplay renders an error for the terminal, using the
// actionable form (operation, resource, suggestions) when available.
func formatErrorForDisplay(err error, verbose bool) string {
	var actionable *issue.ActionableError
	if errors.As(err, &actionable) {
		return actionable.Format(verbose)
	}
	return err.Error()
}
