// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"docknode/internal/dispatch"
	"docknode/pkg/types"

	"github.com/spf13/cobra"
)

// runCmd dispatches a tool invocation exactly like a shim symlink would.
// Flag parsing stops at the tool name so everything after it reaches the
// tool verbatim.
var runCmd = &cobra.Command{
	Use:   "run <tool> [args...]",
	Short: "Run a Node.js tool through the dispatcher",
	Long: `Run a Node.js tool (node, npm, npx, yarn, pnpm) through the
dispatcher, as if it had been invoked through a shim symlink.

The container image is resolved from the project's version declarations,
the current directory is mounted as the working directory, and the
tool's exit code is propagated unchanged.`,
	Example: `  docknode run npm install
  docknode run node script.js
  docknode run yarn dev`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tool, ok := types.ParseTool(args[0])
		if !ok {
			return fmt.Errorf("unknown tool %q (known: node, npm, npx, yarn, pnpm)", args[0])
		}

		req, err := dispatch.NewRequest(tool, args[1:])
		if err != nil {
			return err
		}

		code, err := dispatch.NewDispatcher(cfg).Dispatch(cmd.Context(), req)
		if err != nil {
			if code == 0 {
				code = 1
			}
			return &ExitError{Code: code, Err: errors.New(formatErrorForDisplay(err, verbose))}
		}
		if !code.IsSuccess() {
			return &ExitError{Code: code}
		}
		return nil
	},
}

func init() {
	// Tool flags like `npm install --verbose` must pass through untouched.
	runCmd.Flags().SetInterspersed(false)
}
