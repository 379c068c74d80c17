// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"os"

	"docknode/internal/dispatch"
	"docknode/pkg/types"

	"github.com/spf13/cobra"
)

// planCmd resolves an invocation without running it. It goes through the
// same pipeline as a real dispatch, so what it prints is exactly what
// `docknode run` would do.
var planCmd = &cobra.Command{
	Use:   "plan <tool> [args...]",
	Short: "Show the execution plan without running anything",
	Long: `Resolve a tool invocation through the full dispatch pipeline and
print the decision: execution mode, container image and where its version
came from, mounts, published ports, and interactivity. No container is
started and no process is spawned.`,
	Example: `  docknode plan npm install
  docknode plan yarn dev`,
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

		plan, err := dispatch.NewDispatcher(cfg).Plan(req)
		if err != nil {
			return err
		}

		renderPlan(os.Stdout, req, plan)
		return nil
	},
}

func init() {
	planCmd.Flags().SetInterspersed(false)
}

// renderPlan prints the resolved execution plan: mode, image, mounts,
// ports, and the command line — everything a user needs to understand
// what docknode would do.
func renderPlan(w io.Writer, req *dispatch.InvocationRequest, plan *dispatch.ExecutionPlan) {
	fmt.Fprintln(w, TitleStyle.Render("Execution Plan"))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  %s %s\n", LabelStyle.Render("Tool:"), req.Tool)
	fmt.Fprintf(w, "  %s %s\n", LabelStyle.Render("Mode:"), string(plan.Mode))

	if plan.Mode == dispatch.ModeLocal {
		fmt.Fprintf(w, "  %s %s\n", LabelStyle.Render("Binary:"), ValueStyle.Render(plan.LocalPath))
		fmt.Fprintf(w, "  %s %s\n", LabelStyle.Render("Command:"), ValueStyle.Render(dispatch.DescribeCommand(req.Tool, req.Args)))
		return
	}

	fmt.Fprintf(w, "  %s %s %s\n",
		LabelStyle.Render("Image:"),
		ValueStyle.Render(plan.Image.Ref),
		SubtitleStyle.Render("(from "+string(plan.Image.Source)+")"))
	fmt.Fprintf(w, "  %s %s\n", LabelStyle.Render("WorkDir:"), plan.RunOpts.WorkDir)
	fmt.Fprintf(w, "  %s %v\n", LabelStyle.Render("Interactive:"), plan.Interactive)
	fmt.Fprintf(w, "  %s %v\n", LabelStyle.Render("Socket:"), plan.SocketBridged)

	if len(plan.RunOpts.Volumes) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, LabelStyle.Render("  Mounts:"))
		for _, v := range plan.RunOpts.Volumes {
			fmt.Fprintf(w, "    %s\n", v.String())
		}
	}

	if len(plan.RunOpts.Ports) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, LabelStyle.Render("  Ports:"))
		for _, p := range plan.RunOpts.Ports {
			fmt.Fprintf(w, "    %s\n", p.String())
		}
	}

	if len(plan.RunOpts.ExtraArgs) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, LabelStyle.Render("  Extra run args:"))
		for _, a := range plan.RunOpts.ExtraArgs {
			fmt.Fprintf(w, "    %s\n", a)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s %s\n", LabelStyle.Render("Command:"), ValueStyle.Render(dispatch.DescribeCommand(req.Tool, req.Args)))
}
