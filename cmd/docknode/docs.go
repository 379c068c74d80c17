// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	_ "embed"
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

//go:embed docs.md
var usageDocs string

// docsCmd renders the bundled usage guide in the terminal.
var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Show the usage guide",
	Long:  "Render the bundled usage guide, covering shim installation, version detection, and the environment variable surface.",
	RunE: func(cmd *cobra.Command, args []string) error {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(100),
		)
		if err != nil {
			// Styled rendering is best effort; plain text still documents.
			fmt.Print(usageDocs)
			return nil
		}

		out, err := renderer.Render(usageDocs)
		if err != nil {
			fmt.Print(usageDocs)
			return nil
		}
		fmt.Print(out)
		return nil
	},
}
