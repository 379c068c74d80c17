// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"docknode/internal/config"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

// configCmd is the `docknode config` command tree.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage docknode configuration",
	Long: `Manage docknode configuration.

Configuration is stored in:
  - Linux: ~/.config/docknode/config.toml
  - macOS: ~/Library/Application Support/docknode/config.toml
  - Windows: %APPDATA%\docknode\config.toml

Environment variables (DOCKER_NODE_*) are read per invocation and always
take precedence over the file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show effective configuration as TOML",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := toml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("encoding configuration: %w", err)
			}
			fmt.Print(string(out))
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := config.ConfigDir()
			if err != nil {
				return err
			}
			fmt.Println(filepath.Join(dir, config.ConfigFileName+"."+config.ConfigFileExt))
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create a default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfigFile()
		},
	})
}

// initConfigFile writes the default configuration, refusing to clobber
// an existing file.
func initConfigFile() error {
	dir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	path := filepath.Join(dir, config.ConfigFileName+"."+config.ConfigFileExt)

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	out, err := toml.Marshal(config.DefaultConfig())
	if err != nil {
		return fmt.Errorf("encoding default configuration: %w", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	fmt.Println(SuccessStyle.Render("created ") + ValueStyle.Render(path))
	return nil
}
