// SPDX-License-Identifier: MPL-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"docknode/internal/issue"

	"github.com/spf13/viper"
)

const (
	// AppName is the application name, used for config and cache paths.
	AppName = "docknode"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "toml"
)

// configDirOverride lets tests redirect config loading to a temp directory.
var configDirOverride string

type (
	// Config holds the docknode configuration. Every field has a default;
	// the config file is optional and the DOCKER_NODE_* environment
	// variables override individual values at dispatch time.
	Config struct {
		// DefaultVersion is the Node.js major version used when no project
		// version declaration is found.
		DefaultVersion string `mapstructure:"default_version" toml:"default_version"`

		// ImageVariant is the image tag suffix (node:<major>-<variant>).
		ImageVariant string `mapstructure:"image_variant" toml:"image_variant"`

		// Engine is the preferred container engine ("docker", "podman", or
		// "" for auto-detection).
		Engine string `mapstructure:"engine" toml:"engine"`

		// CacheRoot is the host directory holding per-tool cache mounts.
		CacheRoot string `mapstructure:"cache_root" toml:"cache_root"`

		// Ports is the default host port list bound when the dev-server
		// heuristic matches.
		Ports []int `mapstructure:"ports" toml:"ports"`

		// OAuthPort is the callback port bound for the wrangler login flow.
		OAuthPort int `mapstructure:"oauth_port" toml:"oauth_port"`

		// Verbose enables debug logging.
		Verbose bool `mapstructure:"verbose" toml:"verbose"`
	}
)

// DefaultConfig returns the built-in configuration defaults.
func DefaultConfig() *Config {
	return &Config{
		DefaultVersion: "22",
		ImageVariant:   "slim",
		Engine:         "",
		CacheRoot:      defaultCacheRoot(),
		Ports:          []int{3000, 5173, 8080},
		OAuthPort:      8976,
		Verbose:        false,
	}
}

// ConfigDir returns the docknode configuration directory using
// platform-specific conventions: Windows uses %APPDATA%, macOS uses
// ~/Library/Application Support, and Linux/others use $XDG_CONFIG_HOME
// (defaulting to ~/.config).
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// SetConfigDirOverride redirects config loading to dir. Tests use this to
// isolate from the user's real configuration; pass "" to restore.
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}

// Load reads the configuration file if present and returns the effective
// configuration. A missing file is not an error; a malformed file is,
// because silently ignoring a config the user wrote hides real mistakes.
func Load() (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("default_version", defaults.DefaultVersion)
	v.SetDefault("image_variant", defaults.ImageVariant)
	v.SetDefault("engine", defaults.Engine)
	v.SetDefault("cache_root", defaults.CacheRoot)
	v.SetDefault("ports", defaults.Ports)
	v.SetDefault("oauth_port", defaults.OAuthPort)
	v.SetDefault("verbose", defaults.Verbose)

	dir, err := ConfigDir()
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("locate configuration directory").
			Wrap(err).
			BuildError()
	}

	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if fileExists(path) {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Check the TOML syntax").
				WithSuggestion("Remove the file to fall back to defaults").
				Wrap(err).
				BuildError()
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("parse configuration").
			WithResource(path).
			Wrap(err).
			BuildError()
	}

	return cfg, nil
}

// defaultCacheRoot returns $XDG_CACHE_HOME/docknode, falling back to
// ~/.cache/docknode. The directory itself is created by the install
// tooling, not here.
func defaultCacheRoot() string {
	if cache := os.Getenv("XDG_CACHE_HOME"); cache != "" {
		return filepath.Join(cache, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "."+AppName)
	}
	return filepath.Join(home, ".cache", AppName)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
