// SPDX-License-Identifier: MPL-2.0

// Package config loads the docknode configuration file and supplies the
// built-in defaults (default Node version, image variant, cache root,
// dev-server port list, OAuth callback port). Environment variables are
// deliberately not read here — the dispatch package owns the DOCKER_NODE_*
// override surface, because every override is scoped to a single
// invocation, not to the loaded configuration.
package config
