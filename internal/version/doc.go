// SPDX-License-Identifier: MPL-2.0

// Package version resolves which Node.js container image a project wants.
// Priority order: .nvmrc, .node-version, package.json engines.node, then
// the configured default. An explicit image override skips resolution
// entirely. Parse failures are degraded to "no signal", never errors: a
// broken .nvmrc must not stop the user's build.
package version
