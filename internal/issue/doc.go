// SPDX-License-Identifier: MPL-2.0

// Package issue provides user-facing error types for the docknode CLI.
// Dispatcher failures are configuration or environment problems the user
// can fix, so every fatal error carries the failed operation, the resource
// involved, and concrete suggestions.
package issue
