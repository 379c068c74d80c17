// SPDX-License-Identifier: MPL-2.0

// docknode is a container dispatch shim for the Node.js toolchain. It
// runs node, npm, npx, yarn, and pnpm inside version-matched containers
// while behaving exactly like the tool it stands in for.
package main

import cmd "docknode/cmd/docknode"

func main() {
	cmd.Execute()
}
