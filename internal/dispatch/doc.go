// SPDX-License-Identifier: MPL-2.0

// Package dispatch implements the docknode decision pipeline. One
// invocation flows through four stages: the override check (local vs
// containerized), image resolution, execution-environment construction
// (mounts, ports, interactivity, socket bridging), and final process
// invocation. The pipeline is stateless per call; everything it decides
// lives in an ExecutionPlan consumed exactly once.
package dispatch
