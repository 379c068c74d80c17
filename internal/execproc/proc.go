// SPDX-License-Identifier: MPL-2.0

package execproc

import (
	"errors"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"docknode/pkg/types"
)

// Run executes cmd as the shim's stand-in for the real tool. When
// interactive is true the child is attached to a pseudo-terminal;
// otherwise it inherits the caller's streams directly. In both modes
// signals are forwarded and the child's exit code is returned unchanged.
//
// A non-zero exit code is not an error: the shim's caller decides what it
// means. The error return covers only infrastructure failures (binary
// missing, PTY allocation failure).
func Run(cmd *exec.Cmd, interactive bool) (types.ExitCode, error) {
	if interactive {
		return runInteractive(cmd)
	}
	return runPlain(cmd)
}

// runPlain runs the child on the inherited standard streams, forwarding
// termination signals so ctrl-C in a terminal reaches the child even when
// it is not in the shim's process group.
func runPlain(cmd *exec.Cmd) (types.ExitCode, error) {
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return 1, err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case sig := <-sigCh:
				_ = cmd.Process.Signal(sig)
			case <-done:
				return
			}
		}
	}()

	err := cmd.Wait()
	close(done)
	signal.Stop(sigCh)

	return exitCodeFromWait(err)
}

// exitCodeFromWait maps a Wait error to the child's exit code.
func exitCodeFromWait(err error) (types.ExitCode, error) {
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return types.ExitCode(exitErr.ExitCode()), nil
	}
	return 1, err
}
