// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package execproc

import (
	"io"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"docknode/pkg/types"

	"github.com/creack/pty"
	"golang.org/x/term"
)

// runInteractive attaches the child to a pseudo-terminal. The controlling
// terminal is switched to raw mode for the child's lifetime so keystrokes
// (including ctrl-C) pass through unmodified, and SIGWINCH keeps the
// child's notion of the window size current.
func runInteractive(cmd *exec.Cmd) (types.ExitCode, error) {
	ptmx, err := pty.Start(cmd)
	if err != nil {
		return 1, err
	}
	defer func() { _ = ptmx.Close() }()

	winchCh := make(chan os.Signal, 1)
	signal.Notify(winchCh, syscall.SIGWINCH)
	go func() {
		for range winchCh {
			_ = pty.InheritSize(os.Stdin, ptmx)
		}
	}()
	winchCh <- syscall.SIGWINCH // initial size
	defer func() {
		signal.Stop(winchCh)
		close(winchCh)
	}()

	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err == nil {
		defer func() { _ = term.Restore(int(os.Stdin.Fd()), oldState) }()
	}

	go func() { _, _ = io.Copy(ptmx, os.Stdin) }()
	_, _ = io.Copy(os.Stdout, ptmx)

	return exitCodeFromWait(cmd.Wait())
}
