//go:build unix

package llm

import (
	"context"
	"errors"
	"os/exec"
	"syscall"
)

// runWithGroupKill starts cmd in its own process group so that, on
// context expiry, the whole group (the claude binary plus anything it
// spawns) is killed rather than only the immediate child, grounded on
// the teacher's hooks.runHook.
func runWithGroupKill(ctx context.Context, cmd *exec.Cmd) error {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-ctx.Done():
		if cmd.Process != nil {
			if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
				return err
			}
		}
		<-done
		return ctx.Err()
	case err := <-done:
		return err
	}
}
