//go:build windows

package llm

import (
	"context"
	"os/exec"
)

// runWithGroupKill on Windows best-effort kills the immediate process;
// there is no Unix-style process group to target.
func runWithGroupKill(ctx context.Context, cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-ctx.Done():
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		<-done
		return ctx.Err()
	case err := <-done:
		return err
	}
}
