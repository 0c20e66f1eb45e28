// Package hooks spawns the Summarizer worker as a detached child process.
// The dispatcher hands the worker its stdin payload and returns without
// waiting; the worker must keep running after the dispatcher (and the
// Claude Code hook process hosting it) exits (spec.md §5, §4.6 step 4).
package hooks

import (
	"fmt"
	"os"
	"os/exec"
)

// Spawner launches detached worker subprocesses.
type Spawner struct {
	// exePath is the binary to re-exec. Empty means resolve os.Executable()
	// at spawn time; tests override it with a stub binary.
	exePath string
}

// New builds a Spawner. exePath overrides the executable to re-exec; pass
// "" to resolve os.Executable() lazily on each SpawnDetached call.
func New(exePath string) *Spawner {
	return &Spawner{exePath: exePath}
}

// SpawnDetached starts exePath(args...) in its own process group, writes
// stdin to the child, and returns as soon as the process has started. It
// never waits on the child, and the child survives the spawner's own
// process exiting (grounded on the teacher's hooks_unix.go process-group
// pattern, repurposed here for detachment instead of timeout-kill).
func (s *Spawner) SpawnDetached(args []string, stdin []byte) error {
	exePath := s.exePath
	if exePath == "" {
		resolved, err := os.Executable()
		if err != nil {
			return fmt.Errorf("hooks: resolve executable: %w", err)
		}
		exePath = resolved
	}

	cmd := exec.Command(exePath, args...)
	cmd.Env = os.Environ()

	stdinPipe, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("hooks: stdin pipe: %w", err)
	}

	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("hooks: open devnull: %w", err)
	}
	cmd.Stdout = devNull
	cmd.Stderr = devNull

	detach(cmd)

	if err := cmd.Start(); err != nil {
		_ = devNull.Close()
		_ = stdinPipe.Close()
		return fmt.Errorf("hooks: start worker: %w", err)
	}

	go func() {
		defer devNull.Close()
		defer stdinPipe.Close()
		_, _ = stdinPipe.Write(stdin)
	}()

	// No cmd.Wait() here: the dispatcher must return immediately, and the
	// detached process group keeps the child alive after we exit. We still
	// reap our own handle in the background so it doesn't leak as a zombie
	// on platforms where the child happens to finish before we exit.
	go func() { _, _ = cmd.Process.Wait() }()

	return nil
}
