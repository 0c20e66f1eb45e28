//go:build unix

package hooks

import (
	"os/exec"
	"syscall"
)

// detach puts cmd in its own process group so it keeps running as an
// independent process after the spawner exits, instead of being tied to
// the spawner's session (grounded on the teacher's Setpgid pattern, used
// there for group-kill-on-timeout and reused here for the opposite goal:
// surviving the parent rather than being killed with it).
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
