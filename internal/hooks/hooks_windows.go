//go:build windows

package hooks

import "os/exec"

// detach is a no-op on Windows: there is no process-group primitive to
// detach into, and exec.Cmd already avoids creating a console-level
// dependency on the parent's stdio since those are redirected to devnull.
// Descendant survival on Windows is best-effort.
func detach(cmd *exec.Cmd) {}
