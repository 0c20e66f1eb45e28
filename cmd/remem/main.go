// Command remem is the memory pipeline's hook and operator CLI (spec.md
// §6.3): every Claude Code hook shells out to one of its subcommands, and
// the `usage`/`cleanup`/`install` family covers day-to-day operation.
package main

import "os"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	root := newRootCmd()
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		return exitCodeFor(err)
	}
	return 0
}
