package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/remem-dev/remem/internal/applog"
	"github.com/remem-dev/remem/internal/config"
)

const (
	groupHooks = "hooks"
	groupOps   = "ops"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "remem",
		Short: "Persistent memory store for AI coding assistants",
		Long: `remem records what an AI coding assistant learns about a project across
sessions: bug fixes, decisions, preferences, and the narrative that would
otherwise be re-discovered from scratch at the start of every session.

Most subcommands are invoked by Claude Code hooks and are not meant to be
run by hand; context, usage, and cleanup are the ones an operator runs
directly.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Initialize(); err != nil {
				return fmt.Errorf("remem: load config: %w", err)
			}
			applog.Init(config.DataDir(), config.String("log-max-bytes"))
			return nil
		},
	}

	root.AddGroup(
		&cobra.Group{ID: groupHooks, Title: "Hook commands (invoked by Claude Code):"},
		&cobra.Group{ID: groupOps, Title: "Operator commands:"},
	)

	root.AddCommand(
		newContextCmd(),
		newSessionInitCmd(),
		newObserveCmd(),
		newSummarizeCmd(),
		newSummarizeWorkerCmd(),
		newFlushCmd(),
		newMCPCmd(),
		newInstallCmd(),
		newUninstallCmd(),
		newCleanupCmd(),
		newUsageCmd(),
	)

	return root
}

// exitCodeFor maps a top-level command error to a process exit code
// (spec.md §6.3, §7): hooks never reach here for filter hits or LLM
// failures, since every component that can fail non-fatally swallows the
// error and returns nil. Anything that does surface is either a fatal
// store/IO error or a CLI usage error, both of which exit nonzero.
func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	return 1
}
