package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUninstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "uninstall",
		Short:   "Remove remem's hooks from ~/.claude/settings.json",
		GroupID: groupOps,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := settingsPath()
			if err != nil {
				return fmt.Errorf("remem uninstall: %w", err)
			}
			if err := uninstallHooks(path); err != nil {
				return fmt.Errorf("remem uninstall: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "hooks removed from %s\n", path)
			return nil
		},
	}
}
