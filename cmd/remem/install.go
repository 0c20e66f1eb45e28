package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
)

// defaultConfig is marshaled to $HOME/.remem/config.toml by install when no
// config file exists yet, giving an operator a starting point that names
// the model, executor, and claude-path settings with their defaults; the
// other REMEM_* settings are not written to it.
type defaultConfig struct {
	Model      string `toml:"model"`
	Executor   string `toml:"executor"`
	ClaudePath string `toml:"claude-path"`
}

func writeDefaultConfigIfAbsent() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	path := filepath.Join(home, ".remem", "config.toml")

	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	cfg := defaultConfig{Model: "haiku", Executor: "", ClaudePath: "claude"}
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

func newInstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "install",
		Short:   "Register remem's hooks in ~/.claude/settings.json",
		GroupID: groupOps,
		Long: `Adds SessionStart, PostToolUse, and Stop hook entries that invoke this
binary, if they are not already present. Existing hook entries for other
tools are left untouched. Also writes a starter config.toml under
$HOME/.remem if one is not already present.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := settingsPath()
			if err != nil {
				return fmt.Errorf("remem install: %w", err)
			}
			if err := installHooks(path); err != nil {
				return fmt.Errorf("remem install: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "hooks registered in %s\n", path)

			configPath, err := writeDefaultConfigIfAbsent()
			if err != nil {
				return fmt.Errorf("remem install: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "config at %s\n", configPath)
			return nil
		},
	}
}
