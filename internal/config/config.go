// Package config loads the memory pipeline's configuration through a
// layered viper setup: project config file (.remem/config.toml in the
// working directory or the nearest ancestor that has one) takes
// precedence over a user config directory file, which takes precedence
// over $HOME/.remem/config.toml, with every REMEM_* environment variable
// auto-bound on top of all of them. The precedence chain and
// SetEnvKeyReplacer idiom are carried from the host repo's own
// config package.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

var v *viper.Viper

// Initialize sets up the viper singleton. Safe to call once at startup.
func Initialize() error {
	v = viper.New()
	v.SetConfigType("toml")

	configFileSet := false

	if cwd, err := os.Getwd(); err == nil {
		for dir := cwd; dir != filepath.Dir(dir); dir = filepath.Dir(dir) {
			p := filepath.Join(dir, ".remem", "config.toml")
			if _, err := os.Stat(p); err == nil {
				v.SetConfigFile(p)
				configFileSet = true
				break
			}
		}
	}

	if !configFileSet {
		if configDir, err := os.UserConfigDir(); err == nil {
			p := filepath.Join(configDir, "remem", "config.toml")
			if _, err := os.Stat(p); err == nil {
				v.SetConfigFile(p)
				configFileSet = true
			}
		}
	}

	if !configFileSet {
		if home, err := os.UserHomeDir(); err == nil {
			p := filepath.Join(home, ".remem", "config.toml")
			if _, err := os.Stat(p); err == nil {
				v.SetConfigFile(p)
				configFileSet = true
			}
		}
	}

	v.SetEnvPrefix("REMEM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("data-dir", "")
	v.SetDefault("model", "haiku")
	v.SetDefault("executor", "")
	v.SetDefault("claude-path", "claude")
	v.SetDefault("log-max-bytes", "")
	v.SetDefault("debug", false)
	v.SetDefault("context-observations", 0)
	v.SetDefault("context-full-count", 0)
	v.SetDefault("context-observation-types", "")

	if configFileSet {
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// String retrieves a string configuration value.
func String(key string) string {
	if v == nil {
		return ""
	}
	return v.GetString(key)
}

// Bool retrieves a boolean configuration value.
func Bool(key string) bool {
	if v == nil {
		return false
	}
	return v.GetBool(key)
}

// Int retrieves an integer configuration value.
func Int(key string) int {
	if v == nil {
		return 0
	}
	return v.GetInt(key)
}

// DataDir resolves $REMEM_DATA_DIR (or the config-file equivalent),
// defaulting to $HOME/.remem.
func DataDir() string {
	if d := String("data-dir"); d != "" {
		return d
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".remem"
	}
	return filepath.Join(home, ".remem")
}
