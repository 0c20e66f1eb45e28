package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// hookEntry and hookGroup mirror the shape Claude Code expects under
// settings.json's "hooks" key (grounded on the teacher's
// cmd/bd/doctor/claude.go hasBeadsHooks reader, which parses the same
// structure): hooks[event] = [{matcher, hooks: [{type, command}]}].
type hookEntry struct {
	Type    string `json:"type"`
	Command string `json:"command"`
}

type hookGroup struct {
	Matcher string      `json:"matcher,omitempty"`
	Hooks   []hookEntry `json:"hooks"`
}

const hookCommandPrefix = "remem "

// settingsPath returns $HOME/.claude/settings.json.
func settingsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".claude", "settings.json"), nil
}

func readSettings(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var settings map[string]any
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return settings, nil
}

// atomicWriteFile writes data to path via a temp file in the same
// directory followed by an atomic rename, so a crash mid-write never
// leaves a truncated settings.json (grounded on the teacher's
// cmd/bd/setup/utils.go atomicWriteFile).
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".remem-settings-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o600); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// rememHookEvents maps each Claude Code hook event this tool cares about
// to the remem subcommand it should invoke.
var rememHookEvents = map[string]string{
	"SessionStart": "session-init",
	"PostToolUse":  "observe",
	"Stop":         "summarize",
}

func installHooks(path string) error {
	settings, err := readSettings(path)
	if err != nil {
		return err
	}

	hooksSection, _ := settings["hooks"].(map[string]any)
	if hooksSection == nil {
		hooksSection = map[string]any{}
	}

	for event, subcommand := range rememHookEvents {
		groups := decodeHookGroups(hooksSection[event])
		if hasRememHook(groups, subcommand) {
			continue
		}
		groups = append(groups, hookGroup{
			Hooks: []hookEntry{{Type: "command", Command: hookCommandPrefix + subcommand}},
		})
		hooksSection[event] = groups
	}
	settings["hooks"] = hooksSection

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	return atomicWriteFile(path, data)
}

func uninstallHooks(path string) error {
	settings, err := readSettings(path)
	if err != nil {
		return err
	}

	hooksSection, _ := settings["hooks"].(map[string]any)
	if hooksSection == nil {
		return nil
	}

	for event, subcommand := range rememHookEvents {
		groups := decodeHookGroups(hooksSection[event])
		filtered := groups[:0]
		for _, g := range groups {
			if !groupIsRemem(g, subcommand) {
				filtered = append(filtered, g)
			}
		}
		if len(filtered) == 0 {
			delete(hooksSection, event)
		} else {
			hooksSection[event] = filtered
		}
	}
	settings["hooks"] = hooksSection

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	return atomicWriteFile(path, data)
}

func decodeHookGroups(raw any) []hookGroup {
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	var groups []hookGroup
	_ = json.Unmarshal(encoded, &groups)
	return groups
}

func hasRememHook(groups []hookGroup, subcommand string) bool {
	for _, g := range groups {
		if groupIsRemem(g, subcommand) {
			return true
		}
	}
	return false
}

func groupIsRemem(g hookGroup, subcommand string) bool {
	for _, h := range g.Hooks {
		if h.Command == hookCommandPrefix+subcommand {
			return true
		}
	}
	return false
}
