// Package ingest implements the PostToolUse hook body (spec.md §4.4,
// component C4): filtering which tool calls are worth recording and
// enqueueing the survivors onto the pending-event queue.
package ingest

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/remem-dev/remem/internal/queue"
	"github.com/remem-dev/remem/internal/textutil"
)

// actionTools produce meaningful observations; every other tool is either
// explicitly skipped or silently ignored (grounded on observe.rs
// ACTION_TOOLS/SKIP_TOOLS).
var actionTools = map[string]bool{
	"Write":        true,
	"Edit":         true,
	"NotebookEdit": true,
	"Bash":         true,
}

var skipTools = map[string]bool{
	"ListMcpResourcesTool": true,
	"SlashCommand":         true,
	"Skill":                true,
	"TodoWrite":            true,
	"AskUserQuestion":      true,
	"TaskCreate":           true,
	"TaskUpdate":           true,
	"TaskList":             true,
	"TaskGet":              true,
	"EnterPlanMode":        true,
	"ExitPlanMode":         true,
}

// bashSkipPrefixes are routine or read-only Bash invocations not worth
// recording (grounded on observe.rs BASH_SKIP_PREFIXES).
var bashSkipPrefixes = []string{
	"git status", "git log", "git diff", "git branch", "git stash list",
	"git remote", "git fetch", "git show",
	"ls", "pwd", "echo ", "which ", "type ", "whereis ",
	"cat ", "head ", "tail ", "wc ", "file ",
	"npm install", "npm ci", "yarn install", "pnpm install",
	"cargo build", "cargo check", "cargo clippy", "cargo fmt",
	"cd ", "pushd ", "popd",
	"lsof ", "ps ", "top", "htop", "df ", "du ",
}

// MaxResponseSize bounds the stored tool_response (spec.md §4.4
// MAX_RESPONSE_SIZE, saves DB space).
const MaxResponseSize = 4000

// ShouldSkipBashCommand reports whether cmd is a routine, read-only Bash
// invocation not worth recording.
func ShouldSkipBashCommand(cmd string) bool {
	trimmed := strings.TrimSpace(cmd)
	for _, prefix := range bashSkipPrefixes {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	return false
}

// Event is the decoded PostToolUse hook payload.
type Event struct {
	SessionID    string
	Cwd          string
	ToolName     string
	ToolInput    json.RawMessage
	ToolResponse json.RawMessage
}

// ShouldRecord decides whether ev should be enqueued at all, per the
// skip-tools / action-tools / bash-prefix filters.
func ShouldRecord(ev Event) bool {
	if skipTools[ev.ToolName] {
		return false
	}
	if !actionTools[ev.ToolName] {
		return false
	}
	if ev.ToolName == "Bash" {
		if cmd := bashCommand(ev.ToolInput); cmd != "" && ShouldSkipBashCommand(cmd) {
			return false
		}
	}
	return true
}

func bashCommand(toolInput json.RawMessage) string {
	if len(toolInput) == 0 {
		return ""
	}
	var payload struct {
		Command string `json:"command"`
	}
	if err := json.Unmarshal(toolInput, &payload); err != nil {
		return ""
	}
	return payload.Command
}

// Enqueue filters ev and, if it passes, appends it to q as a pending
// event. It reports whether the event was queued.
func Enqueue(ctx context.Context, q *queue.Queue, ev Event, project string) (bool, error) {
	if !ShouldRecord(ev) {
		return false, nil
	}

	inputStr := ""
	if len(ev.ToolInput) > 0 {
		inputStr = string(ev.ToolInput)
	}
	responseStr := ""
	if len(ev.ToolResponse) > 0 {
		responseStr = textutil.TruncateUTF8(string(ev.ToolResponse), MaxResponseSize)
	}

	if err := q.Enqueue(ctx, ev.SessionID, project, ev.ToolName, inputStr, responseStr, ev.Cwd); err != nil {
		return false, err
	}
	return true, nil
}
