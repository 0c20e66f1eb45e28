// Package summarize implements the Summarizer (spec.md §4.6, component
// C6): a dispatcher that runs synchronously inside the "stop" hook and a
// detached worker it spawns to do the actual LLM-backed summarization,
// stale-peer flush, and compaction.
package summarize

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/remem-dev/remem/internal/gates"
	"github.com/remem-dev/remem/internal/hooks"
	"github.com/remem-dev/remem/internal/projectkey"
	"github.com/remem-dev/remem/internal/queue"
)

// CooldownSecs and MinPending mirror the original's
// SUMMARIZE_COOLDOWN_SECS and MIN_PENDING_FOR_SUMMARIZE exactly.
const (
	CooldownSecs = 300
	MinPending   = 3
)

// WorkerTimeoutSecs bounds the detached worker's total runtime (spec.md
// §4.6 "Worker (bounded global timeout 180 s)").
const WorkerTimeoutSecs = 180

// Input is the JSON payload the "stop" hook hands to the dispatcher and,
// unchanged, to the worker's stdin (spec.md §4.6 dispatcher step 1).
type Input struct {
	SessionID            string `json:"session_id"`
	Cwd                  string `json:"cwd"`
	TranscriptPath       string `json:"transcript_path,omitempty"`
	LastAssistantMessage string `json:"last_assistant_message,omitempty"`
}

// Dispatcher runs the four quick, synchronous gates and spawns the
// detached worker.
type Dispatcher struct {
	gates   *gates.Gates
	queue   *queue.Queue
	spawner *hooks.Spawner
}

// NewDispatcher builds a Dispatcher. workerExePath overrides the binary to
// re-exec for the worker; pass "" to resolve os.Executable() at spawn time.
func NewDispatcher(g *gates.Gates, q *queue.Queue, workerExePath string) *Dispatcher {
	return &Dispatcher{gates: g, queue: q, spawner: hooks.New(workerExePath)}
}

// Dispatch parses raw as an Input, runs gates 1-3, and spawns the worker
// with raw as its stdin if every gate passes (spec.md §4.6 dispatcher
// steps 1-4). It never returns an error for a gate failure — a skipped
// dispatch is the expected common case, not a fault.
func (d *Dispatcher) Dispatch(ctx context.Context, raw []byte, workerArgs []string) error {
	var in Input
	if err := json.Unmarshal(raw, &in); err != nil {
		return fmt.Errorf("summarize: parse dispatcher input: %w", err)
	}

	if isTrivialMessage(in.LastAssistantMessage) {
		return nil
	}

	project, err := projectkey.From(in.Cwd)
	if err != nil {
		return fmt.Errorf("summarize: project key: %w", err)
	}

	pending, err := d.queue.CountAvailable(ctx, in.SessionID)
	if err != nil {
		return fmt.Errorf("summarize: count available: %w", err)
	}
	if pending < MinPending {
		return nil
	}

	onCooldown, err := d.gates.IsOnCooldown(ctx, project, CooldownSecs)
	if err != nil {
		return fmt.Errorf("summarize: cooldown check: %w", err)
	}
	if onCooldown {
		return nil
	}

	msgHash := gates.HashMessage(in.LastAssistantMessage)
	dup, err := d.gates.IsDuplicateMessage(ctx, project, msgHash)
	if err != nil {
		return fmt.Errorf("summarize: duplicate check: %w", err)
	}
	if dup {
		return nil
	}

	return d.spawner.SpawnDetached(workerArgs, raw)
}
