package summarize

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/remem-dev/remem/internal/compact"
	"github.com/remem-dev/remem/internal/envelope"
	"github.com/remem-dev/remem/internal/flush"
	"github.com/remem-dev/remem/internal/gates"
	"github.com/remem-dev/remem/internal/llm"
	"github.com/remem-dev/remem/internal/projectkey"
	"github.com/remem-dev/remem/internal/queue"
	"github.com/remem-dev/remem/internal/store"
	"github.com/remem-dev/remem/internal/textutil"
)

// Budget constants from spec.md §5 "Cancellation & timeouts": the worker's
// global deadline, the window always reserved for the summary call itself,
// and the per-subtask timeouts each guarded by remaining >= reserve +
// timeout + margin before running at all.
const (
	summaryReserve     = 95 * time.Second
	staleFlushTimeout  = 45 * time.Second
	compressTimeout    = 40 * time.Second
	budgetMargin       = 5 * time.Second
	summaryCallTimeout = 90 * time.Second

	stalePeerAgeSecs = 600 // 10 minutes, spec.md §4.6 worker step 2
	maxMessageBytes  = 12000
)

// Worker runs the full summarization pipeline for one dispatched Input.
type Worker struct {
	store     *store.Store
	queue     *queue.Queue
	gates     *gates.Gates
	flusher   *flush.Flusher
	compactor *compact.Compactor
	executor  llm.Executor
	model     string
}

// NewWorker builds a Worker.
func NewWorker(s *store.Store, q *queue.Queue, g *gates.Gates, f *flush.Flusher, c *compact.Compactor, executor llm.Executor, model string) *Worker {
	return &Worker{store: s, queue: q, gates: g, flusher: f, compactor: c, executor: executor, model: model}
}

// Run executes the worker pipeline against raw (the same JSON the
// dispatcher received), bounded by WorkerTimeoutSecs (spec.md §4.6
// "Worker"). Every early-exit path (gate re-check, lock contention, LLM
// failure, skip envelope) returns nil: this process has no caller to
// report to, so failures are swallowed rather than surfaced as errors.
func (w *Worker) Run(ctx context.Context, raw []byte) error {
	deadline := time.Now().Add(WorkerTimeoutSecs * time.Second)
	ctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	var in Input
	if err := json.Unmarshal(raw, &in); err != nil {
		return fmt.Errorf("summarize worker: parse input: %w", err)
	}

	project, err := projectkey.From(in.Cwd)
	if err != nil {
		return fmt.Errorf("summarize worker: project key: %w", err)
	}

	remaining := func() time.Duration { return time.Until(deadline) }

	// Step 1: flush the current session.
	if _, err := w.flusher.Flush(ctx, in.SessionID, project); err != nil {
		return fmt.Errorf("summarize worker: flush current session: %w", err)
	}

	// Step 2: at most one stale peer, budget permitting.
	if remaining() >= summaryReserve+staleFlushTimeout+budgetMargin {
		w.flushOneStalePeer(ctx, in.SessionID, project)
	}

	// Step 3: compaction, budget permitting.
	if remaining() >= summaryReserve+compressTimeout+budgetMargin {
		_ = w.compactor.Run(ctx, project, compressTimeout)
	}

	// Step 4: recover and validate the last assistant message.
	lastMessage := in.LastAssistantMessage
	if lastMessage == "" && in.TranscriptPath != "" {
		recovered, err := recoverLastAssistantMessage(in.TranscriptPath)
		if err == nil {
			lastMessage = recovered
		}
	}
	if isTrivialMessage(lastMessage) {
		return nil
	}
	lastMessage = textutil.TruncateUTF8(lastMessage, maxMessageBytes)

	// Step 5: re-check cooldown and duplicate-message gates (race with the dispatcher).
	onCooldown, err := w.gates.IsOnCooldown(ctx, project, CooldownSecs)
	if err != nil {
		return fmt.Errorf("summarize worker: cooldown recheck: %w", err)
	}
	if onCooldown {
		return nil
	}
	msgHash := gates.HashMessage(lastMessage)
	dup, err := w.gates.IsDuplicateMessage(ctx, project, msgHash)
	if err != nil {
		return fmt.Errorf("summarize worker: duplicate recheck: %w", err)
	}
	if dup {
		return nil
	}

	// Step 6: build the existing-summary merge context.
	memSessID := w.resolveMemorySessionID(ctx, in.SessionID)
	existingBlock, err := w.renderExistingSummary(ctx, memSessID, project)
	if err != nil {
		return fmt.Errorf("summarize worker: render existing summary: %w", err)
	}

	// Step 7: acquire the in-progress lock.
	if err := w.gates.TryAcquire(ctx, project, int64(WorkerTimeoutSecs)); err != nil {
		return nil // another worker already owns this project's summary.
	}

	// Step 8: LLM call.
	callCtx, callCancel := context.WithTimeout(ctx, summaryCallTimeout)
	resp, err := w.executor.Execute(callCtx, llm.Request{
		SystemPrompt: summaryPrompt,
		UserPrompt:   existingBlock + "\n<last_message>\n" + envelope.EscapeText(lastMessage) + "\n</last_message>",
		Model:        w.model,
		MaxTokens:    2048,
	})
	callCancel()
	if err != nil {
		_ = w.gates.Release(ctx, project)
		return nil
	}

	cost := llm.EstimateCostUSD(resp.Model, resp.InputTokens, resp.OutputTokens)
	if usageErr := w.store.RecordAIUsage(ctx, project, "summarize", resp.Executor, resp.Model, resp.InputTokens, resp.OutputTokens, cost); usageErr != nil {
		_ = w.gates.Release(ctx, project)
		return fmt.Errorf("summarize worker: record usage: %w", usageErr)
	}

	// Step 9: parse the envelope.
	parsed := envelope.ParseSummary(resp.Text)
	if parsed.SkipRequested {
		_ = w.gates.Release(ctx, project)
		return nil
	}

	// Step 10: atomic finalize, then release the lock regardless of outcome.
	summary := store.SessionSummary{
		Request:         parsed.Request,
		Completed:       parsed.Completed,
		Decisions:       parsed.Decisions,
		Learned:         parsed.Learned,
		NextSteps:       parsed.NextSteps,
		Preferences:     parsed.Preferences,
		DiscoveryTokens: resp.OutputTokens,
	}
	now, nowErr := store.Now(ctx, w.store.DB())
	if nowErr != nil {
		_ = w.gates.Release(ctx, project)
		return fmt.Errorf("summarize worker: read now: %w", nowErr)
	}
	_, finalizeErr := w.store.FinalizeSummarize(ctx, memSessID, project, summary, msgHash, now)
	_ = w.gates.Release(ctx, project)
	if finalizeErr != nil {
		return fmt.Errorf("summarize worker: finalize: %w", finalizeErr)
	}

	return nil
}

// flushOneStalePeer flushes at most one other session in project whose
// oldest pending row is older than stalePeerAgeSecs (spec.md §4.6 worker
// step 2). Errors are swallowed: a failed opportunistic peer flush must
// never fail the worker's own summary path.
func (w *Worker) flushOneStalePeer(ctx context.Context, currentSessionID, project string) {
	peers, err := w.queue.StaleSessions(ctx, project, stalePeerAgeSecs)
	if err != nil {
		return
	}
	for _, peer := range peers {
		if peer == currentSessionID {
			continue
		}
		peerCtx, cancel := context.WithTimeout(ctx, staleFlushTimeout)
		_, _ = w.flusher.Flush(peerCtx, peer, project)
		cancel()
		return // never flush more than one peer per worker run.
	}
}

func (w *Worker) resolveMemorySessionID(ctx context.Context, contentSessionID string) string {
	if sess, err := w.store.GetSessionByContentID(ctx, contentSessionID); err == nil {
		return sess.MemorySessionID
	}
	return textutil.DeriveMemorySessionID(contentSessionID)
}

func (w *Worker) renderExistingSummary(ctx context.Context, memorySessionID, project string) (string, error) {
	prior, err := w.store.LatestSummary(ctx, memorySessionID, project)
	if err != nil {
		return "", err
	}
	if prior == nil {
		return "", nil
	}

	var b []byte
	b = append(b, "<existing_summary>\n"...)
	b = appendTag(b, "request", prior.Request)
	b = appendTag(b, "completed", prior.Completed)
	b = appendTag(b, "decisions", prior.Decisions)
	b = appendTag(b, "learned", prior.Learned)
	b = appendTag(b, "next_steps", prior.NextSteps)
	b = appendTag(b, "preferences", prior.Preferences)
	b = append(b, "</existing_summary>\n\n"...)
	return string(b), nil
}

func appendTag(b []byte, tag, value string) []byte {
	if value == "" {
		return b
	}
	b = append(b, '<')
	b = append(b, tag...)
	b = append(b, '>')
	b = append(b, envelope.EscapeText(value)...)
	b = append(b, "</"...)
	b = append(b, tag...)
	b = append(b, ">\n"...)
	return b
}
