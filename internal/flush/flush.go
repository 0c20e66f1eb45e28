// Package flush implements the Flusher (spec.md §4.5, component C5):
// claims a batch of pending tool-use events, asks the LLM to extract
// durable observations from them, and persists the result in one
// transaction alongside the file-overlap staleness rule.
package flush

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/remem-dev/remem/internal/envelope"
	"github.com/remem-dev/remem/internal/llm"
	"github.com/remem-dev/remem/internal/queue"
	"github.com/remem-dev/remem/internal/store"
	"github.com/remem-dev/remem/internal/textutil"
)

const (
	claimLimit      = 15
	leaseSecs       = 240
	maxMemoryBlocks = 10
	callTimeout     = 90 * time.Second
)

// Flusher drains a session's pending events into observations.
type Flusher struct {
	store    *store.Store
	queue    *queue.Queue
	executor llm.Executor
	model    string
}

// New builds a Flusher.
func New(s *store.Store, q *queue.Queue, executor llm.Executor, model string) *Flusher {
	return &Flusher{store: s, queue: q, executor: executor, model: model}
}

// Flush drains up to claimLimit pending events for (sessionID, project)
// and returns the number of observations persisted (spec.md §4.5 steps
// 1-8).
func (f *Flusher) Flush(ctx context.Context, sessionID, project string) (int, error) {
	owner := leaseOwner(sessionID)

	claimed, err := f.queue.Claim(ctx, sessionID, claimLimit, owner, leaseSecs)
	if err != nil {
		return 0, fmt.Errorf("flush: claim: %w", err)
	}
	if len(claimed) == 0 {
		return 0, nil
	}

	memoryBlock, err := f.renderExistingMemory(ctx, project)
	if err != nil {
		_ = f.queue.Release(ctx, owner)
		return 0, fmt.Errorf("flush: render existing memory: %w", err)
	}
	eventsBlock := renderEvents(claimed)

	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	resp, err := f.executor.Execute(callCtx, llm.Request{
		SystemPrompt: observationPrompt,
		UserPrompt:   memoryBlock + "\n" + eventsBlock,
		Model:        f.model,
		MaxTokens:    4096,
	})
	cancel()
	if err != nil {
		_ = f.queue.Release(ctx, owner)
		return 0, nil // LLM failures are not errors: spec.md §7, next hook invocation retries.
	}

	cost := llm.EstimateCostUSD(resp.Model, resp.InputTokens, resp.OutputTokens)
	if usageErr := f.store.RecordAIUsage(ctx, project, "flush", resp.Executor, resp.Model, resp.InputTokens, resp.OutputTokens, cost); usageErr != nil {
		_ = f.queue.Release(ctx, owner)
		return 0, fmt.Errorf("flush: record usage: %w", usageErr)
	}

	parsed := envelope.ParseObservations(resp.Text)
	if len(parsed) == 0 {
		ids := claimedIDs(claimed)
		if _, err := f.queue.DeleteClaimed(ctx, owner, ids); err != nil {
			return 0, fmt.Errorf("flush: delete claimed (zero observations): %w", err)
		}
		return 0, nil
	}

	tokensPer := resp.OutputTokens / int64(max(1, len(parsed)))

	contentSessionID := sessionID
	ids := claimedIDs(claimed)
	err = f.store.RunInTransaction(ctx, func(tx *sql.Tx) error {
		memSessID, err := upsertSessionForFlush(ctx, tx, f.store, contentSessionID, project)
		if err != nil {
			return err
		}

		for _, obs := range parsed {
			o := &store.Observation{
				MemorySessionID: memSessID,
				Project:         project,
				Type:            obs.Type,
				Title:           obs.Title,
				Subtitle:        obs.Subtitle,
				Narrative:       obs.Narrative,
				Facts:           obs.Facts,
				Concepts:        obs.Concepts,
				FilesRead:       obs.FilesRead,
				FilesModified:   obs.FilesModified,
				DiscoveryTokens: tokensPer,
			}
			newID, err := store.InsertObservation(ctx, tx, o)
			if err != nil {
				return err
			}
			if len(obs.FilesModified) > 0 {
				if err := store.MarkStaleByFiles(ctx, tx, project, newID, obs.FilesModified); err != nil {
					return err
				}
			}
		}

		deleted, err := f.queue.DeleteClaimedTx(ctx, tx, owner, ids)
		if err != nil {
			return err
		}
		if deleted != int64(len(ids)) {
			return fmt.Errorf("flush: delete_claimed mismatch: deleted %d of %d claimed rows", deleted, len(ids))
		}
		return nil
	})
	if err != nil {
		_ = f.queue.Release(ctx, owner)
		return 0, fmt.Errorf("flush: transaction: %w", err)
	}

	return len(parsed), nil
}

func claimedIDs(events []*queue.PendingEvent) []int64 {
	ids := make([]int64, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	return ids
}

func leaseOwner(sessionID string) string {
	prefix := textutil.TruncateUTF8(sessionID, 8)
	return fmt.Sprintf("flush-%d-%d-%s", os.Getpid(), time.Now().UnixMilli(), prefix)
}

func (f *Flusher) renderExistingMemory(ctx context.Context, project string) (string, error) {
	recent, err := f.store.RecentActiveObservations(ctx, project, maxMemoryBlocks)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, o := range recent {
		fmt.Fprintf(&b, `<memory type="%s" title="%s"> — %s</memory>`,
			envelope.EscapeAttr(o.Type), envelope.EscapeAttr(o.Title), envelope.EscapeText(o.Subtitle))
		b.WriteByte('\n')
	}
	return b.String(), nil
}

func renderEvents(events []*queue.PendingEvent) string {
	var b strings.Builder
	for i, e := range events {
		fmt.Fprintf(&b, "<event index=\"%d\"><tool>%s</tool><working_directory>%s</working_directory><parameters>%s</parameters><outcome>%s</outcome></event>\n",
			i, envelope.EscapeText(e.ToolName), envelope.EscapeText(e.Cwd),
			envelope.EscapeText(e.ToolInput), envelope.EscapeText(e.ToolResponse))
	}
	return b.String()
}

// upsertSessionForFlush ensures a session row exists for contentSessionID,
// returning its memory_session_id. Neither the observe nor the
// session-init hook writes a session row, so the first flush for a
// content id creates it here, inside the flush transaction (spec.md §4.5
// step 7 "Upsert Session").
func upsertSessionForFlush(ctx context.Context, tx *sql.Tx, s *store.Store, contentSessionID, project string) (string, error) {
	var existing string
	err := tx.QueryRowContext(ctx, `SELECT memory_session_id FROM sessions WHERE content_session_id = ?`, contentSessionID).Scan(&existing)
	if err == nil {
		return existing, nil
	}
	if err != sql.ErrNoRows {
		return "", err
	}

	memSessID := textutil.DeriveMemorySessionID(contentSessionID)
	var now int64
	if err := tx.QueryRowContext(ctx, "SELECT CAST(strftime('%s','now') AS INTEGER)").Scan(&now); err != nil {
		return "", err
	}
	if err := store.UpsertSession(ctx, tx, contentSessionID, memSessID, project, "", now); err != nil {
		return "", err
	}
	return memSessID, nil
}
