// Package compact implements the Compactor (spec.md §4.7, component
// C7): merges aging observations into a smaller long-term set once a
// project's active/stale count crosses a threshold.
package compact

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/remem-dev/remem/internal/applog"
	"github.com/remem-dev/remem/internal/envelope"
	"github.com/remem-dev/remem/internal/llm"
	"github.com/remem-dev/remem/internal/store"
)

const (
	// Threshold, KeepRecent, and Batch mirror the original's
	// COMPRESS_THRESHOLD/KEEP_RECENT/COMPRESS_BATCH exactly.
	Threshold  = 100
	KeepRecent = 50
	Batch      = 30

	// TTLDays is how long a compressed observation survives before the
	// periodic cleanup command deletes it.
	TTLDays = 90
)

// Compactor merges old observations for a project into fewer long-term
// ones once the project crosses Threshold.
type Compactor struct {
	store    *store.Store
	executor llm.Executor
	model    string
}

// New builds a Compactor.
func New(s *store.Store, executor llm.Executor, model string) *Compactor {
	return &Compactor{store: s, executor: executor, model: model}
}

// Run performs one compaction pass for project, a no-op below Threshold
// (spec.md §4.7).
func (c *Compactor) Run(ctx context.Context, project string, timeout time.Duration) error {
	total, err := c.store.CountActiveOrStale(ctx, project)
	if err != nil {
		return fmt.Errorf("compact: count: %w", err)
	}
	if total <= Threshold {
		return nil
	}

	old, err := c.store.OldestObservations(ctx, project, KeepRecent, Batch)
	if err != nil {
		return fmt.Errorf("compact: oldest observations: %w", err)
	}
	if len(old) == 0 {
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	resp, err := c.executor.Execute(callCtx, llm.Request{
		SystemPrompt: compressPrompt,
		UserPrompt:   renderOldObservations(old),
		Model:        c.model,
		MaxTokens:    4096,
	})
	cancel()
	if err != nil {
		applog.Warn("compact", fmt.Sprintf("llm call failed: %v", err))
		return nil // AI failures are logged and skipped, not fatal (grounded on maybe_compress).
	}

	cost := llm.EstimateCostUSD(resp.Model, resp.InputTokens, resp.OutputTokens)
	if usageErr := c.store.RecordAIUsage(ctx, project, "compact", resp.Executor, resp.Model, resp.InputTokens, resp.OutputTokens, cost); usageErr != nil {
		return fmt.Errorf("compact: record usage: %w", usageErr)
	}

	compressed := envelope.ParseObservations(resp.Text)
	if len(compressed) > 0 {
		memSessID := fmt.Sprintf("compressed-%d", time.Now().Unix())
		tokensPer := resp.OutputTokens / int64(max(1, len(compressed)))

		for _, obs := range compressed {
			o := &store.Observation{
				MemorySessionID: memSessID,
				Project:         project,
				Type:            obs.Type,
				Title:           obs.Title,
				Subtitle:        obs.Subtitle,
				Narrative:       obs.Narrative,
				Facts:           obs.Facts,
				Concepts:        obs.Concepts,
				DiscoveryTokens: tokensPer,
			}
			if _, err := store.InsertObservation(ctx, c.store.DB(), o); err != nil {
				return fmt.Errorf("compact: insert compressed observation: %w", err)
			}
		}
	}

	ids := make([]int64, len(old))
	for i, o := range old {
		ids[i] = o.ID
	}
	if err := store.MarkCompressed(ctx, c.store.DB(), ids); err != nil {
		return fmt.Errorf("compact: mark compressed: %w", err)
	}

	return nil
}

func renderOldObservations(obs []*store.Observation) string {
	var b strings.Builder
	b.WriteString("<old_observations>\n")
	for _, o := range obs {
		fmt.Fprintf(&b, "<observation type=\"%s\">\n<title>%s</title>\n<subtitle>%s</subtitle>\n<narrative>%s</narrative>\n</observation>\n",
			envelope.EscapeAttr(o.Type), envelope.EscapeText(o.Title), envelope.EscapeText(o.Subtitle), envelope.EscapeText(o.Narrative))
	}
	b.WriteString("</old_observations>")
	return b.String()
}
