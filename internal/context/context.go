// Package context assembles the session-start briefing the "session-init"
// hook prints to stdout (spec.md §4.8, component C9): recent observations,
// a timeline of prior session summaries, and a token-savings estimate.
package context

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/remem-dev/remem/internal/config"
	"github.com/remem-dev/remem/internal/projectkey"
	"github.com/remem-dev/remem/internal/store"
	"github.com/remem-dev/remem/internal/ui"
)

// Defaults for Options, per spec.md §4.8. Overridable via
// REMEM_CONTEXT_OBSERVATIONS, REMEM_CONTEXT_FULL_COUNT, and
// REMEM_CONTEXT_OBSERVATION_TYPES (spec.md §6.5 "render tuning"),
// auto-bound by internal/config the same way log-max-bytes/model/
// claude-path are.
const (
	DefaultObservationLimit = 50
	DefaultFullCount        = 10
)

// defaultHighValueTypes gets full rendering when room allows (spec.md §4.8
// step 3), unless overridden by REMEM_CONTEXT_OBSERVATION_TYPES.
var defaultHighValueTypes = map[string]bool{"bugfix": true, "decision": true, "feature": true}

// typeEmoji prefixes a fully-rendered observation's type when
// ui.ShouldUseEmoji reports the output is going to an interactive
// terminal, grounded on context.rs's type_emoji table.
var typeEmoji = map[string]string{"bugfix": "🐛 ", "decision": "🔵 ", "feature": "✨ "}

func observationLimit() int {
	if n := config.Int("context-observations"); n > 0 {
		return n
	}
	return DefaultObservationLimit
}

func fullCount() int {
	if n := config.Int("context-full-count"); n > 0 {
		return n
	}
	return DefaultFullCount
}

func highValueTypes() map[string]bool {
	raw := config.String("context-observation-types")
	if raw == "" {
		return defaultHighValueTypes
	}
	out := make(map[string]bool)
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out[t] = true
		}
	}
	if len(out) == 0 {
		return defaultHighValueTypes
	}
	return out
}

// Options configures one Render call. Zero values fall back to the
// spec.md defaults.
type Options struct {
	Cwd              string
	ObservationLimit int
	FullCount        int
}

// Renderer builds the briefing text from the store.
type Renderer struct {
	store *store.Store
}

// New builds a Renderer.
func New(s *store.Store) *Renderer {
	return &Renderer{store: s}
}

// Render assembles and returns the briefing text for opts.Cwd (spec.md
// §4.8). The caller writes the result to stdout.
func (r *Renderer) Render(ctx context.Context, opts Options) (string, error) {
	if opts.ObservationLimit <= 0 {
		opts.ObservationLimit = observationLimit()
	}
	if opts.FullCount <= 0 {
		opts.FullCount = fullCount()
	}

	project, err := projectkey.From(opts.Cwd)
	if err != nil {
		return "", fmt.Errorf("context: project key: %w", err)
	}

	active, stale, err := r.store.ObservationsForContext(ctx, project, opts.ObservationLimit, nil)
	if err != nil {
		return "", fmt.Errorf("context: load observations: %w", err)
	}

	staleCap := max(3, len(active)/5)
	if len(stale) > staleCap {
		stale = stale[:staleCap]
	}

	sessionCount, err := r.store.CountSessions(ctx, project)
	if err != nil {
		return "", fmt.Errorf("context: count sessions: %w", err)
	}
	summaries, err := r.store.RecentSummaries(ctx, project, int(sessionCount)+1)
	if err != nil {
		return "", fmt.Errorf("context: load summaries: %w", err)
	}

	var footer *store.SessionSummary
	timeline := summaries
	if len(summaries) > 0 {
		footer = summaries[0]
		timeline = summaries[1:]
	}

	all := append(append([]*store.Observation{}, active...), stale...)
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAtEpoch > all[j].CreatedAtEpoch })

	full, compactRows := partition(all, opts.FullCount, highValueTypes())

	var b strings.Builder
	fmt.Fprintf(&b, "Memory for %s\n\n", project)

	if len(full) == 0 && len(compactRows) == 0 {
		b.WriteString("No memory recorded yet for this project.\n")
	} else {
		renderFull(&b, full)
		renderCompactTable(&b, compactRows)
	}

	if len(timeline) > 0 {
		renderTimeline(&b, timeline)
	}
	if footer != nil {
		renderFooter(&b, footer)
	}

	readTokens, savings := estimateTokens(all)
	fmt.Fprintf(&b, "\n~%d tokens to read this briefing, ~%d tokens saved by not re-discovering it.\n", readTokens, savings)

	return b.String(), nil
}

// partition splits obs (already newest-first) into up to fullCount
// high-value entries for full rendering and the remainder for the compact
// table (spec.md §4.8 step 3).
func partition(obs []*store.Observation, fullCount int, highValue map[string]bool) (full, compactRows []*store.Observation) {
	for _, o := range obs {
		if len(full) < fullCount && highValue[o.Type] {
			full = append(full, o)
		} else {
			compactRows = append(compactRows, o)
		}
	}
	return full, compactRows
}

// renderFull writes each high-value observation in full. The type/title
// line picks up an emoji prefix (ui.ShouldUseEmoji) and a warning/success
// color (ui.ShouldUseColor) when stdout is an interactive terminal, and
// falls back to plain text otherwise so a hook consuming this output as
// plain text never has to strip ANSI codes.
func renderFull(b *strings.Builder, full []*store.Observation) {
	useColor := ui.ShouldUseColor()
	useEmoji := ui.ShouldUseEmoji()
	for _, o := range full {
		label := fmt.Sprintf("[%s] %s", o.Type, o.Title)
		if useColor {
			switch o.Type {
			case "bugfix":
				label = ui.TableWarningStyle.Render(label)
			case "feature":
				label = ui.TableSuccessStyle.Render(label)
			}
		}
		prefix := ""
		if useEmoji {
			prefix = typeEmoji[o.Type]
		}
		fmt.Fprintf(b, "%s%s\n", prefix, label)
		if o.Subtitle != "" {
			fmt.Fprintf(b, "  %s\n", o.Subtitle)
		}
		if o.Narrative != "" {
			fmt.Fprintf(b, "  %s\n", o.Narrative)
		}
		b.WriteByte('\n')
	}
}

// renderCompactTable renders the non-high-value observations as a
// lipgloss table grouped by day and session, grounded on the table/style
// idiom of internal/ui.NewSearchTable, adapted to this package's
// Day/Session/Type/Title columns.
func renderCompactTable(b *strings.Builder, rows []*store.Observation) {
	if len(rows) == 0 {
		return
	}

	grouped := groupByDayAndSession(rows)
	days := sortedKeys(grouped)

	var tableRows [][]string
	var rowStatus []string
	for _, day := range days {
		bySession := grouped[day]
		sessions := sortedKeys(bySession)
		for _, sess := range sessions {
			for _, o := range bySession[sess] {
				tableRows = append(tableRows, []string{day, sess, o.Type, o.Title})
				rowStatus = append(rowStatus, o.Status)
			}
		}
	}

	useColor := ui.ShouldUseColor()
	t := ui.NewSearchTable(ui.GetWidth()).
		Headers("Day", "Session", "Type", "Title").
		Rows(tableRows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return ui.TableHeaderStyle
			}
			if useColor && row-1 < len(rowStatus) && rowStatus[row-1] == store.StatusStale {
				return ui.TableHintStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})

	b.WriteString("Other activity:\n")
	b.WriteString(t.String())
	b.WriteString("\n\n")
}

func groupByDayAndSession(rows []*store.Observation) map[string]map[string][]*store.Observation {
	out := map[string]map[string][]*store.Observation{}
	for _, o := range rows {
		day := o.CreatedAt
		if len(day) >= 10 {
			day = day[:10]
		}
		if out[day] == nil {
			out[day] = map[string][]*store.Observation{}
		}
		out[day][o.MemorySessionID] = append(out[day][o.MemorySessionID], o)
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// renderTimeline shows prior session summaries aligned by a one-step
// lookahead: each summary's displayed time is the next (older) summary's
// start time, matching the preceding session rather than its own
// completion (spec.md §4.8 step 2, ambiguous in the distilled spec;
// resolved in DESIGN.md).
func renderTimeline(b *strings.Builder, summaries []*store.SessionSummary) {
	b.WriteString("Session history:\n")
	for i, sm := range summaries {
		displayEpoch := sm.CreatedAtEpoch
		if i+1 < len(summaries) {
			displayEpoch = summaries[i+1].CreatedAtEpoch
		}
		fmt.Fprintf(b, "  [%d] %s\n", displayEpoch, sm.Request)
		if sm.Completed != "" {
			fmt.Fprintf(b, "      completed: %s\n", sm.Completed)
		}
	}
	b.WriteByte('\n')
}

func renderFooter(b *strings.Builder, footer *store.SessionSummary) {
	b.WriteString("Most recent session:\n")
	writeTagLine(b, "request", footer.Request)
	writeTagLine(b, "completed", footer.Completed)
	writeTagLine(b, "decisions", footer.Decisions)
	writeTagLine(b, "learned", footer.Learned)
	writeTagLine(b, "next_steps", footer.NextSteps)
	writeTagLine(b, "preferences", footer.Preferences)
}

func writeTagLine(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "  %s: %s\n", label, value)
}

// estimateTokens computes the read-token estimate and discovery-token
// savings figure (spec.md §4.8 step 4): ceil(text_len/4) per observation,
// summed, plus the sum of discovery_tokens already recorded for them.
func estimateTokens(obs []*store.Observation) (readTokens, savings int64) {
	for _, o := range obs {
		textLen := len(o.Title) + len(o.Subtitle) + len(o.Narrative)
		readTokens += int64((textLen + 3) / 4)
		savings += o.DiscoveryTokens
	}
	return readTokens, savings
}
