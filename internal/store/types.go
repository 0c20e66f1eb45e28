package store

// Observation is the atomic memory unit (spec.md §3 "Observation").
type Observation struct {
	ID                int64
	MemorySessionID   string
	Project           string
	Type              string
	Title             string
	Subtitle          string
	Narrative         string
	Facts             []string
	Concepts          []string
	FilesRead         []string
	FilesModified     []string
	PromptNumber      *int64
	CreatedAt         string
	CreatedAtEpoch    int64
	DiscoveryTokens   int64
	Status            string
	LastAccessedEpoch *int64
}

// Status values, per spec.md §3: status transitions only
// active -> stale -> compressed, monotonically.
const (
	StatusActive     = "active"
	StatusStale      = "stale"
	StatusCompressed = "compressed"
)

// Observation types, per spec.md §3.
var ObservationTypes = map[string]bool{
	"bugfix":    true,
	"feature":   true,
	"refactor":  true,
	"discovery": true,
	"decision":  true,
	"change":    true,
}

// SessionSummary is the compact merged narrative for one session
// (spec.md §3 "Session Summary"). At most one exists per
// (MemorySessionID, Project).
type SessionSummary struct {
	ID                int64
	MemorySessionID   string
	Project           string
	Request           string
	Completed         string
	Decisions         string
	Learned           string
	NextSteps         string
	Preferences       string
	CreatedAt         string
	CreatedAtEpoch    int64
	DiscoveryTokens   int64
}

// AIUsageEvent is an append-only record of one LLM call's cost
// (spec.md §3 "AI-usage event").
type AIUsageEvent struct {
	ID               int64
	CreatedAt        string
	CreatedAtEpoch   int64
	Project          string
	Operation        string
	Executor         string
	Model            string
	InputTokens      int64
	OutputTokens     int64
	EstimatedCostUSD float64
}

// Session tracks one content_session_id's lifecycle (spec.md §3 "Session").
type Session struct {
	ID               int64
	ContentSessionID string
	MemorySessionID  string
	Project          string
	UserPrompt       string
	StartedAtEpoch   int64
	Status           string
	PromptCounter    int64
}
