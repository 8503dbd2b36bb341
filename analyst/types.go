package analyst

import (
	"encoding/json"

	"scout/llm"
)

// QuestionType labels what kind of question is being asked
type QuestionType string

const (
	QuestionDiscrete   QuestionType = "discrete"   // a specific lookup ("what is X's ARR?")
	QuestionAnalytical QuestionType = "analytical" // requires combining data ("why did Q1 slip?")
	QuestionStrategic  QuestionType = "strategic"  // open-ended judgment ("where should we focus?")
)

// Complexity sizes the per-turn token budget
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// Classification is the advisory pre-flight label computed once per question.
// It only sizes the token budget and seeds a routing hint; it never gates
// correctness.
type Classification struct {
	QuestionType QuestionType
	HintedTools  []string
	Complexity   Complexity
	TokenBudget  int
}

// TokenBudgets maps complexity labels to per-turn max token budgets
type TokenBudgets struct {
	Low    int
	Medium int
	High   int
}

// DefaultTokenBudgets returns the standard budget table
func DefaultTokenBudgets() TokenBudgets {
	return TokenBudgets{Low: 1024, Medium: 4096, High: 8192}
}

// For returns the budget for a complexity label
func (b TokenBudgets) For(c Complexity) int {
	switch c {
	case ComplexityLow:
		return b.Low
	case ComplexityHigh:
		return b.High
	default:
		return b.Medium
	}
}

// ToolCallRecord is one audit-log entry for an executed tool call.
// Entries are appended in call order and never mutated.
type ToolCallRecord struct {
	Tool        string          `json:"tool"`
	Params      json.RawMessage `json:"params"`
	Result      string          `json:"result"`
	Description string          `json:"description,omitempty"`
	IsError     bool            `json:"isError"`
}

// CitedRecord is a deduplicated entity reference derived from the tool trace
type CitedRecord struct {
	Type      string         `json:"type"`
	ID        string         `json:"id"`
	Name      string         `json:"name,omitempty"`
	KeyFields map[string]any `json:"keyFields,omitempty"`
}

// Evidence bundles the full tool trace with the cited records derived from it
type Evidence struct {
	ToolTrace    []ToolCallRecord `json:"toolTrace"`
	CitedRecords []CitedRecord    `json:"citedRecords"`
}

// SessionResponse is the terminal output of one question-answering session
type SessionResponse struct {
	Answer        string    `json:"answer"`
	Evidence      Evidence  `json:"evidence"`
	TokensUsed    int       `json:"tokensUsed"`
	Usage         llm.Usage `json:"usage"`
	ToolCallCount int       `json:"toolCallCount"`
	LatencyMs     int64     `json:"latencyMs"`
}

// StoredTurn is one prior turn of a persisted conversation thread. ToolsUsed
// carries only the tool names from that turn, never their results, so old
// payloads are summarized rather than replayed.
type StoredTurn struct {
	Role      string   `json:"role"` // user or assistant
	Content   string   `json:"content"`
	ToolsUsed []string `json:"toolsUsed,omitempty"`
}

// SessionLogger persists session activity for auditing. Implementations
// should be safe for concurrent use. All methods are best-effort from the
// engine's perspective; persistence failures never abort a session.
type SessionLogger interface {
	CreateSession(question, model string) (id string, err error)
	CompleteSession(id string, err error)
	AppendMessage(sessionID, role, content string) error
	StoreToolCall(sessionID, toolName, params, result string, isError bool) error
}
