package llm

import (
	"context"
	"encoding/json"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// StopReason indicates why the model stopped generating
type StopReason string

const (
	StopEndTurn   StopReason = "end_turn"
	StopMaxTokens StopReason = "max_tokens"
	StopToolUse   StopReason = "tool_use"
)

// ToolCall is a model-issued request to invoke one tool
type ToolCall struct {
	ID    string
	Name  string
	Input json.RawMessage
}

// ToolResult carries one tool invocation's output back to the model.
// ToolCallID correlates the result with the originating request.
type ToolResult struct {
	ToolCallID string
	Content    string
	IsError    bool
}

// Message represents a single conversation turn.
// Assistant turns may carry ToolCalls alongside text; tool turns carry
// exactly one ToolResult.
type Message struct {
	Role      Role
	Content   string
	ToolCalls []ToolCall
	Result    *ToolResult
}

// HasToolCalls returns true if the message requests any tool invocations
func (m Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}

// NewTextMessage creates a simple text-only message
func NewTextMessage(role Role, text string) Message {
	return Message{Role: role, Content: text}
}

// NewToolResultMessage creates a tool turn answering the given tool call
func NewToolResultMessage(toolCallID, content string, isError bool) Message {
	return Message{
		Role:   RoleTool,
		Result: &ToolResult{ToolCallID: toolCallID, Content: content, IsError: isError},
	}
}

// ToolSpec describes one callable tool to the model.
// InputSchema is a JSON Schema object document.
type ToolSpec struct {
	Name        string
	Description string
	InputSchema json.RawMessage
}

type ChatRequest struct {
	Model       string
	Messages    []Message
	Tools       []ToolSpec
	MaxTokens   int
	Temperature float64
}

type ChatResponse struct {
	ID         string
	Text       string
	ToolCalls  []ToolCall
	StopReason StopReason
	Usage      Usage
}

type Usage struct {
	InputTokens  int
	OutputTokens int

	// Cache-related fields (provider-specific, may be zero if not supported)
	CacheCreationInputTokens int // Anthropic: tokens used to create new cache entry
	CacheReadInputTokens     int // Anthropic: tokens read from existing cache
	CachedTokens             int // OpenAI: tokens served from cache
}

// Add accumulates another usage record into u
func (u *Usage) Add(other Usage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.CacheCreationInputTokens += other.CacheCreationInputTokens
	u.CacheReadInputTokens += other.CacheReadInputTokens
	u.CachedTokens += other.CachedTokens
}

// Total returns the combined input and output token count
func (u Usage) Total() int {
	return u.InputTokens + u.OutputTokens
}

type Provider interface {
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
}

// schemaObject is the subset of a JSON Schema document providers need
// when building native tool declarations
type schemaObject struct {
	Type       string                     `json:"type"`
	Properties map[string]json.RawMessage `json:"properties"`
	Required   []string                   `json:"required"`
}

func parseSchema(raw json.RawMessage) schemaObject {
	var s schemaObject
	if len(raw) > 0 {
		json.Unmarshal(raw, &s)
	}
	if s.Type == "" {
		s.Type = "object"
	}
	return s
}
