package store

import "time"

// Bundle holds the persistence stores for answer sessions
type Bundle struct {
	Sessions SessionStore
	closer   func() error
}

// Close cleans up the bundle resources
func (b *Bundle) Close() error {
	if b.closer != nil {
		return b.closer()
	}
	return nil
}

// SessionStore records answer sessions, their message history and the tool
// calls made while answering. It satisfies analyst.SessionLogger.
type SessionStore interface {
	CreateSession(question, model string) (id string, err error)
	CompleteSession(id string, err error)
	AppendMessage(sessionID, role, content string) error
	StoreToolCall(sessionID, toolName, params, result string, isError bool) error

	GetSession(id string) (SessionInfo, error)
	GetMessages(sessionID string) ([]SessionMessage, error)
	GetToolCalls(sessionID string) ([]ToolCallInfo, error)
	ListSessions(limit, offset int) ([]SessionInfo, error)
}

// SessionInfo describes one answer session
type SessionInfo struct {
	ID         string     `json:"id"`
	Question   string     `json:"question"`
	Model      string     `json:"model,omitempty"`
	Status     string     `json:"status"`
	Error      *string    `json:"error,omitempty"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

// SessionMessage represents a single message in a session
type SessionMessage struct {
	ID        int       `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// ToolCallInfo is one recorded tool call within a session
type ToolCallInfo struct {
	ID        int       `json:"id"`
	SessionID string    `json:"sessionId"`
	ToolName  string    `json:"toolName"`
	Params    string    `json:"params"`
	Result    string    `json:"result"`
	IsError   bool      `json:"isError"`
	CreatedAt time.Time `json:"createdAt"`
}
