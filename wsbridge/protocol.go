package wsbridge

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"scout/streamers"
)

// MessageType identifies the kind of envelope on the wire.
type MessageType string

const (
	// Client → server
	TypeHello        MessageType = "hello"
	TypeAsk          MessageType = "ask"
	TypeGetSessions  MessageType = "get_sessions"
	TypeGetMessages  MessageType = "get_messages"
	TypeGetToolCalls MessageType = "get_tool_calls"

	// Server → client
	TypeHelloAck           MessageType = "hello_ack"
	TypeAskAck             MessageType = "ask_ack"
	TypeSessionEvent       MessageType = "session_event"
	TypeSessionComplete    MessageType = "session_complete"
	TypeGetSessionsResult  MessageType = "get_sessions_result"
	TypeGetMessagesResult  MessageType = "get_messages_result"
	TypeGetToolCallsResult MessageType = "get_tool_calls_result"
	TypeError              MessageType = "error"
)

// Envelope wraps every message exchanged over the bridge.
type Envelope struct {
	Type      MessageType     `json:"type"`
	RequestID string          `json:"requestId,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// NewRequest creates a request envelope with a fresh request ID.
func NewRequest(t MessageType, payload any) (*Envelope, error) {
	return newEnvelope(t, uuid.New().String(), payload)
}

// NewResponse creates a response envelope correlated to a request.
func NewResponse(requestID string, t MessageType, payload any) (*Envelope, error) {
	return newEnvelope(t, requestID, payload)
}

// NewEvent creates a one-way event envelope with no request correlation.
func NewEvent(t MessageType, payload any) (*Envelope, error) {
	return newEnvelope(t, "", payload)
}

// NewError creates an error envelope correlated to a request.
func NewError(requestID string, code, message string) (*Envelope, error) {
	return newEnvelope(TypeError, requestID, &ErrorPayload{Code: code, Message: message})
}

func newEnvelope(t MessageType, requestID string, payload any) (*Envelope, error) {
	env := &Envelope{Type: t, RequestID: requestID}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", t, err)
		}
		env.Payload = data
	}
	return env, nil
}

// DecodePayload unmarshals an envelope's payload into out.
func DecodePayload(env *Envelope, out any) error {
	if len(env.Payload) == 0 {
		return nil
	}
	return json.Unmarshal(env.Payload, out)
}

// ErrorPayload carries a request failure.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HelloPayload is the first message a client sends after connecting.
type HelloPayload struct {
	ClientName string `json:"clientName,omitempty"`
}

// HelloAckPayload confirms the connection and describes the instance.
type HelloAckPayload struct {
	Accepted bool         `json:"accepted"`
	Reason   string       `json:"reason,omitempty"`
	Instance InstanceInfo `json:"instance"`
}

// InstanceInfo is a JSON-safe description of the running instance for
// display in the web UI.
type InstanceInfo struct {
	Version string           `json:"version"`
	Model   string           `json:"model,omitempty"`
	Tools   []BridgeToolInfo `json:"tools,omitempty"`
	Plugins []string         `json:"plugins,omitempty"`
}

// BridgeToolInfo describes one registered data tool.
type BridgeToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// AskPayload submits a question. ThreadID groups follow-up questions into a
// conversation; an empty thread ID starts a fresh one.
type AskPayload struct {
	ThreadID string `json:"threadId,omitempty"`
	Question string `json:"question"`
	Scope    string `json:"scope,omitempty"`
}

// AskAckPayload acknowledges an ask. SessionID identifies the answer session
// for subsequent session_event messages; ThreadID identifies the conversation
// for follow-ups.
type AskAckPayload struct {
	Accepted  bool   `json:"accepted"`
	Reason    string `json:"reason,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	ThreadID  string `json:"threadId,omitempty"`
}

// SessionEventType labels one streaming event within an answer session.
type SessionEventType string

const (
	EventThinking       SessionEventType = "thinking"
	EventCallingTool    SessionEventType = "calling_tool"
	EventToolComplete   SessionEventType = "tool_complete"
	EventReasoningChunk SessionEventType = "reasoning_chunk"
	EventReasoningDone  SessionEventType = "reasoning_done"
	EventAnswerChunk    SessionEventType = "answer_chunk"
	EventAnswerDone     SessionEventType = "answer_done"
	EventEvidence       SessionEventType = "evidence"
	EventSessionError   SessionEventType = "error"
)

// SessionEventPayload is one streamed event for an in-flight session.
type SessionEventPayload struct {
	SessionID string           `json:"sessionId"`
	EventType SessionEventType `json:"eventType"`
	Data      any              `json:"data,omitempty"`
}

// ChunkData carries streamed text content.
type ChunkData struct {
	Content string `json:"content"`
}

// ToolEventData carries tool call events.
type ToolEventData struct {
	ToolName string `json:"toolName"`
	Payload  string `json:"payload,omitempty"`
}

// EvidenceData carries the cited records and stats published at session end.
type EvidenceData struct {
	Citations []streamers.Citation   `json:"citations"`
	Stats     streamers.SessionStats `json:"stats"`
}

// SessionErrorData carries a session-level error event.
type SessionErrorData struct {
	Message string `json:"message"`
}

// SessionCompletePayload signals the end of an answer session.
type SessionCompletePayload struct {
	SessionID string `json:"sessionId"`
	ThreadID  string `json:"threadId,omitempty"`
	Status    string `json:"status"` // completed or error
	Error     string `json:"error,omitempty"`
}

// GetSessionsPayload requests the session history.
type GetSessionsPayload struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// SessionSummary is one row of session history.
type SessionSummary struct {
	ID         string `json:"id"`
	Question   string `json:"question"`
	Model      string `json:"model,omitempty"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
	StartedAt  string `json:"startedAt"`
	FinishedAt string `json:"finishedAt,omitempty"`
}

// GetSessionsResultPayload returns session history rows.
type GetSessionsResultPayload struct {
	Sessions []SessionSummary `json:"sessions"`
}

// GetMessagesPayload requests the message log of a session.
type GetMessagesPayload struct {
	SessionID string `json:"sessionId"`
}

// MessageInfo is one logged message within a session.
type MessageInfo struct {
	ID        int    `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"`
}

// GetMessagesResultPayload returns a session's messages.
type GetMessagesResultPayload struct {
	Messages []MessageInfo `json:"messages"`
}

// GetToolCallsPayload requests the tool call audit log of a session.
type GetToolCallsPayload struct {
	SessionID string `json:"sessionId"`
}

// ToolCallDetail is one recorded tool call.
type ToolCallDetail struct {
	ID        int    `json:"id"`
	ToolName  string `json:"toolName"`
	Params    string `json:"params"`
	Result    string `json:"result"`
	IsError   bool   `json:"isError"`
	CreatedAt string `json:"createdAt"`
}

// GetToolCallsResultPayload returns a session's tool calls.
type GetToolCallsResultPayload struct {
	ToolCalls []ToolCallDetail `json:"toolCalls"`
}
