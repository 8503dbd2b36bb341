package wsbridge

import (
	"scout/streamers"
)

// wsChatHandler implements streamers.ChatHandler by streaming every event
// over the WebSocket connection as session_event envelopes.
type wsChatHandler struct {
	conn      *conn
	sessionID string
}

func newWSChatHandler(c *conn, sessionID string) *wsChatHandler {
	return &wsChatHandler{conn: c, sessionID: sessionID}
}

func (h *wsChatHandler) sendSessionEvent(eventType SessionEventType, data any) {
	env, err := NewEvent(TypeSessionEvent, &SessionEventPayload{
		SessionID: h.sessionID,
		EventType: eventType,
		Data:      data,
	})
	if err != nil {
		h.conn.server.logger.Error("marshal session event", "error", err)
		return
	}
	if err := h.conn.sendEvent(env); err != nil {
		h.conn.server.logger.Warn("send session event", "error", err)
	}
}

// Welcome and the interactive prompts are CLI concerns; the web client drives
// its own lifecycle.
func (h *wsChatHandler) Welcome(modelName string) {}

func (h *wsChatHandler) AwaitClientAnswer() (string, error) {
	return "", nil
}

func (h *wsChatHandler) Goodbye() {}

func (h *wsChatHandler) Error(err error) {
	h.sendSessionEvent(EventSessionError, SessionErrorData{Message: err.Error()})
}

func (h *wsChatHandler) Thinking() {
	h.sendSessionEvent(EventThinking, nil)
}

func (h *wsChatHandler) CallingTool(toolName string, payload string) {
	h.sendSessionEvent(EventCallingTool, ToolEventData{ToolName: toolName, Payload: payload})
}

func (h *wsChatHandler) ToolComplete(toolName string) {
	h.sendSessionEvent(EventToolComplete, ToolEventData{ToolName: toolName})
}

func (h *wsChatHandler) PublishReasoningChunk(chunk string) {
	h.sendSessionEvent(EventReasoningChunk, ChunkData{Content: chunk})
}

func (h *wsChatHandler) FinishReasoning() {
	h.sendSessionEvent(EventReasoningDone, nil)
}

func (h *wsChatHandler) PublishAnswerChunk(chunk string) {
	h.sendSessionEvent(EventAnswerChunk, ChunkData{Content: chunk})
}

func (h *wsChatHandler) FinishAnswer() {
	h.sendSessionEvent(EventAnswerDone, nil)
}

func (h *wsChatHandler) PublishEvidence(citations []streamers.Citation, stats streamers.SessionStats) {
	h.sendSessionEvent(EventEvidence, EvidenceData{Citations: citations, Stats: stats})
}
