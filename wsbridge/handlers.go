package wsbridge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

func (c *conn) handleHello(env *Envelope) (*Envelope, error) {
	var payload HelloPayload
	if err := DecodePayload(env, &payload); err != nil {
		return nil, fmt.Errorf("decode hello: %w", err)
	}

	c.server.logger.Debug("client connected", "client", payload.ClientName)

	return NewResponse(env.RequestID, TypeHelloAck, &HelloAckPayload{
		Accepted: true,
		Instance: c.server.info,
	})
}

func (c *conn) handleAsk(env *Envelope) (*Envelope, error) {
	var payload AskPayload
	if err := DecodePayload(env, &payload); err != nil {
		return nil, fmt.Errorf("decode ask: %w", err)
	}

	if strings.TrimSpace(payload.Question) == "" {
		return NewResponse(env.RequestID, TypeAskAck, &AskAckPayload{
			Accepted: false,
			Reason:   "question is empty",
		})
	}

	threadID := payload.ThreadID
	if threadID == "" {
		threadID = uuid.New().String()
	}
	sessionID := uuid.New().String()

	prior := c.priorTurns(threadID)
	handler := newWSChatHandler(c, sessionID)

	go func() {
		resp, err := c.server.ask(context.Background(), payload.Question, prior, payload.Scope, handler)

		status := "completed"
		errMsg := ""
		if err != nil {
			status = "error"
			errMsg = err.Error()
			c.server.logger.Error("answer session failed", "session", sessionID, "error", err)
		} else {
			c.recordTurns(threadID, payload.Question, resp)
		}

		completeEnv, _ := NewEvent(TypeSessionComplete, &SessionCompletePayload{
			SessionID: sessionID,
			ThreadID:  threadID,
			Status:    status,
			Error:     errMsg,
		})
		c.sendEvent(completeEnv)
	}()

	return NewResponse(env.RequestID, TypeAskAck, &AskAckPayload{
		Accepted:  true,
		SessionID: sessionID,
		ThreadID:  threadID,
	})
}

func (c *conn) handleGetSessions(env *Envelope) (*Envelope, error) {
	var payload GetSessionsPayload
	if err := DecodePayload(env, &payload); err != nil {
		return nil, fmt.Errorf("decode get_sessions: %w", err)
	}

	limit := payload.Limit
	if limit <= 0 {
		limit = 50
	}

	sessions, err := c.server.stores.Sessions.ListSessions(limit, payload.Offset)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	summaries := make([]SessionSummary, len(sessions))
	for i, s := range sessions {
		summary := SessionSummary{
			ID:        s.ID,
			Question:  s.Question,
			Model:     s.Model,
			Status:    s.Status,
			StartedAt: s.StartedAt.Format(time.RFC3339),
		}
		if s.Error != nil {
			summary.Error = *s.Error
		}
		if s.FinishedAt != nil {
			summary.FinishedAt = s.FinishedAt.Format(time.RFC3339)
		}
		summaries[i] = summary
	}

	return NewResponse(env.RequestID, TypeGetSessionsResult, &GetSessionsResultPayload{
		Sessions: summaries,
	})
}

func (c *conn) handleGetMessages(env *Envelope) (*Envelope, error) {
	var payload GetMessagesPayload
	if err := DecodePayload(env, &payload); err != nil {
		return nil, fmt.Errorf("decode get_messages: %w", err)
	}

	msgs, err := c.server.stores.Sessions.GetMessages(payload.SessionID)
	if err != nil {
		return nil, fmt.Errorf("get messages: %w", err)
	}

	infos := make([]MessageInfo, len(msgs))
	for i, m := range msgs {
		infos[i] = MessageInfo{
			ID:        m.ID,
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt.Format(time.RFC3339),
		}
	}

	return NewResponse(env.RequestID, TypeGetMessagesResult, &GetMessagesResultPayload{
		Messages: infos,
	})
}

func (c *conn) handleGetToolCalls(env *Envelope) (*Envelope, error) {
	var payload GetToolCallsPayload
	if err := DecodePayload(env, &payload); err != nil {
		return nil, fmt.Errorf("decode get_tool_calls: %w", err)
	}

	calls, err := c.server.stores.Sessions.GetToolCalls(payload.SessionID)
	if err != nil {
		return nil, fmt.Errorf("get tool calls: %w", err)
	}

	details := make([]ToolCallDetail, len(calls))
	for i, tc := range calls {
		details[i] = ToolCallDetail{
			ID:        tc.ID,
			ToolName:  tc.ToolName,
			Params:    tc.Params,
			Result:    tc.Result,
			IsError:   tc.IsError,
			CreatedAt: tc.CreatedAt.Format(time.RFC3339),
		}
	}

	return NewResponse(env.RequestID, TypeGetToolCallsResult, &GetToolCallsResultPayload{
		ToolCalls: details,
	})
}
