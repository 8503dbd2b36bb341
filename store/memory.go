package store

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"
)

// NewMemoryBundle creates a Bundle backed entirely by in-memory stores
func NewMemoryBundle() *Bundle {
	return &Bundle{
		Sessions: &MemorySessionStore{sessions: make(map[string]*memSession)},
	}
}

type memSession struct {
	info      SessionInfo
	messages  []SessionMessage
	toolCalls []ToolCallInfo
}

type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]*memSession
}

func (s *MemorySessionStore) CreateSession(question, model string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := generateID()
	s.sessions[id] = &memSession{
		info: SessionInfo{
			ID:        id,
			Question:  question,
			Model:     model,
			Status:    "running",
			StartedAt: time.Now(),
		},
	}
	return id, nil
}

func (s *MemorySessionStore) CompleteSession(id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return
	}
	now := time.Now()
	sess.info.FinishedAt = &now
	if err != nil {
		sess.info.Status = "failed"
		msg := err.Error()
		sess.info.Error = &msg
	} else {
		sess.info.Status = "completed"
	}
}

func (s *MemorySessionStore) AppendMessage(sessionID, role, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return fmt.Errorf("session %s not found", sessionID)
	}

	sess.messages = append(sess.messages, SessionMessage{
		ID:        len(sess.messages) + 1,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	})
	return nil
}

func (s *MemorySessionStore) StoreToolCall(sessionID, toolName, params, result string, isError bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return fmt.Errorf("session %s not found", sessionID)
	}

	sess.toolCalls = append(sess.toolCalls, ToolCallInfo{
		ID:        len(sess.toolCalls) + 1,
		SessionID: sessionID,
		ToolName:  toolName,
		Params:    params,
		Result:    result,
		IsError:   isError,
		CreatedAt: time.Now(),
	})
	return nil
}

func (s *MemorySessionStore) GetSession(id string) (SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return SessionInfo{}, fmt.Errorf("session %s not found", id)
	}
	return sess.info, nil
}

func (s *MemorySessionStore) GetMessages(sessionID string) ([]SessionMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s not found", sessionID)
	}

	msgs := make([]SessionMessage, len(sess.messages))
	copy(msgs, sess.messages)
	return msgs, nil
}

func (s *MemorySessionStore) GetToolCalls(sessionID string) ([]ToolCallInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s not found", sessionID)
	}

	calls := make([]ToolCallInfo, len(sess.toolCalls))
	copy(calls, sess.toolCalls)
	return calls, nil
}

func (s *MemorySessionStore) ListSessions(limit, offset int) ([]SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]SessionInfo, 0, len(s.sessions))
	for _, sess := range s.sessions {
		infos = append(infos, sess.info)
	}

	// Newest first, id as tiebreaker so pagination stays stable
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].StartedAt.Equal(infos[j].StartedAt) {
			return infos[i].ID > infos[j].ID
		}
		return infos[i].StartedAt.After(infos[j].StartedAt)
	})

	if offset >= len(infos) {
		return nil, nil
	}
	end := offset + limit
	if end > len(infos) {
		end = len(infos)
	}
	return infos[offset:end], nil
}

func generateID() string {
	const chars = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, 12)
	for i := range b {
		b[i] = chars[rand.Intn(len(chars))]
	}
	return string(b)
}
