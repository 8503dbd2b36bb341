package llm

import (
	"encoding/json"
	"os"
	"time"
)

const contentPreviewMaxLen = 200

// TurnLogger writes a full transcript snapshot after every model turn to a JSONL file.
type TurnLogger struct {
	file      *os.File
	turnCount int
}

// NewTurnLogger creates a turn logger that writes to the given file path.
func NewTurnLogger(filename string) (*TurnLogger, error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, err
	}
	return &TurnLogger{file: f}, nil
}

// Close closes the underlying file.
func (tl *TurnLogger) Close() {
	if tl.file != nil {
		tl.file.Close()
	}
}

// turnSnapshot is the top-level envelope written per turn.
type turnSnapshot struct {
	Turn         int               `json:"turn"`
	Timestamp    string            `json:"timestamp"`
	StopReason   string            `json:"stop_reason,omitempty"`
	MessageCount int               `json:"message_count"`
	Messages     []messageSnapshot `json:"messages"`
}

// messageSnapshot captures one message's state without the full payload.
type messageSnapshot struct {
	Index          int      `json:"index"`
	Role           string   `json:"role"`
	ContentPreview string   `json:"content_preview,omitempty"`
	ContentLength  int      `json:"content_length"`
	ToolCalls      []string `json:"tool_calls,omitempty"`
	ToolCallID     string   `json:"tool_call_id,omitempty"`
	IsError        bool     `json:"is_error,omitempty"`
}

// LogTurn snapshots the full transcript and writes one JSONL line.
func (tl *TurnLogger) LogTurn(stopReason StopReason, messages []Message) {
	tl.turnCount++

	snap := turnSnapshot{
		Turn:         tl.turnCount,
		Timestamp:    time.Now().Format(time.RFC3339Nano),
		StopReason:   string(stopReason),
		MessageCount: len(messages),
		Messages:     make([]messageSnapshot, len(messages)),
	}

	for i, msg := range messages {
		ms := messageSnapshot{
			Index: i,
			Role:  string(msg.Role),
		}

		text := msg.Content
		if msg.Result != nil {
			text = msg.Result.Content
			ms.ToolCallID = msg.Result.ToolCallID
			ms.IsError = msg.Result.IsError
		}
		ms.ContentLength = len(text)
		if len(text) > contentPreviewMaxLen {
			ms.ContentPreview = text[:contentPreviewMaxLen] + "..."
		} else if text != "" {
			ms.ContentPreview = text
		}

		for _, tc := range msg.ToolCalls {
			ms.ToolCalls = append(ms.ToolCalls, tc.Name)
		}

		snap.Messages[i] = ms
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return
	}
	tl.file.WriteString(string(data) + "\n")
}
