package streamers

// Citation is a lightweight view of one cited record for display surfaces
type Citation struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// SessionStats summarizes a completed question-answering session
type SessionStats struct {
	ToolCallCount int   `json:"toolCallCount"`
	TokensUsed    int   `json:"tokensUsed"`
	LatencyMs     int64 `json:"latencyMs"`
}

// ChatHandler defines the interface for handling chat I/O.
// Different implementations can handle stdout/stdin, SSE, websocket, etc.
type ChatHandler interface {
	// Welcome displays the initial welcome message when chat starts
	Welcome(modelName string)

	// AwaitClientAnswer prompts for and reads user input, returns the input and any error
	AwaitClientAnswer() (string, error)

	// Goodbye displays the farewell message when chat ends
	Goodbye()

	// Error displays an error message
	Error(err error)

	// Thinking is called when the analyst starts a model call
	Thinking()

	// CallingTool is called when the analyst invokes a data tool
	CallingTool(toolName string, payload string)

	// ToolComplete is called when a tool finishes execution
	ToolComplete(toolName string)

	// PublishReasoningChunk is called with intermediate assistant commentary
	// produced before the final answer
	PublishReasoningChunk(chunk string)

	// FinishReasoning is called when an intermediate commentary block is complete
	FinishReasoning()

	// PublishAnswerChunk is called with final answer content
	PublishAnswerChunk(chunk string)

	// FinishAnswer is called when the answer is complete (to print newlines, stop spinner, etc)
	FinishAnswer()

	// PublishEvidence is called once per session with the cited records and stats
	PublishEvidence(citations []Citation, stats SessionStats)
}

// NoopHandler discards every event. Useful for headless callers and tests.
type NoopHandler struct{}

func (NoopHandler) Welcome(string)                           {}
func (NoopHandler) AwaitClientAnswer() (string, error)       { return "", nil }
func (NoopHandler) Goodbye()                                 {}
func (NoopHandler) Error(error)                              {}
func (NoopHandler) Thinking()                                {}
func (NoopHandler) CallingTool(string, string)               {}
func (NoopHandler) ToolComplete(string)                      {}
func (NoopHandler) PublishReasoningChunk(string)             {}
func (NoopHandler) FinishReasoning()                         {}
func (NoopHandler) PublishAnswerChunk(string)                {}
func (NoopHandler) FinishAnswer()                            {}
func (NoopHandler) PublishEvidence([]Citation, SessionStats) {}
