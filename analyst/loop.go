package analyst

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"

	"scout/datatools"
	"scout/llm"
	"scout/streamers"
)

// DefaultMaxIterations bounds the number of reasoning-model calls per session
// (one extra call is made for forced synthesis when the ceiling is hit).
const DefaultMaxIterations = 8

// Config assembles an analyst engine. Provider, Model and Catalog are
// required; everything else has a sensible default.
type Config struct {
	Provider llm.Provider
	Model    string

	// ClassifierProvider/ClassifierModel back the pre-flight classification
	// call. They default to the main provider and model.
	ClassifierProvider llm.Provider
	ClassifierModel    string

	Catalog    *datatools.Registry
	Executor   datatools.Executor    // defaults to Catalog
	Compressor *datatools.Compressor // defaults to DefaultCompressorConfig

	MaxIterations int
	Budgets       TokenBudgets
	Temperature   float64
	Hinter        HintFunc

	// ScopeParams are tool parameter names eligible for auto-scoping: when a
	// session carries a scope hint and the model left one of these unset on a
	// tool whose schema declares it, the hint is injected as a default. A
	// value the model set explicitly is never overridden.
	ScopeParams []string

	Handler       streamers.ChatHandler
	SessionLogger SessionLogger
	TurnLogger    *llm.TurnLogger
	Logger        hclog.Logger
}

// Engine runs bounded question-answering sessions. Safe for concurrent use:
// each session owns its own transcript and trace.
type Engine struct {
	cfg        Config
	classifier *Classifier
}

// NewEngine validates the config and applies defaults
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("analyst: Provider is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("analyst: Model is required")
	}
	if cfg.Catalog == nil {
		return nil, fmt.Errorf("analyst: Catalog is required")
	}

	if cfg.ClassifierProvider == nil {
		cfg.ClassifierProvider = cfg.Provider
	}
	if cfg.ClassifierModel == "" {
		cfg.ClassifierModel = cfg.Model
	}
	if cfg.Executor == nil {
		cfg.Executor = cfg.Catalog
	}
	if cfg.Compressor == nil {
		cfg.Compressor = datatools.NewCompressor(datatools.DefaultCompressorConfig())
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	if cfg.Budgets == (TokenBudgets{}) {
		cfg.Budgets = DefaultTokenBudgets()
	}
	if cfg.Hinter == nil {
		cfg.Hinter = DefaultHinter()
	}
	if len(cfg.ScopeParams) == 0 {
		cfg.ScopeParams = []string{"segment"}
	}
	if cfg.Handler == nil {
		cfg.Handler = streamers.NoopHandler{}
	}
	if cfg.Logger == nil {
		cfg.Logger = hclog.NewNullLogger()
	}

	return &Engine{
		cfg:        cfg,
		classifier: NewClassifier(cfg.ClassifierProvider, cfg.ClassifierModel, cfg.Budgets, cfg.Catalog.Names()),
	}, nil
}

// sessionState is the explicit loop state threaded through each iteration.
// The transcript only ever grows; the trace gets exactly one entry per
// executed tool call.
type sessionState struct {
	transcript []llm.Message
	trace      []ToolCallRecord
	usage      llm.Usage
	modelCalls int
}

// Answer runs one bounded question-answering session. priorTurns is the
// stored conversation thread (may be empty); scopeHint is an optional default
// filter value injected into allow-listed tool parameters.
//
// Reasoning-model transport errors propagate to the caller; everything else
// (classification failure, tool failure, truncated or evidence-free answers)
// is recovered inside the loop.
func (e *Engine) Answer(ctx context.Context, question string, priorTurns []StoredTurn, scopeHint string) (*SessionResponse, error) {
	start := time.Now()
	log := e.cfg.Logger
	handler := e.cfg.Handler

	cls := e.classifier.Classify(ctx, question)
	log.Debug("classified question", "type", cls.QuestionType, "complexity", cls.Complexity, "budget", cls.TokenBudget, "hinted", cls.HintedTools)

	sessionID := e.logSessionStart(question)

	state := &sessionState{
		transcript: append([]llm.Message{llm.NewTextMessage(llm.RoleSystem, systemPrompt)}, BuildHistory(priorTurns)...),
	}
	opening := firstTurn(question, cls.HintedTools)
	state.appendUser(opening)
	e.logMessage(sessionID, "user", opening)

	hint := e.cfg.Hinter(question)

	for i := 0; i < e.cfg.MaxIterations; i++ {
		handler.Thinking()
		resp, err := e.callModel(ctx, state, cls.TokenBudget, true)
		if err != nil {
			e.logSessionEnd(sessionID, err)
			return nil, err
		}
		log.Debug("model turn", "iteration", i, "stop_reason", resp.StopReason, "tool_calls", len(resp.ToolCalls))

		// Truncation guard: a generation cut off at the token ceiling with no
		// tool use is discarded outright - a truncated answer is worse than
		// none. The nudge redirects the next turn toward tools.
		if resp.StopReason == llm.StopMaxTokens && len(resp.ToolCalls) == 0 {
			log.Warn("discarding truncated answer", "iteration", i)
			nudge := truncationNudge(hint)
			state.appendUser(nudge)
			e.logMessage(sessionID, "user", nudge)
			continue
		}

		if len(resp.ToolCalls) == 0 {
			// No-evidence guard: only while the trace is empty and we are in
			// the first two iterations. The text is kept for conversational
			// continuity; the nudge demands a tool call before answering.
			if len(state.trace) == 0 && i < 2 {
				log.Warn("answer without evidence, nudging", "iteration", i)
				if resp.Text != "" {
					state.appendAssistantText(resp.Text)
					e.logMessage(sessionID, "assistant", resp.Text)
				}
				nudge := noEvidenceNudge(hint)
				state.appendUser(nudge)
				e.logMessage(sessionID, "user", nudge)
				continue
			}

			// Natural termination
			state.appendAssistantText(resp.Text)
			e.logMessage(sessionID, "assistant", resp.Text)
			e.logSessionEnd(sessionID, nil)
			return e.finish(resp.Text, state, start), nil
		}

		// The assistant turn is appended verbatim - the exact tool-use blocks
		// are required to correlate results back into the transcript.
		if resp.Text != "" {
			handler.PublishReasoningChunk(resp.Text)
			handler.FinishReasoning()
		}
		state.transcript = append(state.transcript, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Text,
			ToolCalls: resp.ToolCalls,
		})
		e.logMessage(sessionID, "assistant", resp.Text)

		e.executeToolCalls(ctx, state, resp.ToolCalls, scopeHint, sessionID)
	}

	// Exhaustion fallback: exactly one more call, tools disabled, forcing a
	// best-effort synthesis from whatever the transcript holds.
	log.Warn("iteration ceiling reached, forcing synthesis", "max_iterations", e.cfg.MaxIterations)
	state.appendUser(synthesisInstruction)
	e.logMessage(sessionID, "user", synthesisInstruction)

	handler.Thinking()
	resp, err := e.callModel(ctx, state, cls.TokenBudget, false)
	if err != nil {
		e.logSessionEnd(sessionID, err)
		return nil, err
	}
	state.appendAssistantText(resp.Text)
	e.logMessage(sessionID, "assistant", resp.Text)
	e.logSessionEnd(sessionID, nil)
	return e.finish(resp.Text, state, start), nil
}

// callModel makes one reasoning-model call with the current transcript
func (e *Engine) callModel(ctx context.Context, state *sessionState, maxTokens int, withTools bool) (*llm.ChatResponse, error) {
	req := &llm.ChatRequest{
		Model:       e.cfg.Model,
		Messages:    state.transcript,
		MaxTokens:   maxTokens,
		Temperature: e.cfg.Temperature,
	}
	if withTools {
		req.Tools = e.cfg.Catalog.Specs()
	}

	resp, err := e.cfg.Provider.Chat(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("reasoning model call: %w", err)
	}

	state.modelCalls++
	state.usage.Add(resp.Usage)

	if e.cfg.TurnLogger != nil {
		e.cfg.TurnLogger.LogTurn(resp.StopReason, state.transcript)
	}
	return resp, nil
}

// executeToolCalls runs the requested calls sequentially, in request order.
// A failed call is recorded as an error trace entry and an error tool turn;
// the remaining calls in the batch still run.
func (e *Engine) executeToolCalls(ctx context.Context, state *sessionState, calls []llm.ToolCall, scopeHint, sessionID string) {
	for _, call := range calls {
		params := e.autoScope(call.Name, call.Input, scopeHint)
		payload := string(params)
		e.cfg.Handler.CallingTool(call.Name, payload)

		result, err := e.cfg.Executor.Execute(ctx, call.Name, payload)

		record := ToolCallRecord{
			Tool:        call.Name,
			Params:      params,
			Description: e.cfg.Catalog.Description(call.Name),
		}

		var content string
		if err != nil {
			e.cfg.Logger.Warn("tool call failed", "tool", call.Name, "error", err)
			record.Result = err.Error()
			record.IsError = true
			content = datatools.ErrorPayload(err)
		} else {
			record.Result = result
			content = e.cfg.Compressor.Compress(call.Name, result)
		}

		state.trace = append(state.trace, record)
		state.transcript = append(state.transcript, llm.NewToolResultMessage(call.ID, content, record.IsError))

		if e.cfg.SessionLogger != nil && sessionID != "" {
			e.cfg.SessionLogger.StoreToolCall(sessionID, call.Name, payload, record.Result, record.IsError)
		}
		e.cfg.Handler.ToolComplete(call.Name)
	}
}

// autoScope injects the scope hint into allow-listed parameters the model
// left unset, but only on tools whose schema actually declares the parameter.
func (e *Engine) autoScope(toolName string, input json.RawMessage, scopeHint string) json.RawMessage {
	if len(input) == 0 {
		input = json.RawMessage("{}")
	}
	if scopeHint == "" {
		return input
	}

	tool, ok := e.cfg.Catalog.Get(toolName)
	if !ok {
		return input
	}
	schema := tool.ToolPayloadSchema()

	var params map[string]any
	if err := json.Unmarshal(input, &params); err != nil {
		return input
	}

	changed := false
	for _, name := range e.cfg.ScopeParams {
		if _, declared := schema.Properties[name]; !declared {
			continue
		}
		if _, set := params[name]; set {
			continue
		}
		params[name] = scopeHint
		changed = true
	}
	if !changed {
		return input
	}

	scoped, err := json.Marshal(params)
	if err != nil {
		return input
	}
	return scoped
}

// finish builds the terminal SessionResponse from the loop state
func (e *Engine) finish(answer string, state *sessionState, start time.Time) *SessionResponse {
	cited := ExtractEvidence(state.trace)

	resp := &SessionResponse{
		Answer: answer,
		Evidence: Evidence{
			ToolTrace:    state.trace,
			CitedRecords: cited,
		},
		TokensUsed:    state.usage.Total(),
		Usage:         state.usage,
		ToolCallCount: len(state.trace),
		LatencyMs:     time.Since(start).Milliseconds(),
	}

	e.cfg.Handler.PublishAnswerChunk(answer)
	e.cfg.Handler.FinishAnswer()

	citations := make([]streamers.Citation, 0, len(cited))
	for _, c := range cited {
		citations = append(citations, streamers.Citation{Type: c.Type, ID: c.ID, Name: c.Name})
	}
	e.cfg.Handler.PublishEvidence(citations, streamers.SessionStats{
		ToolCallCount: resp.ToolCallCount,
		TokensUsed:    resp.TokensUsed,
		LatencyMs:     resp.LatencyMs,
	})

	return resp
}

func (s *sessionState) appendUser(text string) {
	s.transcript = append(s.transcript, llm.NewTextMessage(llm.RoleUser, text))
}

func (s *sessionState) appendAssistantText(text string) {
	s.transcript = append(s.transcript, llm.NewTextMessage(llm.RoleAssistant, text))
}

func (e *Engine) logSessionStart(question string) string {
	if e.cfg.SessionLogger == nil {
		return ""
	}
	id, err := e.cfg.SessionLogger.CreateSession(question, e.cfg.Model)
	if err != nil {
		e.cfg.Logger.Warn("could not create session record", "error", err)
		return ""
	}
	return id
}

func (e *Engine) logMessage(sessionID, role, content string) {
	if e.cfg.SessionLogger == nil || sessionID == "" || content == "" {
		return
	}
	e.cfg.SessionLogger.AppendMessage(sessionID, role, content)
}

func (e *Engine) logSessionEnd(sessionID string, err error) {
	if e.cfg.SessionLogger == nil || sessionID == "" {
		return
	}
	e.cfg.SessionLogger.CompleteSession(sessionID, err)
}
