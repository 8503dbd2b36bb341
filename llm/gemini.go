package llm

import (
	"context"
	"encoding/json"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

type GeminiProvider struct {
	client *genai.Client
}

func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &GeminiProvider{client: client}, nil
}

func (p *GeminiProvider) Close() error {
	return p.client.Close()
}

func (p *GeminiProvider) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	model := p.client.GenerativeModel(req.Model)

	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if req.Temperature > 0 {
		model.SetTemperature(float32(req.Temperature))
	}

	systemContent := p.extractSystemPrompts(req.Messages)
	if systemContent != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(systemContent))
	}

	if len(req.Tools) > 0 {
		model.Tools = p.convertTools(req.Tools)
	}

	// Gemini has no tool-call ids; results are correlated by function name.
	// We track the name for each synthesized id so tool turns convert back.
	callNames := toolCallNames(req.Messages)

	chat := model.StartChat()
	history, lastParts := p.convertMessages(req.Messages, callNames)
	chat.History = history

	resp, err := chat.SendMessage(ctx, lastParts...)
	if err != nil {
		return nil, err
	}

	var content string
	var toolCalls []ToolCall
	var finish genai.FinishReason
	for _, cand := range resp.Candidates {
		finish = cand.FinishReason
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			switch v := part.(type) {
			case genai.Text:
				content += string(v)
			case genai.FunctionCall:
				args, _ := json.Marshal(v.Args)
				toolCalls = append(toolCalls, ToolCall{
					ID:    uuid.New().String(),
					Name:  v.Name,
					Input: args,
				})
			}
		}
	}

	usage := Usage{}
	if resp.UsageMetadata != nil {
		usage.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	return &ChatResponse{
		ID:         uuid.New().String(),
		Text:       content,
		ToolCalls:  toolCalls,
		StopReason: mapGeminiFinishReason(finish, len(toolCalls) > 0),
		Usage:      usage,
	}, nil
}

func mapGeminiFinishReason(reason genai.FinishReason, hasToolCalls bool) StopReason {
	if hasToolCalls {
		return StopToolUse
	}
	if reason == genai.FinishReasonMaxTokens {
		return StopMaxTokens
	}
	return StopEndTurn
}

// toolCallNames maps tool-call ids to tool names across the transcript
func toolCallNames(messages []Message) map[string]string {
	names := make(map[string]string)
	for _, m := range messages {
		for _, tc := range m.ToolCalls {
			names[tc.ID] = tc.Name
		}
	}
	return names
}

func (p *GeminiProvider) convertTools(tools []ToolSpec) []*genai.Tool {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  rawToGeminiSchema(t.InputSchema),
		})
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

// rawToGeminiSchema converts a JSON Schema document to genai.Schema
func rawToGeminiSchema(raw json.RawMessage) *genai.Schema {
	var doc struct {
		Type        string                     `json:"type"`
		Description string                     `json:"description"`
		Properties  map[string]json.RawMessage `json:"properties"`
		Items       json.RawMessage            `json:"items"`
		Required    []string                   `json:"required"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return &genai.Schema{Type: genai.TypeObject}
	}

	schema := &genai.Schema{
		Description: doc.Description,
		Required:    doc.Required,
	}

	switch doc.Type {
	case "string":
		schema.Type = genai.TypeString
	case "number":
		schema.Type = genai.TypeNumber
	case "integer":
		schema.Type = genai.TypeInteger
	case "boolean":
		schema.Type = genai.TypeBoolean
	case "array":
		schema.Type = genai.TypeArray
		if len(doc.Items) > 0 {
			schema.Items = rawToGeminiSchema(doc.Items)
		}
	default:
		schema.Type = genai.TypeObject
	}

	if len(doc.Properties) > 0 {
		schema.Properties = make(map[string]*genai.Schema, len(doc.Properties))
		for name, prop := range doc.Properties {
			schema.Properties[name] = rawToGeminiSchema(prop)
		}
	}

	return schema
}

func (p *GeminiProvider) extractSystemPrompts(messages []Message) string {
	var system string
	for _, m := range messages {
		if m.Role == RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
		}
	}
	return system
}

// convertMessages returns the chat history plus the parts for the final send.
// Gemini's chat API takes the last message separately from the history.
func (p *GeminiProvider) convertMessages(messages []Message, callNames map[string]string) ([]*genai.Content, []genai.Part) {
	var contents []*genai.Content

	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			continue
		case RoleUser:
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []genai.Part{genai.Text(m.Content)},
			})
		case RoleAssistant:
			var parts []genai.Part
			if m.Content != "" {
				parts = append(parts, genai.Text(m.Content))
			}
			for _, tc := range m.ToolCalls {
				var args map[string]any
				json.Unmarshal(tc.Input, &args)
				parts = append(parts, genai.FunctionCall{Name: tc.Name, Args: args})
			}
			contents = append(contents, &genai.Content{Role: "model", Parts: parts})
		case RoleTool:
			if m.Result == nil {
				continue
			}
			response := map[string]any{"content": m.Result.Content}
			if m.Result.IsError {
				response["error"] = true
			}
			contents = append(contents, &genai.Content{
				Role: "user",
				Parts: []genai.Part{genai.FunctionResponse{
					Name:     callNames[m.Result.ToolCallID],
					Response: response,
				}},
			})
		}
	}

	if len(contents) == 0 {
		return nil, []genai.Part{genai.Text("")}
	}

	last := contents[len(contents)-1]
	return contents[:len(contents)-1], last.Parts
}
