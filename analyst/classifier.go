package analyst

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"scout/llm"
)

const classifierMaxTokens = 256

// Classifier labels a question's complexity and likely tool set with one
// short, low-cost model call. The label is advisory only: it sizes the
// per-turn token budget and seeds a routing hint, nothing else.
type Classifier struct {
	provider  llm.Provider
	model     string
	budgets   TokenBudgets
	toolNames []string
}

// NewClassifier creates a classifier backed by the given provider and model.
// toolNames is the catalog the model may hint toward.
func NewClassifier(provider llm.Provider, model string, budgets TokenBudgets, toolNames []string) *Classifier {
	return &Classifier{
		provider:  provider,
		model:     model,
		budgets:   budgets,
		toolNames: toolNames,
	}
}

// DefaultClassification is returned whenever classification fails
func (c *Classifier) DefaultClassification() Classification {
	return Classification{
		QuestionType: QuestionAnalytical,
		Complexity:   ComplexityMedium,
		TokenBudget:  c.budgets.For(ComplexityMedium),
	}
}

// Classify never fails: on any model error or unparsable output it returns
// the default classification.
func (c *Classifier) Classify(ctx context.Context, question string) Classification {
	prompt := fmt.Sprintf(`Classify this question about business data.

Question: %s

Available tools: %s

Respond with only a JSON object:
{"question_type": "discrete|analytical|strategic", "complexity": "low|medium|high", "likely_tools": ["tool_name"]}`,
		question, strings.Join(c.toolNames, ", "))

	resp, err := c.provider.Chat(ctx, &llm.ChatRequest{
		Model:     c.model,
		Messages:  []llm.Message{llm.NewTextMessage(llm.RoleUser, prompt)},
		MaxTokens: classifierMaxTokens,
	})
	if err != nil {
		return c.DefaultClassification()
	}

	parsed, ok := c.parse(resp.Text)
	if !ok {
		return c.DefaultClassification()
	}
	return parsed
}

func (c *Classifier) parse(text string) (Classification, bool) {
	// Models sometimes wrap the JSON in prose or fences; take the outermost object
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return Classification{}, false
	}

	var out struct {
		QuestionType string   `json:"question_type"`
		Complexity   string   `json:"complexity"`
		LikelyTools  []string `json:"likely_tools"`
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &out); err != nil {
		return Classification{}, false
	}

	cls := Classification{HintedTools: c.validTools(out.LikelyTools)}

	switch QuestionType(out.QuestionType) {
	case QuestionDiscrete, QuestionAnalytical, QuestionStrategic:
		cls.QuestionType = QuestionType(out.QuestionType)
	default:
		cls.QuestionType = QuestionAnalytical
	}

	switch Complexity(out.Complexity) {
	case ComplexityLow, ComplexityMedium, ComplexityHigh:
		cls.Complexity = Complexity(out.Complexity)
	default:
		cls.Complexity = ComplexityMedium
	}

	cls.TokenBudget = c.budgets.For(cls.Complexity)
	return cls, true
}

// validTools filters hinted names down to ones actually in the catalog
func (c *Classifier) validTools(hinted []string) []string {
	var valid []string
	for _, name := range hinted {
		for _, known := range c.toolNames {
			if name == known {
				valid = append(valid, name)
				break
			}
		}
	}
	return valid
}
