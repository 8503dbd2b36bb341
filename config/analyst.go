package config

import "fmt"

// TokenBudgetsConfig overrides the per-complexity answer token budgets
type TokenBudgetsConfig struct {
	Low    int `hcl:"low,optional"`
	Medium int `hcl:"medium,optional"`
	High   int `hcl:"high,optional"`
}

// AnalystConfig configures the question-answering engine
type AnalystConfig struct {
	Model           string   `hcl:"model"`                      // Reasoning model (models.{block}.{key} reference)
	ClassifierModel string   `hcl:"classifier_model,optional"`  // Cheap model for pre-flight classification
	MaxIterations   int      `hcl:"max_iterations,optional"`    // Reasoning-call ceiling per session
	ScopeParams     []string `hcl:"scope_params,optional"`      // Tool params eligible for scope injection
	Temperature     float64  `hcl:"temperature,optional"`
	DebugTurnsFile  string   `hcl:"debug_turns_file,optional"` // JSONL transcript snapshots for debugging

	TokenBudgets *TokenBudgetsConfig `hcl:"token_budgets,block"`
}

// Defaults fills in default values for unset fields
func (a *AnalystConfig) Defaults() {
	if a.ClassifierModel == "" {
		a.ClassifierModel = a.Model
	}
	if a.MaxIterations <= 0 {
		a.MaxIterations = 8
	}
	if len(a.ScopeParams) == 0 {
		a.ScopeParams = []string{"segment"}
	}
}

// Validate checks the analyst configuration against the loaded model blocks
func (a *AnalystConfig) Validate(models []Model) error {
	if a.Model == "" {
		return fmt.Errorf("model is required")
	}
	if !isAllowedModel(a.Model, models) {
		return fmt.Errorf("model '%s' not allowed by any model block", a.Model)
	}
	if a.ClassifierModel != "" && !isAllowedModel(a.ClassifierModel, models) {
		return fmt.Errorf("classifier_model '%s' not allowed by any model block", a.ClassifierModel)
	}
	if a.TokenBudgets != nil {
		b := a.TokenBudgets
		if b.Low < 0 || b.Medium < 0 || b.High < 0 {
			return fmt.Errorf("token budgets must be positive")
		}
	}
	return nil
}

func isAllowedModel(modelKey string, models []Model) bool {
	for _, m := range models {
		for _, allowed := range m.AllowedModels {
			if allowed == modelKey {
				return true
			}
		}
	}
	return false
}
