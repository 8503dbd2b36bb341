package analyst

import "strings"

// HintFunc maps a question to a short tool-routing hint used in guard nudges.
// It is a pluggable strategy so hint rules can be tested and extended without
// touching the loop's control flow.
type HintFunc func(question string) string

// hintRule pairs trigger keywords with the hint emitted when any match
type hintRule struct {
	keywords []string
	hint     string
}

var defaultHintRules = []hintRule{
	{
		keywords: []string{"forecast", "projection", "pipeline", "quota", "target"},
		hint:     "The pipeline_forecast and compute_metric tools can ground forecast questions in actual deal data.",
	},
	{
		keywords: []string{"win rate", "close rate", "average deal", "metric", "how many", "total", "revenue", "arr"},
		hint:     "The compute_metric tool computes win rate, pipeline totals, and deal-size metrics from real records.",
	},
	{
		keywords: []string{"said", "mentioned", "call", "meeting", "email", "conversation", "discussed"},
		hint:     "The search_conversations tool retrieves what was actually said in logged customer conversations.",
	},
	{
		keywords: []string{"contact", "champion", "stakeholder", "who at", "persona"},
		hint:     "The query_contacts tool lists the people on an account.",
	},
	{
		keywords: []string{"account", "customer", "company", "industry", "segment"},
		hint:     "The query_accounts tool retrieves account records with segment, industry, and ARR.",
	},
	{
		keywords: []string{"deal", "opportunity", "stage", "closing", "negotiation"},
		hint:     "The query_deals tool retrieves deal records with stage, amount, and close dates.",
	},
}

// DefaultHinter returns the keyword-based hint strategy
func DefaultHinter() HintFunc {
	return func(question string) string {
		lower := strings.ToLower(question)
		for _, rule := range defaultHintRules {
			for _, kw := range rule.keywords {
				if strings.Contains(lower, kw) {
					return rule.hint
				}
			}
		}
		return ""
	}
}
