package config

// ModelPricing is the USD cost per million tokens for one model
type ModelPricing struct {
	InputPer1M  float64
	OutputPer1M float64
}

// modelPricing is keyed by provider and then by the API model names that
// SupportedModels resolves to. Models missing here price at zero.
var modelPricing = map[Provider]map[string]ModelPricing{
	ProviderAnthropic: {
		"claude-sonnet-4-20250514":   {InputPer1M: 3.00, OutputPer1M: 15.00},
		"claude-opus-4-20250514":     {InputPer1M: 15.00, OutputPer1M: 75.00},
		"claude-3-5-haiku-20241022":  {InputPer1M: 0.80, OutputPer1M: 4.00},
		"claude-3-5-sonnet-20241022": {InputPer1M: 3.00, OutputPer1M: 15.00},
	},
	ProviderOpenAI: {
		"gpt-4o":      {InputPer1M: 2.50, OutputPer1M: 10.00},
		"gpt-4o-mini": {InputPer1M: 0.15, OutputPer1M: 0.60},
		"gpt-4-turbo": {InputPer1M: 10.00, OutputPer1M: 30.00},
		"o1":          {InputPer1M: 15.00, OutputPer1M: 60.00},
		"o1-mini":     {InputPer1M: 3.00, OutputPer1M: 12.00},
		"o3-mini":     {InputPer1M: 1.10, OutputPer1M: 4.40},
	},
	ProviderGemini: {
		"gemini-2.0-flash":     {InputPer1M: 0.10, OutputPer1M: 0.40},
		"gemini-1.5-pro":       {InputPer1M: 1.25, OutputPer1M: 5.00},
		"gemini-1.5-flash":     {InputPer1M: 0.075, OutputPer1M: 0.30},
		"gemini-2.0-flash-exp": {InputPer1M: 0, OutputPer1M: 0},
	},
}

// PricingFor returns the pricing entry for an API model name
func PricingFor(apiName string) (ModelPricing, bool) {
	for _, table := range modelPricing {
		if p, ok := table[apiName]; ok {
			return p, true
		}
	}
	return ModelPricing{}, false
}

// CalculateCost returns the USD cost of a call against the named API model.
// Unknown models cost zero rather than failing the session report.
func CalculateCost(apiName string, inputTokens, outputTokens int) float64 {
	p, ok := PricingFor(apiName)
	if !ok {
		return 0
	}
	return float64(inputTokens)/1_000_000*p.InputPer1M + float64(outputTokens)/1_000_000*p.OutputPer1M
}
