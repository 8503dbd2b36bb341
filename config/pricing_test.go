package config_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"scout/config"
)

var _ = Describe("Pricing", func() {
	Describe("CalculateCost", func() {
		It("prices input and output tokens separately", func() {
			cost := config.CalculateCost("claude-sonnet-4-20250514", 1_000_000, 100_000)
			Expect(cost).To(BeNumerically("~", 4.50, 1e-9)) // 3.00 in + 1.50 out
		})

		It("returns zero for unknown models", func() {
			Expect(config.CalculateCost("mystery-model", 500_000, 500_000)).To(BeZero())
		})
	})

	Describe("PricingFor", func() {
		It("covers every supported API model name", func() {
			for _, models := range config.SupportedModels {
				for _, apiName := range models {
					_, ok := config.PricingFor(apiName)
					Expect(ok).To(BeTrue(), "missing pricing for %s", apiName)
				}
			}
		})
	})
})
