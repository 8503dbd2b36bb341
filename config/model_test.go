package config_test

import (
	"scout/config"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Model", func() {

	Describe("parsing", func() {
		It("parses a model block with vars interpolation", func() {
			_, f := writeFixture("config.hcl", minimalVarsHCL()+minimalModelHCL())
			cfg, err := config.LoadFile(f)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Models).To(HaveLen(1))
			Expect(cfg.Models[0].Name).To(Equal("anthropic"))
			Expect(cfg.Models[0].Provider).To(Equal(config.ProviderAnthropic))
			Expect(cfg.Models[0].APIKey).To(Equal("test-key-123"))
			Expect(cfg.Models[0].AllowedModels).To(ContainElement("claude_sonnet_4"))
		})
	})

	Describe("Validate", func() {
		It("rejects an unsupported provider", func() {
			hcl := minimalVarsHCL() + `
model "bad" {
  provider       = "totally_made_up"
  allowed_models = ["claude_sonnet_4"]
  api_key        = vars.test_api_key
}
`
			_, f := writeFixture("config.hcl", hcl)
			cfg, err := config.LoadFile(f)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Validate()).NotTo(Succeed())
		})

		It("rejects a model name not supported by the provider", func() {
			hcl := minimalVarsHCL() + `
model "bad" {
  provider       = "anthropic"
  allowed_models = ["gpt_4o"]
  api_key        = vars.test_api_key
}
`
			_, f := writeFixture("config.hcl", hcl)
			cfg, err := config.LoadFile(f)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Validate()).NotTo(Succeed())
		})
	})

	Describe("APIName", func() {
		It("resolves a model key to the wire-level name", func() {
			m := config.Model{Provider: config.ProviderAnthropic}
			name, err := m.APIName("claude_sonnet_4")
			Expect(err).NotTo(HaveOccurred())
			Expect(name).To(Equal("claude-sonnet-4-20250514"))
		})

		It("errors on a key the provider does not support", func() {
			m := config.Model{Provider: config.ProviderAnthropic}
			_, err := m.APIName("gpt_4o")
			Expect(err).To(HaveOccurred())
		})
	})
})
