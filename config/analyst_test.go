package config_test

import (
	"scout/config"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("AnalystConfig", func() {

	It("parses a minimal analyst block with defaults applied", func() {
		_, f := writeFixture("config.hcl", fullBaseHCL())
		cfg, err := config.LoadFile(f)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Analyst).NotTo(BeNil())
		Expect(cfg.Analyst.Model).To(Equal("claude_sonnet_4"))
		Expect(cfg.Analyst.ClassifierModel).To(Equal("claude_sonnet_4"))
		Expect(cfg.Analyst.MaxIterations).To(Equal(8))
		Expect(cfg.Analyst.ScopeParams).To(Equal([]string{"segment"}))
		Expect(cfg.Validate()).To(Succeed())
	})

	It("parses a full analyst block", func() {
		hcl := minimalVarsHCL() + minimalModelHCL() + `
analyst {
  model            = models.anthropic.claude_sonnet_4
  classifier_model = models.anthropic.claude_3_5_haiku
  max_iterations   = 4
  scope_params     = ["segment", "owner"]

  token_budgets {
    low    = 512
    medium = 2048
    high   = 6144
  }
}
`
		_, f := writeFixture("config.hcl", hcl)
		cfg, err := config.LoadFile(f)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Analyst.ClassifierModel).To(Equal("claude_3_5_haiku"))
		Expect(cfg.Analyst.MaxIterations).To(Equal(4))
		Expect(cfg.Analyst.ScopeParams).To(Equal([]string{"segment", "owner"}))
		Expect(cfg.Analyst.TokenBudgets).NotTo(BeNil())
		Expect(cfg.Analyst.TokenBudgets.Medium).To(Equal(2048))
		Expect(cfg.Validate()).To(Succeed())
	})

	It("rejects a model key no model block allows", func() {
		hcl := minimalVarsHCL() + minimalModelHCL() + `
analyst {
  model = "gpt_4o"
}
`
		_, f := writeFixture("config.hcl", hcl)
		cfg, err := config.LoadFile(f)
		Expect(err).NotTo(HaveOccurred())
		err = cfg.Validate()
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("gpt_4o"))
	})

	It("rejects an unknown model reference at parse time", func() {
		hcl := minimalVarsHCL() + minimalModelHCL() + `
analyst {
  model = models.anthropic.claude_opus_4
}
`
		_, f := writeFixture("config.hcl", hcl)
		_, err := config.LoadFile(f)
		// claude_opus_4 is not in allowed_models, so the models namespace
		// has no such attribute
		Expect(err).To(HaveOccurred())
	})

	It("rejects duplicate analyst blocks", func() {
		hcl := fullBaseHCL() + minimalAnalystHCL()
		_, f := writeFixture("config.hcl", hcl)
		_, err := config.LoadFile(f)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("duplicate analyst block"))
	})
})

var _ = Describe("WarehouseConfig", func() {

	It("defaults to the sqlite backend", func() {
		hcl := fullBaseHCL() + `
warehouse {}
`
		_, f := writeFixture("config.hcl", hcl)
		cfg, err := config.LoadFile(f)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Warehouse.Backend).To(Equal("sqlite"))
		Expect(cfg.Warehouse.Path).To(Equal(".scout/warehouse.db"))
		Expect(cfg.Validate()).To(Succeed())
	})

	It("requires a dsn for postgres", func() {
		hcl := fullBaseHCL() + `
warehouse {
  backend = "postgres"
}
`
		_, f := writeFixture("config.hcl", hcl)
		cfg, err := config.LoadFile(f)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Validate()).NotTo(Succeed())
	})

	It("rejects seeding a postgres warehouse", func() {
		hcl := fullBaseHCL() + `
warehouse {
  backend = "postgres"
  dsn     = "postgres://localhost/scout"
  seed    = true
}
`
		_, f := writeFixture("config.hcl", hcl)
		cfg, err := config.LoadFile(f)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Validate()).NotTo(Succeed())
	})
})

var _ = Describe("StorageConfig", func() {

	It("defaults to the memory backend", func() {
		hcl := fullBaseHCL() + `
storage {}
`
		_, f := writeFixture("config.hcl", hcl)
		cfg, err := config.LoadFile(f)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Storage.Backend).To(Equal("memory"))
		Expect(cfg.Validate()).To(Succeed())
	})

	It("rejects an unknown backend", func() {
		hcl := fullBaseHCL() + `
storage {
  backend = "cassandra"
}
`
		_, f := writeFixture("config.hcl", hcl)
		cfg, err := config.LoadFile(f)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Validate()).NotTo(Succeed())
	})
})

var _ = Describe("LoadDir", func() {

	It("merges blocks across multiple files", func() {
		dir := writeFixtures(map[string]string{
			"vars.hcl":    minimalVarsHCL(),
			"models.hcl":  minimalModelHCL(),
			"analyst.hcl": minimalAnalystHCL(),
		})
		cfg, err := config.Load(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Variables).To(HaveLen(1))
		Expect(cfg.Models).To(HaveLen(1))
		Expect(cfg.Analyst).NotTo(BeNil())
		Expect(cfg.Validate()).To(Succeed())
	})
})
