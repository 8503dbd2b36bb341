package analyst_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"scout/analyst"
)

var _ = Describe("ExtractEvidence", func() {
	It("returns nothing for an empty trace", func() {
		Expect(analyst.ExtractEvidence(nil)).To(BeEmpty())
	})

	It("collects records across tools with their key fields", func() {
		trace := []analyst.ToolCallRecord{
			{
				Tool:   "query_deals",
				Result: `{"deals":[{"id":"deal-1","name":"Acme expansion","stage":"proposal","amount":50000,"close_date":"2026-10-01"}],"count":1}`,
			},
			{
				Tool:   "query_accounts",
				Result: `{"accounts":[{"id":"acct-1","name":"Acme Corp","segment":"enterprise","arr":240000}],"count":1}`,
			},
		}

		cited := analyst.ExtractEvidence(trace)
		Expect(cited).To(HaveLen(2))

		Expect(cited[0].Type).To(Equal("deal"))
		Expect(cited[0].ID).To(Equal("deal-1"))
		Expect(cited[0].KeyFields).To(HaveKeyWithValue("stage", "proposal"))
		Expect(cited[0].KeyFields).To(HaveKeyWithValue("close_date", "2026-10-01"))
		Expect(cited[0].KeyFields).NotTo(HaveKey("name"))

		Expect(cited[1].Type).To(Equal("account"))
		Expect(cited[1].Name).To(Equal("Acme Corp"))
		Expect(cited[1].KeyFields).To(HaveKeyWithValue("segment", "enterprise"))
	})

	It("dedupes on (type, id) keeping the first occurrence", func() {
		trace := []analyst.ToolCallRecord{
			{Tool: "query_deals", Result: `{"deals":[{"id":"deal-1","name":"Original name","stage":"proposal"}]}`},
			{Tool: "query_deals", Result: `{"deals":[{"id":"deal-1","name":"Renamed later","stage":"negotiation"}]}`},
		}

		cited := analyst.ExtractEvidence(trace)
		Expect(cited).To(HaveLen(1))
		Expect(cited[0].Name).To(Equal("Original name"))
		Expect(cited[0].KeyFields).To(HaveKeyWithValue("stage", "proposal"))
	})

	It("does not dedupe across record types sharing an id", func() {
		trace := []analyst.ToolCallRecord{
			{Tool: "query_deals", Result: `{"deals":[{"id":"x-1","name":"A deal"}]}`},
			{Tool: "query_accounts", Result: `{"accounts":[{"id":"x-1","name":"An account"}]}`},
		}

		Expect(analyst.ExtractEvidence(trace)).To(HaveLen(2))
	})

	It("skips records without an id", func() {
		trace := []analyst.ToolCallRecord{
			{Tool: "compute_metric", Result: `{"metric":"win_rate","value":0.25,"records":[{"name":"aggregate only"},{"id":"deal-5","name":"Big win","type":"deal"}]}`},
		}

		cited := analyst.ExtractEvidence(trace)
		Expect(cited).To(HaveLen(1))
		Expect(cited[0].ID).To(Equal("deal-5"))
	})

	It("honors a per-record type override in metric results", func() {
		trace := []analyst.ToolCallRecord{
			{Tool: "pipeline_forecast", Result: `{"weighted_pipeline":120000,"records":[{"id":"deal-9","name":"Late stage","type":"deal"}]}`},
		}

		cited := analyst.ExtractEvidence(trace)
		Expect(cited).To(HaveLen(1))
		Expect(cited[0].Type).To(Equal("deal"))
	})

	It("ignores error entries and unparsable results", func() {
		trace := []analyst.ToolCallRecord{
			{Tool: "query_deals", Result: `{"error":"backend down"}`, IsError: true},
			{Tool: "query_deals", Result: `not json at all`},
			{Tool: "query_deals", Result: `{"deals":[{"id":"deal-1","name":"Acme"}]}`},
		}

		cited := analyst.ExtractEvidence(trace)
		Expect(cited).To(HaveLen(1))
		Expect(cited[0].ID).To(Equal("deal-1"))
	})

	It("is deterministic over repeated extraction of the same trace", func() {
		trace := []analyst.ToolCallRecord{
			{Tool: "query_deals", Result: `{"deals":[{"id":"deal-2","name":"Beta"},{"id":"deal-1","name":"Alpha"}]}`},
			{Tool: "query_contacts", Result: `{"contacts":[{"id":"cont-1","name":"Jo","title":"CTO"}]}`},
		}

		first := analyst.ExtractEvidence(trace)
		second := analyst.ExtractEvidence(trace)
		Expect(second).To(Equal(first))
		Expect(first[0].ID).To(Equal("deal-2"))
		Expect(first[1].ID).To(Equal("deal-1"))
		Expect(first[2].Type).To(Equal("contact"))
	})
})
