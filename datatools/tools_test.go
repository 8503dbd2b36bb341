package datatools_test

import (
	"context"
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"scout/datatools"
	"scout/warehouse"
)

var _ = Describe("Registry", func() {
	var (
		r  *datatools.Registry
		wh *stubWarehouse
	)

	BeforeEach(func() {
		wh = &stubWarehouse{}
		r = datatools.NewRegistry()
		datatools.RegisterBuiltins(r, wh)
	})

	It("registers the built-in tools in a stable order", func() {
		Expect(r.Names()).To(Equal([]string{
			"query_deals",
			"query_accounts",
			"query_contacts",
			"search_conversations",
			"compute_metric",
			"pipeline_forecast",
		}))
	})

	It("exposes tool specs for the model", func() {
		specs := r.Specs()
		Expect(specs).To(HaveLen(6))
		Expect(specs[0].Name).To(Equal("query_deals"))
		Expect(specs[0].Description).NotTo(BeEmpty())
		Expect(specs[0].InputSchema).NotTo(BeEmpty())
	})

	It("dispatches calls by name", func() {
		wh.deals = []warehouse.Deal{{ID: "deal-1", Name: "Acme", Stage: "commit", Amount: 1000}}

		result, err := r.Execute(context.Background(), "query_deals", `{}`)
		Expect(err).NotTo(HaveOccurred())
		Expect(result).To(ContainSubstring(`"deal-1"`))
	})

	It("rejects unknown tool names", func() {
		_, err := r.Execute(context.Background(), "drop_tables", `{}`)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("drop_tables"))
	})
})

var _ = Describe("QueryDealsTool", func() {
	var (
		wh   *stubWarehouse
		tool *datatools.QueryDealsTool
	)

	BeforeEach(func() {
		wh = &stubWarehouse{}
		tool = &datatools.QueryDealsTool{Warehouse: wh}
	})

	It("forwards filters to the warehouse", func() {
		_, err := tool.Call(context.Background(), `{"stage":"commit","segment":"enterprise","min_amount":50000,"limit":10}`)
		Expect(err).NotTo(HaveOccurred())
		Expect(wh.lastDealFilter.Stage).To(Equal("commit"))
		Expect(wh.lastDealFilter.Segment).To(Equal("enterprise"))
		Expect(wh.lastDealFilter.MinAmount).To(Equal(50000.0))
		Expect(wh.lastDealFilter.Limit).To(Equal(10))
	})

	It("returns an empty list rather than null when nothing matches", func() {
		result, err := tool.Call(context.Background(), `{"stage":"commit"}`)
		Expect(err).NotTo(HaveOccurred())

		var out struct {
			Deals []warehouse.Deal `json:"deals"`
			Count int              `json:"count"`
		}
		Expect(json.Unmarshal([]byte(result), &out)).To(Succeed())
		Expect(out.Deals).NotTo(BeNil())
		Expect(out.Count).To(Equal(0))
	})

	It("rejects malformed params", func() {
		_, err := tool.Call(context.Background(), `{"stage":`)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("ComputeMetricTool", func() {
	var (
		wh   *stubWarehouse
		tool *datatools.ComputeMetricTool
	)

	BeforeEach(func() {
		wh = &stubWarehouse{
			deals: []warehouse.Deal{
				{ID: "deal-1", Name: "Won big", Stage: "closed_won", Amount: 100000},
				{ID: "deal-2", Name: "Won small", Stage: "closed_won", Amount: 20000},
				{ID: "deal-3", Name: "Lost one", Stage: "closed_lost", Amount: 50000},
				{ID: "deal-4", Name: "Still open", Stage: "negotiation", Amount: 80000},
				{ID: "deal-5", Name: "Early", Stage: "discovery", Amount: 30000},
			},
		}
		tool = &datatools.ComputeMetricTool{Warehouse: wh}
	})

	callMetric := func(params string) map[string]any {
		result, err := tool.Call(context.Background(), params)
		Expect(err).NotTo(HaveOccurred())
		var out map[string]any
		Expect(json.Unmarshal([]byte(result), &out)).To(Succeed())
		return out
	}

	It("computes win rate over closed deals only", func() {
		out := callMetric(`{"metric":"win_rate"}`)
		Expect(out["value"]).To(BeNumerically("~", 2.0/3.0, 1e-9))
		Expect(out["won"]).To(Equal(2.0))
		Expect(out["lost"]).To(Equal(1.0))
		Expect(out["records"].([]any)).To(HaveLen(3))
	})

	It("computes pipeline total over open deals", func() {
		out := callMetric(`{"metric":"pipeline_total"}`)
		Expect(out["value"]).To(Equal(110000.0))
		Expect(out["records"].([]any)).To(HaveLen(2))
	})

	It("computes average won deal size", func() {
		out := callMetric(`{"metric":"avg_deal_size"}`)
		Expect(out["value"]).To(Equal(60000.0))
	})

	It("counts open deals", func() {
		out := callMetric(`{"metric":"open_deal_count"}`)
		Expect(out["value"]).To(Equal(2.0))
	})

	It("tags the cited records so evidence extraction types them as deals", func() {
		out := callMetric(`{"metric":"win_rate"}`)
		rec := out["records"].([]any)[0].(map[string]any)
		Expect(rec["type"]).To(Equal("deal"))
		Expect(rec["id"]).NotTo(BeEmpty())
	})

	It("rejects unknown metrics", func() {
		_, err := tool.Call(context.Background(), `{"metric":"velocity"}`)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("velocity"))
	})

	It("returns zero win rate when no deals closed", func() {
		wh.deals = []warehouse.Deal{{ID: "deal-1", Stage: "discovery", Amount: 10}}
		out := callMetric(`{"metric":"win_rate"}`)
		Expect(out["value"]).To(Equal(0.0))
	})
})

var _ = Describe("PipelineForecastTool", func() {
	var (
		wh   *stubWarehouse
		tool *datatools.PipelineForecastTool
	)

	BeforeEach(func() {
		wh = &stubWarehouse{
			deals: []warehouse.Deal{
				{ID: "deal-1", Name: "Committed", Stage: "commit", Amount: 100000},
				{ID: "deal-2", Name: "Negotiating", Stage: "negotiation", Amount: 50000},
				{ID: "deal-3", Name: "Early look", Stage: "discovery", Amount: 10000},
				{ID: "deal-4", Name: "Already won", Stage: "closed_won", Amount: 70000},
			},
		}
		tool = &datatools.PipelineForecastTool{Warehouse: wh}
	})

	It("weights open pipeline by stage and excludes closed deals", func() {
		result, err := tool.Call(context.Background(), `{"period_end":"2026-03-31"}`)
		Expect(err).NotTo(HaveOccurred())

		var out map[string]any
		Expect(json.Unmarshal([]byte(result), &out)).To(Succeed())

		// 100000*0.90 + 50000*0.60 + 10000*0.10
		Expect(out["weighted_pipeline"]).To(Equal(121000.0))
		Expect(out["commit"]).To(Equal(100000.0))
		Expect(out["best_case"]).To(Equal(160000.0))

		byStage := out["by_stage"].(map[string]any)
		Expect(byStage).NotTo(HaveKey("closed_won"))
		Expect(out["records"].([]any)).To(HaveLen(3))
	})

	It("requires a period end", func() {
		_, err := tool.Call(context.Background(), `{}`)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("period_end"))
	})
})
