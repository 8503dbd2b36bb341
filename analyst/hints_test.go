package analyst_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"scout/analyst"
)

var _ = Describe("DefaultHinter", func() {
	hinter := analyst.DefaultHinter()

	It("routes forecast questions to the forecast tools", func() {
		Expect(hinter("What does the Q4 pipeline look like?")).To(ContainSubstring("pipeline_forecast"))
	})

	It("routes metric questions to compute_metric", func() {
		Expect(hinter("What is our win rate this year?")).To(ContainSubstring("compute_metric"))
	})

	It("routes conversation questions to search_conversations", func() {
		Expect(hinter("What did the customer say on the last call?")).To(ContainSubstring("search_conversations"))
	})

	It("matches case-insensitively", func() {
		Expect(hinter("Show me the DEALS in negotiation")).To(ContainSubstring("query_deals"))
	})

	It("returns an empty hint when nothing matches", func() {
		Expect(hinter("Hello there")).To(BeEmpty())
	})
})
