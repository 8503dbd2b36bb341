package analyst_test

import (
	"context"
	"encoding/json"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"scout/analyst"
	"scout/datatools"
	"scout/llm"
)

var _ = Describe("Engine", func() {
	var (
		provider *scriptedProvider
		catalog  *datatools.Registry
		deals    *fakeTool
		broken   *fakeTool
	)

	newEngine := func(maxIterations int) *analyst.Engine {
		engine, err := analyst.NewEngine(analyst.Config{
			Provider:           provider,
			Model:              "claude-sonnet-4",
			ClassifierProvider: failingProvider{},
			Catalog:            catalog,
			MaxIterations:      maxIterations,
		})
		Expect(err).NotTo(HaveOccurred())
		return engine
	}

	answer := func(engine *analyst.Engine, question string) (*analyst.SessionResponse, error) {
		return engine.Answer(context.Background(), question, nil, "")
	}

	BeforeEach(func() {
		deals = &fakeTool{
			name: "query_deals",
			desc: "Retrieves deal records",
			schema: datatools.Schema{
				Type: datatools.TypeObject,
				Properties: datatools.PropertyMap{
					"stage":   {Type: datatools.TypeString},
					"segment": {Type: datatools.TypeString},
				},
			},
			fn: func(context.Context, string) (string, error) {
				return `{"deals":[{"id":"deal-1","name":"Acme expansion","stage":"proposal","amount":50000}],"count":1}`, nil
			},
		}
		broken = &fakeTool{
			name:   "fetch_notes",
			desc:   "Retrieves internal notes",
			schema: datatools.Schema{Type: datatools.TypeObject, Properties: datatools.PropertyMap{}},
			fn: func(context.Context, string) (string, error) {
				return "", fmt.Errorf("notes backend unreachable")
			},
		}

		catalog = datatools.NewRegistry()
		catalog.Register(deals)
		catalog.Register(broken)

		provider = &scriptedProvider{}
	})

	Describe("natural termination", func() {
		It("gathers evidence and returns the final answer with the trace", func() {
			provider.responses = []*llm.ChatResponse{
				toolResponse("Let me check the pipeline.", llm.ToolCall{
					ID:    "call-1",
					Name:  "query_deals",
					Input: json.RawMessage(`{"stage":"proposal"}`),
				}),
				textResponse("There is one proposal-stage deal: Acme expansion at $50,000.", llm.StopEndTurn),
			}

			resp, err := answer(newEngine(8), "Which deals are in proposal?")
			Expect(err).NotTo(HaveOccurred())

			Expect(resp.Answer).To(ContainSubstring("Acme expansion"))
			Expect(resp.ToolCallCount).To(Equal(1))
			Expect(resp.Evidence.ToolTrace).To(HaveLen(1))
			Expect(resp.Evidence.ToolTrace[0].Tool).To(Equal("query_deals"))
			Expect(resp.Evidence.ToolTrace[0].Description).To(Equal("Retrieves deal records"))
			Expect(resp.Evidence.ToolTrace[0].IsError).To(BeFalse())
			Expect(resp.TokensUsed).To(Equal(300))
			Expect(provider.callCount()).To(Equal(2))
		})

		It("extracts cited records from the trace", func() {
			provider.responses = []*llm.ChatResponse{
				toolResponse("", llm.ToolCall{ID: "call-1", Name: "query_deals", Input: json.RawMessage(`{}`)}),
				textResponse("One deal found.", llm.StopEndTurn),
			}

			resp, err := answer(newEngine(8), "Which deals are open?")
			Expect(err).NotTo(HaveOccurred())

			Expect(resp.Evidence.CitedRecords).To(HaveLen(1))
			Expect(resp.Evidence.CitedRecords[0].Type).To(Equal("deal"))
			Expect(resp.Evidence.CitedRecords[0].ID).To(Equal("deal-1"))
			Expect(resp.Evidence.CitedRecords[0].Name).To(Equal("Acme expansion"))
		})

		It("feeds the compressed tool result back as a tool turn", func() {
			provider.responses = []*llm.ChatResponse{
				toolResponse("", llm.ToolCall{ID: "call-1", Name: "query_deals", Input: json.RawMessage(`{}`)}),
				textResponse("Done.", llm.StopEndTurn),
			}

			_, err := answer(newEngine(8), "Which deals are open?")
			Expect(err).NotTo(HaveOccurred())

			messages := provider.lastRequest().Messages
			last := messages[len(messages)-1]
			Expect(last.Role).To(Equal(llm.RoleTool))
			Expect(last.Result).NotTo(BeNil())
			Expect(last.Result.ToolCallID).To(Equal("call-1"))
			Expect(last.Result.IsError).To(BeFalse())
			Expect(last.Result.Content).To(ContainSubstring("deal-1"))
		})
	})

	Describe("truncation guard", func() {
		It("discards a truncated tool-free answer and nudges toward tools", func() {
			provider.responses = []*llm.ChatResponse{
				textResponse("Based on general industry trends, deals usually", llm.StopMaxTokens),
				toolResponse("", llm.ToolCall{ID: "call-1", Name: "query_deals", Input: json.RawMessage(`{}`)}),
				textResponse("One deal: Acme expansion.", llm.StopEndTurn),
			}

			resp, err := answer(newEngine(8), "Which deals are closing soon?")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Answer).To(Equal("One deal: Acme expansion."))

			// The partial text must not survive into any later transcript.
			for _, msg := range provider.lastRequest().Messages {
				Expect(msg.Content).NotTo(ContainSubstring("general industry trends"))
			}

			second := provider.requests[1].Messages
			nudge := second[len(second)-1]
			Expect(nudge.Role).To(Equal(llm.RoleUser))
			Expect(nudge.Content).To(ContainSubstring("cut off"))
		})

		It("tailors the nudge to the question's keywords", func() {
			provider.responses = []*llm.ChatResponse{
				textResponse("A long forecast essay", llm.StopMaxTokens),
				textResponse("done", llm.StopEndTurn),
				textResponse("done", llm.StopEndTurn),
				textResponse("done", llm.StopEndTurn),
			}

			_, err := answer(newEngine(8), "What is our pipeline forecast for Q4?")
			Expect(err).NotTo(HaveOccurred())

			second := provider.requests[1].Messages
			Expect(second[len(second)-1].Content).To(ContainSubstring("pipeline_forecast"))
		})

		It("does not fire when the truncated turn carries tool calls", func() {
			provider.responses = []*llm.ChatResponse{
				{
					Text:       "Checking",
					ToolCalls:  []llm.ToolCall{{ID: "call-1", Name: "query_deals", Input: json.RawMessage(`{}`)}},
					StopReason: llm.StopMaxTokens,
				},
				textResponse("One deal found.", llm.StopEndTurn),
			}

			resp, err := answer(newEngine(8), "Which deals are open?")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.ToolCallCount).To(Equal(1))
			Expect(deals.calls).To(HaveLen(1))
		})
	})

	Describe("no-evidence guard", func() {
		It("keeps the evidence-free text and demands a tool call", func() {
			provider.responses = []*llm.ChatResponse{
				textResponse("Probably around five deals.", llm.StopEndTurn),
				toolResponse("", llm.ToolCall{ID: "call-1", Name: "query_deals", Input: json.RawMessage(`{}`)}),
				textResponse("Exactly one deal is open.", llm.StopEndTurn),
			}

			resp, err := answer(newEngine(8), "How many deals are open?")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Answer).To(Equal("Exactly one deal is open."))

			second := provider.requests[1].Messages
			Expect(second[len(second)-2].Role).To(Equal(llm.RoleAssistant))
			Expect(second[len(second)-2].Content).To(Equal("Probably around five deals."))
			Expect(second[len(second)-1].Role).To(Equal(llm.RoleUser))
			Expect(second[len(second)-1].Content).To(ContainSubstring("without retrieving any data"))
		})

		It("does not fire once the trace has an entry", func() {
			provider.responses = []*llm.ChatResponse{
				toolResponse("", llm.ToolCall{ID: "call-1", Name: "query_deals", Input: json.RawMessage(`{}`)}),
				textResponse("One.", llm.StopEndTurn),
			}

			resp, err := answer(newEngine(8), "How many deals are open?")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Answer).To(Equal("One."))
			Expect(provider.callCount()).To(Equal(2))
		})

		It("gives up nudging after the second iteration", func() {
			provider.responses = []*llm.ChatResponse{
				textResponse("First guess.", llm.StopEndTurn),
				textResponse("Second guess.", llm.StopEndTurn),
				textResponse("Final guess.", llm.StopEndTurn),
			}

			resp, err := answer(newEngine(8), "How many deals are open?")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Answer).To(Equal("Final guess."))
			Expect(resp.ToolCallCount).To(Equal(0))
			Expect(provider.callCount()).To(Equal(3))
		})
	})

	Describe("iteration ceiling", func() {
		It("forces a tool-free synthesis call after the last iteration", func() {
			provider.responses = []*llm.ChatResponse{
				toolResponse("", llm.ToolCall{ID: "call-1", Name: "query_deals", Input: json.RawMessage(`{}`)}),
				toolResponse("", llm.ToolCall{ID: "call-2", Name: "query_deals", Input: json.RawMessage(`{}`)}),
				textResponse("Best effort from two queries.", llm.StopEndTurn),
			}

			resp, err := answer(newEngine(2), "Which deals are open?")
			Expect(err).NotTo(HaveOccurred())

			Expect(resp.Answer).To(Equal("Best effort from two queries."))
			Expect(resp.ToolCallCount).To(Equal(2))
			Expect(provider.callCount()).To(Equal(3))

			final := provider.lastRequest()
			Expect(final.Tools).To(BeEmpty())
			lastMsg := final.Messages[len(final.Messages)-1]
			Expect(lastMsg.Role).To(Equal(llm.RoleUser))
			Expect(lastMsg.Content).To(ContainSubstring("Stop gathering data"))
		})

		It("never exceeds max iterations plus one model call", func() {
			provider.responses = []*llm.ChatResponse{
				toolResponse("", llm.ToolCall{ID: "call-1", Name: "query_deals", Input: json.RawMessage(`{}`)}),
				toolResponse("", llm.ToolCall{ID: "call-2", Name: "query_deals", Input: json.RawMessage(`{}`)}),
				toolResponse("", llm.ToolCall{ID: "call-3", Name: "query_deals", Input: json.RawMessage(`{}`)}),
				textResponse("Synthesis.", llm.StopEndTurn),
			}

			_, err := answer(newEngine(3), "Which deals are open?")
			Expect(err).NotTo(HaveOccurred())
			Expect(provider.callCount()).To(Equal(4))
		})
	})

	Describe("tool failures", func() {
		It("records the failure and keeps the session alive", func() {
			provider.responses = []*llm.ChatResponse{
				toolResponse("", llm.ToolCall{ID: "call-1", Name: "fetch_notes", Input: json.RawMessage(`{}`)}),
				textResponse("The notes backend is down, answering without it.", llm.StopEndTurn),
			}

			resp, err := answer(newEngine(8), "What do the notes say?")
			Expect(err).NotTo(HaveOccurred())

			Expect(resp.Evidence.ToolTrace).To(HaveLen(1))
			Expect(resp.Evidence.ToolTrace[0].IsError).To(BeTrue())
			Expect(resp.Evidence.ToolTrace[0].Result).To(ContainSubstring("notes backend unreachable"))

			messages := provider.lastRequest().Messages
			last := messages[len(messages)-1]
			Expect(last.Role).To(Equal(llm.RoleTool))
			Expect(last.Result.IsError).To(BeTrue())
			Expect(last.Result.Content).To(ContainSubstring("notes backend unreachable"))
		})

		It("treats an unknown tool name as a recoverable error", func() {
			provider.responses = []*llm.ChatResponse{
				toolResponse("", llm.ToolCall{ID: "call-1", Name: "no_such_tool", Input: json.RawMessage(`{}`)}),
				textResponse("Done.", llm.StopEndTurn),
			}

			resp, err := answer(newEngine(8), "Which deals are open?")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Evidence.ToolTrace[0].IsError).To(BeTrue())
			Expect(resp.Evidence.ToolTrace[0].Result).To(ContainSubstring("unknown tool"))
		})

		It("runs the remaining calls in a batch after one fails", func() {
			provider.responses = []*llm.ChatResponse{
				toolResponse("",
					llm.ToolCall{ID: "call-1", Name: "fetch_notes", Input: json.RawMessage(`{}`)},
					llm.ToolCall{ID: "call-2", Name: "query_deals", Input: json.RawMessage(`{}`)},
				),
				textResponse("Done.", llm.StopEndTurn),
			}

			resp, err := answer(newEngine(8), "Which deals are open?")
			Expect(err).NotTo(HaveOccurred())

			Expect(resp.Evidence.ToolTrace).To(HaveLen(2))
			Expect(resp.Evidence.ToolTrace[0].Tool).To(Equal("fetch_notes"))
			Expect(resp.Evidence.ToolTrace[0].IsError).To(BeTrue())
			Expect(resp.Evidence.ToolTrace[1].Tool).To(Equal("query_deals"))
			Expect(resp.Evidence.ToolTrace[1].IsError).To(BeFalse())
			Expect(deals.calls).To(HaveLen(1))
		})
	})

	Describe("transport errors", func() {
		It("propagates a reasoning-model failure to the caller", func() {
			provider.err = fmt.Errorf("api unavailable")

			_, err := answer(newEngine(8), "Which deals are open?")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("api unavailable"))
		})
	})

	Describe("auto-scoping", func() {
		scopedAnswer := func(scope string) error {
			engine := newEngine(8)
			_, err := engine.Answer(context.Background(), "Which deals are open?", nil, scope)
			return err
		}

		It("injects the scope hint into a declared parameter the model left unset", func() {
			provider.responses = []*llm.ChatResponse{
				toolResponse("", llm.ToolCall{ID: "call-1", Name: "query_deals", Input: json.RawMessage(`{"stage":"proposal"}`)}),
				textResponse("Done.", llm.StopEndTurn),
			}

			Expect(scopedAnswer("enterprise")).To(Succeed())
			Expect(deals.calls).To(HaveLen(1))

			var params map[string]any
			Expect(json.Unmarshal([]byte(deals.calls[0]), &params)).To(Succeed())
			Expect(params).To(HaveKeyWithValue("segment", "enterprise"))
			Expect(params).To(HaveKeyWithValue("stage", "proposal"))
		})

		It("never overrides a value the model set explicitly", func() {
			provider.responses = []*llm.ChatResponse{
				toolResponse("", llm.ToolCall{ID: "call-1", Name: "query_deals", Input: json.RawMessage(`{"segment":"smb"}`)}),
				textResponse("Done.", llm.StopEndTurn),
			}

			Expect(scopedAnswer("enterprise")).To(Succeed())

			var params map[string]any
			Expect(json.Unmarshal([]byte(deals.calls[0]), &params)).To(Succeed())
			Expect(params).To(HaveKeyWithValue("segment", "smb"))
		})

		It("leaves tools without the parameter untouched", func() {
			provider.responses = []*llm.ChatResponse{
				toolResponse("", llm.ToolCall{ID: "call-1", Name: "fetch_notes", Input: json.RawMessage(`{}`)}),
				textResponse("Done.", llm.StopEndTurn),
			}

			Expect(scopedAnswer("enterprise")).To(Succeed())
			Expect(broken.calls).To(HaveLen(1))
			Expect(broken.calls[0]).NotTo(ContainSubstring("segment"))
		})
	})

	Describe("conversation threads", func() {
		It("prepends prior turns with tool usage summarized as a note", func() {
			provider.responses = []*llm.ChatResponse{
				textResponse("First.", llm.StopEndTurn),
				textResponse("Final.", llm.StopEndTurn),
				textResponse("Final.", llm.StopEndTurn),
			}

			engine := newEngine(8)
			prior := []analyst.StoredTurn{
				{Role: "user", Content: "How many open deals?"},
				{Role: "assistant", Content: "Five open deals.", ToolsUsed: []string{"query_deals"}},
			}
			_, err := engine.Answer(context.Background(), "And how many in proposal?", prior, "")
			Expect(err).NotTo(HaveOccurred())

			messages := provider.requests[0].Messages
			Expect(messages[0].Role).To(Equal(llm.RoleSystem))
			Expect(messages[1].Content).To(Equal("How many open deals?"))
			Expect(messages[2].Content).To(ContainSubstring("Five open deals."))
			Expect(messages[2].Content).To(ContainSubstring("query_deals"))
			Expect(messages[2].Content).To(ContainSubstring("Retrieve fresh data"))
		})
	})
})

var _ = Describe("NewEngine", func() {
	It("rejects a config without a provider", func() {
		_, err := analyst.NewEngine(analyst.Config{Model: "m", Catalog: datatools.NewRegistry()})
		Expect(err).To(HaveOccurred())
	})

	It("rejects a config without a model", func() {
		_, err := analyst.NewEngine(analyst.Config{Provider: &scriptedProvider{}, Catalog: datatools.NewRegistry()})
		Expect(err).To(HaveOccurred())
	})

	It("rejects a config without a catalog", func() {
		_, err := analyst.NewEngine(analyst.Config{Provider: &scriptedProvider{}, Model: "m"})
		Expect(err).To(HaveOccurred())
	})
})
