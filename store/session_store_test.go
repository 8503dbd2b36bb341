package store_test

import (
	"fmt"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"scout/store"
)

var _ = Describe("SessionStore", func() {
	runSessionStoreTests := func(newBundle func() (*store.Bundle, func())) {
		var (
			bundle   *store.Bundle
			cleanup  func()
			sessions store.SessionStore
		)

		BeforeEach(func() {
			bundle, cleanup = newBundle()
			sessions = bundle.Sessions
		})

		AfterEach(func() {
			cleanup()
		})

		It("creates a session and retrieves it", func() {
			id, err := sessions.CreateSession("Which deals are open?", "claude-sonnet-4")
			Expect(err).NotTo(HaveOccurred())
			Expect(id).NotTo(BeEmpty())

			info, err := sessions.GetSession(id)
			Expect(err).NotTo(HaveOccurred())
			Expect(info.Question).To(Equal("Which deals are open?"))
			Expect(info.Model).To(Equal("claude-sonnet-4"))
			Expect(info.Status).To(Equal("running"))
			Expect(info.FinishedAt).To(BeNil())
		})

		It("marks a session completed", func() {
			id, err := sessions.CreateSession("q", "m")
			Expect(err).NotTo(HaveOccurred())

			sessions.CompleteSession(id, nil)

			info, err := sessions.GetSession(id)
			Expect(err).NotTo(HaveOccurred())
			Expect(info.Status).To(Equal("completed"))
			Expect(info.Error).To(BeNil())
			Expect(info.FinishedAt).NotTo(BeNil())
		})

		It("marks a session failed with the error message", func() {
			id, err := sessions.CreateSession("q", "m")
			Expect(err).NotTo(HaveOccurred())

			sessions.CompleteSession(id, fmt.Errorf("model unavailable"))

			info, err := sessions.GetSession(id)
			Expect(err).NotTo(HaveOccurred())
			Expect(info.Status).To(Equal("failed"))
			Expect(info.Error).NotTo(BeNil())
			Expect(*info.Error).To(ContainSubstring("model unavailable"))
		})

		It("appends and retrieves messages in order", func() {
			id, err := sessions.CreateSession("q", "m")
			Expect(err).NotTo(HaveOccurred())

			Expect(sessions.AppendMessage(id, "user", "Which deals are open?")).To(Succeed())
			Expect(sessions.AppendMessage(id, "assistant", "Two deals are open.")).To(Succeed())

			msgs, err := sessions.GetMessages(id)
			Expect(err).NotTo(HaveOccurred())
			Expect(msgs).To(HaveLen(2))
			Expect(msgs[0].Role).To(Equal("user"))
			Expect(msgs[1].Role).To(Equal("assistant"))
			Expect(msgs[1].Content).To(Equal("Two deals are open."))
		})

		It("records tool calls with their error flag", func() {
			id, err := sessions.CreateSession("q", "m")
			Expect(err).NotTo(HaveOccurred())

			Expect(sessions.StoreToolCall(id, "query_deals", `{"stage":"proposal"}`, `{"deals":[],"count":0}`, false)).To(Succeed())
			Expect(sessions.StoreToolCall(id, "fetch_notes", `{}`, "backend unreachable", true)).To(Succeed())

			calls, err := sessions.GetToolCalls(id)
			Expect(err).NotTo(HaveOccurred())
			Expect(calls).To(HaveLen(2))
			Expect(calls[0].ToolName).To(Equal("query_deals"))
			Expect(calls[0].IsError).To(BeFalse())
			Expect(calls[1].ToolName).To(Equal("fetch_notes"))
			Expect(calls[1].IsError).To(BeTrue())
		})

		It("errors when appending to an unknown session", func() {
			Expect(sessions.AppendMessage("nonexistent", "user", "hi")).NotTo(Succeed())
			Expect(sessions.StoreToolCall("nonexistent", "t", "{}", "{}", false)).NotTo(Succeed())
		})

		It("lists sessions with limit and offset", func() {
			for i := 0; i < 5; i++ {
				_, err := sessions.CreateSession(fmt.Sprintf("question %d", i), "m")
				Expect(err).NotTo(HaveOccurred())
			}

			page, err := sessions.ListSessions(2, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(page).To(HaveLen(2))

			page, err = sessions.ListSessions(2, 4)
			Expect(err).NotTo(HaveOccurred())
			Expect(page).To(HaveLen(1))
		})
	}

	Context("Memory backend", func() {
		runSessionStoreTests(func() (*store.Bundle, func()) {
			return store.NewMemoryBundle(), func() {}
		})
	})

	Context("SQLite backend", func() {
		runSessionStoreTests(func() (*store.Bundle, func()) {
			dir, err := os.MkdirTemp("", "store-test-*")
			Expect(err).NotTo(HaveOccurred())

			dbPath := filepath.Join(dir, "test.db")
			bundle, err := store.NewSQLiteBundle(dbPath)
			Expect(err).NotTo(HaveOccurred())

			return bundle, func() {
				bundle.Close()
				os.RemoveAll(dir)
			}
		})
	})
})
