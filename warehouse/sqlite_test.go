package warehouse_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"unicode/utf8"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"scout/warehouse"
)

var _ = Describe("SQLiteWarehouse", func() {
	var (
		w      *warehouse.SQLiteWarehouse
		dbPath string
		ctx    context.Context
	)

	BeforeEach(func() {
		var err error
		dbPath = filepath.Join(GinkgoT().TempDir(), "warehouse.db")
		w, err = warehouse.NewSQLiteWarehouse(dbPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(w.Seed()).To(Succeed())
		ctx = context.Background()
	})

	AfterEach(func() {
		w.Close()
	})

	Describe("QueryDeals", func() {
		It("returns every deal with no filter", func() {
			deals, err := w.QueryDeals(ctx, warehouse.DealFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(deals).To(HaveLen(7))
		})

		It("filters by stage", func() {
			deals, err := w.QueryDeals(ctx, warehouse.DealFilter{Stage: "commit"})
			Expect(err).NotTo(HaveOccurred())
			Expect(deals).To(HaveLen(1))
			Expect(deals[0].ID).To(Equal("deal-102"))
			Expect(deals[0].Amount).To(Equal(310000.0))
		})

		It("filters by segment and owner together", func() {
			deals, err := w.QueryDeals(ctx, warehouse.DealFilter{Segment: "enterprise", Owner: "dana"})
			Expect(err).NotTo(HaveOccurred())
			Expect(deals).To(HaveLen(2))
			for _, d := range deals {
				Expect(d.Segment).To(Equal("enterprise"))
				Expect(d.Owner).To(Equal("dana"))
			}
		})

		It("treats the close date range as inclusive", func() {
			deals, err := w.QueryDeals(ctx, warehouse.DealFilter{
				ClosingAfter:  "2026-02-28",
				ClosingBefore: "2026-03-31",
			})
			Expect(err).NotTo(HaveOccurred())

			ids := make([]string, len(deals))
			for i, d := range deals {
				ids[i] = d.ID
			}
			Expect(ids).To(ConsistOf("deal-101", "deal-102", "deal-103"))
		})

		It("filters by minimum amount", func() {
			deals, err := w.QueryDeals(ctx, warehouse.DealFilter{MinAmount: 100000})
			Expect(err).NotTo(HaveOccurred())
			Expect(deals).To(HaveLen(2))
			for _, d := range deals {
				Expect(d.Amount).To(BeNumerically(">=", 100000))
			}
		})

		It("applies the limit", func() {
			deals, err := w.QueryDeals(ctx, warehouse.DealFilter{Limit: 3})
			Expect(err).NotTo(HaveOccurred())
			Expect(deals).To(HaveLen(3))
		})
	})

	Describe("QueryAccounts", func() {
		It("filters by segment", func() {
			accounts, err := w.QueryAccounts(ctx, warehouse.AccountFilter{Segment: "midmarket"})
			Expect(err).NotTo(HaveOccurred())
			Expect(accounts).To(HaveLen(2))
		})

		It("filters by minimum ARR", func() {
			accounts, err := w.QueryAccounts(ctx, warehouse.AccountFilter{MinARR: 300000})
			Expect(err).NotTo(HaveOccurred())
			Expect(accounts).To(HaveLen(2))
			for _, a := range accounts {
				Expect(a.ARR).To(BeNumerically(">=", 300000))
			}
		})

		It("filters by industry", func() {
			accounts, err := w.QueryAccounts(ctx, warehouse.AccountFilter{Industry: "Technology"})
			Expect(err).NotTo(HaveOccurred())
			Expect(accounts).To(HaveLen(2))
		})
	})

	Describe("QueryContacts", func() {
		It("filters by account", func() {
			contacts, err := w.QueryContacts(ctx, warehouse.ContactFilter{AccountID: "acct-002"})
			Expect(err).NotTo(HaveOccurred())
			Expect(contacts).To(HaveLen(1))
			Expect(contacts[0].Name).To(Equal("Tom Becker"))
		})
	})

	Describe("SearchConversations", func() {
		It("matches body text and builds an excerpt around the hit", func() {
			matches, err := w.SearchConversations(ctx, warehouse.ConversationQuery{Text: "competitor"})
			Expect(err).NotTo(HaveOccurred())
			Expect(matches).To(HaveLen(1))
			Expect(matches[0].ID).To(Equal("conv-302"))
			Expect(matches[0].Excerpt).To(ContainSubstring("competitor"))
		})

		It("matches subject text", func() {
			matches, err := w.SearchConversations(ctx, warehouse.ConversationQuery{Text: "renewal"})
			Expect(err).NotTo(HaveOccurred())
			Expect(len(matches)).To(BeNumerically(">=", 2))
		})

		It("scopes the search to an account", func() {
			matches, err := w.SearchConversations(ctx, warehouse.ConversationQuery{
				Text:      "renewal",
				AccountID: "acct-002",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(matches).To(HaveLen(1))
			Expect(matches[0].AccountID).To(Equal("acct-002"))
		})

		It("applies the since filter", func() {
			matches, err := w.SearchConversations(ctx, warehouse.ConversationQuery{
				Text:  "pilot",
				Since: "2026-02-19",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(matches).To(HaveLen(1))
			Expect(matches[0].ID).To(Equal("conv-304"))
		})

		It("returns nothing for unmatched text", func() {
			matches, err := w.SearchConversations(ctx, warehouse.ConversationQuery{Text: "zeppelin"})
			Expect(err).NotTo(HaveOccurred())
			Expect(matches).To(BeEmpty())
		})

		It("keeps excerpts valid UTF-8 when the window lands inside a rune", func() {
			snow := strings.Repeat("☃", 300)
			insertConversation(dbPath, "conv-901", "acct-001", "Notes", snow+" quarterly sync "+snow, "2026-02-25")
			insertConversation(dbPath, "conv-902", "acct-001", "Forecast alignment", "x"+strings.Repeat("☃", 100), "2026-02-26")

			matches, err := w.SearchConversations(ctx, warehouse.ConversationQuery{Text: "quarterly sync"})
			Expect(err).NotTo(HaveOccurred())
			Expect(matches).To(HaveLen(1))
			Expect(utf8.ValidString(matches[0].Excerpt)).To(BeTrue())
			Expect(matches[0].Excerpt).To(ContainSubstring("quarterly sync"))

			matches, err = w.SearchConversations(ctx, warehouse.ConversationQuery{Text: "alignment"})
			Expect(err).NotTo(HaveOccurred())
			Expect(matches).To(HaveLen(1))
			Expect(utf8.ValidString(matches[0].Excerpt)).To(BeTrue())
		})
	})

	Describe("Seed", func() {
		It("is idempotent", func() {
			Expect(w.Seed()).To(Succeed())

			deals, err := w.QueryDeals(ctx, warehouse.DealFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(deals).To(HaveLen(7))
		})
	})
})

// insertConversation writes a row directly so specs can exercise bodies the
// demo dataset does not cover. The sqlite3 driver is registered by the
// warehouse package import.
func insertConversation(dbPath, id, accountID, subject, body, occurredAt string) {
	GinkgoHelper()

	db, err := sql.Open("sqlite3", dbPath)
	Expect(err).NotTo(HaveOccurred())
	defer db.Close()

	_, err = db.Exec(
		"INSERT INTO conversations (id, account_id, subject, body, occurred_at) VALUES (?, ?, ?, ?, ?)",
		id, accountID, subject, body, occurredAt,
	)
	Expect(err).NotTo(HaveOccurred())
}
