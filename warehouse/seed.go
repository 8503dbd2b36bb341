package warehouse

import "fmt"

// Seed populates a SQLite warehouse with a small demo dataset so the CLI can
// be exercised without a real data pipeline. Existing rows are replaced.
func (w *SQLiteWarehouse) Seed() error {
	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"conversations", "contacts", "deals", "accounts"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	accounts := []Account{
		{ID: "acct-001", Name: "Northwind Logistics", Industry: "Transportation", Segment: "enterprise", ARR: 420000, Owner: "dana"},
		{ID: "acct-002", Name: "Cascade Medical", Industry: "Healthcare", Segment: "enterprise", ARR: 310000, Owner: "marcus"},
		{ID: "acct-003", Name: "Bluepeak Software", Industry: "Technology", Segment: "midmarket", ARR: 96000, Owner: "dana"},
		{ID: "acct-004", Name: "Harvest & Co", Industry: "Retail", Segment: "midmarket", ARR: 72000, Owner: "priya"},
		{ID: "acct-005", Name: "Lumen Analytics", Industry: "Technology", Segment: "smb", ARR: 18000, Owner: "priya"},
	}
	for _, a := range accounts {
		if _, err := tx.Exec(
			"INSERT INTO accounts (id, name, industry, segment, arr, owner) VALUES (?, ?, ?, ?, ?, ?)",
			a.ID, a.Name, a.Industry, a.Segment, a.ARR, a.Owner,
		); err != nil {
			return fmt.Errorf("seed account %s: %w", a.ID, err)
		}
	}

	deals := []Deal{
		{ID: "deal-101", Name: "Northwind expansion", AccountID: "acct-001", Stage: "negotiation", Amount: 180000, CloseDate: "2026-03-20", Owner: "dana", Segment: "enterprise"},
		{ID: "deal-102", Name: "Cascade renewal", AccountID: "acct-002", Stage: "commit", Amount: 310000, CloseDate: "2026-02-28", Owner: "marcus", Segment: "enterprise"},
		{ID: "deal-103", Name: "Bluepeak platform", AccountID: "acct-003", Stage: "proposal", Amount: 64000, CloseDate: "2026-03-31", Owner: "dana", Segment: "midmarket"},
		{ID: "deal-104", Name: "Harvest pilot", AccountID: "acct-004", Stage: "discovery", Amount: 28000, CloseDate: "2026-05-15", Owner: "priya", Segment: "midmarket"},
		{ID: "deal-105", Name: "Lumen starter", AccountID: "acct-005", Stage: "closed_won", Amount: 18000, CloseDate: "2026-01-12", Owner: "priya", Segment: "smb"},
		{ID: "deal-106", Name: "Cascade imaging add-on", AccountID: "acct-002", Stage: "proposal", Amount: 95000, CloseDate: "2026-04-10", Owner: "marcus", Segment: "enterprise"},
		{ID: "deal-107", Name: "Northwind fleet module", AccountID: "acct-001", Stage: "closed_lost", Amount: 75000, CloseDate: "2026-01-30", Owner: "dana", Segment: "enterprise"},
	}
	for _, d := range deals {
		if _, err := tx.Exec(
			"INSERT INTO deals (id, name, account_id, stage, amount, close_date, owner, segment) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			d.ID, d.Name, d.AccountID, d.Stage, d.Amount, d.CloseDate, d.Owner, d.Segment,
		); err != nil {
			return fmt.Errorf("seed deal %s: %w", d.ID, err)
		}
	}

	contacts := []Contact{
		{ID: "cont-201", Name: "Elena Ruiz", Title: "VP Operations", AccountID: "acct-001", Email: "elena@northwind.example"},
		{ID: "cont-202", Name: "Tom Becker", Title: "CIO", AccountID: "acct-002", Email: "tbecker@cascade.example"},
		{ID: "cont-203", Name: "Ava Chen", Title: "Head of Data", AccountID: "acct-003", Email: "ava@bluepeak.example"},
		{ID: "cont-204", Name: "Sam Ortiz", Title: "COO", AccountID: "acct-004", Email: "sam@harvest.example"},
	}
	for _, c := range contacts {
		if _, err := tx.Exec(
			"INSERT INTO contacts (id, name, title, account_id, email) VALUES (?, ?, ?, ?, ?)",
			c.ID, c.Name, c.Title, c.AccountID, c.Email,
		); err != nil {
			return fmt.Errorf("seed contact %s: %w", c.ID, err)
		}
	}

	conversations := []struct {
		id, accountID, subject, body, occurredAt string
	}{
		{"conv-301", "acct-001", "Q1 renewal timing", "Elena confirmed the expansion budget is approved but wants the close pushed to late March to align with their fiscal calendar. Pricing for the fleet module came up again.", "2026-02-10"},
		{"conv-302", "acct-002", "Renewal risk check-in", "Tom flagged that the imaging team is evaluating a competitor. Renewal itself is safe, but the add-on deal needs an executive sponsor before April.", "2026-02-14"},
		{"conv-303", "acct-003", "Platform migration scope", "Ava asked for a revised proposal covering the analytics migration. Budget holds at roughly 60k; decision expected by end of March.", "2026-02-18"},
		{"conv-304", "acct-004", "Pilot kickoff notes", "Sam agreed to a six-week pilot starting in April. Success criteria: inventory forecast accuracy and weekly adoption by the ops team.", "2026-02-20"},
	}
	for _, c := range conversations {
		if _, err := tx.Exec(
			"INSERT INTO conversations (id, account_id, subject, body, occurred_at) VALUES (?, ?, ?, ?, ?)",
			c.id, c.accountID, c.subject, c.body, c.occurredAt,
		); err != nil {
			return fmt.Errorf("seed conversation %s: %w", c.id, err)
		}
	}

	return tx.Commit()
}
