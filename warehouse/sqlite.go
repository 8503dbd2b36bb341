package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    industry TEXT,
    segment TEXT,
    arr REAL DEFAULT 0,
    owner TEXT
);

CREATE TABLE IF NOT EXISTS deals (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    account_id TEXT REFERENCES accounts(id),
    stage TEXT,
    amount REAL DEFAULT 0,
    close_date TEXT,
    owner TEXT,
    segment TEXT
);
CREATE INDEX IF NOT EXISTS idx_deals_stage ON deals(stage);
CREATE INDEX IF NOT EXISTS idx_deals_close_date ON deals(close_date);

CREATE TABLE IF NOT EXISTS contacts (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    title TEXT,
    account_id TEXT REFERENCES accounts(id),
    email TEXT
);

CREATE TABLE IF NOT EXISTS conversations (
    id TEXT PRIMARY KEY,
    account_id TEXT REFERENCES accounts(id),
    subject TEXT,
    body TEXT,
    occurred_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_conversations_account ON conversations(account_id);
`

// SQLiteWarehouse backs the data tools with a local SQLite file
type SQLiteWarehouse struct {
	db *sql.DB
}

// NewSQLiteWarehouse opens (and if needed initializes) a SQLite warehouse
func NewSQLiteWarehouse(path string) (*SQLiteWarehouse, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open warehouse db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize warehouse schema: %w", err)
	}

	return &SQLiteWarehouse{db: db}, nil
}

func (w *SQLiteWarehouse) Close() error {
	return w.db.Close()
}

func (w *SQLiteWarehouse) QueryDeals(ctx context.Context, f DealFilter) ([]Deal, error) {
	query := "SELECT id, name, account_id, stage, amount, close_date, owner, segment FROM deals"
	var conds []string
	var args []any

	if f.Stage != "" {
		conds = append(conds, "stage = ?")
		args = append(args, f.Stage)
	}
	if f.Segment != "" {
		conds = append(conds, "segment = ?")
		args = append(args, f.Segment)
	}
	if f.Owner != "" {
		conds = append(conds, "owner = ?")
		args = append(args, f.Owner)
	}
	if f.AccountID != "" {
		conds = append(conds, "account_id = ?")
		args = append(args, f.AccountID)
	}
	if f.MinAmount > 0 {
		conds = append(conds, "amount >= ?")
		args = append(args, f.MinAmount)
	}
	if f.ClosingAfter != "" {
		conds = append(conds, "close_date >= ?")
		args = append(args, f.ClosingAfter)
	}
	if f.ClosingBefore != "" {
		conds = append(conds, "close_date <= ?")
		args = append(args, f.ClosingBefore)
	}

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY close_date, id LIMIT ?"
	args = append(args, effectiveLimit(f.Limit))

	rows, err := w.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query deals: %w", err)
	}
	defer rows.Close()

	var deals []Deal
	for rows.Next() {
		var d Deal
		if err := rows.Scan(&d.ID, &d.Name, &d.AccountID, &d.Stage, &d.Amount, &d.CloseDate, &d.Owner, &d.Segment); err != nil {
			return nil, fmt.Errorf("scan deal: %w", err)
		}
		deals = append(deals, d)
	}
	return deals, rows.Err()
}

func (w *SQLiteWarehouse) QueryAccounts(ctx context.Context, f AccountFilter) ([]Account, error) {
	query := "SELECT id, name, industry, segment, arr, owner FROM accounts"
	var conds []string
	var args []any

	if f.Segment != "" {
		conds = append(conds, "segment = ?")
		args = append(args, f.Segment)
	}
	if f.Industry != "" {
		conds = append(conds, "industry = ?")
		args = append(args, f.Industry)
	}
	if f.Owner != "" {
		conds = append(conds, "owner = ?")
		args = append(args, f.Owner)
	}
	if f.MinARR > 0 {
		conds = append(conds, "arr >= ?")
		args = append(args, f.MinARR)
	}

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY name LIMIT ?"
	args = append(args, effectiveLimit(f.Limit))

	rows, err := w.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Industry, &a.Segment, &a.ARR, &a.Owner); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (w *SQLiteWarehouse) QueryContacts(ctx context.Context, f ContactFilter) ([]Contact, error) {
	query := "SELECT id, name, title, account_id, email FROM contacts"
	var conds []string
	var args []any

	if f.AccountID != "" {
		conds = append(conds, "account_id = ?")
		args = append(args, f.AccountID)
	}
	if f.Title != "" {
		conds = append(conds, "title LIKE ?")
		args = append(args, "%"+f.Title+"%")
	}

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY name LIMIT ?"
	args = append(args, effectiveLimit(f.Limit))

	rows, err := w.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query contacts: %w", err)
	}
	defer rows.Close()

	var contacts []Contact
	for rows.Next() {
		var c Contact
		if err := rows.Scan(&c.ID, &c.Name, &c.Title, &c.AccountID, &c.Email); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

func (w *SQLiteWarehouse) SearchConversations(ctx context.Context, q ConversationQuery) ([]ConversationMatch, error) {
	query := "SELECT id, account_id, subject, body, occurred_at FROM conversations"
	var conds []string
	var args []any

	if q.Text != "" {
		conds = append(conds, "(body LIKE ? OR subject LIKE ?)")
		pattern := "%" + q.Text + "%"
		args = append(args, pattern, pattern)
	}
	if q.AccountID != "" {
		conds = append(conds, "account_id = ?")
		args = append(args, q.AccountID)
	}
	if q.Since != "" {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, q.Since)
	}

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY occurred_at DESC LIMIT ?"
	args = append(args, effectiveLimit(q.Limit))

	rows, err := w.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search conversations: %w", err)
	}
	defer rows.Close()

	var matches []ConversationMatch
	for rows.Next() {
		var m ConversationMatch
		var body string
		if err := rows.Scan(&m.ID, &m.AccountID, &m.Subject, &body, &m.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		idx := -1
		if q.Text != "" {
			idx = strings.Index(strings.ToLower(body), strings.ToLower(q.Text))
		}
		m.Excerpt = buildExcerpt(body, q.Text, idx)
		matches = append(matches, m)
	}
	return matches, rows.Err()
}
