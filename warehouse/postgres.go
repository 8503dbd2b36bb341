package warehouse

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresWarehouse backs the data tools with an existing Postgres database.
// The schema is expected to be provisioned by the data pipeline; Scout only
// reads from it.
type PostgresWarehouse struct {
	pool *pgxpool.Pool
}

// NewPostgresWarehouse connects to the warehouse at the given DSN
func NewPostgresWarehouse(ctx context.Context, dsn string) (*PostgresWarehouse, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to warehouse: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping warehouse: %w", err)
	}
	return &PostgresWarehouse{pool: pool}, nil
}

func (w *PostgresWarehouse) Close() error {
	w.pool.Close()
	return nil
}

// condBuilder accumulates WHERE conditions with positional placeholders
type condBuilder struct {
	conds []string
	args  []any
}

func (b *condBuilder) add(expr string, arg any) {
	b.conds = append(b.conds, fmt.Sprintf(expr, len(b.args)+1))
	b.args = append(b.args, arg)
}

func (b *condBuilder) where() string {
	if len(b.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.conds, " AND ")
}

func (w *PostgresWarehouse) QueryDeals(ctx context.Context, f DealFilter) ([]Deal, error) {
	b := &condBuilder{}
	if f.Stage != "" {
		b.add("stage = $%d", f.Stage)
	}
	if f.Segment != "" {
		b.add("segment = $%d", f.Segment)
	}
	if f.Owner != "" {
		b.add("owner = $%d", f.Owner)
	}
	if f.AccountID != "" {
		b.add("account_id = $%d", f.AccountID)
	}
	if f.MinAmount > 0 {
		b.add("amount >= $%d", f.MinAmount)
	}
	if f.ClosingAfter != "" {
		b.add("close_date >= $%d", f.ClosingAfter)
	}
	if f.ClosingBefore != "" {
		b.add("close_date <= $%d", f.ClosingBefore)
	}

	query := "SELECT id, name, account_id, stage, amount, close_date, owner, segment FROM deals" +
		b.where() + fmt.Sprintf(" ORDER BY close_date, id LIMIT $%d", len(b.args)+1)
	args := append(b.args, effectiveLimit(f.Limit))

	rows, err := w.pool.Query(ctx, query, args...)
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

func (w *PostgresWarehouse) QueryAccounts(ctx context.Context, f AccountFilter) ([]Account, error) {
	b := &condBuilder{}
	if f.Segment != "" {
		b.add("segment = $%d", f.Segment)
	}
	if f.Industry != "" {
		b.add("industry = $%d", f.Industry)
	}
	if f.Owner != "" {
		b.add("owner = $%d", f.Owner)
	}
	if f.MinARR > 0 {
		b.add("arr >= $%d", f.MinARR)
	}

	query := "SELECT id, name, industry, segment, arr, owner FROM accounts" +
		b.where() + fmt.Sprintf(" ORDER BY name LIMIT $%d", len(b.args)+1)
	args := append(b.args, effectiveLimit(f.Limit))

	rows, err := w.pool.Query(ctx, query, args...)
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

func (w *PostgresWarehouse) QueryContacts(ctx context.Context, f ContactFilter) ([]Contact, error) {
	b := &condBuilder{}
	if f.AccountID != "" {
		b.add("account_id = $%d", f.AccountID)
	}
	if f.Title != "" {
		b.add("title ILIKE $%d", "%"+f.Title+"%")
	}

	query := "SELECT id, name, title, account_id, email FROM contacts" +
		b.where() + fmt.Sprintf(" ORDER BY name LIMIT $%d", len(b.args)+1)
	args := append(b.args, effectiveLimit(f.Limit))

	rows, err := w.pool.Query(ctx, query, args...)
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

func (w *PostgresWarehouse) SearchConversations(ctx context.Context, q ConversationQuery) ([]ConversationMatch, error) {
	b := &condBuilder{}
	if q.Text != "" {
		pattern := "%" + q.Text + "%"
		b.conds = append(b.conds, fmt.Sprintf("(body ILIKE $%d OR subject ILIKE $%d)", len(b.args)+1, len(b.args)+2))
		b.args = append(b.args, pattern, pattern)
	}
	if q.AccountID != "" {
		b.add("account_id = $%d", q.AccountID)
	}
	if q.Since != "" {
		b.add("occurred_at >= $%d", q.Since)
	}

	query := "SELECT id, account_id, subject, body, occurred_at FROM conversations" +
		b.where() + fmt.Sprintf(" ORDER BY occurred_at DESC LIMIT $%d", len(b.args)+1)
	args := append(b.args, effectiveLimit(q.Limit))

	rows, err := w.pool.Query(ctx, query, args...)
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
