package warehouse

import (
	"context"
	"unicode/utf8"
)

// Deal is one opportunity record
type Deal struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	AccountID string  `json:"account_id"`
	Stage     string  `json:"stage"`
	Amount    float64 `json:"amount"`
	CloseDate string  `json:"close_date"`
	Owner     string  `json:"owner"`
	Segment   string  `json:"segment"`
}

// Account is one customer or prospect record
type Account struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Industry string  `json:"industry"`
	Segment  string  `json:"segment"`
	ARR      float64 `json:"arr"`
	Owner    string  `json:"owner"`
}

// Contact is one person record tied to an account
type Contact struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Title     string `json:"title"`
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
}

// ConversationMatch is one conversation hit from a text search.
// Excerpt is a window around the first match, not the full body.
type ConversationMatch struct {
	ID         string `json:"id"`
	AccountID  string `json:"account_id"`
	Subject    string `json:"subject"`
	Excerpt    string `json:"excerpt"`
	OccurredAt string `json:"occurred_at"`
}

// DealFilter narrows a deal query. Zero values mean "no constraint".
type DealFilter struct {
	Stage         string
	Segment       string
	Owner         string
	AccountID     string
	MinAmount     float64
	ClosingAfter  string // inclusive, YYYY-MM-DD
	ClosingBefore string // inclusive, YYYY-MM-DD
	Limit         int
}

// AccountFilter narrows an account query
type AccountFilter struct {
	Segment  string
	Industry string
	Owner    string
	MinARR   float64
	Limit    int
}

// ContactFilter narrows a contact query
type ContactFilter struct {
	AccountID string
	Title     string
	Limit     int
}

// ConversationQuery is a free-text search over conversation bodies and subjects
type ConversationQuery struct {
	Text      string
	AccountID string
	Since     string // YYYY-MM-DD
	Limit     int
}

// Warehouse is the read-only data surface the built-in tools query.
// Implementations must be safe for concurrent use.
type Warehouse interface {
	QueryDeals(ctx context.Context, f DealFilter) ([]Deal, error)
	QueryAccounts(ctx context.Context, f AccountFilter) ([]Account, error)
	QueryContacts(ctx context.Context, f ContactFilter) ([]Contact, error)
	SearchConversations(ctx context.Context, q ConversationQuery) ([]ConversationMatch, error)
	Close() error
}

const defaultQueryLimit = 100

func effectiveLimit(limit int) int {
	if limit <= 0 || limit > defaultQueryLimit {
		return defaultQueryLimit
	}
	return limit
}

const excerptWindow = 240

// buildExcerpt returns a window of the body around the first occurrence of
// the matched text, or the body prefix when the match was on the subject.
func buildExcerpt(body, matched string, index int) string {
	if index < 0 {
		if len(body) > excerptWindow {
			return body[:runeFloor(body, excerptWindow)]
		}
		return body
	}

	start := runeFloor(body, index-excerptWindow/2)
	end := runeFloor(body, index+len(matched)+excerptWindow/2)
	return body[start:end]
}

// runeFloor clamps a byte offset into body and walks it back onto a rune
// boundary so slicing never splits a multi-byte character.
func runeFloor(body string, n int) int {
	if n < 0 {
		return 0
	}
	if n >= len(body) {
		return len(body)
	}
	for n > 0 && !utf8.RuneStart(body[n]) {
		n--
	}
	return n
}
