package datatools

import (
	"context"
	"encoding/json"
	"fmt"

	"scout/warehouse"
)

// SearchConversationsTool runs free-text search over logged conversations
type SearchConversationsTool struct {
	Warehouse warehouse.Warehouse
}

func (t *SearchConversationsTool) ToolName() string {
	return "search_conversations"
}

func (t *SearchConversationsTool) ToolDescription() string {
	return "Search logged customer conversations (calls, emails, meeting notes) by free text. Optionally scope to an account or a start date. Returns matching conversations with excerpts around the match."
}

func (t *SearchConversationsTool) ToolPayloadSchema() Schema {
	return Schema{
		Type: TypeObject,
		Properties: PropertyMap{
			"text":       {Type: TypeString, Description: "Text to search for in conversation bodies and subjects"},
			"account_id": {Type: TypeString, Description: "Limit the search to one account"},
			"since":      {Type: TypeString, Description: "Only conversations on or after this date (YYYY-MM-DD)"},
			"limit":      {Type: TypeInteger, Description: "Max matches to return (default 100)"},
		},
		Required: []string{"text"},
	}
}

func (t *SearchConversationsTool) Call(ctx context.Context, params string) (string, error) {
	var p struct {
		Text      string `json:"text"`
		AccountID string `json:"account_id"`
		Since     string `json:"since"`
		Limit     int    `json:"limit"`
	}
	if err := json.Unmarshal([]byte(params), &p); err != nil {
		return "", fmt.Errorf("invalid search_conversations params: %w", err)
	}
	if p.Text == "" {
		return "", fmt.Errorf("search_conversations requires 'text'")
	}

	matches, err := t.Warehouse.SearchConversations(ctx, warehouse.ConversationQuery{
		Text:      p.Text,
		AccountID: p.AccountID,
		Since:     p.Since,
		Limit:     p.Limit,
	})
	if err != nil {
		return "", err
	}

	if matches == nil {
		matches = []warehouse.ConversationMatch{}
	}
	result, err := json.Marshal(map[string]any{
		"conversations": matches,
		"match_count":   len(matches),
	})
	if err != nil {
		return "", fmt.Errorf("marshal conversations result: %w", err)
	}
	return string(result), nil
}
