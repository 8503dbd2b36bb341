package datatools

import (
	"context"
	"encoding/json"
	"fmt"

	"scout/warehouse"
)

// QueryAccountsTool looks up account records with optional filters
type QueryAccountsTool struct {
	Warehouse warehouse.Warehouse
}

func (t *QueryAccountsTool) ToolName() string {
	return "query_accounts"
}

func (t *QueryAccountsTool) ToolDescription() string {
	return "Query account (customer/prospect) records. Filter by segment, industry, owner, or minimum ARR. Returns account id, name, industry, segment, ARR, and owner."
}

func (t *QueryAccountsTool) ToolPayloadSchema() Schema {
	return Schema{
		Type: TypeObject,
		Properties: PropertyMap{
			"segment":  {Type: TypeString, Description: "Filter by segment: enterprise, midmarket, smb"},
			"industry": {Type: TypeString, Description: "Filter by industry name"},
			"owner":    {Type: TypeString, Description: "Filter by account owner username"},
			"min_arr":  {Type: TypeNumber, Description: "Only accounts at or above this annual recurring revenue"},
			"limit":    {Type: TypeInteger, Description: "Max records to return (default 100)"},
		},
	}
}

func (t *QueryAccountsTool) Call(ctx context.Context, params string) (string, error) {
	var p struct {
		Segment  string  `json:"segment"`
		Industry string  `json:"industry"`
		Owner    string  `json:"owner"`
		MinARR   float64 `json:"min_arr"`
		Limit    int     `json:"limit"`
	}
	if err := json.Unmarshal([]byte(params), &p); err != nil {
		return "", fmt.Errorf("invalid query_accounts params: %w", err)
	}

	accounts, err := t.Warehouse.QueryAccounts(ctx, warehouse.AccountFilter{
		Segment:  p.Segment,
		Industry: p.Industry,
		Owner:    p.Owner,
		MinARR:   p.MinARR,
		Limit:    p.Limit,
	})
	if err != nil {
		return "", err
	}

	if accounts == nil {
		accounts = []warehouse.Account{}
	}
	result, err := json.Marshal(map[string]any{
		"accounts": accounts,
		"count":    len(accounts),
	})
	if err != nil {
		return "", fmt.Errorf("marshal accounts result: %w", err)
	}
	return string(result), nil
}

// QueryContactsTool looks up contact records for accounts
type QueryContactsTool struct {
	Warehouse warehouse.Warehouse
}

func (t *QueryContactsTool) ToolName() string {
	return "query_contacts"
}

func (t *QueryContactsTool) ToolDescription() string {
	return "Query contact (person) records. Filter by account id or title substring. Returns contact id, name, title, account id, and email."
}

func (t *QueryContactsTool) ToolPayloadSchema() Schema {
	return Schema{
		Type: TypeObject,
		Properties: PropertyMap{
			"account_id": {Type: TypeString, Description: "Filter by account id"},
			"title":      {Type: TypeString, Description: "Filter by job title substring, e.g. 'VP' or 'CIO'"},
			"limit":      {Type: TypeInteger, Description: "Max records to return (default 100)"},
		},
	}
}

func (t *QueryContactsTool) Call(ctx context.Context, params string) (string, error) {
	var p struct {
		AccountID string `json:"account_id"`
		Title     string `json:"title"`
		Limit     int    `json:"limit"`
	}
	if err := json.Unmarshal([]byte(params), &p); err != nil {
		return "", fmt.Errorf("invalid query_contacts params: %w", err)
	}

	contacts, err := t.Warehouse.QueryContacts(ctx, warehouse.ContactFilter{
		AccountID: p.AccountID,
		Title:     p.Title,
		Limit:     p.Limit,
	})
	if err != nil {
		return "", err
	}

	if contacts == nil {
		contacts = []warehouse.Contact{}
	}
	result, err := json.Marshal(map[string]any{
		"contacts": contacts,
		"count":    len(contacts),
	})
	if err != nil {
		return "", fmt.Errorf("marshal contacts result: %w", err)
	}
	return string(result), nil
}
