package datatools

import (
	"context"
	"encoding/json"
	"fmt"

	"scout/warehouse"
)

// QueryDealsTool looks up deal records with optional filters
type QueryDealsTool struct {
	Warehouse warehouse.Warehouse
}

func (t *QueryDealsTool) ToolName() string {
	return "query_deals"
}

func (t *QueryDealsTool) ToolDescription() string {
	return "Query deal (opportunity) records. Filter by stage, segment, owner, account, minimum amount, or close date range. Returns deal id, name, stage, amount, close date, owner, and segment."
}

func (t *QueryDealsTool) ToolPayloadSchema() Schema {
	return Schema{
		Type: TypeObject,
		Properties: PropertyMap{
			"stage":          {Type: TypeString, Description: "Filter by stage: discovery, proposal, negotiation, commit, closed_won, closed_lost"},
			"segment":        {Type: TypeString, Description: "Filter by segment: enterprise, midmarket, smb"},
			"owner":          {Type: TypeString, Description: "Filter by deal owner username"},
			"account_id":     {Type: TypeString, Description: "Filter by account id"},
			"min_amount":     {Type: TypeNumber, Description: "Only deals at or above this amount"},
			"closing_after":  {Type: TypeString, Description: "Only deals closing on or after this date (YYYY-MM-DD)"},
			"closing_before": {Type: TypeString, Description: "Only deals closing on or before this date (YYYY-MM-DD)"},
			"limit":          {Type: TypeInteger, Description: "Max records to return (default 100)"},
		},
	}
}

func (t *QueryDealsTool) Call(ctx context.Context, params string) (string, error) {
	var p struct {
		Stage         string  `json:"stage"`
		Segment       string  `json:"segment"`
		Owner         string  `json:"owner"`
		AccountID     string  `json:"account_id"`
		MinAmount     float64 `json:"min_amount"`
		ClosingAfter  string  `json:"closing_after"`
		ClosingBefore string  `json:"closing_before"`
		Limit         int     `json:"limit"`
	}
	if err := json.Unmarshal([]byte(params), &p); err != nil {
		return "", fmt.Errorf("invalid query_deals params: %w", err)
	}

	deals, err := t.Warehouse.QueryDeals(ctx, warehouse.DealFilter{
		Stage:         p.Stage,
		Segment:       p.Segment,
		Owner:         p.Owner,
		AccountID:     p.AccountID,
		MinAmount:     p.MinAmount,
		ClosingAfter:  p.ClosingAfter,
		ClosingBefore: p.ClosingBefore,
		Limit:         p.Limit,
	})
	if err != nil {
		return "", err
	}

	if deals == nil {
		deals = []warehouse.Deal{}
	}
	result, err := json.Marshal(map[string]any{
		"deals": deals,
		"count": len(deals),
	})
	if err != nil {
		return "", fmt.Errorf("marshal deals result: %w", err)
	}
	return string(result), nil
}
