package datatools

import (
	"context"
	"encoding/json"
	"fmt"

	"scout/warehouse"
)

// citedDeal is the underlying-record shape metric tools emit so their math
// stays citable in the evidence trace.
type citedDeal struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Stage  string  `json:"stage"`
	Type   string  `json:"type"`
}

func citeDeals(deals []warehouse.Deal) []citedDeal {
	cited := make([]citedDeal, 0, len(deals))
	for _, d := range deals {
		cited = append(cited, citedDeal{ID: d.ID, Name: d.Name, Amount: d.Amount, Stage: d.Stage, Type: "deal"})
	}
	return cited
}

// ComputeMetricTool computes aggregate sales metrics over deal records
type ComputeMetricTool struct {
	Warehouse warehouse.Warehouse
}

func (t *ComputeMetricTool) ToolName() string {
	return "compute_metric"
}

func (t *ComputeMetricTool) ToolDescription() string {
	return "Compute an aggregate metric over deals: win_rate, pipeline_total, avg_deal_size, or open_deal_count. Filter by segment, owner, or close date range. Returns the value plus the underlying deal records used in the computation."
}

func (t *ComputeMetricTool) ToolPayloadSchema() Schema {
	return Schema{
		Type: TypeObject,
		Properties: PropertyMap{
			"metric":         {Type: TypeString, Description: "One of: win_rate, pipeline_total, avg_deal_size, open_deal_count"},
			"segment":        {Type: TypeString, Description: "Filter by segment: enterprise, midmarket, smb"},
			"owner":          {Type: TypeString, Description: "Filter by deal owner username"},
			"closing_after":  {Type: TypeString, Description: "Only deals closing on or after this date (YYYY-MM-DD)"},
			"closing_before": {Type: TypeString, Description: "Only deals closing on or before this date (YYYY-MM-DD)"},
		},
		Required: []string{"metric"},
	}
}

func (t *ComputeMetricTool) Call(ctx context.Context, params string) (string, error) {
	var p struct {
		Metric        string `json:"metric"`
		Segment       string `json:"segment"`
		Owner         string `json:"owner"`
		ClosingAfter  string `json:"closing_after"`
		ClosingBefore string `json:"closing_before"`
	}
	if err := json.Unmarshal([]byte(params), &p); err != nil {
		return "", fmt.Errorf("invalid compute_metric params: %w", err)
	}

	deals, err := t.Warehouse.QueryDeals(ctx, warehouse.DealFilter{
		Segment:       p.Segment,
		Owner:         p.Owner,
		ClosingAfter:  p.ClosingAfter,
		ClosingBefore: p.ClosingBefore,
	})
	if err != nil {
		return "", err
	}

	out := map[string]any{"metric": p.Metric}

	switch p.Metric {
	case "win_rate":
		var won, lost int
		var used []warehouse.Deal
		for _, d := range deals {
			switch d.Stage {
			case "closed_won":
				won++
				used = append(used, d)
			case "closed_lost":
				lost++
				used = append(used, d)
			}
		}
		rate := 0.0
		if won+lost > 0 {
			rate = float64(won) / float64(won+lost)
		}
		out["value"] = rate
		out["won"] = won
		out["lost"] = lost
		out["records"] = citeDeals(used)

	case "pipeline_total":
		var total float64
		var open []warehouse.Deal
		for _, d := range deals {
			if d.Stage != "closed_won" && d.Stage != "closed_lost" {
				total += d.Amount
				open = append(open, d)
			}
		}
		out["value"] = total
		out["records"] = citeDeals(open)

	case "avg_deal_size":
		var total float64
		var won []warehouse.Deal
		for _, d := range deals {
			if d.Stage == "closed_won" {
				total += d.Amount
				won = append(won, d)
			}
		}
		avg := 0.0
		if len(won) > 0 {
			avg = total / float64(len(won))
		}
		out["value"] = avg
		out["records"] = citeDeals(won)

	case "open_deal_count":
		var open []warehouse.Deal
		for _, d := range deals {
			if d.Stage != "closed_won" && d.Stage != "closed_lost" {
				open = append(open, d)
			}
		}
		out["value"] = len(open)
		out["records"] = citeDeals(open)

	default:
		return "", fmt.Errorf("unknown metric '%s'", p.Metric)
	}

	result, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("marshal metric result: %w", err)
	}
	return string(result), nil
}

// stageWeights are the probability weights applied per open stage when
// projecting pipeline.
var stageWeights = map[string]float64{
	"discovery":   0.10,
	"proposal":    0.35,
	"negotiation": 0.60,
	"commit":      0.90,
}

// PipelineForecastTool projects weighted pipeline for a closing period
type PipelineForecastTool struct {
	Warehouse warehouse.Warehouse
}

func (t *PipelineForecastTool) ToolName() string {
	return "pipeline_forecast"
}

func (t *PipelineForecastTool) ToolDescription() string {
	return "Forecast pipeline for deals closing by a given date. Returns weighted pipeline, commit total, best case, a per-stage breakdown, and the underlying deal records."
}

func (t *PipelineForecastTool) ToolPayloadSchema() Schema {
	return Schema{
		Type: TypeObject,
		Properties: PropertyMap{
			"period_end": {Type: TypeString, Description: "Include open deals closing on or before this date (YYYY-MM-DD)"},
			"segment":    {Type: TypeString, Description: "Filter by segment: enterprise, midmarket, smb"},
			"owner":      {Type: TypeString, Description: "Filter by deal owner username"},
		},
		Required: []string{"period_end"},
	}
}

func (t *PipelineForecastTool) Call(ctx context.Context, params string) (string, error) {
	var p struct {
		PeriodEnd string `json:"period_end"`
		Segment   string `json:"segment"`
		Owner     string `json:"owner"`
	}
	if err := json.Unmarshal([]byte(params), &p); err != nil {
		return "", fmt.Errorf("invalid pipeline_forecast params: %w", err)
	}
	if p.PeriodEnd == "" {
		return "", fmt.Errorf("pipeline_forecast requires 'period_end'")
	}

	deals, err := t.Warehouse.QueryDeals(ctx, warehouse.DealFilter{
		Segment:       p.Segment,
		Owner:         p.Owner,
		ClosingBefore: p.PeriodEnd,
	})
	if err != nil {
		return "", err
	}

	var weighted, commit, bestCase float64
	byStage := make(map[string]float64)
	var open []warehouse.Deal
	for _, d := range deals {
		weight, isOpen := stageWeights[d.Stage]
		if !isOpen {
			continue
		}
		open = append(open, d)
		weighted += d.Amount * weight
		bestCase += d.Amount
		byStage[d.Stage] += d.Amount
		if d.Stage == "commit" {
			commit += d.Amount
		}
	}

	result, err := json.Marshal(map[string]any{
		"period_end":        p.PeriodEnd,
		"weighted_pipeline": weighted,
		"commit":            commit,
		"best_case":         bestCase,
		"by_stage":          byStage,
		"records":           citeDeals(open),
	})
	if err != nil {
		return "", fmt.Errorf("marshal forecast result: %w", err)
	}
	return string(result), nil
}

// RegisterBuiltins registers all warehouse-backed tools on a registry
func RegisterBuiltins(r *Registry, w warehouse.Warehouse) {
	r.Register(&QueryDealsTool{Warehouse: w})
	r.Register(&QueryAccountsTool{Warehouse: w})
	r.Register(&QueryContactsTool{Warehouse: w})
	r.Register(&SearchConversationsTool{Warehouse: w})
	r.Register(&ComputeMetricTool{Warehouse: w})
	r.Register(&PipelineForecastTool{Warehouse: w})
}
