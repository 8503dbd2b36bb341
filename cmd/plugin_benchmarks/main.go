package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"scout/datatools"
	"scout/plugin"
)

// tools holds the metadata for each tool provided by this plugin
var tools = map[string]*plugin.ToolInfo{
	"industry_benchmark": {
		Name:        "industry_benchmark",
		Description: "Returns typical win rate and average deal size benchmarks for an industry",
		Schema: datatools.Schema{
			Type: datatools.TypeObject,
			Properties: datatools.PropertyMap{
				"industry": {
					Type:        datatools.TypeString,
					Description: "Industry to look up, e.g. 'software' or 'manufacturing'",
				},
			},
			Required: []string{"industry"},
		},
	},
	"fiscal_calendar": {
		Name:        "fiscal_calendar",
		Description: "Returns the fiscal quarter and its start and end dates for a given date",
		Schema: datatools.Schema{
			Type: datatools.TypeObject,
			Properties: datatools.PropertyMap{
				"date": {
					Type:        datatools.TypeString,
					Description: "Date in YYYY-MM-DD format (defaults to today)",
				},
			},
		},
	},
}

type benchmark struct {
	WinRate     float64 `json:"win_rate"`
	AvgDealSize float64 `json:"avg_deal_size"`
	CycleDays   int     `json:"avg_cycle_days"`
}

var benchmarks = map[string]benchmark{
	"software":      {WinRate: 0.22, AvgDealSize: 42000, CycleDays: 84},
	"manufacturing": {WinRate: 0.27, AvgDealSize: 68000, CycleDays: 120},
	"healthcare":    {WinRate: 0.19, AvgDealSize: 95000, CycleDays: 150},
	"retail":        {WinRate: 0.31, AvgDealSize: 18000, CycleDays: 45},
	"finance":       {WinRate: 0.17, AvgDealSize: 110000, CycleDays: 160},
}

// BenchmarksPlugin implements the ToolProvider interface
type BenchmarksPlugin struct{}

// Configure applies settings (no-op for this plugin)
func (p *BenchmarksPlugin) Configure(settings map[string]string) error {
	return nil
}

func (p *BenchmarksPlugin) Call(toolName string, payload string) (string, error) {
	switch toolName {
	case "industry_benchmark":
		return industryBenchmark(payload)
	case "fiscal_calendar":
		return fiscalCalendar(payload)
	default:
		return "", fmt.Errorf("unknown tool: %s", toolName)
	}
}

func industryBenchmark(payload string) (string, error) {
	var params struct {
		Industry string `json:"industry"`
	}
	if err := json.Unmarshal([]byte(payload), &params); err != nil {
		return "", fmt.Errorf("invalid payload: %w", err)
	}

	b, ok := benchmarks[strings.ToLower(strings.TrimSpace(params.Industry))]
	if !ok {
		known := make([]string, 0, len(benchmarks))
		for name := range benchmarks {
			known = append(known, name)
		}
		return "", fmt.Errorf("no benchmark data for industry '%s' (known: %s)", params.Industry, strings.Join(known, ", "))
	}

	out, err := json.Marshal(map[string]any{
		"industry":  strings.ToLower(params.Industry),
		"benchmark": b,
	})
	return string(out), err
}

func fiscalCalendar(payload string) (string, error) {
	var params struct {
		Date string `json:"date"`
	}
	if err := json.Unmarshal([]byte(payload), &params); err != nil {
		return "", fmt.Errorf("invalid payload: %w", err)
	}

	day := time.Now()
	if params.Date != "" {
		parsed, err := time.Parse("2006-01-02", params.Date)
		if err != nil {
			return "", fmt.Errorf("invalid date '%s': expected YYYY-MM-DD", params.Date)
		}
		day = parsed
	}

	quarter := (int(day.Month())-1)/3 + 1
	start := time.Date(day.Year(), time.Month((quarter-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 3, -1)

	out, err := json.Marshal(map[string]any{
		"quarter":       fmt.Sprintf("Q%d", quarter),
		"year":          day.Year(),
		"quarter_start": start.Format("2006-01-02"),
		"quarter_end":   end.Format("2006-01-02"),
	})
	return string(out), err
}

func (p *BenchmarksPlugin) GetToolInfo(toolName string) (*plugin.ToolInfo, error) {
	info, ok := tools[toolName]
	if !ok {
		return nil, fmt.Errorf("unknown tool: %s", toolName)
	}
	return info, nil
}

func (p *BenchmarksPlugin) ListTools() ([]*plugin.ToolInfo, error) {
	result := make([]*plugin.ToolInfo, 0, len(tools))
	for _, info := range tools {
		result = append(result, info)
	}
	return result, nil
}

func main() {
	plugin.Serve(&BenchmarksPlugin{})
}
