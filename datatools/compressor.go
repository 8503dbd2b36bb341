package datatools

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// CompressorConfig bounds how much of a tool result survives into the transcript
type CompressorConfig struct {
	ByteThreshold int // Uncataloged results larger than this are capped (default: 8KB)
	PreviewLength int // Chars kept in the capped preview (default: 500)
	MaxRecords    int // Max records kept by list projections (default: 25)
	ExcerptLength int // Chars kept per conversation excerpt (default: 200)
}

// DefaultCompressorConfig returns the default configuration
func DefaultCompressorConfig() CompressorConfig {
	return CompressorConfig{
		ByteThreshold: 8192,
		PreviewLength: 500,
		MaxRecords:    25,
		ExcerptLength: 200,
	}
}

// Projection shrinks one tool's raw result to the fields needed for citation
// and reasoning. Returning ok=false falls through to the generic cap.
type Projection func(raw string) (compact string, ok bool)

// Compressor applies per-tool-name projections to raw tool results, with a
// size-capped generic fallback for any tool without a registered projection.
// Compress never fails: unparsable input degrades to the generic cap.
type Compressor struct {
	config      CompressorConfig
	projections map[string]Projection
}

// NewCompressor creates a compressor with the built-in tool projections registered
func NewCompressor(config CompressorConfig) *Compressor {
	c := &Compressor{
		config:      config,
		projections: make(map[string]Projection),
	}

	c.Register("query_deals", c.recordListProjection("deals", []string{"stage", "amount", "close_date", "owner", "segment", "account_id"}))
	c.Register("query_accounts", c.recordListProjection("accounts", []string{"industry", "segment", "arr", "owner"}))
	c.Register("query_contacts", c.recordListProjection("contacts", []string{"title", "account_id", "email"}))
	c.Register("search_conversations", c.conversationProjection)
	c.Register("compute_metric", c.metricProjection)
	c.Register("pipeline_forecast", c.metricProjection)

	return c
}

// Register adds or replaces the projection for a tool name
func (c *Compressor) Register(toolName string, p Projection) {
	c.projections[toolName] = p
}

// Compress shrinks a raw tool result to its compact transcript form
func (c *Compressor) Compress(toolName, result string) string {
	if p, ok := c.projections[toolName]; ok {
		if compact, ok := p(result); ok {
			return compact
		}
	}
	return c.genericCap(result)
}

// genericCap keeps small results whole and replaces oversized ones with a
// truncation marker carrying a fixed-length preview.
func (c *Compressor) genericCap(result string) string {
	if len(result) <= c.config.ByteThreshold {
		return result
	}

	preview := truncateAtRune(result, c.config.PreviewLength)
	capped, _ := json.Marshal(map[string]any{
		"truncated":     true,
		"original_size": len(result),
		"preview":       preview,
	})
	return string(capped)
}

// recordListProjection keeps id, name and the given headline fields for each
// record under field, capped at MaxRecords entries.
func (c *Compressor) recordListProjection(field string, headline []string) Projection {
	return func(raw string) (string, bool) {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal([]byte(raw), &obj); err != nil {
			return "", false
		}

		var records []map[string]any
		if err := json.Unmarshal(obj[field], &records); err != nil {
			return "", false
		}

		total := len(records)
		if total > c.config.MaxRecords {
			records = records[:c.config.MaxRecords]
		}

		compacted := make([]map[string]any, 0, len(records))
		for _, rec := range records {
			compacted = append(compacted, projectRecord(rec, headline))
		}

		out := map[string]any{field: compacted, "count": total}
		if total > len(compacted) {
			out["shown"] = len(compacted)
		}
		b, err := json.Marshal(out)
		if err != nil {
			return "", false
		}
		return string(b), true
	}
}

// conversationProjection keeps the match count plus truncated excerpts
func (c *Compressor) conversationProjection(raw string) (string, bool) {
	var result struct {
		Conversations []map[string]any `json:"conversations"`
		MatchCount    int              `json:"match_count"`
	}
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return "", false
	}

	convs := result.Conversations
	if len(convs) > c.config.MaxRecords {
		convs = convs[:c.config.MaxRecords]
	}

	compacted := make([]map[string]any, 0, len(convs))
	for _, conv := range convs {
		rec := projectRecord(conv, []string{"account_id", "subject", "occurred_at"})
		if excerpt, ok := conv["excerpt"].(string); ok {
			if len(excerpt) > c.config.ExcerptLength {
				excerpt = truncateAtRune(excerpt, c.config.ExcerptLength) + "..."
			}
			rec["excerpt"] = excerpt
		}
		compacted = append(compacted, rec)
	}

	b, err := json.Marshal(map[string]any{
		"conversations": compacted,
		"match_count":   result.MatchCount,
	})
	if err != nil {
		return "", false
	}
	return string(b), true
}

// metricProjection keeps the computed values whole but trims the underlying
// records down to id, name and amount so the math stays citable.
func (c *Compressor) metricProjection(raw string) (string, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return "", false
	}

	out := make(map[string]any, len(obj))
	for key, val := range obj {
		if key == "records" {
			continue
		}
		var v any
		if err := json.Unmarshal(val, &v); err != nil {
			return "", false
		}
		out[key] = v
	}

	if rawRecords, ok := obj["records"]; ok {
		var records []map[string]any
		if err := json.Unmarshal(rawRecords, &records); err == nil {
			total := len(records)
			if total > c.config.MaxRecords {
				records = records[:c.config.MaxRecords]
			}
			compacted := make([]map[string]any, 0, len(records))
			for _, rec := range records {
				compacted = append(compacted, projectRecord(rec, []string{"amount", "stage", "type"}))
			}
			out["records"] = compacted
			out["record_count"] = total
		}
	}

	b, err := json.Marshal(out)
	if err != nil {
		return "", false
	}
	return string(b), true
}

// truncateAtRune shortens s to at most n bytes without splitting a rune
func truncateAtRune(s string, n int) string {
	if n < 0 {
		n = 0
	}
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// projectRecord copies id, name and the requested headline fields
func projectRecord(rec map[string]any, headline []string) map[string]any {
	out := make(map[string]any, len(headline)+2)
	for _, key := range []string{"id", "name"} {
		if v, ok := rec[key]; ok {
			out[key] = v
		}
	}
	for _, key := range headline {
		if v, ok := rec[key]; ok {
			out[key] = v
		}
	}
	return out
}

// ErrorPayload wraps a failed tool call's message for the transcript
func ErrorPayload(err error) string {
	b, merr := json.Marshal(map[string]string{"error": err.Error()})
	if merr != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(b)
}
