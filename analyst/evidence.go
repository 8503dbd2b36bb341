package analyst

import "encoding/json"

// recordFields lists the recognized record-array fields on tool results and
// the cited-record type each produces, in the fixed order they are scanned so
// extraction stays deterministic. The "records" field is the underlying-math
// output of metric tools; its entries may override the type via their own
// "type" field.
var recordFields = []struct {
	field      string
	recordType string
}{
	{"deals", "deal"},
	{"accounts", "account"},
	{"conversations", "conversation"},
	{"contacts", "contact"},
	{"records", "record"},
}

// keyFieldNames are the headline fields copied into a citation's KeyFields
var keyFieldNames = []string{"stage", "amount", "close_date", "segment", "industry", "arr", "owner", "title", "subject", "occurred_at", "account_id"}

// ExtractEvidence walks every successful tool result in the trace and returns
// the deduplicated cited records. Dedup key is (type, id); the first
// occurrence wins. Records without an id are skipped - aggregate-only results
// carry no individually citable entity. The extraction is deterministic: an
// unchanged trace always yields an identical list.
func ExtractEvidence(trace []ToolCallRecord) []CitedRecord {
	var cited []CitedRecord
	seen := make(map[[2]string]bool)

	for _, entry := range trace {
		if entry.IsError {
			continue
		}

		var result map[string]json.RawMessage
		if err := json.Unmarshal([]byte(entry.Result), &result); err != nil {
			continue
		}

		for _, rf := range recordFields {
			raw, ok := result[rf.field]
			if !ok {
				continue
			}
			var records []map[string]any
			if err := json.Unmarshal(raw, &records); err != nil {
				continue
			}

			for _, rec := range records {
				id, _ := rec["id"].(string)
				if id == "" {
					continue
				}

				rtype := rf.recordType
				if t, ok := rec["type"].(string); ok && t != "" {
					rtype = t
				}

				key := [2]string{rtype, id}
				if seen[key] {
					continue
				}
				seen[key] = true

				name, _ := rec["name"].(string)
				cited = append(cited, CitedRecord{
					Type:      rtype,
					ID:        id,
					Name:      name,
					KeyFields: extractKeyFields(rec),
				})
			}
		}
	}

	return cited
}

func extractKeyFields(rec map[string]any) map[string]any {
	var fields map[string]any
	for _, key := range keyFieldNames {
		if v, ok := rec[key]; ok {
			if fields == nil {
				fields = make(map[string]any)
			}
			fields[key] = v
		}
	}
	return fields
}
