package engine

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// rowsToJSON drains a result set into a JSON array of objects keyed by column
// name, returning the encoded array and the row count.
func rowsToJSON(rows *sql.Rows) ([]byte, int, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, 0, fmt.Errorf("columns: %w", err)
	}

	out := make([]map[string]any, 0, 16)
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, 0, fmt.Errorf("scan: %w", err)
		}
		record := make(map[string]any, len(cols))
		for i, col := range cols {
			record[col] = normalizeValue(values[i])
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	encoded, err := json.Marshal(out)
	if err != nil {
		return nil, 0, fmt.Errorf("encode rows: %w", err)
	}
	return encoded, len(out), nil
}

// normalizeValue converts driver values into JSON-friendly types. Byte slices
// hold either UTF-8 text or a JSON document (geometry projected via
// ST_AsGeoJSON); both serialize as produced.
func normalizeValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case []byte:
		if json.Valid(t) {
			return json.RawMessage(t)
		}
		return string(t)
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	default:
		return v
	}
}
