package store

import (
	"fmt"
	"strings"
)

// CoerceMetadata validates metadata for insertion. The store only accepts
// scalar values: strings, booleans, and numbers pass through; lists are
// flattened to comma-joined strings; anything else is rejected. This is part
// of the insert contract, not a best-effort cleanup.
func CoerceMetadata(metadata map[string]any) (map[string]any, error) {
	if metadata == nil {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(metadata))
	for k, v := range metadata {
		switch val := v.(type) {
		case nil:
			continue
		case string, bool,
			int, int8, int16, int32, int64,
			uint, uint8, uint16, uint32, uint64,
			float32, float64:
			out[k] = val
		case []string:
			out[k] = strings.Join(val, ",")
		case []any:
			parts := make([]string, len(val))
			for i, item := range val {
				switch s := item.(type) {
				case string:
					parts[i] = s
				case bool, int, int64, float32, float64:
					parts[i] = fmt.Sprint(s)
				default:
					return nil, fmt.Errorf("metadata field %q: list element %d is not scalar", k, i)
				}
			}
			out[k] = strings.Join(parts, ",")
		default:
			return nil, fmt.Errorf("metadata field %q: unsupported value type %T", k, v)
		}
	}
	return out, nil
}
