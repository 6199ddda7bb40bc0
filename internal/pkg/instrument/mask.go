package instrument

import (
	"encoding/json"
	"strings"
)

const masked = "***"

// MaskKeys normalizes a field list into a lookup set. Matching is case-insensitive.
func MaskKeys(fields []string) map[string]struct{} {
	keys := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" {
			keys[f] = struct{}{}
		}
	}
	return keys
}

// Mask walks decoded JSON and replaces the value of every matching key.
func Mask(v any, keys map[string]struct{}) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			if _, hit := keys[strings.ToLower(k)]; hit {
				out[k] = masked
				continue
			}
			out[k] = Mask(inner, keys)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = Mask(inner, keys)
		}
		return out
	default:
		return v
	}
}

// MaskJSON masks a JSON object or array payload. ok is false when payload is
// not JSON, in which case the caller keeps the original.
func MaskJSON(payload []byte, keys map[string]struct{}) (string, bool) {
	if len(payload) == 0 || (payload[0] != '{' && payload[0] != '[') {
		return "", false
	}

	var body any
	if err := json.Unmarshal(payload, &body); err != nil {
		return "", false
	}

	out, err := json.Marshal(Mask(body, keys))
	if err != nil {
		return "", false
	}

	return string(out), true
}
