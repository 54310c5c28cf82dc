package ai

import (
	"encoding/json"
	"strings"
)

// CleanFences strips Markdown code fences and surrounding prose the model
// sometimes wraps around its JSON output, keeping only the region from the
// first '[' to the last ']'.
func CleanFences(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "["); start != -1 {
		if end := strings.LastIndex(s, "]"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}

// ExtractJSONArray pulls a JSON array of objects out of a model response.
// Malformed or missing JSON yields an empty slice, never an error: an
// unusable response is treated the same as an empty one.
func ExtractJSONArray(raw string) []map[string]any {
	clean := CleanFences(raw)
	if !strings.HasPrefix(clean, "[") {
		return nil
	}

	var parsed []any
	if err := json.Unmarshal([]byte(clean), &parsed); err != nil {
		return nil
	}

	items := make([]map[string]any, 0, len(parsed))
	for _, v := range parsed {
		if obj, ok := v.(map[string]any); ok {
			items = append(items, obj)
		}
	}
	return items
}

// StringValue returns a trimmed string field from a decoded JSON object, or
// "" when absent or of the wrong type.
func StringValue(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// NumberValue returns a numeric field from a decoded JSON object.
func NumberValue(m map[string]any, key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// StringSliceValue returns a field that may be a string or an array of
// strings as a slice, matching how models vary their output shape.
func StringSliceValue(m map[string]any, key string) []string {
	switch v := m[key].(type) {
	case string:
		if s := strings.TrimSpace(v); s != "" {
			return []string{s}
		}
		return nil
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	default:
		return nil
	}
}
