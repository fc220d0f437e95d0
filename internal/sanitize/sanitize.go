// Package sanitize whitelists and normalizes request bodies before they are
// validated.
package sanitize

import (
	"math"
	"strings"
)

// Pick copies the listed keys of body, trimming surrounding whitespace from
// strings at any depth. Keys absent from body stay absent.
func Pick(body map[string]any, keys ...string) map[string]any {
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		if v, ok := body[k]; ok {
			out[k] = Trim(v)
		}
	}
	return out
}

// Trim trims strings inside v, descending into maps and slices.
func Trim(v any) any {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = Trim(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Trim(item)
		}
		return out
	}
	return v
}

// Lower lowercases the string under key, if any.
func Lower(m map[string]any, key string) {
	if s, ok := m[key].(string); ok {
		m[key] = strings.ToLower(s)
	}
}

// Int64 converts a whole JSON number to int64. Other values are returned
// unchanged.
func Int64(v any) any {
	if f, ok := v.(float64); ok && f == math.Trunc(f) && !math.IsInf(f, 0) {
		return int64(f)
	}
	return v
}
