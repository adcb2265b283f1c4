package webhook

import (
	"fmt"
	"strconv"
)

// Extract returns the value of the first key in keys present on obj with a
// non-nil, non-empty-string value, or def when no candidate matches. Pure:
// absent and malformed input falls through to the default, never an error.
func Extract(obj map[string]any, keys []string, def any) any {
	for _, k := range keys {
		v, ok := obj[k]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && s == "" {
			continue
		}
		return v
	}
	return def
}

// ExtractString is Extract with the result coerced to a string. JSON numbers
// and booleans are rendered without the float64 scientific notation that
// fmt's %v would produce for large values.
func ExtractString(obj map[string]any, keys []string, def string) string {
	v := Extract(obj, keys, nil)
	if v == nil {
		return def
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
