package domain

import "encoding/json"

// UserPosition is a caller-supplied account snapshot. Keys are sparse; a
// missing key falls back to a named default when the prompt is built.
type UserPosition map[string]any

// ProtocolParams holds the protocol-wide parameters supplied alongside a
// personalized query. Same sparse-with-defaults contract as UserPosition.
type ProtocolParams map[string]any

// Float returns the numeric value stored under key, or def when the key is
// absent or not a number.
func (p UserPosition) Float(key string, def float64) float64 {
	return floatValue(p, key, def)
}

// String returns the string value stored under key, or def when absent.
func (p UserPosition) String(key, def string) string {
	return stringValue(p, key, def)
}

func (p ProtocolParams) Float(key string, def float64) float64 {
	return floatValue(p, key, def)
}

func floatValue(m map[string]any, key string, def float64) float64 {
	raw, ok := m[key]
	if !ok {
		return def
	}
	switch v := raw.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return def
		}
		return f
	default:
		return def
	}
}

func stringValue(m map[string]any, key, def string) string {
	raw, ok := m[key]
	if !ok {
		return def
	}
	s, ok := raw.(string)
	if !ok || s == "" {
		return def
	}
	return s
}
