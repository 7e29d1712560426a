package game

import "strings"

// Payload is the decoded "data" object of a move message. JSON numbers
// arrive as float64 and booleans as bool; the accessors normalize the
// usual conversions.
type Payload map[string]any

func (p Payload) String(key string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return ""
}

// TrimmedString returns the value with surrounding whitespace removed.
func (p Payload) TrimmedString(key string) string {
	return strings.TrimSpace(p.String(key))
}

func (p Payload) Bool(key string) bool {
	v, ok := p[key].(bool)
	return ok && v
}

// BoolOr returns def when the key is absent or not a boolean.
func (p Payload) BoolOr(key string, def bool) bool {
	if v, ok := p[key].(bool); ok {
		return v
	}
	return def
}

func (p Payload) Float(key string) (float64, bool) {
	v, ok := p[key].(float64)
	return v, ok
}

// Has reports key presence regardless of value, including explicit null.
func (p Payload) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// IsNull reports a present key holding JSON null.
func (p Payload) IsNull(key string) bool {
	v, ok := p[key]
	return ok && v == nil
}
