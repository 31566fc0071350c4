// -----------------------------------------------------------------------
// RawPayload - loosely typed workflow service reply with tolerant accessors
// -----------------------------------------------------------------------

package models

import "strconv"

// RawPayload is a workflow service reply before adaptation. Field presence
// and types are never guaranteed; accessors tolerate JSON's number/string
// looseness and report presence separately from value.
type RawPayload map[string]interface{}

// String retrieves a string value. Numeric values are rendered, since the
// upstream service is inconsistent about quoting ids.
func (p RawPayload) String(key string) (string, bool) {
	val, ok := p[key]
	if !ok || val == nil {
		return "", false
	}
	switch v := val.(type) {
	case string:
		return v, v != ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	default:
		return "", false
	}
}

// Int retrieves an int value, accepting float64 (JSON numbers) and numeric
// strings.
func (p RawPayload) Int(key string) (int, bool) {
	val, ok := p[key]
	if !ok || val == nil {
		return 0, false
	}
	switch v := val.(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n, true
		}
		return 0, false
	default:
		return 0, false
	}
}

// Bool retrieves a bool value.
func (p RawPayload) Bool(key string) (bool, bool) {
	val, ok := p[key]
	if !ok || val == nil {
		return false, false
	}
	b, ok := val.(bool)
	return b, ok
}

// Float retrieves a float64 value.
func (p RawPayload) Float(key string) (float64, bool) {
	val, ok := p[key]
	if !ok || val == nil {
		return 0, false
	}
	switch v := val.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

// Map retrieves a nested object.
func (p RawPayload) Map(key string) (RawPayload, bool) {
	val, ok := p[key]
	if !ok || val == nil {
		return nil, false
	}
	m, ok := val.(map[string]interface{})
	if !ok {
		return nil, false
	}
	return RawPayload(m), true
}

// Slice retrieves a list of nested objects, skipping entries that are not
// objects.
func (p RawPayload) Slice(key string) ([]RawPayload, bool) {
	val, ok := p[key]
	if !ok || val == nil {
		return nil, false
	}
	items, ok := val.([]interface{})
	if !ok {
		return nil, false
	}
	result := make([]RawPayload, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]interface{}); ok {
			result = append(result, RawPayload(m))
		}
	}
	return result, true
}

// StringSlice retrieves a list of strings, accepting []interface{} from
// JSON unmarshaling and skipping non-string entries.
func (p RawPayload) StringSlice(key string) ([]string, bool) {
	val, ok := p[key]
	if !ok || val == nil {
		return nil, false
	}
	switch v := val.(type) {
	case []string:
		return v, true
	case []interface{}:
		result := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				result = append(result, s)
			}
		}
		return result, true
	default:
		return nil, false
	}
}
