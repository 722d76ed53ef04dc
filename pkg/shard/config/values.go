package config

import "time"

// Values wraps a decoded YAML/JSON document for typed extraction.
// All accessors return the default if the key is missing or the value has
// the wrong type.
type Values struct {
	data map[string]any
}

// NewValues wraps data. A nil map behaves as empty.
func NewValues(data map[string]any) Values {
	if data == nil {
		data = make(map[string]any)
	}
	return Values{data: data}
}

// String returns the string at key, or defaultVal.
func (v Values) String(key, defaultVal string) string {
	if s, ok := v.data[key].(string); ok {
		return s
	}
	return defaultVal
}

// Bool returns the bool at key, or defaultVal.
func (v Values) Bool(key string, defaultVal bool) bool {
	if b, ok := v.data[key].(bool); ok {
		return b
	}
	return defaultVal
}

// Int returns the integer at key, or defaultVal.
//
// Accepts int, int64, uint64 (YAML) and whole float64 values (JSON).
func (v Values) Int(key string, defaultVal int) int {
	switch val := v.data[key].(type) {
	case int:
		return val
	case int64:
		return int(val)
	case uint64:
		return int(val)
	case float64:
		if val == float64(int(val)) {
			return int(val)
		}
	}
	return defaultVal
}

// Uint64 returns the non-negative integer at key, or defaultVal.
func (v Values) Uint64(key string, defaultVal uint64) uint64 {
	switch val := v.data[key].(type) {
	case uint64:
		return val
	case int:
		if val >= 0 {
			return uint64(val)
		}
	case int64:
		if val >= 0 {
			return uint64(val)
		}
	case float64:
		if val >= 0 && val == float64(uint64(val)) {
			return uint64(val)
		}
	}
	return defaultVal
}

// Duration returns the duration at key, or defaultVal.
//
// Accepts:
//   - string: parsed with time.ParseDuration
//   - int, int64, float64: interpreted as seconds
func (v Values) Duration(key string, defaultVal time.Duration) time.Duration {
	switch val := v.data[key].(type) {
	case string:
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	case int:
		return time.Duration(val) * time.Second
	case int64:
		return time.Duration(val) * time.Second
	case float64:
		return time.Duration(val * float64(time.Second))
	}
	return defaultVal
}

// Sub returns the nested document at key, or empty Values.
func (v Values) Sub(key string) Values {
	if m, ok := v.data[key].(map[string]any); ok {
		return NewValues(m)
	}
	return NewValues(nil)
}

// Has reports whether key is present.
func (v Values) Has(key string) bool {
	_, ok := v.data[key]
	return ok
}
