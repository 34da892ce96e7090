package core

import (
	"fmt"
	"strconv"
)

// Conversions from provider config maps, which hold ints when built in Go and
// float64 values when decoded from JSON.

// configString reads a string entry of a provider config map.
func configString(m map[string]interface{}, key, def string) (string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string, got %T", ErrInvalidConfig, key, v)
	}
	if s == "" {
		return def, nil
	}
	return s, nil
}

// configInt reads an integer entry of a provider config map.
func configInt(m map[string]interface{}, key string, def int) (int, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("%w: %s must be an integer, got %v", ErrInvalidConfig, key, n)
		}
		return int(n), nil
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, fmt.Errorf("%w: %s must be an integer, got %q", ErrInvalidConfig, key, n)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("%w: %s must be an integer, got %T", ErrInvalidConfig, key, v)
	}
}

// configReader accumulates the first conversion error over several reads.
type configReader struct {
	m   map[string]interface{}
	err error
}

func (r *configReader) str(key, def string) string {
	s, err := configString(r.m, key, def)
	if err != nil && r.err == nil {
		r.err = err
	}
	return s
}

func (r *configReader) int(key string, def int) int {
	n, err := configInt(r.m, key, def)
	if err != nil && r.err == nil {
		r.err = err
	}
	return n
}
