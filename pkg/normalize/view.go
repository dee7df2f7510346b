package normalize

import (
	"math"
	"strconv"
	"strings"
)

// payloadView is a schema-agnostic key/value view over a decoded JSON
// payload. Extraction rules are ordered lists of field paths evaluated
// against it; the first path that resolves wins.
type payloadView map[string]interface{}

type fieldPath []string

func (v payloadView) lookup(path fieldPath) (interface{}, bool) {
	var cur interface{} = map[string]interface{}(v)
	for _, key := range path {
		obj, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// stringField returns the first non-empty string value among the given
// paths.
func (v payloadView) stringField(paths []fieldPath) (string, bool) {
	for _, p := range paths {
		raw, ok := v.lookup(p)
		if !ok {
			continue
		}
		if s, ok := raw.(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

// numberField returns the first value among the given paths that can
// be coerced to a finite float64. String values are parsed, including
// the legacy "/Date(1323784607213)/" envelope some upstream revisions
// use for timestamps.
func (v payloadView) numberField(paths []fieldPath) (float64, bool) {
	for _, p := range paths {
		raw, ok := v.lookup(p)
		if !ok {
			continue
		}
		if f, ok := coerceNumber(raw); ok {
			return f, true
		}
	}
	return 0, false
}

// objectField returns the first nested object among the given paths.
func (v payloadView) objectField(paths []fieldPath) (payloadView, bool) {
	for _, p := range paths {
		raw, ok := v.lookup(p)
		if !ok {
			continue
		}
		if obj, ok := raw.(map[string]interface{}); ok {
			return payloadView(obj), true
		}
	}
	return nil, false
}

func coerceNumber(raw interface{}) (float64, bool) {
	switch n := raw.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		s := strings.TrimSpace(n)
		if strings.HasPrefix(s, "/Date(") {
			s = strings.TrimPrefix(s, "/Date(")
			s = strings.TrimSuffix(s, ")/")
			// Strip a possible timezone suffix like "+0100".
			if i := strings.IndexAny(s, "+-"); i > 0 {
				s = s[:i]
			}
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
