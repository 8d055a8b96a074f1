package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cast"
)

// DecodeObject parses a completion as a JSON object. Models sometimes wrap the
// object in prose or code fences, so the outermost {...} span is tried next.
func DecodeObject(raw string) (map[string]interface{}, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty response", ErrInvalidShape)
	}

	var obj map[string]interface{}
	err := json.Unmarshal([]byte(raw), &obj)
	if err == nil && obj != nil {
		return obj, nil
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		if jerr := json.Unmarshal([]byte(raw[start:end+1]), &obj); jerr == nil && obj != nil {
			return obj, nil
		}
	}

	if err == nil {
		err = fmt.Errorf("not an object")
	}
	return nil, fmt.Errorf("%w: %v", ErrInvalidShape, err)
}

// number coerces JSON numbers and numeric strings; anything else is missing
func number(v interface{}) (float64, bool) {
	switch v.(type) {
	case float64, string, json.Number:
	default:
		return 0, false
	}

	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// text returns a non-empty string field or def
func text(obj map[string]interface{}, key, def string) string {
	switch v := obj[key].(type) {
	case string:
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	case float64, bool:
		return cast.ToString(v)
	}
	return def
}

// stringList coerces an array field into strings, dropping empty elements.
// ok is false when the field is absent or not an array.
func stringList(obj map[string]interface{}, key string) ([]string, bool) {
	arr, ok := obj[key].([]interface{})
	if !ok {
		return nil, false
	}

	out := make([]string, 0, len(arr))
	for _, item := range arr {
		s := strings.TrimSpace(cast.ToString(item))
		if s != "" {
			out = append(out, s)
		}
	}
	return out, true
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
