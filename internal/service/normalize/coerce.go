package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ToInt coerces a provider value into a non-negative integer. Strings and
// numbers are parsed as floats and truncated, so "1234.0" yields 1234.
// Anything unparseable yields nil.
func ToInt(value any) *int64 {
	var f float64
	switch v := value.(type) {
	case nil:
		return nil
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case int32:
		f = float64(v)
	case json.Number:
		parsed, err := strconv.ParseFloat(v.String(), 64)
		if err != nil {
			return nil
		}
		f = parsed
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return nil
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f >= math.MaxInt64 {
		return nil
	}
	n := int64(f)
	return &n
}

// ToBool coerces native booleans, numbers (non-zero is true) and the string
// tokens "true", "1" and "yes" (any case). Everything else, including nil, is false.
func ToBool(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case float32:
		return v != 0
	case int:
		return v != 0
	case int64:
		return v != 0
	case int32:
		return v != 0
	case json.Number:
		f, err := strconv.ParseFloat(v.String(), 64)
		return err == nil && f != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes":
			return true
		}
	}
	return false
}

// ToString returns a trimmed, non-empty string form of scalar values.
func ToString(value any) (string, bool) {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case json.Number:
		s = v.String()
	case float64, int, int64:
		s = fmt.Sprint(v)
	default:
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}
