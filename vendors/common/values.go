package common

import (
	"math"
	"strconv"
	"strings"
)

// InvalidReading is the magic value C-Data and V-SOL report for offline
// ONUs or attributes that could not be read.
const InvalidReading int64 = 2147483647

// Int64Value extracts an int64 from the numeric types a parsed walk may hold.
// Numeric strings are accepted; uint64 values above MaxInt64 are rejected.
func Int64Value(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		if uint64(v) > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		if v > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case float64:
		return int64(v), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

// Float64Value extracts a float64 from numeric walk values.
func Float64Value(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		n, ok := Int64Value(value)
		return float64(n), ok
	}
}

// StringValue extracts a string from string or []byte values.
func StringValue(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	default:
		return "", false
	}
}

// IsValidReading reports whether value is a real reading.
func IsValidReading(value int64) bool {
	return value != InvalidReading
}
