package search

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	apperrors "todo-service.com/todo-service/internal/errors"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Coerce converts a loosely typed criteria value into the Go type of f.
func Coerce(value any, f Field) (any, error) {
	out, err := coerce(value, f)
	if err != nil {
		return nil, apperrors.InvalidSearchCriteria("Failed to convert value: %v to type %s", value, f.Type)
	}
	return out, nil
}

func coerce(value any, f Field) (any, error) {
	if value == nil {
		return nil, fmt.Errorf("nil value")
	}

	switch f.Type {
	case TypeString:
		return scalarString(value)

	case TypeEnum:
		s, err := scalarString(value)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(f.Enum, s) {
			return nil, fmt.Errorf("%q is not one of %v", s, f.Enum)
		}
		return s, nil

	case TypeInt:
		n, err := toInt(value, 32)
		if err != nil {
			return nil, err
		}
		return int32(n), nil

	case TypeLong:
		return toInt(value, 64)

	case TypeDouble:
		return toFloat(value, 64)

	case TypeFloat:
		f, err := toFloat(value, 32)
		if err != nil {
			return nil, err
		}
		return float32(f), nil

	case TypeTime:
		return toTime(value)
	}

	return nil, fmt.Errorf("unsupported field type %d", f.Type)
}

func scalarString(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool, int, int32, int64, float32:
		return fmt.Sprint(v), nil
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano), nil
	}
	return "", fmt.Errorf("value of type %T is not a scalar", value)
}

func toInt(value any, bits int) (int64, error) {
	switch v := value.(type) {
	case int:
		return checkIntRange(int64(v), bits)
	case int32:
		return int64(v), nil
	case int64:
		return checkIntRange(v, bits)
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) || math.IsNaN(v) {
			return 0, fmt.Errorf("%v is not integral", v)
		}
		if v < math.MinInt64 || v >= math.MaxInt64 {
			return 0, fmt.Errorf("%v out of range", v)
		}
		return checkIntRange(int64(v), bits)
	case json.Number:
		return strconv.ParseInt(v.String(), 10, bits)
	case string:
		return strconv.ParseInt(strings.TrimSpace(v), 10, bits)
	}
	return 0, fmt.Errorf("cannot convert %T to integer", value)
}

func checkIntRange(n int64, bits int) (int64, error) {
	if bits == 32 && (n < math.MinInt32 || n > math.MaxInt32) {
		return 0, fmt.Errorf("%d out of int32 range", n)
	}
	return n, nil
}

func toFloat(value any, bits int) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return strconv.ParseFloat(v.String(), bits)
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), bits)
	}
	return 0, fmt.Errorf("cannot convert %T to float", value)
}

func toTime(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v.UTC(), nil
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognised timestamp %q", v)
	}
	return time.Time{}, fmt.Errorf("cannot convert %T to timestamp", value)
}
