package queries

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultOffsetUnit is the unit of a bare relative datetime offset.
const DefaultOffsetUnit = 24 * time.Hour

// DefaultTimeFormat renders absolute timestamps for the query backend.
const DefaultTimeFormat = "2006-01-02T15:04:05.000000Z"

var offsetPattern = regexp.MustCompile(`^([+-]?\d+)\s*([A-Za-z]*)$`)

// datetimeValue is either an absolute time or an offset from resolution time.
type datetimeValue struct {
	absolute time.Time
	offset   time.Duration
	relative bool
}

func (v datetimeValue) at(now time.Time) time.Time {
	if v.relative {
		return now.Add(v.offset)
	}
	return v.absolute
}

// checkValue validates a value against a declared type without resolving it.
func checkValue(typ ParamType, value any) error {
	var err error
	switch typ {
	case ParamTypeString:
		_, err = toString(value)
	case ParamTypeInt:
		_, err = toInt(value)
	case ParamTypeDatetime:
		_, err = toDatetime(value, DefaultOffsetUnit)
	default:
		err = fmt.Errorf("unknown parameter type %q", typ)
	}
	return err
}

func toString(value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", errors.New("value is not a string")
	}
	return s, nil
}

func toInt(value any) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		return uintToInt(uint64(v))
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		return uintToInt(v)
	case float32:
		return floatToInt(float64(v))
	case float64:
		return floatToInt(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, errors.New("value is not an integer")
		}
		return n, nil
	default:
		return 0, errors.New("value is not an integer")
	}
}

func uintToInt(v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, errors.New("integer overflows int64")
	}
	return int64(v), nil
}

func floatToInt(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Trunc(f) != f {
		return 0, errors.New("value is not an integer")
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return 0, errors.New("integer overflows int64")
	}
	return int64(f), nil
}

func toDatetime(value any, unit time.Duration) (datetimeValue, error) {
	switch v := value.(type) {
	case time.Time:
		return datetimeValue{absolute: v}, nil
	case *time.Time:
		if v == nil {
			return datetimeValue{}, errors.New("nil time")
		}
		return datetimeValue{absolute: *v}, nil
	case time.Duration:
		return datetimeValue{offset: v, relative: true}, nil
	case string:
		return parseDatetimeString(v, unit)
	}

	n, err := toInt(value)
	if err != nil {
		return datetimeValue{}, errors.New("relative offset must be an integer")
	}
	offset, err := scaleOffset(n, unit)
	if err != nil {
		return datetimeValue{}, err
	}
	return datetimeValue{offset: offset, relative: true}, nil
}

func parseDatetimeString(raw string, unit time.Duration) (datetimeValue, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return datetimeValue{}, errors.New("empty datetime")
	}

	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, value); err == nil {
			return datetimeValue{absolute: ts}, nil
		}
	}

	match := offsetPattern.FindStringSubmatch(value)
	if match == nil {
		return datetimeValue{}, fmt.Errorf("cannot parse %q as a timestamp or relative offset", value)
	}
	n, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return datetimeValue{}, fmt.Errorf("invalid relative offset %q", value)
	}
	if match[2] != "" {
		suffixUnit, ok := offsetUnits[strings.ToLower(match[2])]
		if !ok {
			return datetimeValue{}, fmt.Errorf("unknown offset unit %q", match[2])
		}
		unit = suffixUnit
	}
	offset, err := scaleOffset(n, unit)
	if err != nil {
		return datetimeValue{}, err
	}
	return datetimeValue{offset: offset, relative: true}, nil
}

var offsetUnits = map[string]time.Duration{
	"s": time.Second, "sec": time.Second, "secs": time.Second, "second": time.Second, "seconds": time.Second,
	"m": time.Minute, "min": time.Minute, "mins": time.Minute, "minute": time.Minute, "minutes": time.Minute,
	"h": time.Hour, "hr": time.Hour, "hrs": time.Hour, "hour": time.Hour, "hours": time.Hour,
	"d": 24 * time.Hour, "day": 24 * time.Hour, "days": 24 * time.Hour,
	"w": 7 * 24 * time.Hour, "week": 7 * 24 * time.Hour, "weeks": 7 * 24 * time.Hour,
}

func scaleOffset(n int64, unit time.Duration) (time.Duration, error) {
	if unit <= 0 {
		return 0, errors.New("offset unit must be positive")
	}
	limit := int64(math.MaxInt64 / int64(unit))
	if n > limit || n < -limit {
		return 0, errors.New("relative offset out of range")
	}
	return time.Duration(n) * unit, nil
}

// formatValue renders a value whose placeholder has no declared parameter.
func formatValue(value any, timeFormat string) string {
	switch v := value.(type) {
	case string:
		return v
	case time.Time:
		return v.UTC().Format(timeFormat)
	}
	if n, err := toInt(value); err == nil {
		return strconv.FormatInt(n, 10)
	}
	return fmt.Sprint(value)
}
