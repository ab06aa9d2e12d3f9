package table

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind discriminates the value union. Every cell in a table is exactly one
// of these kinds; there is no duck typing anywhere downstream.
type Kind int

// Value kinds.
const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindTime
)

// NoData is the sentinel string a null grouping value normalizes to before
// comparison, filtering, and coloring. It is part of the wire format: node
// values and tooltip entries use it, never a raw null.
const NoData = "No Data"

// Value is a tagged union of the cell types a table can hold.
// The zero Value is null.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	t    time.Time
}

// Null returns the null value.
func Null() Value { return Value{} }

// String creates a string value. Empty strings stay strings; they are only
// dropped later by tooltip summarization.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number creates a numeric value. NaN is treated as null, matching the
// null-normalization rule for grouping.
func Number(f float64) Value {
	if math.IsNaN(f) {
		return Value{}
	}
	return Value{kind: KindNumber, num: f}
}

// Bool creates a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Time creates a timestamp value. The zero time is treated as null.
func Time(t time.Time) Value {
	if t.IsZero() {
		return Value{}
	}
	return Value{kind: KindTime, t: t}
}

// Kind returns the value's kind tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// String renders the value for grouping, labels, and tooltips.
// Null renders as the NoData sentinel.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindTime:
		return v.t.Format(time.RFC3339)
	default:
		return NoData
	}
}

// Number returns the numeric interpretation of the value and whether one
// exists. Strings are parsed; anything non-numeric coerces to 0 with ok
// false, which is exactly the contribution a sum aggregation gives it.
func (v Value) Number() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindBool:
		if v.b {
			return 1, true
		}
		return 0, true
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Time returns the timestamp and whether the value holds one.
func (v Value) Time() (time.Time, bool) {
	if v.kind != KindTime {
		return time.Time{}, false
	}
	return v.t, true
}

// JSON converts the value to its JSON-safe representation: ISO-8601 strings
// for times, float64 for numbers, nil for null. This is the single exhaustive
// mapping used by the serializer and the raw-row export.
func (v Value) JSON() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	case KindTime:
		return v.t.Format(time.RFC3339)
	default:
		return nil
	}
}

// Parse interprets a raw cell string as the most specific kind it matches:
// empty → null, numeric → number, boolean → bool, date → time, else string.
// The literal markers "nan", "NaN", "None", and "NaT" normalize to null.
func Parse(s string) Value {
	trimmed := strings.TrimSpace(s)
	switch trimmed {
	case "", "nan", "NaN", "None", "NaT", "null":
		return Null()
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return Number(f)
	}
	if b, err := strconv.ParseBool(trimmed); err == nil {
		return Bool(b)
	}
	if t, ok := parseDate(trimmed); ok {
		return Time(t)
	}
	return String(s)
}

// FromJSON reverses [Value.JSON]: it rebuilds a Value from a decoded JSON
// scalar. Strings go through [Parse] so ISO timestamps come back typed.
func FromJSON(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null()
	case float64:
		return Number(x)
	case bool:
		return Bool(x)
	case string:
		return Parse(x)
	default:
		return Null()
	}
}

// dateLayouts are the formats accepted for date cells, most specific first.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
	"01-02-2006",
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
