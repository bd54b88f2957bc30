package order

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is a single nullable cell. A non-null Value always keeps the raw text
// it was read from; when that text parses as a finite number the parsed
// float is kept alongside it.
//
// The zero Value is null.
type Value struct {
	raw   string
	num   float64
	isNum bool
	valid bool
}

// Null returns the null Value.
func Null() Value { return Value{} }

// Text returns a non-null Value holding s verbatim, without numeric coercion.
func Text(s string) Value { return Value{raw: s, valid: true} }

// Number returns a numeric Value whose raw text is the shortest
// representation of f.
func Number(f float64) Value {
	return Value{raw: strconv.FormatFloat(f, 'f', -1, 64), num: f, isNum: true, valid: true}
}

// Parse builds a Value from a raw cell. Empty text is null. Text that parses
// as a finite float is numeric; anything else is kept as a string.
func Parse(s string) Value {
	if s == "" {
		return Value{}
	}
	v := Value{raw: s, valid: true}
	if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		v.num = f
		v.isNum = true
	}
	return v
}

// FromAny converts a parsed record cell (nil or string, occasionally an
// already coerced type) into a Value.
func FromAny(x any) Value {
	switch t := x.(type) {
	case nil:
		return Value{}
	case string:
		return Parse(t)
	case Value:
		return t
	case float64:
		return Number(t)
	case int:
		return Number(float64(t))
	default:
		return Text(fmt.Sprint(t))
	}
}

func (v Value) IsNull() bool    { return !v.valid }
func (v Value) IsNumeric() bool { return v.valid && v.isNum }

// Raw returns the original text, or "" for null.
func (v Value) Raw() string { return v.raw }

// String implements fmt.Stringer; null renders as "".
func (v Value) String() string { return v.raw }

// Float returns the numeric content of v.
func (v Value) Float() (float64, bool) {
	if !v.IsNumeric() {
		return 0, false
	}
	return v.num, true
}

// Code returns the canonical lookup key for v: integral numbers lose any
// fractional zeros ("21.0" -> "21"), everything else is the trimmed raw text.
func (v Value) Code() string {
	if !v.valid {
		return ""
	}
	if v.isNum && v.num == math.Trunc(v.num) && math.Abs(v.num) < 1e15 {
		return strconv.FormatInt(int64(v.num), 10)
	}
	return strings.TrimSpace(v.raw)
}

// Equal reports whether two values hold the same raw text and nullness.
func (v Value) Equal(o Value) bool {
	return v.valid == o.valid && v.raw == o.raw
}
