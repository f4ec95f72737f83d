// Package normalize renders raw cell values as canonical feature strings.
//
// Numeric values are parsed into an exact decimal and rendered without
// exponent notation: integer-valued numbers get no fractional digits and
// other numbers lose their insignificant trailing zeros. Anything that does
// not parse as a decimal is passed through in its plain string form.
package normalize

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// NoneString is the plain form of a nil cell.
const NoneString = "None"

// Limits on the canonical rendering. Numbers that would need more digits
// keep their plain form.
const (
	MaxSignificantDigits = 28
	maxExponent          = 1000
)

// Normalize returns the canonical string form of v. It never fails.
func Normalize(v any) string {
	d, ok := toDecimal(v)
	if !ok {
		return Plain(v)
	}
	// Bounding the exponent first keeps IsInteger and the rendering cheap.
	if exp := d.Exponent(); exp > maxExponent || exp < -maxExponent {
		return Plain(v)
	}
	var s string
	if d.IsInteger() {
		s = d.StringFixed(0)
	} else {
		s = d.String()
	}
	if significantDigits(s) > MaxSignificantDigits {
		return Plain(v)
	}
	return s
}

// significantDigits counts the digits of a plain decimal rendering, leading
// zeros excluded.
func significantDigits(s string) int {
	n := 0
	for _, r := range s {
		switch {
		case r == '0' && n == 0:
		case r >= '0' && r <= '9':
			n++
		}
	}
	return n
}

// Plain returns the plain string form of v without numeric canonicalization.
func Plain(v any) string {
	switch x := v.(type) {
	case nil:
		return NoneString
	case string:
		return x
	case []byte:
		return string(x)
	case float64:
		return formatFloat(x, 64)
	case float32:
		return formatFloat(float64(x), 32)
	case bool:
		return strconv.FormatBool(x)
	case decimal.Decimal:
		return x.String()
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// IsNumeric reports whether v parses as an exact decimal.
func IsNumeric(v any) bool {
	_, ok := toDecimal(v)
	return ok
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case nil, bool:
		return decimal.Decimal{}, false
	case int:
		return decimal.NewFromInt(int64(x)), true
	case int8:
		return decimal.NewFromInt(int64(x)), true
	case int16:
		return decimal.NewFromInt(int64(x)), true
	case int32:
		return decimal.NewFromInt(int64(x)), true
	case int64:
		return decimal.NewFromInt(x), true
	case uint8:
		return decimal.NewFromInt(int64(x)), true
	case uint16:
		return decimal.NewFromInt(int64(x)), true
	case uint32:
		return decimal.NewFromInt(int64(x)), true
	case uint, uint64:
		return parseDecimal(fmt.Sprint(x))
	case float32:
		if isSpecial(float64(x)) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat32(x), true
	case float64:
		if isSpecial(x) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat(x), true
	case decimal.Decimal:
		return x, true
	default:
		return parseDecimal(Plain(v))
	}
}

// parseDecimal accepts surrounding whitespace but rejects the special
// tokens (inf, nan) that strconv would otherwise understand.
func parseDecimal(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

func isSpecial(f float64) bool {
	return math.IsNaN(f) || math.IsInf(f, 0)
}

func formatFloat(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'g', -1, bits)
}
