package normalize

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// Currency converts a monetary value into a decimal amount.
//
// Numbers are converted directly. Strings may carry currency symbols,
// thousands separators, parentheses or a CR suffix; any negative indicator
// forces the result negative, and multiple indicators never cancel out.
// Returns nil for missing or malformed input.
func Currency(v any) *decimal.Decimal {
	switch x := v.(type) {
	case nil:
		return nil
	case decimal.Decimal:
		return canonical(x)
	case *decimal.Decimal:
		if x == nil {
			return nil
		}
		return canonical(*x)
	case bool:
		return nil
	case float64:
		return fromFloat(x)
	case float32:
		return fromFloat(float64(x))
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		n, err := cast.ToInt64E(x)
		if err != nil {
			return nil
		}
		return canonical(decimal.NewFromInt(n))
	}

	s, ok := text(v)
	if !ok {
		return nil
	}
	return parseCurrency(s)
}

func fromFloat(f float64) *decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return canonical(decimal.NewFromFloat(f))
}

// canonical rebuilds d from its shortest string form so equal amounts share
// one representation regardless of how they were parsed.
func canonical(d decimal.Decimal) *decimal.Decimal {
	c, err := decimal.NewFromString(d.String())
	if err != nil {
		return &d
	}
	return &c
}

// currencyCodes are stripped before parsing; any other letter rejects the value.
var currencyCodes = []string{"USD", "US"}

func parseCurrency(s string) *decimal.Decimal {
	upper := strings.ToUpper(s)
	negative := false

	for _, marker := range []string{"CREDIT", "CR"} {
		if strings.Contains(upper, marker) {
			negative = true
			upper = strings.ReplaceAll(upper, marker, "")
		}
	}
	for _, code := range currencyCodes {
		upper = strings.ReplaceAll(upper, code, "")
	}

	var b strings.Builder
	for _, r := range upper {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-', r == '(', r == ')':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			return nil
		}
	}
	cleaned, stripped := stripNegatives(b.String())
	negative = negative || stripped

	if cleaned == "" || strings.ContainsAny(cleaned, "-()") {
		return nil
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return nil
	}
	if negative {
		d = d.Abs().Neg()
	}
	return canonical(d)
}

// stripNegatives removes wrapping parentheses and leading or trailing minus
// signs in any nesting order, reporting whether any were found.
func stripNegatives(s string) (string, bool) {
	found := false
	for {
		switch {
		case strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")"):
			s = s[1 : len(s)-1]
		case strings.HasPrefix(s, "-"):
			s = s[1:]
		case strings.HasSuffix(s, "-"):
			s = s[:len(s)-1]
		default:
			return s, found
		}
		found = true
	}
}
