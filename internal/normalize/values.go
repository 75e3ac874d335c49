// Package normalize converts untrusted extracted values into canonical typed values.
//
// Every normalizer is a pure function: it never panics on malformed input and
// reports absence with a nil pointer or an empty string. Lookup tables are
// fixed switch statements so normalizers are safe for concurrent use.
package normalize

import (
	"strings"
	"unicode"

	"github.com/spf13/cast"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// isPlaceholder reports whether s is one of the textual null markers
// extraction collaborators emit for missing data.
func isPlaceholder(s string) bool {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "N/A", "NA", "--", "-", "NULL", "NONE", "NIL", "INVALID":
		return true
	default:
		return false
	}
}

// text coerces v to a trimmed string. It returns false for nil, values that
// cannot be rendered as text, and placeholder markers.
func text(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", false
	}
	s = strings.TrimSpace(s)
	if isPlaceholder(s) {
		return "", false
	}
	return s, true
}

// Present reports whether v carries a usable, non-placeholder value.
func Present(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case []any:
		return len(x) > 0
	case []string:
		return len(x) > 0
	case []map[string]any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	}
	_, ok := text(v)
	return ok
}

// collapse upper-cases s and folds runs of whitespace, underscores and
// hyphens into single spaces for table lookups.
func collapse(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == '_' || r == '-' {
			return ' '
		}
		return unicode.ToUpper(r)
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// titleCase capitalizes each word of s. A new Caser is created per call
// because cases.Caser is not safe for concurrent use.
func titleCase(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return cases.Title(language.English).String(s)
}

// capitalize upper-cases the first rune of s and lower-cases the rest.
func capitalize(s string) string {
	r := []rune(strings.ToLower(s))
	if len(r) == 0 {
		return ""
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// digits returns only the ASCII digits of s.
func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Bool interprets common truthy and falsy spellings.
func Bool(v any) (bool, bool) {
	if b, ok := v.(bool); ok {
		return b, true
	}
	s, ok := text(v)
	if !ok {
		return false, false
	}
	switch strings.ToLower(s) {
	case "yes", "y", "on":
		return true, true
	case "no", "n", "off":
		return false, true
	}
	b, err := cast.ToBoolE(s)
	if err != nil {
		return false, false
	}
	return b, true
}
