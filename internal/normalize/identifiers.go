package normalize

import (
	"fmt"
	"strings"
)

// AccountNumber strips spaces and dashes from an account number and, when
// mask is set, replaces all but the last four characters with '*'. Values
// that already contain '*' are returned unchanged so masking is stable.
func AccountNumber(v any, mask bool) string {
	s, ok := text(v)
	if !ok {
		return ""
	}
	if strings.ContainsRune(s, '*') {
		return s
	}

	compact := strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, s)
	if !mask {
		return compact
	}

	r := []rune(compact)
	if len(r) <= 4 {
		return strings.Repeat("*", len(r))
	}
	return strings.Repeat("*", len(r)-4) + string(r[len(r)-4:])
}

// SSN formats a social security number as ###-##-####, or XXX-XX-#### when
// mask is set or the input was already masked. '*' and lower-case 'x' count
// as mask characters. Returns "" unless nine characters remain after
// stripping, or the input is an X-prefixed form ending in four digits.
func SSN(v any, mask bool) string {
	s, ok := text(v)
	if !ok {
		return ""
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == 'X', r == 'x', r == '*':
			b.WriteByte('X')
		}
	}
	cleaned := b.String()

	if len(cleaned) < 7 || len(cleaned) > 9 {
		return ""
	}
	last4 := cleaned[len(cleaned)-4:]
	if digits(last4) != last4 {
		return ""
	}

	masked := strings.ContainsRune(cleaned, 'X')
	if len(cleaned) != 9 {
		// Short forms are only accepted when fully masked, e.g. XXX1234.
		if strings.Trim(cleaned[:len(cleaned)-4], "X") != "" {
			return ""
		}
	}
	if mask || masked {
		return "XXX-XX-" + last4
	}
	return fmt.Sprintf("%s-%s-%s", cleaned[0:3], cleaned[3:5], cleaned[5:9])
}

// Phone formats a US phone number as (###) ###-####. A leading country code
// of 1 is dropped and seven-digit local numbers get the placeholder area
// code 000. Returns "" for any other digit count.
func Phone(v any) string {
	s, ok := text(v)
	if !ok {
		return ""
	}

	d := digits(s)
	if len(d) == 11 && d[0] == '1' {
		d = d[1:]
	}

	switch len(d) {
	case 10:
		return fmt.Sprintf("(%s) %s-%s", d[0:3], d[3:6], d[6:])
	case 7:
		return fmt.Sprintf("(000) %s-%s", d[0:3], d[3:])
	default:
		return ""
	}
}
