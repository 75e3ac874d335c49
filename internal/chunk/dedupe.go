package chunk

import (
	"strings"
	"unicode"

	"github.com/spf13/cast"

	"github.com/Veraticus/tradeflow/internal/model"
	"github.com/Veraticus/tradeflow/internal/normalize"
)

var (
	creditorKeys = []string{"creditor_name", "creditor", "company", "company_name", "lender"}
	accountKeys  = []string{"account_number", "account", "account_no", "acct_number"}
)

// Dedupe keeps the first record for each creditor and account number pair,
// preserving order. Creditors compare by canonical name and account numbers
// ignore separators. Records missing both values are always kept.
func Dedupe(records []model.RawRecord) []model.RawRecord {
	seen := make(map[string]bool, len(records))
	out := make([]model.RawRecord, 0, len(records))
	for _, record := range records {
		key, ok := recordKey(record)
		if ok {
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		out = append(out, record)
	}
	return out
}

func recordKey(record model.RawRecord) (string, bool) {
	creditor := strings.ToLower(normalize.CreditorName(firstValue(record, creditorKeys)))
	account := compactAccount(cast.ToString(firstValue(record, accountKeys)))
	if creditor == "" && account == "" {
		return "", false
	}
	return creditor + "|" + account, true
}

func firstValue(record model.RawRecord, keys []string) any {
	for _, k := range keys {
		if v, ok := record[k]; ok && normalize.Present(v) {
			return v
		}
	}
	return nil
}

// compactAccount uppercases an account number and drops everything except
// letters, digits and mask asterisks.
func compactAccount(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '*', unicode.IsLetter(r), unicode.IsDigit(r):
			return unicode.ToUpper(r)
		default:
			return -1
		}
	}, s)
}
