// Package confidence scores how complete and well-formed an extracted record is.
package confidence

import (
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/Veraticus/tradeflow/internal/model"
)

// Component weights of a tradeline score. They sum to 1.
const (
	CompletenessWeight = 0.4
	DataQualityWeight  = 0.3
	ConsistencyWeight  = 0.2
	FormatWeight       = 0.1
)

const (
	invalidValuePenalty   = 0.2
	dateOrderPenalty      = 0.5
	balanceOverPenalty    = 0.25
	formatPenalty         = 0.5
	optionalFieldFraction = 0.5
)

var (
	requiredTradelineFields = [...]string{"creditor_name", "account_type"}
	optionalTradelineFields = [...]string{"balance", "credit_limit", "payment_status", "date_opened"}

	isoDate        = regexp.MustCompile(`^\d{4}-\d{1,2}-\d{1,2}$`)
	usDate         = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{4})$`)
	monthYearDate  = regexp.MustCompile(`^\d{1,2}/\d{4}$`)
	accountPattern = regexp.MustCompile(`^[0-9Xx*\- ]{4,}$`)
)

// Tradeline scores a raw tradeline record in [0,1].
//
// The score is the weighted sum of completeness (required fields plus
// half-weighted optional fields), data quality (monetary and date values in
// a recognizable form), consistency (date order and balance against limit)
// and format validity (account number shape and bureau). Each component is
// clamped to [0,1]; the total is scaled by sourceQuality, clamped and
// rounded to three decimals.
func Tradeline(record model.RawRecord, sourceQuality float64) float64 {
	total := CompletenessWeight*completeness(record) +
		DataQualityWeight*dataQuality(record) +
		ConsistencyWeight*consistency(record) +
		FormatWeight*formatValidity(record)

	return round3(clamp(total * clamp(sourceQuality)))
}

// Consumer scores a raw consumer record in [0,1]. The name carries half of
// the score; SSN, date of birth, addresses and phone numbers share the rest.
func Consumer(record model.RawRecord, sourceQuality float64) float64 {
	score := 0.0
	if present(first(record, "name", "full_name", "consumer_name")) {
		score += 0.5
	}
	for _, keys := range [][]string{
		{"ssn", "social_security_number"},
		{"date_of_birth", "dob", "birth_date"},
		{"addresses", "address"},
		{"phone_numbers", "phones", "phone"},
	} {
		if present(first(record, keys...)) {
			score += 0.125
		}
	}
	return round3(clamp(score * clamp(sourceQuality)))
}

func completeness(record model.RawRecord) float64 {
	required := 0
	for _, f := range requiredTradelineFields {
		if present(record[f]) {
			required++
		}
	}
	optional := 0
	for _, f := range optionalTradelineFields {
		if present(record[f]) {
			optional++
		}
	}

	score := float64(required)/float64(len(requiredTradelineFields)) +
		optionalFieldFraction*float64(optional)/float64(len(optionalTradelineFields))
	return clamp(score)
}

func dataQuality(record model.RawRecord) float64 {
	score := 1.0
	for _, f := range []string{"balance", "credit_limit"} {
		if v := record[f]; present(v) {
			if _, ok := amount(v); !ok {
				score -= invalidValuePenalty
			}
		}
	}
	for _, f := range []string{"date_opened", "date_closed"} {
		if v := record[f]; present(v) && !dateLike(v) {
			score -= invalidValuePenalty
		}
	}
	return clamp(score)
}

func consistency(record model.RawRecord) float64 {
	score := 1.0

	opened, okOpened := date(record["date_opened"])
	closed, okClosed := date(record["date_closed"])
	if okOpened && okClosed && closed.Before(opened) {
		score -= dateOrderPenalty
	}

	balance, okBalance := amount(record["balance"])
	limit, okLimit := amount(record["credit_limit"])
	if okBalance && okLimit && limit > 0 && balance > limit {
		score -= balanceOverPenalty
	}
	return clamp(score)
}

func formatValidity(record model.RawRecord) float64 {
	score := 1.0
	if v := record["account_number"]; present(v) {
		if !accountPattern.MatchString(cast.ToString(v)) {
			score -= formatPenalty
		}
	}
	if v := record["credit_bureau"]; present(v) && !knownBureau(cast.ToString(v)) {
		score -= formatPenalty
	}
	return clamp(score)
}

func first(record model.RawRecord, keys ...string) any {
	for _, k := range keys {
		if v, ok := record[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func present(v any) bool {
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
	s, err := cast.ToStringE(v)
	if err != nil {
		return true
	}
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "N/A", "NA", "--", "NULL", "NONE":
		return false
	}
	return true
}

// amount reads a monetary value loosely, ignoring symbols and separators.
func amount(v any) (float64, bool) {
	if !present(v) {
		return 0, false
	}
	if s, ok := v.(string); ok {
		v = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func dateLike(v any) bool {
	if _, ok := v.(time.Time); ok {
		return true
	}
	s := strings.TrimSpace(cast.ToString(v))
	return isoDate.MatchString(s) || usDate.MatchString(s) || monthYearDate.MatchString(s)
}

func date(v any) (time.Time, bool) {
	if t, ok := v.(time.Time); ok {
		return t, true
	}
	s := strings.TrimSpace(cast.ToString(v))
	if isoDate.MatchString(s) {
		t, err := time.Parse("2006-1-2", s)
		return t, err == nil
	}
	if m := usDate.FindStringSubmatch(s); m != nil {
		t, err := time.Parse("1/2/2006", m[1]+"/"+m[2]+"/"+m[3])
		return t, err == nil
	}
	return time.Time{}, false
}

func knownBureau(s string) bool {
	switch strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", "")) {
	case "EXPERIAN", "EQUIFAX", "TRANSUNION", "UNKNOWN":
		return true
	default:
		return false
	}
}

func clamp(f float64) float64 {
	switch {
	case math.IsNaN(f), f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
