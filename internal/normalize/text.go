package normalize

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// UnknownAccountType is returned for account types that match no alias.
const UnknownAccountType = "Unknown Type"

// CreditorName maps known creditor aliases to their canonical name and
// title-cases everything else.
func CreditorName(v any) string {
	s, ok := text(v)
	if !ok {
		return ""
	}
	if canonical, found := creditorAlias(collapse(s)); found {
		return canonical
	}
	return titleCase(s)
}

// creditorAlias resolves a collapsed creditor key. Canonical names map to
// themselves so the lookup is idempotent.
func creditorAlias(key string) (string, bool) {
	switch key {
	case "CHASE", "CHASE BANK", "CHASE CARD", "CHASE CARD SERVICES", "JPMORGAN CHASE", "JPMCB", "JPMCB CARD":
		return "Chase Bank", true
	case "CITI", "CITIBANK", "CITI BANK", "CITICARDS", "CBNA":
		return "Citibank", true
	case "BOA", "BANK OF AMERICA", "BK OF AMER", "BANKAMERICA":
		return "Bank of America", true
	case "AMEX", "AMERICAN EXPRESS":
		return "American Express", true
	case "CAP ONE", "CAPONE", "CAPITAL ONE", "CAPITAL ONE BANK":
		return "Capital One", true
	case "WELLS FARGO", "WELLS FARGO BANK", "WF", "WFB", "WFFNB":
		return "Wells Fargo", true
	case "DISCOVER", "DISCOVER BANK", "DISCOVER CARD", "DISCOVERBANK":
		return "Discover", true
	case "SYNCHRONY", "SYNCHRONY BANK", "SYNCB":
		return "Synchrony Bank", true
	case "US BANK", "U.S. BANK", "USBANK":
		return "U.S. Bank", true
	case "PNC", "PNC BANK":
		return "PNC Bank", true
	case "TD", "TD BANK":
		return "TD Bank", true
	case "BARCLAYS", "BARCLAYS BANK", "BARCLAYCARD":
		return "Barclays", true
	case "NAVIENT":
		return "Navient", true
	case "SALLIE MAE", "SALLIEMAE":
		return "Sallie Mae", true
	case "NELNET":
		return "Nelnet", true
	case "ALLY", "ALLY BANK", "ALLY FINANCIAL":
		return "Ally Financial", true
	case "SANTANDER", "SANTANDER CONSUMER":
		return "Santander Consumer", true
	case "GM FINANCIAL", "AMERICREDIT":
		return "GM Financial", true
	case "TOYOTA FINANCIAL", "TOYOTA FINANCIAL SERVICES", "TOYOTA MOTOR CREDIT", "TMCC":
		return "Toyota Financial Services", true
	case "HONDA FINANCIAL", "HONDA FINANCIAL SERVICES", "AMERICAN HONDA FINANCE":
		return "Honda Financial Services", true
	case "USAA":
		return "USAA", true
	case "SOFI":
		return "SoFi", true
	case "HSBC":
		return "HSBC", true
	case "GOLDMAN SACHS", "GS BANK":
		return "Goldman Sachs", true
	case "CREDIT ONE", "CREDIT ONE BANK":
		return "Credit One Bank", true
	case "MIDLAND CREDIT", "MIDLAND CREDIT MANAGEMENT", "MCM":
		return "Midland Credit Management", true
	case "PORTFOLIO RECOVERY", "PORTFOLIO RECOVERY ASSOCIATES", "PRA":
		return "Portfolio Recovery Associates", true
	case "LVNV", "LVNV FUNDING":
		return "LVNV Funding", true
	default:
		return "", false
	}
}

// AccountType maps an account type alias to its canonical label.
// Empty and unmatched input returns UnknownAccountType.
func AccountType(v any) string {
	s, ok := text(v)
	if !ok {
		return UnknownAccountType
	}

	switch collapse(s) {
	case "CREDIT CARD", "CREDITCARD", "CC", "REVOLVING", "REVOLVING CREDIT", "REVOLVING ACCOUNT",
		"BANK CARD", "BANKCARD", "CHARGE CARD", "CHARGE ACCOUNT", "RETAIL CARD", "STORE CARD",
		"VISA", "MASTERCARD", "MASTER CARD", "AMEX", "DISCOVER CARD":
		return "Credit Card"
	case "MORTGAGE", "HOME LOAN", "REAL ESTATE", "REAL ESTATE MORTGAGE", "CONVENTIONAL MORTGAGE",
		"CONVENTIONAL REAL ESTATE MORTGAGE", "FHA MORTGAGE", "VA MORTGAGE", "FIRST MORTGAGE", "SECOND MORTGAGE":
		return "Mortgage"
	case "AUTO LOAN", "AUTO", "AUTOMOBILE", "AUTOMOBILE LOAN", "AUTO LEASE", "AUTO FINANCING",
		"CAR LOAN", "VEHICLE LOAN":
		return "Auto Loan"
	case "STUDENT LOAN", "STUDENT", "EDUCATION LOAN", "EDUCATIONAL", "EDUCATIONAL LOAN", "FEDERAL STUDENT LOAN",
		"SALLIE MAE":
		return "Student Loan"
	case "PERSONAL LOAN", "PERSONAL", "UNSECURED LOAN", "SIGNATURE LOAN":
		return "Personal Loan"
	case "LINE OF CREDIT", "LOC", "CREDIT LINE", "HELOC", "HOME EQUITY", "HOME EQUITY LINE OF CREDIT":
		return "Line of Credit"
	case "INSTALLMENT", "INSTALLMENT LOAN", "INSTALLMENT ACCOUNT":
		return "Installment"
	case "COLLECTION", "COLLECTIONS", "COLLECTION ACCOUNT":
		return "Collection"
	case "OTHER":
		return "Other"
	default:
		return UnknownAccountType
	}
}

// statusAlias is one ordered substring rule for payment statuses.
type statusAlias struct {
	match string
	label string
}

// statusAliases are checked in order against whole words of the status.
// Specific phrases and day counts precede the short generic words ("PAID",
// "CLOSED", "LATE", "OK") that would otherwise shadow them.
var statusAliases = [...]statusAlias{
	{"CHARGED OFF", "Charged off"},
	{"CHARGE OFF", "Charged off"},
	{"CHARGEOFF", "Charged off"},
	{"COLLECTION", "Collection"},
	{"COLLECTIONS", "Collection"},
	{"SETTLED", "Settled"},
	{"PAYS AS AGREED", "Current"},
	{"PAID AS AGREED", "Current"},
	{"NEVER LATE", "Current"},
	{"NOT LATE", "Current"},
	{"UNPAID", "Delinquent"},
	{"DELINQUENT", "Delinquent"},
	{"120", "120 days late"},
	{"90", "90 days late"},
	{"60", "60 days late"},
	{"30", "30 days late"},
	{"PAST DUE", "Late"},
	{"PAID", "Paid"},
	{"CLOSED", "Closed"},
	{"LATE", "Late"},
	{"CURRENT", "Current"},
	{"OK", "Current"},
}

var daysLatePattern = regexp.MustCompile(`^0*(\d+)\+?(?: ?DAYS?)?(?: (?:LATE|PAST DUE))?$`)

// PaymentStatus maps a payment status to its canonical label. A bare day
// count becomes "{N} days late"; unmatched values are title-cased.
func PaymentStatus(v any) string {
	s, ok := text(v)
	if !ok {
		return ""
	}

	key := collapse(s)
	if m := daysLatePattern.FindStringSubmatch(key); m != nil {
		return fmt.Sprintf("%s days late", m[1])
	}

	words := strings.FieldsFunc(key, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, alias := range statusAliases {
		if containsPhrase(words, strings.Fields(alias.match)) {
			return alias.label
		}
	}
	return titleCase(s)
}

// containsPhrase reports whether phrase occurs as consecutive words.
func containsPhrase(words, phrase []string) bool {
	for i := 0; i+len(phrase) <= len(words); i++ {
		if slices.Equal(words[i:i+len(phrase)], phrase) {
			return true
		}
	}
	return false
}

// Name title-cases a person or place name. Tokens split on whitespace and
// hyphens; hyphens are kept. "Mc" prefixes and apostrophes get their own
// capitalization, and a standalone "mc" joins the following token.
func Name(v any) string {
	s, ok := text(v)
	if !ok {
		return ""
	}

	fields := strings.Fields(s)
	out := make([]string, 0, len(fields))
	for i := 0; i < len(fields); i++ {
		tok := fields[i]
		if strings.EqualFold(tok, "mc") && i+1 < len(fields) {
			out = append(out, nameToken("mc"+fields[i+1]))
			i++
			continue
		}
		out = append(out, nameToken(tok))
	}
	return strings.Join(out, " ")
}

func nameToken(tok string) string {
	parts := strings.Split(tok, "-")
	for i, p := range parts {
		parts[i] = namePart(p)
	}
	return strings.Join(parts, "-")
}

func namePart(p string) string {
	if strings.Contains(p, "'") {
		sub := strings.Split(p, "'")
		for i, s := range sub {
			sub[i] = capitalize(s)
		}
		return strings.Join(sub, "'")
	}
	if utf8.RuneCountInString(p) > 2 && strings.HasPrefix(strings.ToLower(p), "mc") {
		return "Mc" + capitalize(p[2:])
	}
	return capitalize(p)
}
