// Package model defines the core domain models used throughout the application.
package model

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AccountType is the canonical category of a credit account.
// The zero value means the type was not provided.
type AccountType string

// Account type constants. Values are the display labels produced by the text normalizer.
const (
	AccountTypeCreditCard   AccountType = "Credit Card"
	AccountTypeMortgage     AccountType = "Mortgage"
	AccountTypeAutoLoan     AccountType = "Auto Loan"
	AccountTypeStudentLoan  AccountType = "Student Loan"
	AccountTypePersonalLoan AccountType = "Personal Loan"
	AccountTypeLineOfCredit AccountType = "Line of Credit"
	AccountTypeInstallment  AccountType = "Installment"
	AccountTypeCollection   AccountType = "Collection"
	AccountTypeOther        AccountType = "Other"
)

// ParseAccountType converts a canonical label into an AccountType.
// Unrecognized labels fall back to AccountTypeOther; empty input stays empty.
func ParseAccountType(label string) AccountType {
	label = strings.TrimSpace(label)
	if label == "" {
		return ""
	}
	for _, t := range AccountTypes() {
		if strings.EqualFold(label, string(t)) {
			return t
		}
	}
	return AccountTypeOther
}

// AccountTypes returns every known account type in display order.
func AccountTypes() []AccountType {
	return []AccountType{
		AccountTypeCreditCard,
		AccountTypeMortgage,
		AccountTypeAutoLoan,
		AccountTypeStudentLoan,
		AccountTypePersonalLoan,
		AccountTypeLineOfCredit,
		AccountTypeInstallment,
		AccountTypeCollection,
		AccountTypeOther,
	}
}

// PaymentStatus is the bucketed payment state of an account.
type PaymentStatus string

// Payment status constants.
const (
	PaymentStatusCurrent    PaymentStatus = "current"
	PaymentStatusLate       PaymentStatus = "late"
	PaymentStatusLate30     PaymentStatus = "late_30"
	PaymentStatusLate60     PaymentStatus = "late_60"
	PaymentStatusLate90     PaymentStatus = "late_90"
	PaymentStatusLate120    PaymentStatus = "late_120"
	PaymentStatusChargedOff PaymentStatus = "charged_off"
	PaymentStatusCollection PaymentStatus = "collection"
	PaymentStatusSettled    PaymentStatus = "settled"
	PaymentStatusPaid       PaymentStatus = "paid"
	PaymentStatusClosed     PaymentStatus = "closed"
	PaymentStatusDelinquent PaymentStatus = "delinquent"
	PaymentStatusUnknown    PaymentStatus = "unknown"
)

// ParsePaymentStatus buckets a normalized status label such as "60 days late"
// or "Charged off". Empty input stays empty.
func ParsePaymentStatus(label string) PaymentStatus {
	s := strings.ToLower(strings.TrimSpace(label))
	if s == "" {
		return ""
	}

	if days, ok := strings.CutSuffix(s, " days late"); ok {
		n := 0
		for _, r := range days {
			if r < '0' || r > '9' {
				return PaymentStatusLate
			}
			n = n*10 + int(r-'0')
		}
		switch {
		case n >= 120:
			return PaymentStatusLate120
		case n >= 90:
			return PaymentStatusLate90
		case n >= 60:
			return PaymentStatusLate60
		case n >= 30:
			return PaymentStatusLate30
		case n == 0:
			return PaymentStatusCurrent
		default:
			return PaymentStatusLate
		}
	}

	switch {
	case s == "current":
		return PaymentStatusCurrent
	case strings.Contains(s, "charged off"), strings.Contains(s, "charge off"):
		return PaymentStatusChargedOff
	case strings.Contains(s, "collection"):
		return PaymentStatusCollection
	case strings.Contains(s, "settled"):
		return PaymentStatusSettled
	case strings.Contains(s, "paid"):
		return PaymentStatusPaid
	case strings.Contains(s, "closed"):
		return PaymentStatusClosed
	case strings.Contains(s, "delinquent"):
		return PaymentStatusDelinquent
	case strings.Contains(s, "late"):
		return PaymentStatusLate
	default:
		return PaymentStatusUnknown
	}
}

// IsDerogatory reports whether the status counts as negative credit information.
func (s PaymentStatus) IsDerogatory() bool {
	switch s {
	case PaymentStatusLate, PaymentStatusLate30, PaymentStatusLate60, PaymentStatusLate90,
		PaymentStatusLate120, PaymentStatusChargedOff, PaymentStatusCollection,
		PaymentStatusSettled, PaymentStatusDelinquent:
		return true
	default:
		return false
	}
}

// CreditBureau identifies the agency that reported a tradeline.
type CreditBureau string

// Credit bureau constants.
const (
	BureauExperian   CreditBureau = "Experian"
	BureauEquifax    CreditBureau = "Equifax"
	BureauTransUnion CreditBureau = "TransUnion"
	BureauUnknown    CreditBureau = "Unknown"
)

// Tradeline is a single normalized credit account record.
type Tradeline struct {
	DateOpened     *time.Time       `json:"date_opened,omitempty"`
	DateClosed     *time.Time       `json:"date_closed,omitempty"`
	Balance        *decimal.Decimal `json:"balance,omitempty"`
	CreditLimit    *decimal.Decimal `json:"credit_limit,omitempty"`
	MonthlyPayment *decimal.Decimal `json:"monthly_payment,omitempty"`
	CreditorName   string           `json:"creditor_name"`
	AccountNumber  string           `json:"account_number"`
	AccountType    AccountType      `json:"account_type"`
	PaymentStatus  PaymentStatus    `json:"payment_status"`
	StatusText     string           `json:"status_text,omitempty"` // Normalized status label, e.g. "60 days late"
	CreditBureau   CreditBureau     `json:"credit_bureau"`
	PaymentHistory []string         `json:"payment_history,omitempty"`
	Notes          []string         `json:"notes,omitempty"`
	ParseFailures  []string         `json:"parse_failures,omitempty"` // Fields present in the source that could not be typed
	Confidence     float64          `json:"confidence"`
	IsNegative     bool             `json:"is_negative"`
}

// FailedToParse reports whether the named field was present but unparseable.
func (t *Tradeline) FailedToParse(field string) bool {
	return slices.Contains(t.ParseFailures, field)
}

// DuplicateKey returns the identity used for duplicate detection.
// Returns false when either component is missing.
func (t *Tradeline) DuplicateKey() (string, bool) {
	creditor := strings.ToLower(strings.TrimSpace(t.CreditorName))
	account := strings.TrimSpace(t.AccountNumber)
	if creditor == "" || account == "" {
		return "", false
	}
	return creditor + "|" + account, true
}
