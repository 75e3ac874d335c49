package validation

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/ttacon/libphonenumber"

	"github.com/Veraticus/tradeflow/internal/model"
)

var ssnPattern = regexp.MustCompile(`^(\d{3}|XXX)-(\d{2}|XX)-\d{4}$`)

func (v *Validator) checkTradeline(i int, t *model.Tradeline, today time.Time) []model.ValidationIssue {
	var issues []model.ValidationIssue
	add := func(typ model.IssueType, sev model.Severity, field, desc, fix string) {
		idx := i
		issues = append(issues, model.ValidationIssue{
			TradelineIndex: &idx,
			Type:           typ,
			Severity:       sev,
			Field:          field,
			Description:    desc,
			SuggestedFix:   fix,
		})
	}

	if strings.TrimSpace(t.CreditorName) == "" {
		add(model.IssueMissingData, model.SeverityHigh, "creditor_name",
			"Creditor name is missing", "Provide the creditor name from the source report")
	}
	if t.AccountType == "" {
		add(model.IssueMissingData, model.SeverityHigh, "account_type",
			"Account type is missing", "Provide the account type from the source report")
	}

	for _, amount := range []struct {
		value *decimal.Decimal
		field string
		label string
	}{
		{t.Balance, "balance", "Balance"},
		{t.CreditLimit, "credit_limit", "Credit limit"},
	} {
		if amount.value == nil {
			continue
		}
		switch {
		case amount.value.IsNegative():
			add(model.IssueDataRange, model.SeverityHigh, amount.field,
				fmt.Sprintf("%s is negative: %s", amount.label, amount.value.StringFixed(2)),
				"Verify the amount against the source report")
		case amount.value.GreaterThan(v.cfg.MaxReasonableBalance):
			add(model.IssueDataRange, model.SeverityHigh, amount.field,
				fmt.Sprintf("%s %s exceeds the reasonable maximum of %s",
					amount.label, amount.value.StringFixed(2), v.cfg.MaxReasonableBalance.StringFixed(2)),
				"Verify the amount against the source report")
		}
	}
	if t.MonthlyPayment != nil && t.MonthlyPayment.IsNegative() {
		add(model.IssueDataRange, model.SeverityMedium, "monthly_payment",
			fmt.Sprintf("Monthly payment is negative: %s", t.MonthlyPayment.StringFixed(2)), "")
	}
	if t.Balance != nil && t.CreditLimit != nil && t.CreditLimit.IsPositive() && t.Balance.GreaterThan(*t.CreditLimit) {
		add(model.IssueDataQuality, model.SeverityLow, "balance",
			fmt.Sprintf("Balance %s exceeds credit limit %s", t.Balance.StringFixed(2), t.CreditLimit.StringFixed(2)), "")
	}

	if t.DateOpened != nil && t.DateOpened.After(today) {
		add(model.IssueDateError, model.SeverityHigh, "date_opened",
			fmt.Sprintf("Date opened %s is in the future", t.DateOpened.Format(time.DateOnly)),
			"Check the date opened for transcription errors")
	}
	if t.DateOpened != nil && t.DateClosed != nil && t.DateClosed.Before(*t.DateOpened) {
		add(model.IssueDateInconsistency, model.SeverityHigh, "date_closed",
			fmt.Sprintf("Date closed %s is before date opened %s",
				t.DateClosed.Format(time.DateOnly), t.DateOpened.Format(time.DateOnly)),
			"Check the open and close dates for swapped values")
	}
	if t.DateClosed != nil && t.DateClosed.After(today) {
		add(model.IssueDateError, model.SeverityMedium, "date_closed",
			fmt.Sprintf("Date closed %s is in the future", t.DateClosed.Format(time.DateOnly)), "")
	}

	switch {
	case t.Confidence < 0 || t.Confidence > 1:
		add(model.IssueDataRange, model.SeverityMedium, "confidence",
			fmt.Sprintf("Confidence %.3f is outside [0,1]", t.Confidence), "")
	case t.Confidence < v.cfg.MinConfidenceScore:
		add(model.IssueDataQuality, model.SeverityMedium, "confidence",
			fmt.Sprintf("Confidence %.3f is below the minimum of %.3f", t.Confidence, v.cfg.MinConfidenceScore),
			"Review low-confidence tradelines against the source report")
	}

	for _, field := range t.ParseFailures {
		desc := fmt.Sprintf("Value for %s could not be interpreted", field)
		if field == "account_type" {
			desc = "Account type was not recognized and was recorded as Other"
		}
		add(model.IssueDataQuality, model.SeverityMedium, field, desc, "")
	}

	if t.PaymentStatus.IsDerogatory() && !t.IsNegative {
		add(model.IssueDataQuality, model.SeverityLow, "is_negative",
			fmt.Sprintf("Payment status %q is derogatory but the account is not flagged negative", t.StatusText), "")
	}

	return issues
}

// findDuplicates reports one issue per group of tradelines sharing a
// creditor and account number. The group is anchored at its lowest index.
func findDuplicates(tradelines []model.Tradeline) []model.ValidationIssue {
	groups := make(map[string][]int)
	var order []string
	for i := range tradelines {
		key, ok := tradelines[i].DuplicateKey()
		if !ok {
			continue
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}

	var issues []model.ValidationIssue
	for _, key := range order {
		indices := groups[key]
		if len(indices) < 2 {
			continue
		}
		slices.Sort(indices)
		first := indices[0]
		t := tradelines[first]
		issues = append(issues, model.ValidationIssue{
			TradelineIndex: &first,
			RelatedIndices: indices,
			Type:           model.IssuePotentialDuplicate,
			Severity:       model.SeverityMedium,
			Field:          "account_number",
			Description: fmt.Sprintf("Tradelines %s share creditor %q and account %q",
				joinInts(indices), t.CreditorName, t.AccountNumber),
			SuggestedFix: "Merge or remove duplicate tradelines",
		})
	}
	return issues
}

func (v *Validator) checkConsumer(c *model.ConsumerInfo, today time.Time) []model.ValidationIssue {
	if c == nil {
		return []model.ValidationIssue{{
			Type:         model.IssueMissingData,
			Severity:     model.SeverityHigh,
			Field:        "consumer_info",
			Description:  "Consumer information is missing",
			SuggestedFix: "Extract the consumer identification section of the report",
		}}
	}

	var issues []model.ValidationIssue
	add := func(typ model.IssueType, sev model.Severity, field, desc, fix string) {
		issues = append(issues, model.ValidationIssue{
			Type:         typ,
			Severity:     sev,
			Field:        field,
			Description:  desc,
			SuggestedFix: fix,
		})
	}

	if strings.TrimSpace(c.Name) == "" {
		add(model.IssueMissingData, model.SeverityHigh, "name",
			"Consumer name is missing", "Provide the consumer name from the source report")
	}

	switch {
	case slices.Contains(c.ParseFailures, "ssn"):
		add(model.IssueFormatError, model.SeverityMedium, "ssn", "SSN is malformed", "")
	case c.SSN != "" && !ssnPattern.MatchString(c.SSN):
		add(model.IssueFormatError, model.SeverityMedium, "ssn",
			fmt.Sprintf("SSN %q does not match ###-##-####", c.SSN), "")
	}

	if dob := c.DateOfBirth; dob != nil {
		switch {
		case dob.After(today):
			add(model.IssueDateError, model.SeverityHigh, "date_of_birth",
				fmt.Sprintf("Date of birth %s is in the future", dob.Format(time.DateOnly)), "")
		case dob.Before(today.AddDate(-v.cfg.MaxAgeYears, 0, 0)):
			add(model.IssueDataRange, model.SeverityLow, "date_of_birth",
				fmt.Sprintf("Date of birth %s is more than %d years ago", dob.Format(time.DateOnly), v.cfg.MaxAgeYears), "")
		}
	}

	for _, field := range c.ParseFailures {
		if field == "ssn" {
			continue
		}
		add(model.IssueDataQuality, model.SeverityMedium, field,
			fmt.Sprintf("Value for %s could not be interpreted", field), "")
	}

	if len(c.Addresses) == 0 {
		add(model.IssueMissingData, model.SeverityLow, "addresses",
			"No consumer addresses were found", "Add the consumer's current address")
	}

	for _, phone := range c.PhoneNumbers {
		if !validPhone(phone) {
			add(model.IssueFormatError, model.SeverityLow, "phone_numbers",
				fmt.Sprintf("Phone number %q is not a valid US number", phone), "")
		}
	}

	return issues
}

func validPhone(phone string) bool {
	if strings.HasPrefix(phone, "(000)") {
		return false
	}
	num, err := libphonenumber.Parse(phone, "US")
	if err != nil {
		return false
	}
	return libphonenumber.IsValidNumber(num)
}

func joinInts(indices []int) string {
	parts := make([]string, len(indices))
	for i, n := range indices {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts, ", ")
}
