package validation

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/tradeflow/internal/common"
	"github.com/Veraticus/tradeflow/internal/model"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Now = func() time.Time { return fixedNow }
	return cfg
}

func newTestValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := New(testConfig())
	require.NoError(t, err)
	return v
}

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func money(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func cleanTradeline(i int) model.Tradeline {
	return model.Tradeline{
		CreditorName:  fmt.Sprintf("Creditor %d", i),
		AccountNumber: fmt.Sprintf("XXXX%04d", i),
		AccountType:   model.AccountTypeCreditCard,
		Balance:       money("1000"),
		CreditLimit:   money("5000"),
		PaymentStatus: model.PaymentStatusCurrent,
		StatusText:    "Current",
		CreditBureau:  model.BureauExperian,
		DateOpened:    day(2020, time.January, 15),
		Confidence:    0.9,
	}
}

func cleanTradelines(n int) []model.Tradeline {
	out := make([]model.Tradeline, n)
	for i := range out {
		out[i] = cleanTradeline(i)
	}
	return out
}

func cleanConsumer() *model.ConsumerInfo {
	return &model.ConsumerInfo{
		Name:        "John Doe",
		SSN:         "XXX-XX-1234",
		DateOfBirth: day(1980, time.May, 5),
		Addresses: []model.Address{
			{Street: "123 Main St", City: "Austin", State: "TX", ZipCode: "78701", Type: "current"},
		},
		Confidence: 0.9,
	}
}

func TestValidate_CleanBatch(t *testing.T) {
	v := newTestValidator(t)

	result, err := v.Validate(context.Background(), cleanTradelines(3), cleanConsumer())
	require.NoError(t, err)

	assert.Empty(t, result.Issues)
	assert.Empty(t, result.Suggestions)
	assert.Equal(t, model.ValidationSummary{
		TotalTradelines:  3,
		ValidTradelines:  3,
		DataQualityScore: 1,
	}, result.Summary)
	assert.Equal(t, fixedNow, result.ValidatedAt)
	assert.Equal(t, 1.0, result.Metrics.Accuracy)
	assert.Equal(t, 1.0, result.Metrics.Consistency)
	assert.InDelta(t, 0.9, result.Metrics.Reliability, 1e-9)
	assert.Greater(t, result.OverallConfidence, 0.9)
	assert.LessOrEqual(t, result.OverallConfidence, 1.0)
}

func TestValidate_ClosedBeforeOpened(t *testing.T) {
	v := newTestValidator(t)
	tradelines := cleanTradelines(3)
	tradelines[1].DateOpened = day(2023, time.January, 15)
	tradelines[1].DateClosed = day(2020, time.January, 15)

	result, err := v.Validate(context.Background(), tradelines, cleanConsumer())
	require.NoError(t, err)

	inconsistencies := result.IssuesOfType(model.IssueDateInconsistency)
	require.Len(t, inconsistencies, 1)
	require.NotNil(t, inconsistencies[0].TradelineIndex)
	assert.Equal(t, 1, *inconsistencies[0].TradelineIndex)
	assert.Equal(t, model.SeverityHigh, inconsistencies[0].Severity)
	assert.Equal(t, 1, result.Summary.InvalidTradelines)
	assert.Equal(t, 2, result.Summary.ValidTradelines)
}

func TestValidate_Duplicates(t *testing.T) {
	v := newTestValidator(t)

	build := func(order []int) []model.Tradeline {
		base := cleanTradelines(4)
		// Tradeline 3 duplicates tradeline 0 apart from case and whitespace in the creditor.
		base[3].CreditorName = "  CREDITOR 0 "
		base[3].AccountNumber = base[0].AccountNumber
		out := make([]model.Tradeline, len(order))
		for i, src := range order {
			out[i] = base[src]
		}
		return out
	}

	tests := []struct {
		name    string
		order   []int
		related []int
	}{
		{name: "original order", order: []int{0, 1, 2, 3}, related: []int{0, 3}},
		{name: "reversed", order: []int{3, 2, 1, 0}, related: []int{0, 3}},
		{name: "adjacent", order: []int{1, 0, 3, 2}, related: []int{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := v.Validate(context.Background(), build(tt.order), cleanConsumer())
			require.NoError(t, err)

			dups := result.IssuesOfType(model.IssuePotentialDuplicate)
			require.Len(t, dups, 1)
			assert.Equal(t, tt.related, dups[0].RelatedIndices)
			require.NotNil(t, dups[0].TradelineIndex)
			assert.Equal(t, tt.related[0], *dups[0].TradelineIndex)
			assert.Equal(t, 2, result.Summary.WarningTradelines)
			assert.Contains(t, result.Suggestions, "Merge or remove duplicate tradelines")
		})
	}
}

func TestValidate_DuplicatesNeedBothKeys(t *testing.T) {
	v := newTestValidator(t)
	tradelines := cleanTradelines(2)
	tradelines[0].AccountNumber = ""
	tradelines[1].AccountNumber = ""
	tradelines[1].CreditorName = tradelines[0].CreditorName

	result, err := v.Validate(context.Background(), tradelines, cleanConsumer())
	require.NoError(t, err)
	assert.Empty(t, result.IssuesOfType(model.IssuePotentialDuplicate))
}

func TestValidate_UnreasonableBalance(t *testing.T) {
	v := newTestValidator(t)
	tradelines := cleanTradelines(16)
	tradelines[15].Balance = money("150000")
	tradelines[15].CreditLimit = money("200000")

	result, err := v.Validate(context.Background(), tradelines, cleanConsumer())
	require.NoError(t, err)

	assert.Equal(t, 16, result.Summary.TotalTradelines)
	assert.Equal(t, 15, result.Summary.ValidTradelines)
	assert.Equal(t, 1, result.Summary.InvalidTradelines)

	issues := result.IssuesForTradeline(15)
	require.NotEmpty(t, issues)
	var fields []string
	for _, issue := range issues {
		assert.Equal(t, model.IssueDataRange, issue.Type)
		fields = append(fields, issue.Field)
	}
	assert.ElementsMatch(t, []string{"balance", "credit_limit"}, fields)
}

func TestValidate_TradelineChecks(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*model.Tradeline)
		wantType model.IssueType
		wantSev  model.Severity
		field    string
	}{
		{
			name:     "missing creditor",
			mutate:   func(t *model.Tradeline) { t.CreditorName = " " },
			wantType: model.IssueMissingData,
			wantSev:  model.SeverityHigh,
			field:    "creditor_name",
		},
		{
			name:     "missing account type",
			mutate:   func(t *model.Tradeline) { t.AccountType = "" },
			wantType: model.IssueMissingData,
			wantSev:  model.SeverityHigh,
			field:    "account_type",
		},
		{
			name:     "negative balance",
			mutate:   func(t *model.Tradeline) { t.Balance = money("-25.00") },
			wantType: model.IssueDataRange,
			wantSev:  model.SeverityHigh,
			field:    "balance",
		},
		{
			name:     "negative limit",
			mutate:   func(t *model.Tradeline) { t.CreditLimit = money("-1") },
			wantType: model.IssueDataRange,
			wantSev:  model.SeverityHigh,
			field:    "credit_limit",
		},
		{
			name:     "negative monthly payment",
			mutate:   func(t *model.Tradeline) { t.MonthlyPayment = money("-1") },
			wantType: model.IssueDataRange,
			wantSev:  model.SeverityMedium,
			field:    "monthly_payment",
		},
		{
			name:     "balance over limit",
			mutate:   func(t *model.Tradeline) { t.Balance = money("5000.01") },
			wantType: model.IssueDataQuality,
			wantSev:  model.SeverityLow,
			field:    "balance",
		},
		{
			name:     "opened in the future",
			mutate:   func(t *model.Tradeline) { t.DateOpened = day(2024, time.June, 2) },
			wantType: model.IssueDateError,
			wantSev:  model.SeverityHigh,
			field:    "date_opened",
		},
		{
			name:     "closed in the future",
			mutate:   func(t *model.Tradeline) { t.DateClosed = day(2025, time.January, 1) },
			wantType: model.IssueDateError,
			wantSev:  model.SeverityMedium,
			field:    "date_closed",
		},
		{
			name:     "low confidence",
			mutate:   func(t *model.Tradeline) { t.Confidence = 0.42 },
			wantType: model.IssueDataQuality,
			wantSev:  model.SeverityMedium,
			field:    "confidence",
		},
		{
			name:     "confidence out of range",
			mutate:   func(t *model.Tradeline) { t.Confidence = 1.5 },
			wantType: model.IssueDataRange,
			wantSev:  model.SeverityMedium,
			field:    "confidence",
		},
		{
			name:     "unparseable balance",
			mutate:   func(t *model.Tradeline) { t.Balance = nil; t.ParseFailures = []string{"balance"} },
			wantType: model.IssueDataQuality,
			wantSev:  model.SeverityMedium,
			field:    "balance",
		},
		{
			name: "unrecognized account type",
			mutate: func(t *model.Tradeline) {
				t.AccountType = model.AccountTypeOther
				t.ParseFailures = []string{"account_type"}
			},
			wantType: model.IssueDataQuality,
			wantSev:  model.SeverityMedium,
			field:    "account_type",
		},
		{
			name: "derogatory status without negative flag",
			mutate: func(t *model.Tradeline) {
				t.PaymentStatus = model.PaymentStatusLate60
				t.StatusText = "60 days late"
			},
			wantType: model.IssueDataQuality,
			wantSev:  model.SeverityLow,
			field:    "is_negative",
		},
	}

	v := newTestValidator(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tradeline := cleanTradeline(0)
			tt.mutate(&tradeline)

			result, err := v.Validate(context.Background(), []model.Tradeline{tradeline}, cleanConsumer())
			require.NoError(t, err)

			issues := result.IssuesForTradeline(0)
			require.Len(t, issues, 1, "issues: %+v", issues)
			assert.Equal(t, tt.wantType, issues[0].Type)
			assert.Equal(t, tt.wantSev, issues[0].Severity)
			assert.Equal(t, tt.field, issues[0].Field)

			if tt.wantSev.IsBlocking() {
				assert.Equal(t, 1, result.Summary.InvalidTradelines)
			} else {
				assert.Equal(t, 1, result.Summary.WarningTradelines)
			}
		})
	}
}

func TestValidate_OpenedTodayIsNotFuture(t *testing.T) {
	v := newTestValidator(t)
	tradeline := cleanTradeline(0)
	tradeline.DateOpened = day(2024, time.June, 1)

	result, err := v.Validate(context.Background(), []model.Tradeline{tradeline}, cleanConsumer())
	require.NoError(t, err)
	assert.Empty(t, result.Issues)
}

func TestValidate_DerogatoryFlaggedNegative(t *testing.T) {
	v := newTestValidator(t)
	tradeline := cleanTradeline(0)
	tradeline.PaymentStatus = model.PaymentStatusChargedOff
	tradeline.IsNegative = true

	result, err := v.Validate(context.Background(), []model.Tradeline{tradeline}, cleanConsumer())
	require.NoError(t, err)
	assert.Empty(t, result.Issues)
}

func TestValidate_ConsumerChecks(t *testing.T) {
	tests := []struct {
		name     string
		consumer func() *model.ConsumerInfo
		wantType model.IssueType
		wantSev  model.Severity
		field    string
	}{
		{
			name:     "nil consumer",
			consumer: func() *model.ConsumerInfo { return nil },
			wantType: model.IssueMissingData,
			wantSev:  model.SeverityHigh,
			field:    "consumer_info",
		},
		{
			name: "missing name",
			consumer: func() *model.ConsumerInfo {
				c := cleanConsumer()
				c.Name = ""
				return c
			},
			wantType: model.IssueMissingData,
			wantSev:  model.SeverityHigh,
			field:    "name",
		},
		{
			name: "malformed ssn",
			consumer: func() *model.ConsumerInfo {
				c := cleanConsumer()
				c.SSN = "12-345-6789"
				return c
			},
			wantType: model.IssueFormatError,
			wantSev:  model.SeverityMedium,
			field:    "ssn",
		},
		{
			name: "unparseable ssn",
			consumer: func() *model.ConsumerInfo {
				c := cleanConsumer()
				c.SSN = ""
				c.ParseFailures = []string{"ssn"}
				return c
			},
			wantType: model.IssueFormatError,
			wantSev:  model.SeverityMedium,
			field:    "ssn",
		},
		{
			name: "birth date in the future",
			consumer: func() *model.ConsumerInfo {
				c := cleanConsumer()
				c.DateOfBirth = day(2030, time.January, 1)
				return c
			},
			wantType: model.IssueDateError,
			wantSev:  model.SeverityHigh,
			field:    "date_of_birth",
		},
		{
			name: "implausible birth date",
			consumer: func() *model.ConsumerInfo {
				c := cleanConsumer()
				c.DateOfBirth = day(1890, time.January, 1)
				return c
			},
			wantType: model.IssueDataRange,
			wantSev:  model.SeverityLow,
			field:    "date_of_birth",
		},
		{
			name: "no addresses",
			consumer: func() *model.ConsumerInfo {
				c := cleanConsumer()
				c.Addresses = nil
				return c
			},
			wantType: model.IssueMissingData,
			wantSev:  model.SeverityLow,
			field:    "addresses",
		},
		{
			name: "phone without area code",
			consumer: func() *model.ConsumerInfo {
				c := cleanConsumer()
				c.PhoneNumbers = []string{"(000) 555-1234"}
				return c
			},
			wantType: model.IssueFormatError,
			wantSev:  model.SeverityLow,
			field:    "phone_numbers",
		},
	}

	v := newTestValidator(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := v.Validate(context.Background(), cleanTradelines(1), tt.consumer())
			require.NoError(t, err)

			require.Len(t, result.Issues, 1, "issues: %+v", result.Issues)
			issue := result.Issues[0]
			assert.Nil(t, issue.TradelineIndex)
			assert.Equal(t, tt.wantType, issue.Type)
			assert.Equal(t, tt.wantSev, issue.Severity)
			assert.Equal(t, tt.field, issue.Field)

			// Consumer issues never change tradeline classification.
			assert.Equal(t, 1, result.Summary.ValidTradelines)
		})
	}
}

func TestValidate_NoAddressesSuggestsFix(t *testing.T) {
	v := newTestValidator(t)
	c := cleanConsumer()
	c.Addresses = nil

	result, err := v.Validate(context.Background(), nil, c)
	require.NoError(t, err)
	assert.Equal(t, []string{"Add the consumer's current address"}, result.Suggestions)
	assert.Equal(t, 0, result.Summary.TotalTradelines)
	assert.Equal(t, 0.0, result.Summary.DataQualityScore)
}

func TestValidate_ValidPhone(t *testing.T) {
	v := newTestValidator(t)
	c := cleanConsumer()
	c.PhoneNumbers = []string{"(212) 736-5000"}

	result, err := v.Validate(context.Background(), nil, c)
	require.NoError(t, err)
	assert.Empty(t, result.IssuesOfType(model.IssueFormatError))
}

func TestValidate_Deterministic(t *testing.T) {
	v := newTestValidator(t)
	tradelines := cleanTradelines(40)
	tradelines[7].Balance = money("-5")
	tradelines[21].DateClosed = day(2001, time.January, 1)
	tradelines[33].AccountNumber = tradelines[2].AccountNumber
	tradelines[33].CreditorName = tradelines[2].CreditorName

	first, err := v.Validate(context.Background(), tradelines, cleanConsumer())
	require.NoError(t, err)
	for range 5 {
		again, err := v.Validate(context.Background(), tradelines, cleanConsumer())
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestValidate_DoesNotMutateInput(t *testing.T) {
	v := newTestValidator(t)
	tradelines := cleanTradelines(3)
	tradelines[1].Balance = money("-5")
	before := cleanTradelines(3)
	before[1].Balance = money("-5")

	_, err := v.Validate(context.Background(), tradelines, cleanConsumer())
	require.NoError(t, err)
	assert.Equal(t, before, tradelines)
}

func TestValidate_CanceledContext(t *testing.T) {
	v := newTestValidator(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := v.Validate(ctx, cleanTradelines(3), cleanConsumer())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestValidate_Weights(t *testing.T) {
	tradelines := cleanTradelines(2)
	tradelines[0].Confidence = 0.1
	tradelines[1].Confidence = 0.1

	cfg := testConfig()
	cfg.MinConfidenceScore = 0
	cfg.Weights = Weights{Reliability: 1}

	result, err := Validate(context.Background(), tradelines, cleanConsumer(), cfg)
	require.NoError(t, err)
	assert.Equal(t, result.Metrics.Reliability, result.OverallConfidence)
	assert.Empty(t, result.Issues)
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "negative max balance", mutate: func(c *Config) { c.MaxReasonableBalance = decimal.NewFromInt(-1) }},
		{name: "confidence above one", mutate: func(c *Config) { c.MinConfidenceScore = 1.5 }},
		{name: "negative confidence", mutate: func(c *Config) { c.MinConfidenceScore = -0.1 }},
		{name: "weights do not sum to one", mutate: func(c *Config) { c.Weights = Weights{Completeness: 0.5, Accuracy: 0.6} }},
		{name: "negative weight", mutate: func(c *Config) { c.Weights = Weights{Completeness: 1.5, Accuracy: -0.5} }},
		{name: "negative workers", mutate: func(c *Config) { c.Workers = -2 }},
		{name: "negative max age", mutate: func(c *Config) { c.MaxAgeYears = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			v, err := New(cfg)
			assert.Nil(t, v)
			assert.ErrorIs(t, err, common.ErrInvalidConfig)
		})
	}
}

func TestNew_ZeroConfigUsesDefaults(t *testing.T) {
	v, err := New(Config{})
	require.NoError(t, err)

	cfg := v.Config()
	assert.True(t, cfg.MaxReasonableBalance.Equal(DefaultMaxReasonableBalance))
	assert.Equal(t, DefaultWeights(), cfg.Weights)
	assert.Equal(t, DefaultMaxAgeYears, cfg.MaxAgeYears)
	assert.Positive(t, cfg.Workers)
	assert.NotNil(t, cfg.Now)
}

func TestSummarize_IndexOutOfRange(t *testing.T) {
	idx := 5
	_, err := summarize(2, []model.ValidationIssue{{
		TradelineIndex: &idx,
		Type:           model.IssueMissingData,
		Severity:       model.SeverityHigh,
	}})
	assert.ErrorIs(t, err, ErrContractViolation)

	_, err = summarize(2, []model.ValidationIssue{{
		Type:           model.IssuePotentialDuplicate,
		Severity:       model.SeverityMedium,
		RelatedIndices: []int{0, -1},
	}})
	assert.ErrorIs(t, err, ErrContractViolation)
}
