package storage

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/tradeflow/internal/common"
	"github.com/Veraticus/tradeflow/internal/model"
)

func sampleResult(jobID string) *model.ProcessingResult {
	balance := decimal.RequireFromString("1234.56")
	limit := decimal.RequireFromString("5000")
	opened := time.Date(2019, time.March, 1, 0, 0, 0, 0, time.UTC)
	closed := time.Date(2023, time.June, 30, 0, 0, 0, 0, time.UTC)
	dob := time.Date(1980, time.May, 5, 0, 0, 0, 0, time.UTC)
	first := 0

	return &model.ProcessingResult{
		JobID:       jobID,
		ProcessedAt: time.Date(2024, time.June, 1, 12, 30, 0, 0, time.UTC),
		ModelUsed:   "gpt-4o-mini",
		Duration:    1500 * time.Millisecond,
		Stats: model.NormalizationStats{
			FailedFields:    []string{"credit_limit"},
			FieldsProcessed: 17,
			TotalFields:     18,
			SuccessRate:     0.944,
		},
		Tradelines: []model.Tradeline{
			{
				CreditorName:   "Chase Bank",
				AccountNumber:  "****1234",
				AccountType:    model.AccountTypeCreditCard,
				Balance:        &balance,
				CreditLimit:    &limit,
				PaymentStatus:  model.PaymentStatusLate30,
				StatusText:     "30 days late",
				DateOpened:     &opened,
				DateClosed:     &closed,
				CreditBureau:   model.BureauExperian,
				PaymentHistory: []string{"OK", "30"},
				Notes:          []string{"disputed"},
				Confidence:     0.85,
				IsNegative:     true,
			},
			{
				CreditorName:  "Capital One",
				AccountType:   model.AccountTypeOther,
				CreditBureau:  model.BureauUnknown,
				ParseFailures: []string{"account_type", "credit_limit"},
				Confidence:    0.41,
			},
		},
		Consumer: &model.ConsumerInfo{
			Name:         "John Doe",
			SSN:          "XXX-XX-6789",
			DateOfBirth:  &dob,
			Addresses:    []model.Address{{Street: "123 Main St", City: "Austin", State: "TX", ZipCode: "78701", Type: "current"}},
			PhoneNumbers: []string{"(512) 555-0100"},
			Confidence:   1,
		},
		Validation: &model.ValidationResult{
			ValidatedAt: time.Date(2024, time.June, 1, 12, 30, 1, 0, time.UTC),
			Issues: []model.ValidationIssue{
				{
					TradelineIndex: &first,
					Type:           model.IssueDataQuality,
					Severity:       model.SeverityLow,
					Field:          "is_negative",
					Description:    "flag mismatch",
				},
				{
					Type:           model.IssuePotentialDuplicate,
					Severity:       model.SeverityMedium,
					Description:    "duplicates",
					SuggestedFix:   "Merge or remove duplicate tradelines",
					RelatedIndices: []int{0, 1},
				},
			},
			Suggestions: []string{"Merge or remove duplicate tradelines"},
			Summary: model.ValidationSummary{
				TotalTradelines:   2,
				WarningTradelines: 2,
				DataQualityScore:  0.5,
			},
			Metrics: model.QualityMetrics{
				Completeness: 0.8,
				Accuracy:     0.95,
				Consistency:  0.5,
				Reliability:  0.7,
			},
			OverallConfidence: 0.765,
		},
	}
}

func TestSQLiteStorage_SaveAndGetResult(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	job := createTestJob(t, store, "report.pdf")
	want := sampleResult(job.ID)
	if err := store.SaveResult(ctx, want); err != nil {
		t.Fatalf("SaveResult() error = %v", err)
	}

	got, err := store.GetResult(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetResult() error = %v", err)
	}

	if !got.ProcessedAt.Equal(want.ProcessedAt) {
		t.Errorf("ProcessedAt = %v, want %v", got.ProcessedAt, want.ProcessedAt)
	}
	if !got.Validation.ValidatedAt.Equal(want.Validation.ValidatedAt) {
		t.Errorf("ValidatedAt = %v, want %v", got.Validation.ValidatedAt, want.Validation.ValidatedAt)
	}
	got.ProcessedAt = want.ProcessedAt
	got.Validation.ValidatedAt = want.Validation.ValidatedAt

	if !reflect.DeepEqual(got, want) {
		t.Errorf("GetResult() mismatch\n got: %+v\nwant: %+v", got, want)
	}
	if !got.Tradelines[0].Balance.Equal(decimal.RequireFromString("1234.56")) {
		t.Errorf("Balance = %s, want 1234.56", got.Tradelines[0].Balance)
	}
}

func TestSQLiteStorage_SaveResultReplaces(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	job := createTestJob(t, store, "report.pdf")
	if err := store.SaveResult(ctx, sampleResult(job.ID)); err != nil {
		t.Fatalf("SaveResult() error = %v", err)
	}

	second := sampleResult(job.ID)
	second.Tradelines = second.Tradelines[:1]
	second.Consumer = nil
	second.Validation = nil
	if err := store.SaveResult(ctx, second); err != nil {
		t.Fatalf("SaveResult() second error = %v", err)
	}

	got, err := store.GetResult(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetResult() error = %v", err)
	}
	if len(got.Tradelines) != 1 {
		t.Errorf("len(Tradelines) = %d, want 1", len(got.Tradelines))
	}
	if got.Consumer != nil {
		t.Errorf("Consumer = %+v, want nil", got.Consumer)
	}
	if got.Validation != nil {
		t.Errorf("Validation = %+v, want nil", got.Validation)
	}
}

func TestSQLiteStorage_SaveResultErrors(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	tests := []struct {
		result  *model.ProcessingResult
		wantErr error
		name    string
	}{
		{name: "nil result", result: nil, wantErr: ErrNilParameter},
		{name: "missing job id", result: &model.ProcessingResult{}, wantErr: ErrInvalidResult},
		{name: "unknown job", result: sampleResult("nope"), wantErr: common.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.SaveResult(ctx, tt.result)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("SaveResult() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSQLiteStorage_GetResultNotFound(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	job := createTestJob(t, store, "report.pdf")
	if _, err := store.GetResult(context.Background(), job.ID); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("GetResult() error = %v, want %v", err, common.ErrNotFound)
	}
}
