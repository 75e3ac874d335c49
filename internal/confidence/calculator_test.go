package confidence

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/tradeflow/internal/model"
)

func completeRecord() model.RawRecord {
	return model.RawRecord{
		"creditor_name":  "Chase Bank",
		"account_type":   "Credit Card",
		"account_number": "XXXX1234",
		"balance":        "$1,000.00",
		"credit_limit":   5000,
		"payment_status": "Current",
		"date_opened":    "2020-01-15",
		"credit_bureau":  "Experian",
	}
}

func TestTradeline(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(model.RawRecord)
		quality float64
		want    float64
	}{
		{
			name:    "complete record",
			mutate:  func(model.RawRecord) {},
			quality: 1,
			want:    1,
		},
		{
			name:    "scaled by source quality",
			mutate:  func(model.RawRecord) {},
			quality: 0.5,
			want:    0.5,
		},
		{
			name:    "source quality above one is clamped",
			mutate:  func(model.RawRecord) {},
			quality: 3,
			want:    1,
		},
		{
			name:    "closed before opened",
			mutate:  func(r model.RawRecord) { r["date_closed"] = "2019-01-01" },
			quality: 1,
			want:    0.9,
		},
		{
			name:    "balance above limit",
			mutate:  func(r model.RawRecord) { r["balance"] = "6000" },
			quality: 1,
			want:    0.95,
		},
		{
			name:    "unreadable balance",
			mutate:  func(r model.RawRecord) { r["balance"] = "lots" },
			quality: 1,
			want:    0.94,
		},
		{
			name:    "unreadable date",
			mutate:  func(r model.RawRecord) { r["date_opened"] = "sometime in spring" },
			quality: 1,
			want:    0.94,
		},
		{
			name:    "malformed account number",
			mutate:  func(r model.RawRecord) { r["account_number"] = "??" },
			quality: 1,
			want:    0.95,
		},
		{
			name:    "unknown bureau",
			mutate:  func(r model.RawRecord) { r["credit_bureau"] = "Acme Credit" },
			quality: 1,
			want:    0.95,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := completeRecord()
			tt.mutate(record)
			assert.InDelta(t, tt.want, Tradeline(record, tt.quality), 1e-9)
		})
	}
}

func TestTradeline_EmptyRecord(t *testing.T) {
	// Nothing present means nothing to penalize outside completeness.
	assert.InDelta(t, 0.6, Tradeline(model.RawRecord{}, 1), 1e-9)
	assert.InDelta(t, 0.6, Tradeline(nil, 1), 1e-9)
}

func TestTradeline_PlaceholdersAreMissing(t *testing.T) {
	record := model.RawRecord{
		"creditor_name": "N/A",
		"account_type":  "",
		"balance":       "--",
	}
	assert.InDelta(t, 0.6, Tradeline(record, 1), 1e-9)
}

func TestTradeline_Range(t *testing.T) {
	records := []model.RawRecord{
		nil,
		completeRecord(),
		{"balance": "x", "credit_limit": "y", "date_opened": "z", "date_closed": "w", "account_number": "!", "credit_bureau": "?"},
	}
	for _, r := range records {
		for _, q := range []float64{-1, 0, 0.3, 1, 10} {
			score := Tradeline(r, q)
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 1.0)
		}
	}
}

func TestConsumer(t *testing.T) {
	tests := []struct {
		name   string
		record model.RawRecord
		want   float64
	}{
		{name: "empty", record: model.RawRecord{}, want: 0},
		{name: "name only", record: model.RawRecord{"name": "John Doe"}, want: 0.5},
		{
			name: "complete",
			record: model.RawRecord{
				"name":          "John Doe",
				"ssn":           "123-45-6789",
				"date_of_birth": "1980-05-05",
				"addresses":     []any{map[string]any{"street": "1 Main St"}},
				"phone_numbers": []any{"555-123-4567"},
			},
			want: 1,
		},
		{
			name:   "aliases and empty lists",
			record: model.RawRecord{"full_name": "Jane Roe", "dob": "1/2/1990", "addresses": []any{}},
			want:   0.625,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Consumer(tt.record, 1), 1e-9)
		})
	}
}
