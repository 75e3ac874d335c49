package testutil

import "github.com/Veraticus/tradeflow/internal/model"

// RawTradeline returns a complete, valid raw tradeline as an extraction would produce it.
// Each call returns a fresh record.
func RawTradeline() model.RawRecord {
	return model.RawRecord{
		"creditor_name":   "CHASE BANK",
		"account_number":  "4111111111111234",
		"account_type":    "revolving",
		"balance":         "$1,250.00",
		"credit_limit":    "$5,000.00",
		"monthly_payment": "$35",
		"payment_status":  "Pays as agreed",
		"date_opened":     "01/15/2018",
		"payment_history": []any{"OK", "OK", "Current"},
		"account_status":  "Open",
		"credit_bureau":   "Experian",
	}
}

// RawConsumer returns a complete raw consumer record.
func RawConsumer() model.RawRecord {
	return model.RawRecord{
		"name":          "JOHN Q PUBLIC",
		"ssn":           "123-45-6789",
		"date_of_birth": "1980-03-12",
		"addresses": []any{
			map[string]any{
				"street": "123 main st",
				"city":   "springfield",
				"state":  "Illinois",
				"zip":    "62701",
				"type":   "current",
			},
		},
		"phones": []any{"(212) 736-5000"},
	}
}

// RawExtraction returns an extraction with two distinct valid tradelines and a consumer.
func RawExtraction() model.RawExtraction {
	second := RawTradeline()
	second["creditor_name"] = "CITIBANK"
	second["account_number"] = "5500000000009876"
	second["account_type"] = "auto loan"
	second["balance"] = "12000"
	second["credit_limit"] = nil
	second["date_opened"] = "2020-06-01"

	return model.RawExtraction{
		ConsumerInfo: RawConsumer(),
		Tradelines:   []model.RawRecord{RawTradeline(), second},
	}
}
