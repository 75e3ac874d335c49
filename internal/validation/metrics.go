package validation

import (
	"math"
	"strings"

	"github.com/Veraticus/tradeflow/internal/model"
)

const (
	tradelineFieldCount = 7
	consumerFieldCount  = 5
)

func severityWeight(s model.Severity) float64 {
	switch s {
	case model.SeverityCritical:
		return 1.0
	case model.SeverityHigh:
		return 0.6
	case model.SeverityMedium:
		return 0.3
	default:
		return 0.1
	}
}

func tradelineFields(t *model.Tradeline) int {
	n := 0
	for _, ok := range []bool{
		strings.TrimSpace(t.CreditorName) != "",
		t.AccountNumber != "",
		t.AccountType != "",
		t.Balance != nil,
		t.CreditLimit != nil,
		t.PaymentStatus != "",
		t.DateOpened != nil,
	} {
		if ok {
			n++
		}
	}
	return n
}

func consumerFields(c *model.ConsumerInfo) int {
	if c == nil {
		return 0
	}
	n := 0
	for _, ok := range []bool{
		strings.TrimSpace(c.Name) != "",
		c.SSN != "",
		c.DateOfBirth != nil,
		len(c.Addresses) > 0,
		len(c.PhoneNumbers) > 0,
	} {
		if ok {
			n++
		}
	}
	return n
}

// computeMetrics derives the quality metrics from the batch and its issues.
//
// Completeness is the populated share of the expected fields. Accuracy
// subtracts the severity-weighted issue mass per checked field. Consistency
// subtracts cross-record and logical issues per tradeline. Reliability is the
// mean record confidence weighted by populated fields.
func computeMetrics(tradelines []model.Tradeline, consumer *model.ConsumerInfo, issues []model.ValidationIssue) model.QualityMetrics {
	expected := tradelineFieldCount*len(tradelines) + consumerFieldCount
	populated := consumerFields(consumer)

	weightedConfidence := 0.0
	confidenceWeight := 0.0
	for i := range tradelines {
		fields := tradelineFields(&tradelines[i])
		populated += fields
		w := float64(max(fields, 1))
		weightedConfidence += w * clamp(tradelines[i].Confidence)
		confidenceWeight += w
	}
	if consumer != nil {
		w := float64(max(consumerFields(consumer), 1))
		weightedConfidence += w * clamp(consumer.Confidence)
		confidenceWeight += w
	}

	weightedIssues := 0.0
	crossRecord := 0
	for _, issue := range issues {
		weightedIssues += severityWeight(issue.Severity)
		if issue.Type == model.IssuePotentialDuplicate || issue.Type == model.IssueDateInconsistency {
			crossRecord++
		}
	}

	m := model.QualityMetrics{
		Completeness: round3(float64(populated) / float64(expected)),
		Accuracy:     round3(clamp(1 - weightedIssues/float64(expected))),
		Consistency:  1,
	}
	if len(tradelines) > 0 {
		m.Consistency = round3(clamp(1 - float64(crossRecord)/float64(len(tradelines))))
	}
	if confidenceWeight > 0 {
		m.Reliability = round3(weightedConfidence / confidenceWeight)
	}
	return m
}

func overall(m model.QualityMetrics, w Weights) float64 {
	return round3(clamp(w.Completeness*m.Completeness +
		w.Accuracy*m.Accuracy +
		w.Consistency*m.Consistency +
		w.Reliability*m.Reliability))
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
