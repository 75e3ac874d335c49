package model

import "time"

// IssueType classifies a detected data-quality problem.
type IssueType string

// Issue type constants.
const (
	IssueMissingData        IssueType = "missing_data"
	IssueDataRange          IssueType = "data_range"
	IssueDateError          IssueType = "date_error"
	IssueDateInconsistency  IssueType = "date_inconsistency"
	IssueFormatError        IssueType = "format_error"
	IssuePotentialDuplicate IssueType = "potential_duplicate"
	IssueDataQuality        IssueType = "data_quality"
)

// Severity represents how serious an issue is.
type Severity string

// Severity levels, most severe first.
const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Severities returns all severity levels ordered from most to least severe.
func Severities() []Severity {
	return []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}
}

// IsBlocking reports whether an issue of this severity invalidates a tradeline.
func (s Severity) IsBlocking() bool {
	return s == SeverityCritical || s == SeverityHigh
}

// ValidationIssue describes one problem found during validation.
// TradelineIndex is nil for consumer-level issues.
type ValidationIssue struct {
	TradelineIndex *int      `json:"tradeline_index,omitempty"`
	Type           IssueType `json:"type"`
	Severity       Severity  `json:"severity"`
	Description    string    `json:"description"`
	Field          string    `json:"field,omitempty"`
	SuggestedFix   string    `json:"suggested_fix,omitempty"`
	RelatedIndices []int     `json:"related_indices,omitempty"` // All tradelines involved in a cross-record issue
}

// ValidationSummary counts tradelines by outcome.
type ValidationSummary struct {
	TotalTradelines   int     `json:"total_tradelines"`
	ValidTradelines   int     `json:"valid_tradelines"`
	InvalidTradelines int     `json:"invalid_tradelines"`
	WarningTradelines int     `json:"warning_tradelines"`
	DataQualityScore  float64 `json:"data_quality_score"`
}

// QualityMetrics are batch-level scores in [0,1].
type QualityMetrics struct {
	Completeness float64 `json:"completeness"`
	Accuracy     float64 `json:"accuracy"`
	Consistency  float64 `json:"consistency"`
	Reliability  float64 `json:"reliability"`
}

// ValidationResult is the output of a single validation pass.
type ValidationResult struct {
	ValidatedAt       time.Time         `json:"validated_at"`
	Issues            []ValidationIssue `json:"issues"`
	Suggestions       []string          `json:"suggestions"`
	Summary           ValidationSummary `json:"validation_summary"`
	Metrics           QualityMetrics    `json:"quality_metrics"`
	OverallConfidence float64           `json:"overall_confidence"`
}

// IssuesOfType returns the issues matching the given type in report order.
func (r *ValidationResult) IssuesOfType(t IssueType) []ValidationIssue {
	var out []ValidationIssue
	for _, issue := range r.Issues {
		if issue.Type == t {
			out = append(out, issue)
		}
	}
	return out
}

// IssuesForTradeline returns the issues attached to the tradeline at index i.
func (r *ValidationResult) IssuesForTradeline(i int) []ValidationIssue {
	var out []ValidationIssue
	for _, issue := range r.Issues {
		if issue.TradelineIndex != nil && *issue.TradelineIndex == i {
			out = append(out, issue)
		}
	}
	return out
}
