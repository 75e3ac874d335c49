package model

import "time"

// JobStatus tracks a document through processing.
type JobStatus string

// Job status constants.
const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Job is one document-processing run.
type Job struct {
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	ID          string     `json:"id"`
	SourceName  string     `json:"source_name"`
	SourceHash  string     `json:"source_hash,omitempty"` // SHA-256 of the source bytes
	Error       string     `json:"error,omitempty"`
	Status      JobStatus  `json:"status"`
}

// NormalizationStats reports how many input fields were successfully normalized.
type NormalizationStats struct {
	FailedFields    []string `json:"failed_fields,omitempty"`
	FieldsProcessed int      `json:"fields_processed"`
	TotalFields     int      `json:"total_fields"`
	SuccessRate     float64  `json:"success_rate"`
}

// ProcessingResult is everything produced for a job.
type ProcessingResult struct {
	ProcessedAt time.Time          `json:"processed_at"`
	Consumer    *ConsumerInfo      `json:"consumer_info,omitempty"`
	Validation  *ValidationResult  `json:"validation,omitempty"`
	JobID       string             `json:"job_id"`
	ModelUsed   string             `json:"model_used,omitempty"`
	Tradelines  []Tradeline        `json:"tradelines"`
	Stats       NormalizationStats `json:"normalization_stats"`
	Duration    time.Duration      `json:"duration_ns"`
}
