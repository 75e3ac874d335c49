// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/tradeflow/internal/model"
)

// JobFilter defines filtering options for job queries.
type JobFilter struct {
	Before *time.Time
	Status model.JobStatus
	Limit  int
	Offset int
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Job operations
	CreateJob(ctx context.Context, job *model.Job) error
	GetJob(ctx context.Context, id string) (*model.Job, error)
	FindJobBySourceHash(ctx context.Context, hash string) (*model.Job, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]model.Job, error)
	UpdateJobStatus(ctx context.Context, id string, status model.JobStatus, errMsg string) error
	DeleteJobsBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Result operations
	SaveResult(ctx context.Context, result *model.ProcessingResult) error
	GetResult(ctx context.Context, jobID string) (*model.ProcessingResult, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// DocumentLoader turns a source file into document text and tables.
type DocumentLoader interface {
	Load(ctx context.Context, path string) (*model.Document, error)
}

// Extractor pulls raw tradeline and consumer records out of a document.
type Extractor interface {
	Extract(ctx context.Context, doc *model.Document) (*model.Extraction, error)
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	// Jitter is the upper bound of the random delay added to each wait.
	Jitter time.Duration
}
