package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/tradeflow/internal/model"
)

// Validation errors.
var (
	ErrNilContext    = errors.New("context cannot be nil")
	ErrEmptyString   = errors.New("string parameter cannot be empty")
	ErrNilParameter  = errors.New("parameter cannot be nil")
	ErrInvalidStatus = errors.New("invalid job status")
	ErrInvalidJob    = errors.New("invalid job")
	ErrInvalidResult = errors.New("invalid processing result")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateStatus(status model.JobStatus) error {
	switch status {
	case model.JobStatusPending,
		model.JobStatusProcessing,
		model.JobStatusCompleted,
		model.JobStatusFailed:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
}

// validateJob validates a job before insertion. ID, status and creation time
// are filled in by CreateJob when empty.
func validateJob(job *model.Job) error {
	if job == nil {
		return fmt.Errorf("%w: job", ErrNilParameter)
	}
	if strings.TrimSpace(job.SourceName) == "" {
		return fmt.Errorf("%w: missing source name", ErrInvalidJob)
	}
	if job.Status != "" {
		if err := validateStatus(job.Status); err != nil {
			return err
		}
	}
	return nil
}

// validateResult validates a processing result before it is saved.
func validateResult(result *model.ProcessingResult) error {
	if result == nil {
		return fmt.Errorf("%w: result", ErrNilParameter)
	}
	if strings.TrimSpace(result.JobID) == "" {
		return fmt.Errorf("%w: missing job ID", ErrInvalidResult)
	}
	return nil
}
