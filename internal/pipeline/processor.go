// Package pipeline runs extracted credit report records through
// normalization and validation and records the outcome of each job.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/tradeflow/internal/common"
	"github.com/Veraticus/tradeflow/internal/model"
	"github.com/Veraticus/tradeflow/internal/normalize"
	"github.com/Veraticus/tradeflow/internal/service"
	"github.com/Veraticus/tradeflow/internal/validation"
)

// Config holds the options for each stage.
type Config struct {
	Normalize  normalize.Options
	Validation validation.Config
}

// DefaultConfig returns the default stage options.
func DefaultConfig() Config {
	return Config{
		Normalize:  normalize.DefaultOptions(),
		Validation: validation.DefaultConfig(),
	}
}

// Processor orchestrates extraction, normalization, validation and persistence.
type Processor struct {
	extractor  service.Extractor
	storage    service.Storage
	normalizer *normalize.Normalizer
	validator  *validation.Validator
	logger     *slog.Logger
	now        func() time.Time
}

// New creates a Processor. extractor may be nil when only ProcessExtraction
// is used, and storage may be nil to skip persistence. A nil logger uses
// slog.Default.
func New(extractor service.Extractor, storage service.Storage, cfg Config, logger *slog.Logger) (*Processor, error) {
	if logger == nil {
		logger = slog.Default()
	}

	validator, err := validation.New(cfg.Validation)
	if err != nil {
		return nil, err
	}

	now := cfg.Validation.Now
	if now == nil {
		now = time.Now
	}

	return &Processor{
		extractor:  extractor,
		storage:    storage,
		normalizer: normalize.New(cfg.Normalize, logger),
		validator:  validator.WithLogger(logger),
		logger:     logger,
		now:        now,
	}, nil
}

// CreateJob records a pending job for a document. Without storage the job
// is returned unsaved.
func (p *Processor) CreateJob(ctx context.Context, sourceName, sourceHash string) (*model.Job, error) {
	job := &model.Job{
		SourceName: sourceName,
		SourceHash: sourceHash,
		Status:     model.JobStatusPending,
		CreatedAt:  p.now().UTC(),
	}
	if p.storage == nil {
		return job, nil
	}
	if err := p.storage.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}
	return job, nil
}

// FindCompleted returns the completed job for a source hash, if any.
func (p *Processor) FindCompleted(ctx context.Context, sourceHash string) (*model.Job, bool, error) {
	if p.storage == nil || sourceHash == "" {
		return nil, false, nil
	}
	job, err := p.storage.FindJobBySourceHash(ctx, sourceHash)
	if errors.Is(err, common.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up source: %w", err)
	}
	return job, true, nil
}

// ProcessDocument extracts records from doc and processes them under jobID.
func (p *Processor) ProcessDocument(ctx context.Context, jobID string, doc *model.Document) (*model.ProcessingResult, error) {
	if p.extractor == nil {
		return nil, fmt.Errorf("extractor not configured: %w", common.ErrMissingConfig)
	}

	start := p.now()
	if err := p.markProcessing(ctx, jobID); err != nil {
		return nil, err
	}

	extraction, err := p.extractor.Extract(ctx, doc)
	if err != nil {
		return nil, p.fail(ctx, jobID, fmt.Errorf("extraction failed: %w", err))
	}
	if len(extraction.Raw.Tradelines) == 0 && len(extraction.Raw.ConsumerInfo) == 0 {
		return nil, p.fail(ctx, jobID, common.ErrNoTradelines)
	}

	result, err := p.process(ctx, jobID, extraction.Raw)
	if err != nil {
		return nil, p.fail(ctx, jobID, err)
	}
	result.ModelUsed = extraction.Model
	result.Duration = p.now().Sub(start)

	if err := p.complete(ctx, result); err != nil {
		return nil, err
	}

	p.logger.Info("Processed document",
		"job_id", jobID,
		"source", doc.Source,
		"tradelines", len(result.Tradelines),
		"issues", len(result.Validation.Issues),
		"overall_confidence", result.Validation.OverallConfidence,
		"total_tokens", extraction.Usage.TotalTokens,
		"duration", result.Duration)

	return result, nil
}

// ProcessExtraction normalizes and validates already extracted records under jobID.
func (p *Processor) ProcessExtraction(ctx context.Context, jobID string, raw model.RawExtraction) (*model.ProcessingResult, error) {
	start := p.now()
	if err := p.markProcessing(ctx, jobID); err != nil {
		return nil, err
	}

	result, err := p.process(ctx, jobID, raw)
	if err != nil {
		return nil, p.fail(ctx, jobID, err)
	}
	result.Duration = p.now().Sub(start)

	if err := p.complete(ctx, result); err != nil {
		return nil, err
	}

	p.logger.Info("Processed extraction",
		"job_id", jobID,
		"tradelines", len(result.Tradelines),
		"issues", len(result.Validation.Issues),
		"overall_confidence", result.Validation.OverallConfidence)

	return result, nil
}

// process normalizes every record and validates the batch.
func (p *Processor) process(ctx context.Context, jobID string, raw model.RawExtraction) (*model.ProcessingResult, error) {
	records, stats := p.normalizer.Tradelines(raw.Tradelines)
	tradelines := make([]model.Tradeline, 0, len(records))
	for _, rec := range records {
		tradelines = append(tradelines, rec.Tradeline)
	}

	var consumer *model.ConsumerInfo
	if raw.ConsumerInfo != nil {
		rec := p.normalizer.Consumer(raw.ConsumerInfo)
		consumer = &rec.Consumer
		stats = normalize.MergeStats(stats, rec.Stats)
	}

	result, err := p.validator.Validate(ctx, tradelines, consumer)
	if err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &model.ProcessingResult{
		JobID:       jobID,
		ProcessedAt: p.now().UTC(),
		Consumer:    consumer,
		Tradelines:  tradelines,
		Validation:  result,
		Stats:       stats,
	}, nil
}

func (p *Processor) tracking(jobID string) bool {
	return p.storage != nil && jobID != ""
}

func (p *Processor) markProcessing(ctx context.Context, jobID string) error {
	if !p.tracking(jobID) {
		return nil
	}
	if err := p.storage.UpdateJobStatus(ctx, jobID, model.JobStatusProcessing, ""); err != nil {
		return fmt.Errorf("failed to start job %s: %w", jobID, err)
	}
	return nil
}

func (p *Processor) complete(ctx context.Context, result *model.ProcessingResult) error {
	if !p.tracking(result.JobID) {
		return nil
	}
	if err := p.storage.SaveResult(ctx, result); err != nil {
		return p.fail(ctx, result.JobID, fmt.Errorf("failed to save result: %w", err))
	}
	if err := p.storage.UpdateJobStatus(ctx, result.JobID, model.JobStatusCompleted, ""); err != nil {
		return fmt.Errorf("failed to complete job %s: %w", result.JobID, err)
	}
	return nil
}

// fail records cause on the job and returns it. The status update runs even
// when ctx is canceled so interrupted jobs are not left processing.
func (p *Processor) fail(ctx context.Context, jobID string, cause error) error {
	p.logger.Error("Job failed", "job_id", jobID, "error", cause)
	if !p.tracking(jobID) {
		return cause
	}

	updateCtx := context.WithoutCancel(ctx)
	if err := p.storage.UpdateJobStatus(updateCtx, jobID, model.JobStatusFailed, cause.Error()); err != nil {
		return errors.Join(cause, fmt.Errorf("failed to mark job %s failed: %w", jobID, err))
	}
	return cause
}
