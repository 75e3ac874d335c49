package validation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/tradeflow/internal/model"
)

// ErrContractViolation indicates an issue that references a tradeline outside the batch.
var ErrContractViolation = errors.New("validation contract violation")

// Validator checks batches of normalized records. It is safe for concurrent use.
type Validator struct {
	logger *slog.Logger
	cfg    Config
}

// New creates a validator, rejecting invalid thresholds.
func New(cfg Config) (*Validator, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}
	return &Validator{cfg: cfg, logger: slog.Default()}, nil
}

// WithLogger returns a copy of the validator that logs to logger.
func (v *Validator) WithLogger(logger *slog.Logger) *Validator {
	c := *v
	if logger != nil {
		c.logger = logger
	}
	return &c
}

// Config returns the effective configuration.
func (v *Validator) Config() Config {
	return v.cfg
}

// Validate is a convenience for New followed by Validate.
func Validate(ctx context.Context, tradelines []model.Tradeline, consumer *model.ConsumerInfo, cfg Config) (*model.ValidationResult, error) {
	v, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return v.Validate(ctx, tradelines, consumer)
}

// Validate runs every check over the batch. Malformed records produce issues,
// never errors; an error is returned only when ctx is done or an issue
// references a tradeline outside the batch.
func (v *Validator) Validate(ctx context.Context, tradelines []model.Tradeline, consumer *model.ConsumerInfo) (*model.ValidationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := v.cfg.Now()
	today := calendarDay(now)

	perRecord := make([][]model.ValidationIssue, len(tradelines))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.cfg.Workers)
	for i := range tradelines {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			perRecord[i] = v.checkTradeline(i, &tradelines[i], today)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("validate tradelines: %w", err)
	}

	var issues []model.ValidationIssue
	for _, recordIssues := range perRecord {
		issues = append(issues, recordIssues...)
	}
	issues = append(issues, findDuplicates(tradelines)...)
	issues = append(issues, v.checkConsumer(consumer, today)...)

	summary, err := summarize(len(tradelines), issues)
	if err != nil {
		return nil, err
	}

	metrics := computeMetrics(tradelines, consumer, issues)
	result := &model.ValidationResult{
		ValidatedAt:       now,
		Issues:            issues,
		Suggestions:       suggestions(issues),
		Summary:           summary,
		Metrics:           metrics,
		OverallConfidence: overall(metrics, v.cfg.Weights),
	}

	v.logger.Info("Validation complete",
		"tradelines", summary.TotalTradelines,
		"valid", summary.ValidTradelines,
		"warning", summary.WarningTradelines,
		"invalid", summary.InvalidTradelines,
		"issues", len(issues),
		"overall_confidence", result.OverallConfidence)

	return result, nil
}

// summarize classifies each tradeline by the worst issue touching it.
func summarize(total int, issues []model.ValidationIssue) (model.ValidationSummary, error) {
	const (
		valid = iota
		warning
		invalid
	)
	state := make([]int, total)

	mark := func(issue model.ValidationIssue, idx int) error {
		if idx < 0 || idx >= total {
			return fmt.Errorf("%w: %s issue on %q references tradeline %d of %d",
				ErrContractViolation, issue.Type, issue.Field, idx, total)
		}
		level := warning
		if issue.Severity.IsBlocking() {
			level = invalid
		}
		state[idx] = max(state[idx], level)
		return nil
	}

	for _, issue := range issues {
		if issue.TradelineIndex != nil {
			if err := mark(issue, *issue.TradelineIndex); err != nil {
				return model.ValidationSummary{}, err
			}
		}
		for _, idx := range issue.RelatedIndices {
			if err := mark(issue, idx); err != nil {
				return model.ValidationSummary{}, err
			}
		}
	}

	summary := model.ValidationSummary{TotalTradelines: total}
	for _, s := range state {
		switch s {
		case invalid:
			summary.InvalidTradelines++
		case warning:
			summary.WarningTradelines++
		default:
			summary.ValidTradelines++
		}
	}
	if total > 0 {
		summary.DataQualityScore = round3((float64(summary.ValidTradelines) + 0.5*float64(summary.WarningTradelines)) / float64(total))
	}
	return summary, nil
}

// suggestions collects the distinct suggested fixes in issue order.
func suggestions(issues []model.ValidationIssue) []string {
	seen := make(map[string]bool)
	var out []string
	for _, issue := range issues {
		if issue.SuggestedFix == "" || seen[issue.SuggestedFix] {
			continue
		}
		seen[issue.SuggestedFix] = true
		out = append(out, issue.SuggestedFix)
	}
	return out
}

func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
