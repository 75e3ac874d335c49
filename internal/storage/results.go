package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/tradeflow/internal/common"
	"github.com/Veraticus/tradeflow/internal/model"
)

// resultTables hold per-job rows written by SaveResult, children first.
var resultTables = []string{"validation_issues", "validation_results", "consumer_info", "tradelines", "results"}

// SaveResult stores a processing result, replacing any earlier result for the job.
// Tradelines, consumer info and validation output are written in one transaction.
func (s *SQLiteStorage) SaveResult(ctx context.Context, result *model.ProcessingResult) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateResult(result); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs WHERE id = ?`, result.JobID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check job: %w", err)
		}
		if exists == 0 {
			return fmt.Errorf("job %s: %w", result.JobID, common.ErrNotFound)
		}

		for _, table := range resultTables {
			if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE job_id = ?`, table), result.JobID); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}

		if err := insertResult(ctx, tx, result); err != nil {
			return err
		}
		if err := insertTradelines(ctx, tx, result.JobID, result.Tradelines); err != nil {
			return err
		}
		if result.Consumer != nil {
			if err := insertConsumer(ctx, tx, result.JobID, result.Consumer); err != nil {
				return err
			}
		}
		if result.Validation != nil {
			if err := insertValidation(ctx, tx, result.JobID, result.Validation); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertResult(ctx context.Context, tx *sql.Tx, result *model.ProcessingResult) error {
	failed, err := encodeJSON(result.Stats.FailedFields)
	if err != nil {
		return err
	}
	processedAt := result.ProcessedAt
	if processedAt.IsZero() {
		processedAt = time.Now()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO results (job_id, processed_at, model_used, duration_ms,
			fields_processed, total_fields, success_rate, failed_fields)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		result.JobID, processedAt.UTC(), result.ModelUsed, result.Duration.Milliseconds(),
		result.Stats.FieldsProcessed, result.Stats.TotalFields, result.Stats.SuccessRate, failed)
	if err != nil {
		return fmt.Errorf("failed to save result: %w", translateError(err))
	}
	return nil
}

func insertTradelines(ctx context.Context, tx *sql.Tx, jobID string, tradelines []model.Tradeline) error {
	if len(tradelines) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tradelines (job_id, position, creditor_name, account_number, account_type,
			balance, credit_limit, monthly_payment, payment_status, status_text,
			date_opened, date_closed, credit_bureau, payment_history, notes, parse_failures,
			confidence, is_negative)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare tradeline insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, t := range tradelines {
		history, err := encodeJSON(t.PaymentHistory)
		if err != nil {
			return err
		}
		notes, err := encodeJSON(t.Notes)
		if err != nil {
			return err
		}
		failures, err := encodeJSON(t.ParseFailures)
		if err != nil {
			return err
		}

		if _, err := stmt.ExecContext(ctx,
			jobID, i, t.CreditorName, t.AccountNumber, t.AccountType,
			nullDecimal(t.Balance), nullDecimal(t.CreditLimit), nullDecimal(t.MonthlyPayment),
			t.PaymentStatus, t.StatusText, nullDate(t.DateOpened), nullDate(t.DateClosed),
			t.CreditBureau, history, notes, failures, t.Confidence, t.IsNegative,
		); err != nil {
			return fmt.Errorf("failed to save tradeline %d: %w", i, translateError(err))
		}
	}
	return nil
}

func insertConsumer(ctx context.Context, tx *sql.Tx, jobID string, c *model.ConsumerInfo) error {
	addresses, err := encodeJSON(c.Addresses)
	if err != nil {
		return err
	}
	phones, err := encodeJSON(c.PhoneNumbers)
	if err != nil {
		return err
	}
	failures, err := encodeJSON(c.ParseFailures)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO consumer_info (job_id, name, ssn, date_of_birth, addresses,
			phone_numbers, parse_failures, confidence)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		jobID, c.Name, c.SSN, nullDate(c.DateOfBirth), addresses, phones, failures, c.Confidence)
	if err != nil {
		return fmt.Errorf("failed to save consumer info: %w", translateError(err))
	}
	return nil
}

func insertValidation(ctx context.Context, tx *sql.Tx, jobID string, v *model.ValidationResult) error {
	suggestions, err := encodeJSON(v.Suggestions)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO validation_results (job_id, validated_at, total_tradelines, valid_tradelines,
			invalid_tradelines, warning_tradelines, data_quality_score, completeness, accuracy,
			consistency, reliability, overall_confidence, suggestions)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		jobID, v.ValidatedAt.UTC(), v.Summary.TotalTradelines, v.Summary.ValidTradelines,
		v.Summary.InvalidTradelines, v.Summary.WarningTradelines, v.Summary.DataQualityScore,
		v.Metrics.Completeness, v.Metrics.Accuracy, v.Metrics.Consistency, v.Metrics.Reliability,
		v.OverallConfidence, suggestions)
	if err != nil {
		return fmt.Errorf("failed to save validation result: %w", translateError(err))
	}

	for i, issue := range v.Issues {
		related, err := encodeJSON(issue.RelatedIndices)
		if err != nil {
			return err
		}
		var index sql.NullInt64
		if issue.TradelineIndex != nil {
			index = sql.NullInt64{Int64: int64(*issue.TradelineIndex), Valid: true}
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO validation_issues (job_id, position, tradeline_index, type, severity,
				field, description, suggested_fix, related_indices)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			jobID, i, index, issue.Type, issue.Severity, issue.Field, issue.Description,
			issue.SuggestedFix, related,
		); err != nil {
			return fmt.Errorf("failed to save validation issue %d: %w", i, translateError(err))
		}
	}
	return nil
}

// GetResult loads the stored result for a job.
func (s *SQLiteStorage) GetResult(ctx context.Context, jobID string) (*model.ProcessingResult, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(jobID, "jobID"); err != nil {
		return nil, err
	}

	result := &model.ProcessingResult{JobID: jobID}
	var (
		durationMS int64
		failed     string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT processed_at, model_used, duration_ms, fields_processed, total_fields,
			success_rate, failed_fields
		FROM results WHERE job_id = ?`, jobID).Scan(
		&result.ProcessedAt, &result.ModelUsed, &durationMS, &result.Stats.FieldsProcessed,
		&result.Stats.TotalFields, &result.Stats.SuccessRate, &failed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("result for job %s: %w", jobID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	result.ProcessedAt = result.ProcessedAt.UTC()
	result.Duration = time.Duration(durationMS) * time.Millisecond
	if result.Stats.FailedFields, err = decodeJSON[[]string](failed); err != nil {
		return nil, err
	}

	if result.Tradelines, err = s.getTradelines(ctx, jobID); err != nil {
		return nil, err
	}
	if result.Consumer, err = s.getConsumer(ctx, jobID); err != nil {
		return nil, err
	}
	if result.Validation, err = s.getValidation(ctx, jobID); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *SQLiteStorage) getTradelines(ctx context.Context, jobID string) ([]model.Tradeline, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT creditor_name, account_number, account_type, balance, credit_limit,
			monthly_payment, payment_status, status_text, date_opened, date_closed,
			credit_bureau, payment_history, notes, parse_failures, confidence, is_negative
		FROM tradelines WHERE job_id = ? ORDER BY position`, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tradelines: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tradelines []model.Tradeline
	for rows.Next() {
		var (
			t                        model.Tradeline
			balance, limit, payment  decimal.NullDecimal
			opened, closed           sql.NullString
			history, notes, failures string
		)
		if err := rows.Scan(&t.CreditorName, &t.AccountNumber, &t.AccountType, &balance, &limit,
			&payment, &t.PaymentStatus, &t.StatusText, &opened, &closed, &t.CreditBureau,
			&history, &notes, &failures, &t.Confidence, &t.IsNegative); err != nil {
			return nil, fmt.Errorf("failed to scan tradeline: %w", err)
		}

		t.Balance = decimalPtr(balance)
		t.CreditLimit = decimalPtr(limit)
		t.MonthlyPayment = decimalPtr(payment)
		if t.DateOpened, err = datePtr(opened); err != nil {
			return nil, err
		}
		if t.DateClosed, err = datePtr(closed); err != nil {
			return nil, err
		}
		if t.PaymentHistory, err = decodeJSON[[]string](history); err != nil {
			return nil, err
		}
		if t.Notes, err = decodeJSON[[]string](notes); err != nil {
			return nil, err
		}
		if t.ParseFailures, err = decodeJSON[[]string](failures); err != nil {
			return nil, err
		}
		tradelines = append(tradelines, t)
	}
	return tradelines, rows.Err()
}

func (s *SQLiteStorage) getConsumer(ctx context.Context, jobID string) (*model.ConsumerInfo, error) {
	var (
		c                           model.ConsumerInfo
		dob                         sql.NullString
		addresses, phones, failures string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT name, ssn, date_of_birth, addresses, phone_numbers, parse_failures, confidence
		FROM consumer_info WHERE job_id = ?`, jobID).Scan(
		&c.Name, &c.SSN, &dob, &addresses, &phones, &failures, &c.Confidence)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get consumer info: %w", err)
	}

	if c.DateOfBirth, err = datePtr(dob); err != nil {
		return nil, err
	}
	if c.Addresses, err = decodeJSON[[]model.Address](addresses); err != nil {
		return nil, err
	}
	if c.PhoneNumbers, err = decodeJSON[[]string](phones); err != nil {
		return nil, err
	}
	if c.ParseFailures, err = decodeJSON[[]string](failures); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *SQLiteStorage) getValidation(ctx context.Context, jobID string) (*model.ValidationResult, error) {
	var (
		v           model.ValidationResult
		suggestions string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT validated_at, total_tradelines, valid_tradelines, invalid_tradelines,
			warning_tradelines, data_quality_score, completeness, accuracy, consistency,
			reliability, overall_confidence, suggestions
		FROM validation_results WHERE job_id = ?`, jobID).Scan(
		&v.ValidatedAt, &v.Summary.TotalTradelines, &v.Summary.ValidTradelines,
		&v.Summary.InvalidTradelines, &v.Summary.WarningTradelines, &v.Summary.DataQualityScore,
		&v.Metrics.Completeness, &v.Metrics.Accuracy, &v.Metrics.Consistency,
		&v.Metrics.Reliability, &v.OverallConfidence, &suggestions)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get validation result: %w", err)
	}
	v.ValidatedAt = v.ValidatedAt.UTC()
	if v.Suggestions, err = decodeJSON[[]string](suggestions); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT tradeline_index, type, severity, field, description, suggested_fix, related_indices
		FROM validation_issues WHERE job_id = ? ORDER BY position`, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to query validation issues: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			issue   model.ValidationIssue
			index   sql.NullInt64
			related string
		)
		if err := rows.Scan(&index, &issue.Type, &issue.Severity, &issue.Field, &issue.Description,
			&issue.SuggestedFix, &related); err != nil {
			return nil, fmt.Errorf("failed to scan validation issue: %w", err)
		}
		if index.Valid {
			i := int(index.Int64)
			issue.TradelineIndex = &i
		}
		if issue.RelatedIndices, err = decodeJSON[[]int](related); err != nil {
			return nil, err
		}
		v.Issues = append(v.Issues, issue)
	}
	return &v, rows.Err()
}
