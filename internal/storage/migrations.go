package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

func execAll(tx *sql.Tx, queries []string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS jobs (
					id TEXT PRIMARY KEY,
					source_name TEXT NOT NULL,
					status TEXT NOT NULL,
					error TEXT NOT NULL DEFAULT '',
					created_at DATETIME NOT NULL,
					completed_at DATETIME
				)`,
				`CREATE INDEX idx_jobs_status ON jobs(status)`,
				`CREATE INDEX idx_jobs_created_at ON jobs(created_at)`,

				`CREATE TABLE IF NOT EXISTS results (
					job_id TEXT PRIMARY KEY,
					processed_at DATETIME NOT NULL,
					model_used TEXT NOT NULL DEFAULT '',
					duration_ms INTEGER NOT NULL DEFAULT 0,
					fields_processed INTEGER NOT NULL DEFAULT 0,
					total_fields INTEGER NOT NULL DEFAULT 0,
					success_rate REAL NOT NULL DEFAULT 0,
					failed_fields TEXT NOT NULL DEFAULT '[]',
					FOREIGN KEY (job_id) REFERENCES jobs(id) ON DELETE CASCADE
				)`,

				`CREATE TABLE IF NOT EXISTS tradelines (
					job_id TEXT NOT NULL,
					position INTEGER NOT NULL,
					creditor_name TEXT NOT NULL DEFAULT '',
					account_number TEXT NOT NULL DEFAULT '',
					account_type TEXT NOT NULL DEFAULT '',
					balance TEXT,
					credit_limit TEXT,
					monthly_payment TEXT,
					payment_status TEXT NOT NULL DEFAULT '',
					status_text TEXT NOT NULL DEFAULT '',
					date_opened TEXT,
					date_closed TEXT,
					credit_bureau TEXT NOT NULL DEFAULT '',
					payment_history TEXT NOT NULL DEFAULT '[]',
					notes TEXT NOT NULL DEFAULT '[]',
					parse_failures TEXT NOT NULL DEFAULT '[]',
					confidence REAL NOT NULL DEFAULT 0,
					is_negative INTEGER NOT NULL DEFAULT 0,
					PRIMARY KEY (job_id, position),
					FOREIGN KEY (job_id) REFERENCES jobs(id) ON DELETE CASCADE
				)`,
				`CREATE INDEX idx_tradelines_creditor ON tradelines(creditor_name)`,

				`CREATE TABLE IF NOT EXISTS consumer_info (
					job_id TEXT PRIMARY KEY,
					name TEXT NOT NULL DEFAULT '',
					ssn TEXT NOT NULL DEFAULT '',
					date_of_birth TEXT,
					addresses TEXT NOT NULL DEFAULT '[]',
					phone_numbers TEXT NOT NULL DEFAULT '[]',
					parse_failures TEXT NOT NULL DEFAULT '[]',
					confidence REAL NOT NULL DEFAULT 0,
					FOREIGN KEY (job_id) REFERENCES jobs(id) ON DELETE CASCADE
				)`,
			})
		},
	},
	{
		Version:     2,
		Description: "Add validation results and issues",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS validation_results (
					job_id TEXT PRIMARY KEY,
					validated_at DATETIME NOT NULL,
					total_tradelines INTEGER NOT NULL,
					valid_tradelines INTEGER NOT NULL,
					invalid_tradelines INTEGER NOT NULL,
					warning_tradelines INTEGER NOT NULL,
					data_quality_score REAL NOT NULL,
					completeness REAL NOT NULL,
					accuracy REAL NOT NULL,
					consistency REAL NOT NULL,
					reliability REAL NOT NULL,
					overall_confidence REAL NOT NULL,
					suggestions TEXT NOT NULL DEFAULT '[]',
					FOREIGN KEY (job_id) REFERENCES jobs(id) ON DELETE CASCADE
				)`,
				`CREATE TABLE IF NOT EXISTS validation_issues (
					job_id TEXT NOT NULL,
					position INTEGER NOT NULL,
					tradeline_index INTEGER,
					type TEXT NOT NULL,
					severity TEXT NOT NULL,
					field TEXT NOT NULL DEFAULT '',
					description TEXT NOT NULL,
					suggested_fix TEXT NOT NULL DEFAULT '',
					related_indices TEXT NOT NULL DEFAULT '[]',
					PRIMARY KEY (job_id, position),
					FOREIGN KEY (job_id) REFERENCES jobs(id) ON DELETE CASCADE
				)`,
				`CREATE INDEX idx_validation_issues_severity ON validation_issues(severity)`,
			})
		},
	},
	{
		Version:     3,
		Description: "Add source hash to jobs for duplicate document detection",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`ALTER TABLE jobs ADD COLUMN source_hash TEXT NOT NULL DEFAULT ''`,
				`CREATE INDEX idx_jobs_source_hash ON jobs(source_hash)`,
			})
		},
	},
}

// SchemaVersion returns the schema version recorded in the database.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	currentVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	finalVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
