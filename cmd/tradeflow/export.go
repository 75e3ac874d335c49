package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/tradeflow/internal/common"
	"github.com/Veraticus/tradeflow/internal/model"
	"github.com/Veraticus/tradeflow/internal/report"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export JOB_ID",
		Short: "Export a job's tradelines and issues",
		Long: `Write a completed job's result as an Excel workbook (summary, tradelines and
issues sheets) or as JSON.

Examples:
  tradeflow export 3f0c... -o report.xlsx
  tradeflow export 3f0c... --format json > report.json`,
		Args: cobra.ExactArgs(1),
		RunE: runExport,
	}

	cmd.Flags().StringP("output", "o", "", "Output file (default: stdout for json, <job>.xlsx for xlsx)")
	cmd.Flags().String("format", "", "Output format: xlsx or json (default: from output extension, else xlsx)")

	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	format, _ := cmd.Flags().GetString("format")
	ctx := cmd.Context()

	format, err := exportFormat(format, output)
	if err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	job, err := store.GetJob(ctx, args[0])
	if err != nil {
		return notFoundAsUserError(err, args[0])
	}
	if job.Status != model.JobStatusCompleted {
		return common.NewUserError(fmt.Sprintf("Job %s is %s, only completed jobs can be exported", job.ID, job.Status), nil)
	}

	result, err := store.GetResult(ctx, job.ID)
	if err != nil {
		return err
	}

	if output == "" && format == "xlsx" {
		output = job.ID + ".xlsx"
	}

	var w io.Writer = cmd.OutOrStdout()
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", output, err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(result)
	default:
		err = report.ExportXLSX(w, job, result)
	}
	if err != nil {
		return err
	}

	if output != "" {
		slog.Info("Exported job", "job_id", job.ID, "format", format, "file", output)
	}
	return nil
}

func exportFormat(format, output string) (string, error) {
	format = strings.ToLower(format)
	if format == "" {
		if strings.HasSuffix(strings.ToLower(output), ".json") {
			return "json", nil
		}
		return "xlsx", nil
	}
	if format != "xlsx" && format != "json" {
		return "", common.NewUserError(fmt.Sprintf("Unknown export format %q", format), common.ErrInvalidConfig)
	}
	return format, nil
}
