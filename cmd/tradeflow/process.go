package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Veraticus/tradeflow/internal/docai"
	"github.com/Veraticus/tradeflow/internal/report"
)

func processCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process [files...]",
		Short: "Extract and validate tradelines from credit reports",
		Long: `Load each credit report, extract tradelines and consumer details with the
configured language model, normalize and validate them, and store the result.

Text (.txt) and pre-extracted (.json) documents load directly. PDFs and images
require a Document AI processor (docai.project, docai.processor).

Examples:
  # Process a single report
  tradeflow process ~/Downloads/experian.pdf

  # Process several reports, re-running ones already processed
  tradeflow process --force ~/reports/*.pdf`,
		Args: cobra.MinimumNArgs(1),
		RunE: runProcess,
	}

	cmd.Flags().BoolP("force", "f", false, "Reprocess documents that already have a completed job")
	cmd.Flags().BoolP("quiet", "q", false, "Only print the summary line per document")

	return cmd
}

func runProcess(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")
	quiet, _ := cmd.Flags().GetBool("quiet")
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	files, err := expandFiles(args)
	if err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	loader, err := createLoader(ctx)
	if err != nil {
		return err
	}

	extractor, err := createExtractor()
	if err != nil {
		return err
	}
	defer extractor.Close()

	processor, err := newProcessor(extractor, store)
	if err != nil {
		return err
	}

	formatter := report.NewFormatter()

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Processing reports...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr())
		}),
	)

	var failed, skipped int
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := filepath.Base(path)
		bar.Describe(fmt.Sprintf("[cyan][bold]%s[reset]", name))

		if !force {
			hash, err := docai.HashFile(path)
			if err != nil {
				slog.Error("Failed to read document", "file", path, "error", err)
				failed++
				_ = bar.Add(1)
				continue
			}
			if job, ok, err := processor.FindCompleted(ctx, hash); err != nil {
				return err
			} else if ok {
				slog.Info("Skipping already processed document", "file", name, "job_id", job.ID)
				skipped++
				_ = bar.Add(1)
				continue
			}
		}

		doc, err := loader.Load(ctx, path)
		if err != nil {
			slog.Error("Failed to load document", "file", path, "error", err)
			failed++
			_ = bar.Add(1)
			continue
		}

		job, err := processor.CreateJob(ctx, doc.Source, doc.SourceHash)
		if err != nil {
			return err
		}

		result, err := processor.ProcessDocument(ctx, job.ID, doc)
		_ = bar.Add(1)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Error("Failed to process document", "file", name, "job_id", job.ID, "error", err)
			failed++
			continue
		}

		if quiet {
			fmt.Fprintln(out, report.FormatSuccess(fmt.Sprintf("%s: %d tradelines, confidence %.0f%% (job %s)",
				name, len(result.Tradelines), result.Validation.OverallConfidence*100, job.ID)))
		} else {
			fmt.Fprintln(out, formatter.FormatResult(job, result))
		}
	}

	processed := len(files) - failed - skipped
	fmt.Fprintln(out, report.FormatInfo(fmt.Sprintf("Processed %d, skipped %d, failed %d", processed, skipped, failed)))

	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(files))
	}
	return nil
}

// expandFiles resolves glob patterns, keeping literal paths that exist.
func expandFiles(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err == nil {
				files = append(files, pattern)
			} else {
				slog.Warn("No files found matching pattern", "pattern", pattern)
			}
			continue
		}
		files = append(files, matches...)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no files found to process")
	}
	return files, nil
}
