package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Veraticus/tradeflow/internal/common"
	"github.com/Veraticus/tradeflow/internal/docai"
	"github.com/Veraticus/tradeflow/internal/llm"
	"github.com/Veraticus/tradeflow/internal/model"
	"github.com/Veraticus/tradeflow/internal/pipeline"
	"github.com/Veraticus/tradeflow/internal/report"
)

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Normalize and validate pre-extracted tradeline JSON",
		Long: `Run already-extracted records through normalization and validation without
calling a language model.

FILE holds either a JSON array of tradeline objects or an object with
"consumer_info" and "tradelines" keys, in the same shape the model returns.`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}

	cmd.Flags().Bool("save", false, "Store the result as a job")
	cmd.Flags().Bool("json", false, "Print the result as JSON")

	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	save, _ := cmd.Flags().GetBool("save")
	asJSON, _ := cmd.Flags().GetBool("json")
	ctx := cmd.Context()
	path := args[0]

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	raw, err := llm.ParseExtraction(string(content))
	if err != nil {
		return common.NewUserError(fmt.Sprintf("%s does not contain tradeline JSON", path), err)
	}

	var processor *pipeline.Processor
	var job *model.Job
	if save {
		store, err := initStorage(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		if processor, err = newProcessor(nil, store); err != nil {
			return err
		}
		if job, err = processor.CreateJob(ctx, filepath.Base(path), docai.HashBytes(content)); err != nil {
			return err
		}
	} else if processor, err = newProcessor(nil, nil); err != nil {
		return err
	}

	var jobID string
	if job != nil {
		jobID = job.ID
	}
	result, err := processor.ProcessExtraction(ctx, jobID, raw)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Fprintln(out, report.NewFormatter().FormatResult(job, result))
	return nil
}
