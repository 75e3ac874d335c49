package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/tradeflow/internal/common"
	"github.com/Veraticus/tradeflow/internal/model"
	"github.com/Veraticus/tradeflow/internal/report"
	"github.com/Veraticus/tradeflow/internal/service"
)

func jobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and clean up processing jobs",
	}

	cmd.AddCommand(jobsListCmd())
	cmd.AddCommand(jobsShowCmd())
	cmd.AddCommand(jobsCleanupCmd())

	return cmd
}

func jobsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, _ := cmd.Flags().GetString("status")
			limit, _ := cmd.Flags().GetInt("limit")

			filter := service.JobFilter{Limit: limit}
			if status != "" {
				s, err := parseJobStatus(status)
				if err != nil {
					return err
				}
				filter.Status = s
			}

			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			jobs, err := store.ListJobs(ctx, filter)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.NewFormatter().FormatJobs(jobs))
			return nil
		},
	}

	cmd.Flags().String("status", "", "Only show jobs with this status (pending, processing, completed, failed)")
	cmd.Flags().IntP("limit", "n", 20, "Maximum number of jobs to show")

	return cmd
}

func jobsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show JOB_ID",
		Short: "Show the validation report for a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			job, err := store.GetJob(ctx, args[0])
			if err != nil {
				return notFoundAsUserError(err, args[0])
			}

			out := cmd.OutOrStdout()
			if job.Status != model.JobStatusCompleted {
				fmt.Fprintln(out, report.NewFormatter().FormatJobs([]model.Job{*job}))
				return nil
			}

			result, err := store.GetResult(ctx, job.ID)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, report.NewFormatter().FormatResult(job, result))
			return nil
		},
	}
}

func jobsCleanupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete jobs and results older than a retention period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			olderThan, _ := cmd.Flags().GetDuration("older-than")
			if olderThan <= 0 {
				return common.NewUserError("--older-than must be positive", common.ErrInvalidConfig)
			}

			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			deleted, err := store.DeleteJobsBefore(ctx, time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.FormatSuccess(fmt.Sprintf("Deleted %d jobs", deleted)))
			return nil
		},
	}

	cmd.Flags().Duration("older-than", 30*24*time.Hour, "Delete jobs created before this long ago")

	return cmd
}

func parseJobStatus(s string) (model.JobStatus, error) {
	status := model.JobStatus(strings.ToLower(strings.TrimSpace(s)))
	switch status {
	case model.JobStatusPending, model.JobStatusProcessing, model.JobStatusCompleted, model.JobStatusFailed:
		return status, nil
	default:
		return "", common.NewUserError(fmt.Sprintf("Unknown job status %q", s), common.ErrInvalidConfig)
	}
}

func notFoundAsUserError(err error, id string) error {
	if errors.Is(err, common.ErrNotFound) {
		return common.NewUserError(fmt.Sprintf("No job with ID %s", id), err)
	}
	return err
}
