package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seismo-labs/jane/internal/core/domain"
)

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Inspect background queries",
}

var jobStatusCmd = &cobra.Command{
	Use:   "status [handle]",
	Short: "Show the state of a background query",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobStatus,
}

var jobResultCmd = &cobra.Command{
	Use:   "result [handle]",
	Short: "Print the result of a finished query",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobResult,
}

func init() {
	jobResultCmd.Flags().StringVarP(&queryOutput, "output", "o", "", "write result to file instead of stdout")
	jobCmd.AddCommand(jobStatusCmd)
	jobCmd.AddCommand(jobResultCmd)
	rootCmd.AddCommand(jobCmd)
}

func runJobStatus(cmd *cobra.Command, args []string) error {
	if jobRunner == nil {
		return errors.New("job runner not configured")
	}

	job, err := jobRunner.Get(context.Background(), domain.JobHandle(args[0]))
	if err != nil {
		return fmt.Errorf("looking up job: %w", err)
	}

	cmd.Printf("Job: %s\n\n", job.ID)
	cmd.Printf("  Kind:     %s\n", job.Kind)
	cmd.Printf("  Status:   %s\n", job.Status)
	cmd.Printf("  Created:  %s\n", job.CreatedAt.Format("2006-01-02 15:04:05"))
	if !job.StartedAt.IsZero() {
		cmd.Printf("  Started:  %s\n", job.StartedAt.Format("2006-01-02 15:04:05"))
	}
	if !job.CompletedAt.IsZero() {
		cmd.Printf("  Finished: %s\n", job.CompletedAt.Format("2006-01-02 15:04:05"))
	}
	if job.Error != "" {
		cmd.Printf("  Error:    %s\n", job.Error)
	}
	if job.Report != nil {
		cmd.Printf("  Matched:  %d records\n", job.Report.MatchedRecords)
		if job.Report.SkippedDocuments > 0 {
			cmd.Printf("  Skipped:  %d documents\n", job.Report.SkippedDocuments)
		}
	}
	return nil
}

func runJobResult(cmd *cobra.Command, args []string) error {
	if jobRunner == nil {
		return errors.New("job runner not configured")
	}

	job, err := jobRunner.Get(context.Background(), domain.JobHandle(args[0]))
	if err != nil {
		return fmt.Errorf("looking up job: %w", err)
	}
	if !job.Done() {
		return fmt.Errorf("job %s: %w", job.ID, domain.ErrStillProcessing)
	}
	return deliverJob(cmd, job)
}
