package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/seismo-labs/jane/internal/core/domain"
	"github.com/seismo-labs/jane/internal/core/ports/driving"
	"github.com/seismo-labs/jane/internal/core/services"
)

var queryOutput string

var stationCmd = &cobra.Command{
	Use:   "station [param=value ...]",
	Short: "Query station metadata",
	Long: `Runs an fdsnws-station style query against the indexed station
documents. Parameters use the FDSN vocabulary, for example:

  jane station network=BW channel=EH? level=channel format=text`,
	RunE: runStation,
}

var eventCmd = &cobra.Command{
	Use:   "event [param=value ...]",
	Short: "Query event catalogs",
	Long: `Runs an fdsnws-event style query against the indexed event
documents, for example:

  jane event minmagnitude=5 orderby=magnitude format=text`,
	RunE: runEvent,
}

var dataselectCmd = &cobra.Command{
	Use:   "dataselect [param=value ...]",
	Short: "Extract raw waveform data",
	Long: `Cuts raw waveform records from the indexed archive, for example:

  jane dataselect network=BW channel=EHZ starttime=2024-03-01 endtime=2024-03-02`,
	RunE: runDataselect,
}

func init() {
	for _, cmd := range []*cobra.Command{stationCmd, eventCmd, dataselectCmd} {
		cmd.Flags().StringVarP(&queryOutput, "output", "o", "", "write result to file instead of stdout")
		rootCmd.AddCommand(cmd)
	}
}

func runStation(cmd *cobra.Command, args []string) error {
	if stationService == nil {
		return errors.New("station service not configured")
	}

	params, err := parseParams(args)
	if err != nil {
		return err
	}
	req, err := services.NewStationRequest(params)
	if err != nil {
		return err
	}

	return runQuery(cmd, "station", func(ctx context.Context, w io.Writer) (*domain.QueryReport, error) {
		return stationService.Query(ctx, req, w)
	})
}

func runEvent(cmd *cobra.Command, args []string) error {
	if eventService == nil {
		return errors.New("event service not configured")
	}

	params, err := parseParams(args)
	if err != nil {
		return err
	}
	req, err := services.NewEventRequest(params)
	if err != nil {
		return err
	}

	return runQuery(cmd, "event", func(ctx context.Context, w io.Writer) (*domain.QueryReport, error) {
		return eventService.Query(ctx, req, w)
	})
}

func runDataselect(cmd *cobra.Command, args []string) error {
	if dataselectService == nil {
		return errors.New("dataselect service not configured")
	}

	params, err := parseParams(args)
	if err != nil {
		return err
	}
	req, err := services.NewDataselectRequest(params)
	if err != nil {
		return err
	}

	return runQuery(cmd, "dataselect", func(ctx context.Context, w io.Writer) (*domain.QueryReport, error) {
		return dataselectService.Query(ctx, req, w)
	})
}

// runQuery submits the query as a background job and waits up to the
// configured poll timeout. A query still running after that prints its
// handle for later retrieval with the job commands.
func runQuery(cmd *cobra.Command, kind string, fn driving.QueryFunc) error {
	ctx := context.Background()

	handle, err := jobRunner.Submit(ctx, kind, fn)
	if err != nil {
		return fmt.Errorf("submitting %s query: %w", kind, err)
	}

	job, err := jobRunner.Poll(ctx, handle, cfg.Jobs.PollTimeout)
	for errors.Is(err, domain.ErrStillProcessing) {
		// Jobs run inside this process; exiting would abandon the query.
		cmd.PrintErrf("Query %s still running...\n", handle)
		job, err = jobRunner.Poll(ctx, handle, cfg.Jobs.PollTimeout)
	}
	if err != nil {
		return err
	}

	return deliverJob(cmd, job)
}

// deliverJob prints a finished job's artifact and reports its outcome.
func deliverJob(cmd *cobra.Command, job *domain.Job) error {
	if job.Status == domain.JobFailed {
		return errors.New(job.Error)
	}

	report := job.Report
	if report == nil {
		return errors.New("job finished without a report")
	}

	switch report.StatusCode {
	case 200:
		if err := writeArtifact(cmd, string(job.ID)); err != nil {
			return err
		}
	case 413:
		return errors.New("request too broad, add channel constraints")
	default:
		cmd.PrintErrf("No matching data (%d).\n", report.StatusCode)
		return nil
	}

	if report.SkippedDocuments > 0 {
		cmd.PrintErrf("Warning: %d documents could not be parsed and were skipped.\n", report.SkippedDocuments)
	}
	return nil
}

func writeArtifact(cmd *cobra.Command, jobID string) error {
	r, err := artifactStore.Open(context.Background(), jobID)
	if err != nil {
		return fmt.Errorf("opening result: %w", err)
	}
	defer r.Close()

	var w io.Writer = cmd.OutOrStdout()
	if queryOutput != "" {
		f, err := os.Create(queryOutput)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("writing result: %w", err)
	}
	return nil
}
