package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/seismo-labs/jane/internal/adapters/driven/filemon"
)

var watchIngestRate float64

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch drop directories and ingest new files",
	Long: `Monitors the directories configured under [watch_dirs] and uploads
every file dropped into them as a document of the mapped type. Runs
until interrupted.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().Float64Var(&watchIngestRate, "rate", 4, "maximum ingests per second")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}
	if len(cfg.WatchDirs) == 0 {
		return errors.New("no watch_dirs configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for typeName, dir := range cfg.WatchDirs {
		cmd.Printf("Watching %s for %s documents\n", dir, typeName)
	}

	w := filemon.NewWatcher(documentService, cfg.WatchDirs, watchIngestRate)
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
