// Package cli wires the cobra command tree over the core services.
package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/seismo-labs/jane/internal/adapters/driven/artifacts"
	"github.com/seismo-labs/jane/internal/adapters/driven/config/file"
	"github.com/seismo-labs/jane/internal/adapters/driven/storage/sqlite"
	"github.com/seismo-labs/jane/internal/core/domain"
	"github.com/seismo-labs/jane/internal/core/ports/driven"
	"github.com/seismo-labs/jane/internal/core/ports/driving"
	"github.com/seismo-labs/jane/internal/core/services"
	"github.com/seismo-labs/jane/internal/logger"
	"github.com/seismo-labs/jane/internal/quakeml"
	"github.com/seismo-labs/jane/internal/stationxml"
)

// version is set at build time through ldflags.
var version = "dev"

var (
	cfg   file.Config
	store *sqlite.Store

	registry          *services.Registry
	documentService   driving.DocumentManager
	stationService    driving.StationQueries
	eventService      driving.EventQueries
	dataselectService driving.DataselectQueries
	jobRunner         driving.JobRunner
	artifactStore     driven.ArtifactStore
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "jane",
	Short: "Document database for seismological metadata and waveforms",
	Long: `jane stores station metadata and event catalogs as typed XML
documents, indexes them for FDSN-style queries, and serves assembled
query results from the original documents.`,
	SilenceUsage:      true,
	PersistentPreRunE: initServices,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.jane/config.toml)")
}

// Execute runs the command tree. The store is closed on the way out.
func Execute(buildVersion string) error {
	if buildVersion != "" {
		version = buildVersion
	}
	defer func() {
		if store != nil {
			store.Close()
		}
	}()
	return rootCmd.Execute()
}

// initServices loads configuration and builds the service graph shared
// by all commands.
func initServices(_ *cobra.Command, _ []string) error {
	// Already wired, either by a previous run or by a test.
	if documentService != nil {
		return nil
	}

	var err error
	if cfg, err = file.Load(configPath); err != nil {
		return err
	}

	logger.Setup(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})

	if store, err = sqlite.NewStore(cfg.DataDir); err != nil {
		return fmt.Errorf("opening store: %w", err)
	}

	if artifactStore, err = artifacts.NewStore(cfg.ArtifactDir); err != nil {
		return fmt.Errorf("opening artifact store: %w", err)
	}

	stationType := &driven.DocumentType{
		Name:        stationxml.TypeName,
		ContentType: "text/xml",
		Indexer:     stationxml.Indexer{},
		Validator:   stationxml.Validator{},
	}
	eventType := &driven.DocumentType{
		Name:        quakeml.TypeName,
		ContentType: "text/xml",
		Indexer:     quakeml.Indexer{},
		Validator:   quakeml.Validator{},
	}

	registry = services.NewRegistry(stationType, eventType)
	documentService = services.NewDocumentService(registry, store.DocumentStore(), store.IndexStore())
	stationService = services.NewStationService(store.DocumentStore(), store.IndexStore(), stationType,
		stationxml.Header{
			Source:    cfg.FDSN.Source,
			Sender:    cfg.FDSN.Sender,
			Module:    "jane " + version,
			ModuleURI: cfg.FDSN.ModuleURI,
		})
	eventService = services.NewEventService(store.DocumentStore(), store.IndexStore(), eventType,
		"smi:"+cfg.FDSN.Source+"/catalog")
	dataselectService = services.NewDataselectService(store.TraceStore())
	jobRunner = services.NewJobManager(artifactStore, cfg.Jobs.Workers)

	return nil
}

// parseParams turns key=value arguments into query parameters. Repeated
// keys accumulate as alternatives.
func parseParams(args []string) (domain.QueryParams, error) {
	params := make(domain.QueryParams, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected key=value", arg)
		}
		params[key] = append(params[key], value)
	}
	return params, nil
}
