// Package filemon watches drop directories and ingests files that
// appear in them.
package filemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"github.com/seismo-labs/jane/internal/core/domain"
	"github.com/seismo-labs/jane/internal/core/ports/driving"
	"github.com/seismo-labs/jane/internal/logger"
)

// Watcher monitors one directory per document type and uploads every
// file dropped into it. Each ingest is throttled through a shared rate
// limiter so a bulk copy into a watched directory does not monopolise
// the store.
type Watcher struct {
	uploader driving.DocumentManager
	dirs     map[string]string // type name -> directory
	limiter  *rate.Limiter
}

// NewWatcher creates a watcher over the given type -> directory map.
func NewWatcher(uploader driving.DocumentManager, dirs map[string]string, ingestsPerSec float64) *Watcher {
	if ingestsPerSec <= 0 {
		ingestsPerSec = 4
	}
	return &Watcher{
		uploader: uploader,
		dirs:     dirs,
		limiter:  rate.NewLimiter(rate.Limit(ingestsPerSec), 1),
	}
}

// Run watches until the context is cancelled. Files already present at
// startup are ingested first.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	byDir := make(map[string]string, len(w.dirs))
	for typeName, dir := range w.dirs {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", dir, err)
		}
		if err := fw.Add(abs); err != nil {
			return fmt.Errorf("watching %s: %w", abs, err)
		}
		byDir[abs] = typeName
	}

	for dir, typeName := range byDir {
		if err := w.ingestExisting(ctx, typeName, dir); err != nil {
			return err
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			typeName, ok := byDir[filepath.Dir(event.Name)]
			if !ok {
				continue
			}
			w.ingest(ctx, typeName, event.Name)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) ingestExisting(ctx context.Context, typeName, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("listing %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		w.ingest(ctx, typeName, filepath.Join(dir, entry.Name()))
	}
	return nil
}

// ingest uploads one file. Failures are logged, never fatal, so one bad
// file cannot stop the watcher.
func (w *Watcher) ingest(ctx context.Context, typeName, path string) {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") {
		return
	}

	if err := w.limiter.Wait(ctx); err != nil {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("reading dropped file", "path", path, "error", err)
		return
	}

	doc, err := w.uploader.Upload(ctx, typeName, name, data)
	switch {
	case err == nil:
		logger.Info("ingested dropped file", "type", typeName, "name", name, "id", doc.ID)
	case isBenign(err):
		logger.Debug("skipping dropped file", "path", path, "reason", err.Error())
	default:
		logger.Warn("ingesting dropped file", "path", path, "error", err)
	}
}

// isBenign reports errors expected during normal operation: duplicate
// drops and editors writing partial content that fails validation until
// the final write.
func isBenign(err error) bool {
	return errors.Is(err, domain.ErrAlreadyExists) || errors.Is(err, domain.ErrValidationFailed)
}
