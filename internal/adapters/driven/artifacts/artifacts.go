// Package artifacts stores job results as flat files, one per job.
package artifacts

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/seismo-labs/jane/internal/core/domain"
	"github.com/seismo-labs/jane/internal/core/ports/driven"
)

// Store writes each job artifact to <dir>/<jobID>.out. Artifacts are
// write-once, a second Create for the same job fails.
type Store struct {
	dir string
}

var _ driven.ArtifactStore = (*Store)(nil)

// NewStore creates the artifact directory if needed.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, ".jane", "artifacts")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating artifact directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Create opens the artifact file for writing. O_EXCL enforces the
// write-once guarantee.
func (s *Store) Create(_ context.Context, jobID string) (io.WriteCloser, error) {
	f, err := os.OpenFile(s.Path(jobID), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("artifact for job %s: %w", jobID, domain.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("creating artifact: %w", err)
	}
	return f, nil
}

// Open returns a reader over a finished artifact.
func (s *Store) Open(_ context.Context, jobID string) (io.ReadCloser, error) {
	f, err := os.Open(s.Path(jobID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("artifact for job %s: %w", jobID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("opening artifact: %w", err)
	}
	return f, nil
}

// Path returns the artifact's location on disk.
func (s *Store) Path(jobID string) string {
	return filepath.Join(s.dir, jobID+".out")
}

// Remove deletes an artifact. Removing a missing artifact is not an
// error.
func (s *Store) Remove(_ context.Context, jobID string) error {
	if err := os.Remove(s.Path(jobID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing artifact: %w", err)
	}
	return nil
}
