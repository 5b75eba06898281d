package driven

import (
	"context"
	"io"
)

// ArtifactStore persists job results. Artifacts are written exactly
// once per job and kept until explicit cleanup.
type ArtifactStore interface {
	// Create opens a writer for a job's artifact. Returns
	// domain.ErrAlreadyExists if the artifact was written before.
	Create(ctx context.Context, jobID string) (io.WriteCloser, error)

	// Open returns a reader over a job's artifact.
	Open(ctx context.Context, jobID string) (io.ReadCloser, error)

	// Path returns where a job's artifact lives on disk.
	Path(jobID string) string

	// Remove deletes a job's artifact.
	Remove(ctx context.Context, jobID string) error
}
