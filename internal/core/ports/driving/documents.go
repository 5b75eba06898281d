package driving

import (
	"context"

	"github.com/seismo-labs/jane/internal/core/domain"
)

// DocumentManager handles document ingestion and removal.
type DocumentManager interface {
	// Upload validates, stores and indexes a document. Replaces an
	// existing document with the same (type, name). Returns
	// domain.ErrAlreadyExists when an identical payload is already
	// stored under a different name.
	Upload(ctx context.Context, typeName, name string, data []byte) (*domain.Document, error)

	// Delete removes a document and its index records.
	Delete(ctx context.Context, typeName, name string) error

	// List returns the stored documents of a type.
	List(ctx context.Context, typeName string) ([]domain.Document, error)
}
