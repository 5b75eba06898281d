package driven

import (
	"context"

	"github.com/seismo-labs/jane/internal/core/domain"
)

// DocumentStore persists raw documents. Documents are unique per
// (type, name); saving an existing pair replaces the stored data.
type DocumentStore interface {
	// Save stores a document. Creates if new, replaces if the
	// (type, name) pair exists.
	Save(ctx context.Context, doc domain.Document) error

	// Get retrieves a document by type and name, without its data.
	// Returns domain.ErrNotFound if it does not exist.
	Get(ctx context.Context, typeName, name string) (*domain.Document, error)

	// GetData retrieves the raw payload of a document by id.
	GetData(ctx context.Context, documentID string) ([]byte, error)

	// List returns all documents of a type, without their data.
	List(ctx context.Context, typeName string) ([]domain.Document, error)

	// HasSHA1 reports whether a document of the type with the given
	// content hash already exists, returning its name.
	HasSHA1(ctx context.Context, typeName, sha1 string) (string, bool, error)

	// Delete removes a document and, through the schema, its index
	// records. Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, typeName, name string) error
}
