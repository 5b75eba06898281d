package driven

import (
	"context"

	"github.com/seismo-labs/jane/internal/core/domain"
)

// Indexer extracts the searchable records of one document type.
type Indexer interface {
	// Index parses a document payload and returns one record per
	// indexable entity. Returns an error when the payload cannot be
	// parsed at all.
	Index(ctx context.Context, data []byte) ([]domain.IndexRecord, error)

	// Schema returns the attribute schema the records follow.
	Schema() domain.AttributeSchema
}

// Validator checks a document payload before it is accepted.
type Validator interface {
	// Validate returns domain.ErrValidationFailed (wrapped with detail)
	// when the payload is not an acceptable document of the type.
	Validate(ctx context.Context, data []byte) error
}

// DocumentType describes one registered document type. Descriptors are
// constructed at startup and injected; nothing looks types up by name
// mid-query.
type DocumentType struct {
	// Name identifies the type ("stationxml", "quakeml").
	Name string

	// ContentType of documents of this type.
	ContentType string

	Indexer   Indexer
	Validator Validator
}

// Schema returns the indexer's attribute schema.
func (t *DocumentType) Schema() domain.AttributeSchema {
	return t.Indexer.Schema()
}
