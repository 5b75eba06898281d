package driven

import (
	"context"

	"github.com/seismo-labs/jane/internal/core/domain"
)

// IndexStore persists and searches the indexed records extracted from
// documents.
type IndexStore interface {
	// ReplaceRecords atomically replaces all records of a document with
	// the given set. Used on every (re)index.
	ReplaceRecords(ctx context.Context, documentID string, records []domain.IndexRecord) error

	// Search returns the records of a document type matching the
	// predicate set, ordered per the ordering or by insertion when nil.
	Search(ctx context.Context, typeName string, preds domain.PredicateSet, order *domain.Ordering) ([]domain.IndexRecord, error)

	// DeleteRecords removes all records of a document.
	DeleteRecords(ctx context.Context, documentID string) error
}
