package services

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/seismo-labs/jane/internal/core/domain"
	"github.com/seismo-labs/jane/internal/core/ports/driven"
	"github.com/seismo-labs/jane/internal/core/ports/driving"
	"github.com/seismo-labs/jane/internal/logger"
	"github.com/seismo-labs/jane/internal/metrics"
)

// DocumentService handles document ingestion: validation, duplicate
// detection, persistence and (re)indexing.
type DocumentService struct {
	registry *Registry
	docs     driven.DocumentStore
	index    driven.IndexStore
	now      func() time.Time
}

var _ driving.DocumentManager = (*DocumentService)(nil)

// NewDocumentService creates the ingestion service.
func NewDocumentService(registry *Registry, docs driven.DocumentStore, index driven.IndexStore) *DocumentService {
	return &DocumentService{registry: registry, docs: docs, index: index, now: time.Now}
}

// Upload validates, stores and indexes a document. Uploading to an
// existing (type, name) replaces the document and its index records.
// A payload already stored under a different name of the same type is
// rejected as a duplicate.
func (s *DocumentService) Upload(ctx context.Context, typeName, name string, data []byte) (*domain.Document, error) {
	dt, err := s.registry.Get(typeName)
	if err != nil {
		return nil, err
	}
	if err := dt.Validator.Validate(ctx, data); err != nil {
		return nil, fmt.Errorf("validating %s/%s: %w", typeName, name, err)
	}

	sum := sha1.Sum(data)
	digest := hex.EncodeToString(sum[:])
	existingName, found, err := s.docs.HasSHA1(ctx, typeName, digest)
	if err != nil {
		return nil, fmt.Errorf("checking for duplicate: %w", err)
	}
	if found && existingName != name {
		return nil, fmt.Errorf("identical document already stored as %s/%s: %w",
			typeName, existingName, domain.ErrAlreadyExists)
	}

	records, err := dt.Indexer.Index(ctx, data)
	if err != nil {
		return nil, &domain.ParseError{DocumentID: typeName + "/" + name, Err: err}
	}

	now := s.now()
	doc := domain.Document{
		ID:          uuid.NewString(),
		TypeName:    typeName,
		Name:        name,
		ContentType: dt.ContentType,
		Data:        data,
		SHA1:        digest,
		Filesize:    len(data),
		CreatedAt:   now,
		ModifiedAt:  now,
	}
	if prev, err := s.docs.Get(ctx, typeName, name); err == nil {
		doc.ID = prev.ID
		doc.CreatedAt = prev.CreatedAt
	}

	if err := s.docs.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("saving document: %w", err)
	}
	for i := range records {
		records[i].DocumentID = doc.ID
	}
	if err := s.index.ReplaceRecords(ctx, doc.ID, records); err != nil {
		return nil, fmt.Errorf("indexing document: %w", err)
	}

	metrics.DocumentsIngested.WithLabelValues(typeName).Inc()
	metrics.RecordsIndexed.Add(float64(len(records)))
	logger.Info("document ingested",
		"type", typeName, "name", name, "records", len(records), "bytes", len(data))

	doc.Data = nil
	return &doc, nil
}

// Delete removes a document and its index records.
func (s *DocumentService) Delete(ctx context.Context, typeName, name string) error {
	doc, err := s.docs.Get(ctx, typeName, name)
	if err != nil {
		return err
	}
	if err := s.index.DeleteRecords(ctx, doc.ID); err != nil {
		return fmt.Errorf("deleting index records: %w", err)
	}
	if err := s.docs.Delete(ctx, typeName, name); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	logger.Info("document deleted", "type", typeName, "name", name)
	return nil
}

// List returns the stored documents of a type.
func (s *DocumentService) List(ctx context.Context, typeName string) ([]domain.Document, error) {
	if _, err := s.registry.Get(typeName); err != nil {
		return nil, err
	}
	return s.docs.List(ctx, typeName)
}
