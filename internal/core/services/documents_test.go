package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seismo-labs/jane/internal/core/domain"
	"github.com/seismo-labs/jane/internal/core/ports/driven"
	"github.com/seismo-labs/jane/internal/stationxml"
)

func newDocumentFixture(t *testing.T) (*DocumentService, *fakeDocStore, *fakeIndexStore) {
	t.Helper()
	docs := newFakeDocStore()
	index := newFakeIndexStore()
	registry := NewRegistry(&driven.DocumentType{
		Name:        stationxml.TypeName,
		ContentType: "text/xml",
		Indexer:     stationxml.Indexer{},
		Validator:   stationxml.Validator{},
	})
	return NewDocumentService(registry, docs, index), docs, index
}

// TestDocumentService_Upload tests ingest, indexing and the returned
// metadata.
func TestDocumentService_Upload(t *testing.T) {
	svc, docs, index := newDocumentFixture(t)

	doc, err := svc.Upload(context.Background(), stationxml.TypeName, "bw.xml", []byte(stationDocOne))
	require.NoError(t, err)

	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, stationxml.TypeName, doc.TypeName)
	assert.Equal(t, "bw.xml", doc.Name)
	assert.Equal(t, len(stationDocOne), doc.Filesize)
	assert.Len(t, doc.SHA1, 40)
	assert.Nil(t, doc.Data)

	records := index.replaced[doc.ID]
	require.Len(t, records, 2)
	assert.Equal(t, doc.ID, records[0].DocumentID)

	stored, err := docs.Get(context.Background(), stationxml.TypeName, "bw.xml")
	require.NoError(t, err)
	assert.Equal(t, doc.ID, stored.ID)
}

// TestDocumentService_ReplaceKeepsIdentity tests that re-uploading the
// same name keeps the document id and replaces the records.
func TestDocumentService_ReplaceKeepsIdentity(t *testing.T) {
	svc, _, index := newDocumentFixture(t)

	first, err := svc.Upload(context.Background(), stationxml.TypeName, "bw.xml", []byte(stationDocOne))
	require.NoError(t, err)
	second, err := svc.Upload(context.Background(), stationxml.TypeName, "bw.xml", []byte(stationDocTwo))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, index.replaced[second.ID], 1)
}

// TestDocumentService_RejectsDuplicatePayload tests sha1 dedup across
// names.
func TestDocumentService_RejectsDuplicatePayload(t *testing.T) {
	svc, _, _ := newDocumentFixture(t)

	_, err := svc.Upload(context.Background(), stationxml.TypeName, "bw.xml", []byte(stationDocOne))
	require.NoError(t, err)

	_, err = svc.Upload(context.Background(), stationxml.TypeName, "copy.xml", []byte(stationDocOne))
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

// TestDocumentService_RejectsInvalidDocument tests validator gating.
func TestDocumentService_RejectsInvalidDocument(t *testing.T) {
	svc, _, _ := newDocumentFixture(t)

	_, err := svc.Upload(context.Background(), stationxml.TypeName, "bad.xml", []byte("<quakeml/>"))
	assert.ErrorIs(t, err, domain.ErrValidationFailed)
}

// TestDocumentService_UnknownType tests descriptor lookup failures.
func TestDocumentService_UnknownType(t *testing.T) {
	svc, _, _ := newDocumentFixture(t)

	_, err := svc.Upload(context.Background(), "miniseed", "x", nil)
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
	_, err = svc.List(context.Background(), "miniseed")
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

// TestDocumentService_Delete tests removal of document and records.
func TestDocumentService_Delete(t *testing.T) {
	svc, docs, index := newDocumentFixture(t)

	doc, err := svc.Upload(context.Background(), stationxml.TypeName, "bw.xml", []byte(stationDocOne))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), stationxml.TypeName, "bw.xml"))

	_, err = docs.Get(context.Background(), stationxml.TypeName, "bw.xml")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, index.replaced[doc.ID])

	err = svc.Delete(context.Background(), stationxml.TypeName, "bw.xml")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
