package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/seismo-labs/jane/internal/core/domain"
	"github.com/seismo-labs/jane/internal/core/ports/driven"
)

// fakeDocStore is an in-memory document store that counts payload
// reads, so tests can assert each document is opened at most once per
// query.
type fakeDocStore struct {
	mu    sync.Mutex
	byKey map[string]domain.Document // typeName/name
	byID  map[string][]byte
	opens map[string]int
}

var _ driven.DocumentStore = (*fakeDocStore)(nil)

func newFakeDocStore() *fakeDocStore {
	return &fakeDocStore{
		byKey: make(map[string]domain.Document),
		byID:  make(map[string][]byte),
		opens: make(map[string]int),
	}
}

func (s *fakeDocStore) put(id string, data []byte) {
	s.byID[id] = data
}

func (s *fakeDocStore) Save(ctx context.Context, doc domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byKey[doc.TypeName+"/"+doc.Name] = doc
	s.byID[doc.ID] = doc.Data
	return nil
}

func (s *fakeDocStore) Get(ctx context.Context, typeName, name string) (*domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.byKey[typeName+"/"+name]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", typeName, name, domain.ErrNotFound)
	}
	doc.Data = nil
	return &doc, nil
}

func (s *fakeDocStore) GetData(ctx context.Context, documentID string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.byID[documentID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", documentID, domain.ErrNotFound)
	}
	s.opens[documentID]++
	return data, nil
}

func (s *fakeDocStore) List(ctx context.Context, typeName string) ([]domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Document
	for _, doc := range s.byKey {
		if doc.TypeName == typeName {
			doc.Data = nil
			out = append(out, doc)
		}
	}
	return out, nil
}

func (s *fakeDocStore) HasSHA1(ctx context.Context, typeName, sha1 string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range s.byKey {
		if doc.TypeName == typeName && doc.SHA1 == sha1 {
			return doc.Name, true, nil
		}
	}
	return "", false, nil
}

func (s *fakeDocStore) Delete(ctx context.Context, typeName, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := typeName + "/" + name
	doc, ok := s.byKey[key]
	if !ok {
		return fmt.Errorf("%s: %w", key, domain.ErrNotFound)
	}
	delete(s.byKey, key)
	delete(s.byID, doc.ID)
	return nil
}

// fakeIndexStore returns canned records and remembers the last search
// arguments.
type fakeIndexStore struct {
	mu        sync.Mutex
	records   map[string][]domain.IndexRecord
	replaced  map[string][]domain.IndexRecord
	lastPreds domain.PredicateSet
	lastOrder *domain.Ordering
}

var _ driven.IndexStore = (*fakeIndexStore)(nil)

func newFakeIndexStore() *fakeIndexStore {
	return &fakeIndexStore{
		records:  make(map[string][]domain.IndexRecord),
		replaced: make(map[string][]domain.IndexRecord),
	}
}

func (s *fakeIndexStore) ReplaceRecords(ctx context.Context, documentID string, records []domain.IndexRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaced[documentID] = records
	return nil
}

func (s *fakeIndexStore) Search(ctx context.Context, typeName string, preds domain.PredicateSet, order *domain.Ordering) ([]domain.IndexRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastPreds = preds
	s.lastOrder = order
	return s.records[typeName], nil
}

func (s *fakeIndexStore) DeleteRecords(ctx context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.replaced, documentID)
	return nil
}

// fakeArtifactStore keeps artifacts in memory.
type fakeArtifactStore struct {
	mu    sync.Mutex
	blobs map[string]*bytes.Buffer
}

var _ driven.ArtifactStore = (*fakeArtifactStore)(nil)

func newFakeArtifactStore() *fakeArtifactStore {
	return &fakeArtifactStore{blobs: make(map[string]*bytes.Buffer)}
}

type nopWriteCloser struct{ *bytes.Buffer }

func (nopWriteCloser) Close() error { return nil }

func (s *fakeArtifactStore) Create(ctx context.Context, jobID string) (io.WriteCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[jobID]; ok {
		return nil, domain.ErrAlreadyExists
	}
	buf := &bytes.Buffer{}
	s.blobs[jobID] = buf
	return nopWriteCloser{buf}, nil
}

func (s *fakeArtifactStore) Open(ctx context.Context, jobID string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf, ok := s.blobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(buf.Bytes())), nil
}

func (s *fakeArtifactStore) Path(jobID string) string {
	return "mem://" + jobID
}

func (s *fakeArtifactStore) Remove(ctx context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, jobID)
	return nil
}

func (s *fakeArtifactStore) contents(jobID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if buf, ok := s.blobs[jobID]; ok {
		return buf.String()
	}
	return ""
}
