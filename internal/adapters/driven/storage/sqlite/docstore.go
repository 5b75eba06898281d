package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/seismo-labs/jane/internal/core/domain"
	"github.com/seismo-labs/jane/internal/core/ports/driven"
)

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// Save stores or replaces a document under its (type, name) pair. The
// document id is preserved on replacement through the unique key.
func (s *documentStore) Save(ctx context.Context, doc domain.Document) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO documents (id, type_name, name, content_type, data, sha1, filesize, created_at, modified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(type_name, name) DO UPDATE SET
			content_type = excluded.content_type,
			data = excluded.data,
			sha1 = excluded.sha1,
			filesize = excluded.filesize,
			modified_at = excluded.modified_at
	`, doc.ID, doc.TypeName, doc.Name, doc.ContentType, doc.Data, doc.SHA1,
		doc.Filesize, doc.CreatedAt.UTC(), doc.ModifiedAt.UTC())

	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// Get retrieves a document by type and name, without its payload.
func (s *documentStore) Get(ctx context.Context, typeName, name string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, type_name, name, content_type, sha1, filesize, created_at, modified_at
		FROM documents WHERE type_name = ? AND name = ?
	`, typeName, name)

	var doc domain.Document
	var createdAt, modifiedAt sql.NullTime
	if err := row.Scan(&doc.ID, &doc.TypeName, &doc.Name, &doc.ContentType,
		&doc.SHA1, &doc.Filesize, &createdAt, &modifiedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	if createdAt.Valid {
		doc.CreatedAt = createdAt.Time
	}
	if modifiedAt.Valid {
		doc.ModifiedAt = modifiedAt.Time
	}
	return &doc, nil
}

// GetData retrieves the raw payload of a document.
func (s *documentStore) GetData(ctx context.Context, documentID string) ([]byte, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT data FROM documents WHERE id = ?", documentID)

	var data []byte
	if err := row.Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document data: %w", err)
	}
	return data, nil
}

// List returns all documents of a type, without their payloads.
func (s *documentStore) List(ctx context.Context, typeName string) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, type_name, name, content_type, sha1, filesize, created_at, modified_at
		FROM documents WHERE type_name = ?
		ORDER BY name
	`, typeName)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		var doc domain.Document
		var createdAt, modifiedAt sql.NullTime
		if err := rows.Scan(&doc.ID, &doc.TypeName, &doc.Name, &doc.ContentType,
			&doc.SHA1, &doc.Filesize, &createdAt, &modifiedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		if createdAt.Valid {
			doc.CreatedAt = createdAt.Time
		}
		if modifiedAt.Valid {
			doc.ModifiedAt = modifiedAt.Time
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// HasSHA1 reports whether a document of the type with the given content
// hash exists.
func (s *documentStore) HasSHA1(ctx context.Context, typeName, sha1 string) (string, bool, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT name FROM documents WHERE type_name = ? AND sha1 = ?", typeName, sha1)

	var name string
	if err := row.Scan(&name); err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, fmt.Errorf("checking document hash: %w", err)
	}
	return name, true, nil
}

// Delete removes a document. Index records follow through the foreign
// key cascade.
func (s *documentStore) Delete(ctx context.Context, typeName, name string) error {
	res, err := s.store.db.ExecContext(ctx,
		"DELETE FROM documents WHERE type_name = ? AND name = ?", typeName, name)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
