package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/seismo-labs/jane/internal/core/domain"
	"github.com/seismo-labs/jane/internal/core/ports/driven"
)

// indexStore implements driven.IndexStore on the index_records and
// attachments tables. Record attributes live in a JSON column and are
// compared through json_extract with per-type casts.
type indexStore struct {
	store *Store
}

var _ driven.IndexStore = (*indexStore)(nil)

// ReplaceRecords atomically swaps all records of a document.
func (s *indexStore) ReplaceRecords(ctx context.Context, documentID string, records []domain.IndexRecord) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var typeName string
	row := tx.QueryRowContext(ctx, "SELECT type_name FROM documents WHERE id = ?", documentID)
	if err := row.Scan(&typeName); err != nil {
		if err == sql.ErrNoRows {
			return domain.ErrNotFound
		}
		return fmt.Errorf("resolving document type: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM index_records WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("clearing records: %w", err)
	}

	for _, rec := range records {
		attrs, err := json.Marshal(rec.Attributes)
		if err != nil {
			return fmt.Errorf("encoding attributes: %w", err)
		}

		var lat, lon any
		if rec.Geometry != nil {
			lat, lon = rec.Geometry.Latitude, rec.Geometry.Longitude
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO index_records (document_id, type_name, attrs, latitude, longitude)
			VALUES (?, ?, ?, ?, ?)
		`, documentID, typeName, string(attrs), lat, lon)
		if err != nil {
			return fmt.Errorf("inserting record: %w", err)
		}

		recordID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading record id: %w", err)
		}

		for _, att := range rec.Attachments {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO attachments (record_id, category, content_type, data)
				VALUES (?, ?, ?, ?)
			`, recordID, att.Category, att.ContentType, att.Data); err != nil {
				return fmt.Errorf("inserting attachment: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing records: %w", err)
	}
	return nil
}

// Search returns the matching records of a type. Results follow the
// requested ordering with insertion order as tie break, or plain
// insertion order when no ordering is given.
func (s *indexStore) Search(ctx context.Context, typeName string, preds domain.PredicateSet, order *domain.Ordering) ([]domain.IndexRecord, error) {
	var sb strings.Builder
	sb.WriteString("SELECT id, document_id, attrs, latitude, longitude FROM index_records WHERE type_name = ?")
	args := []any{typeName}

	for _, clause := range preds.Clauses {
		var alts []string
		for _, p := range clause {
			frag, vals, err := compilePredicate(p)
			if err != nil {
				return nil, err
			}
			alts = append(alts, frag)
			args = append(args, vals...)
		}
		if len(alts) == 0 {
			continue
		}
		sb.WriteString(" AND (")
		sb.WriteString(strings.Join(alts, " OR "))
		sb.WriteString(")")
	}

	if order != nil {
		expr, err := attrExpr(order.Key, order.Type)
		if err != nil {
			return nil, err
		}
		dir := "ASC"
		if order.Descending {
			dir = "DESC"
		}
		fmt.Fprintf(&sb, " ORDER BY %s %s, id ASC", expr, dir)
	} else {
		sb.WriteString(" ORDER BY id ASC")
	}

	rows, err := s.store.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("searching records: %w", err)
	}
	defer rows.Close()

	var records []domain.IndexRecord
	for rows.Next() {
		var rec domain.IndexRecord
		var attrs string
		var lat, lon sql.NullFloat64
		if err := rows.Scan(&rec.ID, &rec.DocumentID, &attrs, &lat, &lon); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		if err := json.Unmarshal([]byte(attrs), &rec.Attributes); err != nil {
			return nil, fmt.Errorf("decoding attributes: %w", err)
		}
		if lat.Valid && lon.Valid {
			rec.Geometry = &domain.Point{Latitude: lat.Float64, Longitude: lon.Float64}
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}
	return records, nil
}

// DeleteRecords removes all records of a document.
func (s *indexStore) DeleteRecords(ctx context.Context, documentID string) error {
	if _, err := s.store.db.ExecContext(ctx,
		"DELETE FROM index_records WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("deleting records: %w", err)
	}
	return nil
}

// attrExpr builds the typed extraction expression for an attribute.
// Keys are schema names and never come from user input verbatim, but
// they are validated anyway before entering the SQL text.
func attrExpr(key string, vt domain.ValueType) (string, error) {
	if !safeKey(key) {
		return "", fmt.Errorf("%w: attribute %q", domain.ErrInvalidInput, key)
	}
	expr := fmt.Sprintf("json_extract(attrs, '$.%s')", key)
	switch vt {
	case domain.ValueInt:
		return "CAST(" + expr + " AS INTEGER)", nil
	case domain.ValueFloat:
		return "CAST(" + expr + " AS REAL)", nil
	default:
		// Strings compare as-is. Normalised datetimes compare
		// lexicographically. Booleans extract as 0/1.
		return expr, nil
	}
}

func safeKey(key string) bool {
	if key == "" {
		return false
	}
	for _, r := range key {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_' {
			continue
		}
		return false
	}
	return true
}

// compilePredicate renders one predicate as a SQL fragment with bound
// parameters.
func compilePredicate(p domain.Predicate) (string, []any, error) {
	expr, err := attrExpr(p.Key, p.Type)
	if err != nil {
		return "", nil, err
	}

	value := p.Value
	if b, ok := value.(bool); ok {
		if b {
			value = 1
		} else {
			value = 0
		}
	}

	switch p.Op {
	case domain.OpEquals:
		if p.FoldCase && p.Type == domain.ValueString {
			return "LOWER(" + expr + ") = LOWER(?)", []any{value}, nil
		}
		return expr + " = ?", []any{value}, nil
	case domain.OpLike:
		return "LOWER(" + expr + `) LIKE LOWER(?) ESCAPE '\'`, []any{value}, nil
	case domain.OpGT:
		return expr + " > ?", []any{value}, nil
	case domain.OpGTE:
		return expr + " >= ?", []any{value}, nil
	case domain.OpLT:
		return expr + " < ?", []any{value}, nil
	case domain.OpLTE:
		return expr + " <= ?", []any{value}, nil
	case domain.OpIsNullOrGTE:
		return "(" + expr + " IS NULL OR " + expr + " >= ?)", []any{value}, nil
	case domain.OpIsNullOrGT:
		return "(" + expr + " IS NULL OR " + expr + " > ?)", []any{value}, nil
	case domain.OpNotNullAndLT:
		return "(" + expr + " IS NOT NULL AND " + expr + " < ?)", []any{value}, nil
	default:
		return "", nil, fmt.Errorf("%w: operator %d", domain.ErrInvalidInput, p.Op)
	}
}
