package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/seismo-labs/jane/internal/core/domain"
	"github.com/seismo-labs/jane/internal/core/ports/driven"
)

// traceStore implements driven.TraceStore on the traces table.
type traceStore struct {
	store *Store
}

var _ driven.TraceStore = (*traceStore)(nil)

// traceTimeLayout is fixed width so stored timestamps compare
// lexicographically.
const traceTimeLayout = "2006-01-02T15:04:05.000000000"

// UpsertTraces replaces the trace rows of one file.
func (s *traceStore) UpsertTraces(ctx context.Context, filePath string, traces []driven.ContinuousTrace) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM traces WHERE file_path = ?", filePath); err != nil {
		return fmt.Errorf("clearing traces: %w", err)
	}

	for _, tr := range traces {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO traces (network, station, location, channel, start_time, end_time,
				sample_rate, file_path, byte_offset, byte_count)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, tr.Network, tr.Station, tr.Location, tr.Channel,
			tr.StartTime.UTC().Format(traceTimeLayout),
			tr.EndTime.UTC().Format(traceTimeLayout),
			tr.SampleRate, filePath, tr.ByteOffset, tr.ByteCount); err != nil {
			return fmt.Errorf("inserting trace: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing traces: %w", err)
	}
	return nil
}

// Query returns traces overlapping the query window whose codes match.
// Queries without any channel constraint are refused, a full-archive
// scan is never served.
func (s *traceStore) Query(ctx context.Context, q driven.TraceQuery) ([]driven.ContinuousTrace, error) {
	if len(q.Channels) == 0 {
		return nil, fmt.Errorf("%w: channel constraint required", domain.ErrRequestTooLarge)
	}

	var sb strings.Builder
	sb.WriteString(`
		SELECT id, network, station, location, channel, start_time, end_time,
			sample_rate, file_path, byte_offset, byte_count
		FROM traces WHERE start_time < ? AND end_time > ?
	`)
	args := []any{
		q.End.UTC().Format(traceTimeLayout),
		q.Start.UTC().Format(traceTimeLayout),
	}

	for _, c := range []struct {
		column string
		tokens []string
	}{
		{"network", q.Networks},
		{"station", q.Stations},
		{"location", q.Locations},
		{"channel", q.Channels},
	} {
		frag, vals := codeMatch(c.column, c.tokens)
		if frag == "" {
			continue
		}
		sb.WriteString(" AND ")
		sb.WriteString(frag)
		args = append(args, vals...)
	}

	sb.WriteString(" ORDER BY network, station, location, channel, start_time")

	rows, err := s.store.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying traces: %w", err)
	}
	defer rows.Close()

	var traces []driven.ContinuousTrace
	for rows.Next() {
		var tr driven.ContinuousTrace
		var start, end string
		if err := rows.Scan(&tr.ID, &tr.Network, &tr.Station, &tr.Location, &tr.Channel,
			&start, &end, &tr.SampleRate, &tr.FilePath, &tr.ByteOffset, &tr.ByteCount); err != nil {
			return nil, fmt.Errorf("scanning trace: %w", err)
		}
		if tr.StartTime, err = time.ParseInLocation(traceTimeLayout, start, time.UTC); err != nil {
			return nil, fmt.Errorf("parsing trace start: %w", err)
		}
		if tr.EndTime, err = time.ParseInLocation(traceTimeLayout, end, time.UTC); err != nil {
			return nil, fmt.Errorf("parsing trace end: %w", err)
		}
		traces = append(traces, tr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating traces: %w", err)
	}
	return traces, nil
}

// DeleteFile removes all trace rows of one file.
func (s *traceStore) DeleteFile(ctx context.Context, filePath string) error {
	if _, err := s.store.db.ExecContext(ctx,
		"DELETE FROM traces WHERE file_path = ?", filePath); err != nil {
		return fmt.Errorf("deleting traces: %w", err)
	}
	return nil
}

// codeMatch renders a disjunction of code alternatives for one column.
// Plain tokens compare exactly, tokens with * or ? compile to LIKE.
func codeMatch(column string, tokens []string) (string, []any) {
	if len(tokens) == 0 {
		return "", nil
	}

	var alts []string
	var args []any
	for _, tok := range tokens {
		if strings.ContainsAny(tok, "*?") {
			alts = append(alts, column+` LIKE ? ESCAPE '\'`)
			args = append(args, globPattern(tok))
		} else {
			alts = append(alts, column+" = ?")
			args = append(args, tok)
		}
	}
	return "(" + strings.Join(alts, " OR ") + ")", args
}

// globPattern converts a * and ? glob into a LIKE pattern, escaping the
// LIKE metacharacters in the literal parts.
func globPattern(glob string) string {
	var b strings.Builder
	for _, r := range glob {
		switch r {
		case '*':
			b.WriteByte('%')
		case '?':
			b.WriteByte('_')
		case '%', '_', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
