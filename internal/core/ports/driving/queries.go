package driving

import (
	"context"
	"io"

	"github.com/seismo-labs/jane/internal/core/domain"
)

// StationQueries answers fdsnws-station style queries over indexed
// station metadata documents.
type StationQueries interface {
	// Query writes the serialized result to w and reports the outcome.
	// On a no-data outcome nothing is written and the report carries the
	// request's nodata status code.
	Query(ctx context.Context, req domain.StationRequest, w io.Writer) (*domain.QueryReport, error)
}

// EventQueries answers fdsnws-event style queries over indexed event
// catalog documents.
type EventQueries interface {
	Query(ctx context.Context, req domain.EventRequest, w io.Writer) (*domain.QueryReport, error)
}

// DataselectQueries answers fdsnws-dataselect style queries over the
// waveform trace index.
type DataselectQueries interface {
	Query(ctx context.Context, req domain.DataselectRequest, w io.Writer) (*domain.QueryReport, error)
}
