package driven

import (
	"context"
	"time"
)

// ContinuousTrace is one gapless span of waveform data in one file.
type ContinuousTrace struct {
	ID int64

	Network  string
	Station  string
	Location string
	Channel  string

	StartTime time.Time
	EndTime   time.Time

	SampleRate float64

	// FilePath and the byte range locate the raw records on disk.
	FilePath   string
	ByteOffset int64
	ByteCount  int64
}

// TraceQuery selects traces by code patterns and time overlap. Code
// lists are alternatives; * and ? wildcards are allowed.
type TraceQuery struct {
	Networks  []string
	Stations  []string
	Locations []string
	Channels  []string

	Start time.Time
	End   time.Time
}

// TraceStore indexes continuous waveform traces.
type TraceStore interface {
	// UpsertTraces replaces the trace rows of one file.
	UpsertTraces(ctx context.Context, filePath string, traces []ContinuousTrace) error

	// Query returns traces overlapping the query's time range whose
	// codes match. Returns domain.ErrRequestTooLarge when the query
	// carries no channel constraint.
	Query(ctx context.Context, q TraceQuery) ([]ContinuousTrace, error)

	// DeleteFile removes all trace rows of one file.
	DeleteFile(ctx context.Context, filePath string) error
}
