package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/seismo-labs/jane/internal/core/domain"
	"github.com/seismo-labs/jane/internal/core/ports/driven"
	"github.com/seismo-labs/jane/internal/core/ports/driving"
	"github.com/seismo-labs/jane/internal/metrics"
)

// DataselectService answers fdsnws-dataselect queries by concatenating
// the raw byte ranges the trace index points at.
type DataselectService struct {
	traces driven.TraceStore
}

var _ driving.DataselectQueries = (*DataselectService)(nil)

// NewDataselectService creates a dataselect query service.
func NewDataselectService(traces driven.TraceStore) *DataselectService {
	return &DataselectService{traces: traces}
}

// Query resolves matching traces and streams their file ranges to w in
// index order. A query without any channel constraint is refused as too
// large (status 413).
func (s *DataselectService) Query(ctx context.Context, req domain.DataselectRequest, w io.Writer) (*domain.QueryReport, error) {
	q, err := traceQuery(req.Params)
	if err != nil {
		return nil, err
	}

	traces, err := s.traces.Query(ctx, q)
	if errors.Is(err, domain.ErrRequestTooLarge) {
		metrics.QueriesServed.WithLabelValues("dataselect", "413").Inc()
		return &domain.QueryReport{StatusCode: 413}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("searching trace index: %w", err)
	}

	if len(traces) == 0 {
		metrics.QueriesServed.WithLabelValues("dataselect", strconv.Itoa(req.NoData)).Inc()
		return &domain.QueryReport{StatusCode: req.NoData}, nil
	}

	for _, tr := range traces {
		if err := copyRange(w, tr); err != nil {
			return nil, err
		}
	}

	metrics.QueriesServed.WithLabelValues("dataselect", "200").Inc()
	return &domain.QueryReport{StatusCode: 200, MatchedRecords: len(traces)}, nil
}

func copyRange(w io.Writer, tr driven.ContinuousTrace) error {
	f, err := os.Open(tr.FilePath)
	if err != nil {
		return fmt.Errorf("opening waveform file %s: %w", tr.FilePath, err)
	}
	defer f.Close()

	if _, err := f.Seek(tr.ByteOffset, io.SeekStart); err != nil {
		return fmt.Errorf("seeking waveform file %s: %w", tr.FilePath, err)
	}
	if _, err := io.CopyN(w, f, tr.ByteCount); err != nil {
		return fmt.Errorf("reading waveform file %s: %w", tr.FilePath, err)
	}
	return nil
}

// traceQuery normalises the dataselect parameter vocabulary.
func traceQuery(params domain.QueryParams) (driven.TraceQuery, error) {
	rest := lowerParams(params)
	delete(rest, "nodata")

	q := driven.TraceQuery{
		Networks:  codeTokens(popAll(rest, "network", "net"), true, false),
		Stations:  codeTokens(popAll(rest, "station", "sta"), true, false),
		Locations: codeTokens(popAll(rest, "location", "loc"), false, true),
		Channels:  codeTokens(popAll(rest, "channel", "cha"), true, false),
	}

	parse := func(names ...string) (time.Time, error) {
		raw := firstValue(popAll(rest, names...))
		if raw == "" {
			return time.Time{}, &domain.ParameterError{Name: names[0], Value: "",
				Reason: "required"}
		}
		t, err := domain.ParseTime(raw)
		if err != nil {
			return time.Time{}, &domain.ParameterError{Name: names[0], Value: raw,
				Reason: "not a timestamp"}
		}
		return t, nil
	}

	var err error
	if q.Start, err = parse("starttime", "start"); err != nil {
		return driven.TraceQuery{}, err
	}
	if q.End, err = parse("endtime", "end"); err != nil {
		return driven.TraceQuery{}, err
	}
	if !q.End.After(q.Start) {
		return driven.TraceQuery{}, &domain.ParameterError{Name: "endtime",
			Value: domain.FormatTime(q.End), Reason: "must be after starttime"}
	}

	for key := range rest {
		return driven.TraceQuery{}, &domain.ParameterError{Name: key,
			Value: firstValue(rest[key]), Reason: "unknown parameter"}
	}
	return q, nil
}

// codeTokens splits code parameters into match tokens. A lone *
// removes the constraint entirely.
func codeTokens(raws []string, upper, location bool) []string {
	var out []string
	for _, raw := range raws {
		for _, tok := range strings.Split(raw, ",") {
			tok = strings.TrimSpace(tok)
			if upper {
				tok = strings.ToUpper(tok)
			}
			switch {
			case location && tok == "--":
				tok = ""
			case tok == "":
				continue
			case tok == "*":
				return nil
			}
			out = append(out, tok)
		}
	}
	return out
}
