package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/seismo-labs/jane/internal/core/domain"
	"github.com/seismo-labs/jane/internal/core/ports/driven"
	"github.com/seismo-labs/jane/internal/core/ports/driving"
	"github.com/seismo-labs/jane/internal/logger"
	"github.com/seismo-labs/jane/internal/metrics"
	"github.com/seismo-labs/jane/internal/stationxml"
)

// reserved parameter names consumed during request normalization, not
// by predicate translation.
var stationReserved = []string{
	"level", "format", "nodata",
	"latitude", "longitude", "lat", "lon", "minradius", "maxradius",
}

// StationService answers fdsnws-station queries over indexed station
// metadata documents.
type StationService struct {
	docs    driven.DocumentStore
	index   driven.IndexStore
	doctype *driven.DocumentType
	header  stationxml.Header
	now     func() time.Time
}

var _ driving.StationQueries = (*StationService)(nil)

// NewStationService creates a station query service. The header
// identifies the installation in serialized documents; its Created
// field is stamped per query.
func NewStationService(docs driven.DocumentStore, index driven.IndexStore, doctype *driven.DocumentType, header stationxml.Header) *StationService {
	return &StationService{
		docs:    docs,
		index:   index,
		doctype: doctype,
		header:  header,
		now:     time.Now,
	}
}

// Query runs the full station pipeline: translate parameters, search
// the index, apply the radial filter, then either emit text rows from
// the records or reassemble matched channels from their source
// documents. Unparseable documents are skipped and counted, never
// fatal.
func (s *StationService) Query(ctx context.Context, req domain.StationRequest, w io.Writer) (*domain.QueryReport, error) {
	preds, err := s.translate(req.Params)
	if err != nil {
		return nil, err
	}

	records, err := s.index.Search(ctx, s.doctype.Name, preds, nil)
	if err != nil {
		return nil, fmt.Errorf("searching station index: %w", err)
	}
	records = domain.FilterByRadius(records, req.Radial)

	if len(records) == 0 {
		metrics.QueriesServed.WithLabelValues("station", strconv.Itoa(req.NoData)).Inc()
		return &domain.QueryReport{StatusCode: req.NoData}, nil
	}

	if req.Format == domain.FormatText {
		if err := stationxml.WriteText(w, records, req.Level); err != nil {
			return nil, fmt.Errorf("writing station text: %w", err)
		}
		metrics.QueriesServed.WithLabelValues("station", "200").Inc()
		return &domain.QueryReport{StatusCode: 200, MatchedRecords: len(records)}, nil
	}

	frags, skipped, err := s.scanDocuments(ctx, records)
	if err != nil {
		return nil, err
	}
	if len(frags) == 0 {
		metrics.QueriesServed.WithLabelValues("station", strconv.Itoa(req.NoData)).Inc()
		return &domain.QueryReport{StatusCode: req.NoData, SkippedDocuments: skipped}, nil
	}

	// Total counters come from the whole inventory, not the match.
	all, err := s.index.Search(ctx, s.doctype.Name, domain.PredicateSet{}, nil)
	if err != nil {
		return nil, fmt.Errorf("computing inventory stats: %w", err)
	}

	networks := stationxml.Assemble(frags, stationxml.ComputeStats(all), req.Level)
	hdr := s.header
	hdr.Created = s.now()
	if err := stationxml.WriteDocument(w, networks, hdr); err != nil {
		return nil, fmt.Errorf("writing station document: %w", err)
	}

	metrics.QueriesServed.WithLabelValues("station", "200").Inc()
	return &domain.QueryReport{
		StatusCode:       200,
		MatchedRecords:   len(records),
		SkippedDocuments: skipped,
	}, nil
}

// scanDocuments opens each distinct source document exactly once and
// extracts the channels the matched records point at.
func (s *StationService) scanDocuments(ctx context.Context, records []domain.IndexRecord) ([]*stationxml.Fragments, int, error) {
	var docOrder []string
	wanted := make(map[string]map[stationxml.ChannelKey]bool)
	for _, r := range records {
		keys, ok := wanted[r.DocumentID]
		if !ok {
			keys = make(map[stationxml.ChannelKey]bool)
			wanted[r.DocumentID] = keys
			docOrder = append(docOrder, r.DocumentID)
		}
		keys[stationxml.KeyFromRecord(r)] = true
	}

	var frags []*stationxml.Fragments
	skipped := 0
	for _, docID := range docOrder {
		data, err := s.docs.GetData(ctx, docID)
		if err != nil {
			return nil, 0, fmt.Errorf("loading document %s: %w", docID, err)
		}
		f, err := stationxml.Extract(bytes.NewReader(data), wanted[docID])
		if err != nil {
			perr := &domain.ParseError{DocumentID: docID, Err: err}
			logger.Warn("skipping unparseable document", "document", docID, "error", perr)
			metrics.DocumentsSkipped.Inc()
			skipped++
			continue
		}
		frags = append(frags, f)
	}
	return frags, skipped, nil
}

// translate maps the station parameter vocabulary onto index
// predicates.
func (s *StationService) translate(params domain.QueryParams) (domain.PredicateSet, error) {
	var set domain.PredicateSet
	rest := lowerParams(params)
	for _, r := range stationReserved {
		delete(rest, r)
	}

	codes := []struct {
		attr     string
		names    []string
		upper    bool
		location bool
	}{
		{"network", []string{"network", "net"}, true, false},
		{"station", []string{"station", "sta"}, true, false},
		{"location", []string{"location", "loc"}, false, true},
		{"channel", []string{"channel", "cha"}, true, false},
	}
	for _, c := range codes {
		set.AndAny(codeClause(c.attr, popAll(rest, c.names...), c.upper, c.location))
	}

	// Epoch window parameters against the channel validity interval. A
	// missing end date means the epoch is still open, so end-date
	// comparisons are null-aware in the inclusive direction.
	windows := []struct {
		name string
		attr string
		op   domain.Op
	}{
		{"starttime", "end_date", domain.OpIsNullOrGTE},
		{"endtime", "start_date", domain.OpLTE},
		{"startbefore", "start_date", domain.OpLT},
		{"startafter", "start_date", domain.OpGT},
		{"endbefore", "end_date", domain.OpNotNullAndLT},
		{"endafter", "end_date", domain.OpIsNullOrGT},
	}
	aliases := map[string][]string{
		"starttime": {"starttime", "start"},
		"endtime":   {"endtime", "end"},
	}
	for _, tw := range windows {
		names := aliases[tw.name]
		if names == nil {
			names = []string{tw.name}
		}
		raw := firstValue(popAll(rest, names...))
		if raw == "" {
			continue
		}
		value, err := ParseScalar(domain.ValueDateTime, tw.name, raw)
		if err != nil {
			return domain.PredicateSet{}, err
		}
		set.And(domain.Predicate{Key: tw.attr, Op: tw.op, Value: value, Type: domain.ValueDateTime})
	}

	boxes := []struct {
		names []string
		attr  string
		op    domain.Op
	}{
		{[]string{"minlatitude", "minlat"}, "latitude", domain.OpGTE},
		{[]string{"maxlatitude", "maxlat"}, "latitude", domain.OpLTE},
		{[]string{"minlongitude", "minlon"}, "longitude", domain.OpGTE},
		{[]string{"maxlongitude", "maxlon"}, "longitude", domain.OpLTE},
	}
	for _, b := range boxes {
		raw := firstValue(popAll(rest, b.names...))
		if raw == "" {
			continue
		}
		value, err := ParseScalar(domain.ValueFloat, b.names[0], raw)
		if err != nil {
			return domain.PredicateSet{}, err
		}
		set.And(domain.Predicate{Key: b.attr, Op: b.op, Value: value, Type: domain.ValueFloat})
	}

	if err := rejectUnknown(s.doctype.Schema(), rest); err != nil {
		return domain.PredicateSet{}, err
	}
	extra, err := Translate(s.doctype.Schema(), rest)
	if err != nil {
		return domain.PredicateSet{}, err
	}
	set.Clauses = append(set.Clauses, extra.Clauses...)

	return set, nil
}

// codeClause builds the OR clause of one code parameter. Tokens are
// comma-split alternatives; a lone * disables the filter. Network,
// station and channel codes are uppercased; the conventional -- spelling
// of the empty location maps to the empty string.
func codeClause(attr string, raws []string, upper, location bool) domain.Clause {
	var clause domain.Clause
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
			clause = append(clause, stringPredicate(attr, tok))
		}
	}
	return clause
}

func lowerParams(params domain.QueryParams) domain.QueryParams {
	out := make(domain.QueryParams, len(params))
	for k, v := range params {
		key := strings.ToLower(k)
		out[key] = append(out[key], v...)
	}
	return out
}

// popAll removes and returns the values of any of the given keys.
func popAll(params domain.QueryParams, names ...string) []string {
	var out []string
	for _, n := range names {
		out = append(out, params[n]...)
		delete(params, n)
	}
	return out
}

func firstValue(vs []string) string {
	if len(vs) == 0 {
		return ""
	}
	return vs[0]
}

// rejectUnknown fails on leftover parameters that resolve to no schema
// attribute in any recognized shape.
func rejectUnknown(schema domain.AttributeSchema, params domain.QueryParams) error {
	for key := range params {
		base := key
		switch {
		case strings.HasPrefix(key, "min_"):
			base = key[len("min_"):]
		case strings.HasPrefix(key, "max_"):
			base = key[len("max_"):]
		}
		if _, ok := schema[base]; !ok {
			return &domain.ParameterError{Name: key, Value: firstValue(params[key]),
				Reason: "unknown parameter"}
		}
	}
	return nil
}
