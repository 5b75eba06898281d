package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/seismo-labs/jane/internal/core/domain"
	"github.com/seismo-labs/jane/internal/core/ports/driven"
	"github.com/seismo-labs/jane/internal/core/ports/driving"
	"github.com/seismo-labs/jane/internal/logger"
	"github.com/seismo-labs/jane/internal/metrics"
	"github.com/seismo-labs/jane/internal/quakeml"
	"github.com/seismo-labs/jane/internal/xmltree"
)

var eventReserved = []string{
	"format", "nodata", "orderby",
	"latitude", "longitude", "lat", "lon", "minradius", "maxradius",
}

// EventService answers fdsnws-event queries over indexed event catalog
// documents.
type EventService struct {
	docs      driven.DocumentStore
	index     driven.IndexStore
	doctype   *driven.DocumentType
	catalogID string
}

var _ driving.EventQueries = (*EventService)(nil)

// NewEventService creates an event query service. The catalog id names
// the eventParameters envelope of serialized results.
func NewEventService(docs driven.DocumentStore, index driven.IndexStore, doctype *driven.DocumentType, catalogID string) *EventService {
	return &EventService{docs: docs, index: index, doctype: doctype, catalogID: catalogID}
}

// Query runs the event pipeline. XML results keep the requested
// ordering: events are emitted in matched record order, each taken from
// its source document, which is opened at most once.
func (s *EventService) Query(ctx context.Context, req domain.EventRequest, w io.Writer) (*domain.QueryReport, error) {
	preds, err := s.translate(req.Params)
	if err != nil {
		return nil, err
	}

	records, err := s.index.Search(ctx, s.doctype.Name, preds, eventOrdering(req.OrderBy))
	if err != nil {
		return nil, fmt.Errorf("searching event index: %w", err)
	}
	records = domain.FilterByRadius(records, req.Radial)

	if len(records) == 0 {
		metrics.QueriesServed.WithLabelValues("event", strconv.Itoa(req.NoData)).Inc()
		return &domain.QueryReport{StatusCode: req.NoData}, nil
	}

	if req.Format == domain.FormatText {
		if err := quakeml.WriteText(w, records); err != nil {
			return nil, fmt.Errorf("writing event text: %w", err)
		}
		metrics.QueriesServed.WithLabelValues("event", "200").Inc()
		return &domain.QueryReport{StatusCode: 200, MatchedRecords: len(records)}, nil
	}

	events, skipped, err := s.collectEvents(ctx, records)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		metrics.QueriesServed.WithLabelValues("event", strconv.Itoa(req.NoData)).Inc()
		return &domain.QueryReport{StatusCode: req.NoData, SkippedDocuments: skipped}, nil
	}

	if err := quakeml.WriteDocument(w, events, s.catalogID); err != nil {
		return nil, fmt.Errorf("writing event document: %w", err)
	}

	metrics.QueriesServed.WithLabelValues("event", "200").Inc()
	return &domain.QueryReport{
		StatusCode:       200,
		MatchedRecords:   len(records),
		SkippedDocuments: skipped,
	}, nil
}

// collectEvents scans each distinct source document once and returns
// the matched event subtrees in record order.
func (s *EventService) collectEvents(ctx context.Context, records []domain.IndexRecord) ([]*xmltree.Element, int, error) {
	var docOrder []string
	wanted := make(map[string]map[string]bool)
	for _, r := range records {
		ids, ok := wanted[r.DocumentID]
		if !ok {
			ids = make(map[string]bool)
			wanted[r.DocumentID] = ids
			docOrder = append(docOrder, r.DocumentID)
		}
		ids[r.StringAttr("quakeml_id")] = true
	}

	scanned := make(map[string]*quakeml.Events)
	skipped := 0
	for _, docID := range docOrder {
		data, err := s.docs.GetData(ctx, docID)
		if err != nil {
			return nil, 0, fmt.Errorf("loading document %s: %w", docID, err)
		}
		events, err := quakeml.Extract(bytes.NewReader(data), wanted[docID])
		if err != nil {
			perr := &domain.ParseError{DocumentID: docID, Err: err}
			logger.Warn("skipping unparseable document", "document", docID, "error", perr)
			metrics.DocumentsSkipped.Inc()
			skipped++
			continue
		}
		scanned[docID] = events
	}

	var out []*xmltree.Element
	for _, r := range records {
		events := scanned[r.DocumentID]
		if events == nil {
			continue
		}
		if ev := events.Get(r.StringAttr("quakeml_id")); ev != nil {
			out = append(out, ev)
		}
	}
	return out, skipped, nil
}

func eventOrdering(order domain.EventOrder) *domain.Ordering {
	switch order {
	case domain.OrderTimeAsc:
		return &domain.Ordering{Key: "origin_time", Type: domain.ValueDateTime}
	case domain.OrderMagnitudeDesc:
		return &domain.Ordering{Key: "magnitude", Type: domain.ValueFloat, Descending: true}
	case domain.OrderMagnitudeAsc:
		return &domain.Ordering{Key: "magnitude", Type: domain.ValueFloat}
	default:
		return &domain.Ordering{Key: "origin_time", Type: domain.ValueDateTime, Descending: true}
	}
}

// translate maps the event parameter vocabulary onto index predicates.
// Only public events are ever returned.
func (s *EventService) translate(params domain.QueryParams) (domain.PredicateSet, error) {
	var set domain.PredicateSet
	rest := lowerParams(params)
	for _, r := range eventReserved {
		delete(rest, r)
	}

	set.AndAny(eventIDClause(popAll(rest, "eventid")))
	set.AndAny(codeClause("magnitude_type", popAll(rest, "magnitudetype"), false, false))
	set.AndAny(codeClause("event_type", popAll(rest, "eventtype"), false, false))
	// The contributor parameter filters on the indexed agency.
	set.AndAny(codeClause("agency", popAll(rest, "contributor"), false, false))
	set.AndAny(codeClause("author", popAll(rest, "author"), false, false))

	scalars := []struct {
		names []string
		attr  string
		vt    domain.ValueType
		op    domain.Op
		scale float64
	}{
		{[]string{"starttime", "start"}, "origin_time", domain.ValueDateTime, domain.OpGTE, 0},
		{[]string{"endtime", "end"}, "origin_time", domain.ValueDateTime, domain.OpLTE, 0},
		{[]string{"minlatitude", "minlat"}, "latitude", domain.ValueFloat, domain.OpGTE, 0},
		{[]string{"maxlatitude", "maxlat"}, "latitude", domain.ValueFloat, domain.OpLTE, 0},
		{[]string{"minlongitude", "minlon"}, "longitude", domain.ValueFloat, domain.OpGTE, 0},
		{[]string{"maxlongitude", "maxlon"}, "longitude", domain.ValueFloat, domain.OpLTE, 0},
		// depth parameters are kilometres, the index stores metres
		{[]string{"mindepth"}, "depth_in_m", domain.ValueFloat, domain.OpGTE, 1000},
		{[]string{"maxdepth"}, "depth_in_m", domain.ValueFloat, domain.OpLTE, 1000},
		{[]string{"minmagnitude", "minmag"}, "magnitude", domain.ValueFloat, domain.OpGTE, 0},
		{[]string{"maxmagnitude", "maxmag"}, "magnitude", domain.ValueFloat, domain.OpLTE, 0},
	}
	for _, sc := range scalars {
		raw := firstValue(popAll(rest, sc.names...))
		if raw == "" {
			continue
		}
		value, err := ParseScalar(sc.vt, sc.names[0], raw)
		if err != nil {
			return domain.PredicateSet{}, err
		}
		if sc.scale != 0 {
			value = value.(float64) * sc.scale
		}
		set.And(domain.Predicate{Key: sc.attr, Op: sc.op, Value: value, Type: sc.vt})
	}

	if err := rejectUnknown(s.doctype.Schema(), rest); err != nil {
		return domain.PredicateSet{}, err
	}
	extra, err := Translate(s.doctype.Schema(), rest)
	if err != nil {
		return domain.PredicateSet{}, err
	}
	set.Clauses = append(set.Clauses, extra.Clauses...)

	set.And(domain.Predicate{Key: "public", Op: domain.OpEquals, Value: true, Type: domain.ValueBool})

	return set, nil
}

// eventIDClause matches event ids as substrings of the stored publicID,
// so a bare id finds its full smi: form. Tokens are comma-split
// alternatives; a lone * disables the filter.
func eventIDClause(raws []string) domain.Clause {
	var clause domain.Clause
	for _, raw := range raws {
		for _, tok := range strings.Split(raw, ",") {
			tok = strings.TrimSpace(tok)
			switch tok {
			case "":
				continue
			case "*":
				return nil
			}
			clause = append(clause, stringPredicate("quakeml_id", "*"+tok+"*"))
		}
	}
	return clause
}
