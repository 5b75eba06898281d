package services

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seismo-labs/jane/internal/core/domain"
	"github.com/seismo-labs/jane/internal/core/ports/driven"
	"github.com/seismo-labs/jane/internal/quakeml"
)

const eventDoc = `<?xml version="1.0" encoding="UTF-8"?>
<q:quakeml xmlns:q="http://quakeml.org/xmlns/quakeml/1.2" xmlns="http://quakeml.org/xmlns/bed/1.2">
  <eventParameters publicID="smi:local/catalog">
    <event publicID="smi:local/event/small">
      <origin publicID="smi:local/origin/s">
        <time><value>2012-01-01T00:00:00</value></time>
        <latitude><value>10.0</value></latitude>
        <longitude><value>20.0</value></longitude>
        <depth><value>10000</value></depth>
      </origin>
      <magnitude publicID="smi:local/mag/s"><mag><value>2.1</value></mag><type>ML</type></magnitude>
    </event>
    <event publicID="smi:local/event/big">
      <origin publicID="smi:local/origin/b">
        <time><value>2011-03-11T05:46:24</value></time>
        <latitude><value>38.297</value></latitude>
        <longitude><value>142.373</value></longitude>
        <depth><value>29000</value></depth>
      </origin>
      <magnitude publicID="smi:local/mag/b"><mag><value>9.1</value></mag><type>Mw</type></magnitude>
    </event>
  </eventParameters>
</q:quakeml>`

func eventRecord(docID, publicID string, magnitude float64) domain.IndexRecord {
	return domain.IndexRecord{
		DocumentID: docID,
		Attributes: map[string]any{
			"quakeml_id": publicID,
			"magnitude":  magnitude,
			"public":     true,
		},
	}
}

func newEventFixture(t *testing.T) (*EventService, *fakeDocStore, *fakeIndexStore) {
	t.Helper()
	docs := newFakeDocStore()
	docs.put("e1", []byte(eventDoc))

	index := newFakeIndexStore()
	// canned in magnitude-descending order, as the store would return
	// them for orderby=magnitude
	index.records[quakeml.TypeName] = []domain.IndexRecord{
		eventRecord("e1", "smi:local/event/big", 9.1),
		eventRecord("e1", "smi:local/event/small", 2.1),
	}

	doctype := &driven.DocumentType{
		Name:        quakeml.TypeName,
		ContentType: "text/xml",
		Indexer:     quakeml.Indexer{},
		Validator:   quakeml.Validator{},
	}
	return NewEventService(docs, index, doctype, "smi:local/catalog"), docs, index
}

// TestEventService_QueryXML_RecordOrder tests that XML output follows
// the matched record order rather than document order.
func TestEventService_QueryXML_RecordOrder(t *testing.T) {
	svc, docs, index := newEventFixture(t)

	var buf bytes.Buffer
	report, err := svc.Query(context.Background(), domain.EventRequest{
		Params:  domain.QueryParams{"minmagnitude": {"1.0"}},
		OrderBy: domain.OrderMagnitudeDesc,
		Format:  domain.FormatXML,
		NoData:  204,
	}, &buf)
	require.NoError(t, err)

	assert.Equal(t, 200, report.StatusCode)
	assert.Equal(t, 2, report.MatchedRecords)

	out := buf.String()
	big := strings.Index(out, "smi:local/event/big")
	small := strings.Index(out, "smi:local/event/small")
	require.NotEqual(t, -1, big)
	require.NotEqual(t, -1, small)
	assert.Less(t, big, small)

	assert.Equal(t, 1, docs.opens["e1"])

	require.NotNil(t, index.lastOrder)
	assert.Equal(t, "magnitude", index.lastOrder.Key)
	assert.True(t, index.lastOrder.Descending)
}

// TestEventService_PublicOnly tests that every translated query is
// pinned to public events.
func TestEventService_PublicOnly(t *testing.T) {
	svc, _, index := newEventFixture(t)

	var buf bytes.Buffer
	_, err := svc.Query(context.Background(), domain.EventRequest{
		Params: domain.QueryParams{},
		Format: domain.FormatText,
		NoData: 204,
	}, &buf)
	require.NoError(t, err)

	var sawPublic bool
	for _, c := range index.lastPreds.Clauses {
		for _, p := range c {
			if p.Key == "public" && p.Op == domain.OpEquals && p.Value == true {
				sawPublic = true
			}
		}
	}
	assert.True(t, sawPublic)
}

// TestEventService_DepthKilometres tests that depth bounds convert from
// kilometres to the indexed metres.
func TestEventService_DepthKilometres(t *testing.T) {
	svc, _, index := newEventFixture(t)

	var buf bytes.Buffer
	_, err := svc.Query(context.Background(), domain.EventRequest{
		Params: domain.QueryParams{"mindepth": {"10"}, "maxdepth": {"100"}},
		Format: domain.FormatText,
		NoData: 204,
	}, &buf)
	require.NoError(t, err)

	bounds := map[domain.Op]any{}
	for _, c := range index.lastPreds.Clauses {
		for _, p := range c {
			if p.Key == "depth_in_m" {
				bounds[p.Op] = p.Value
			}
		}
	}
	assert.Equal(t, 10000.0, bounds[domain.OpGTE])
	assert.Equal(t, 100000.0, bounds[domain.OpLTE])
}

// TestEventService_EventIDSubstring tests that event ids match as
// substrings of the stored publicID, so a bare id finds its smi: form.
func TestEventService_EventIDSubstring(t *testing.T) {
	svc, _, index := newEventFixture(t)

	var buf bytes.Buffer
	_, err := svc.Query(context.Background(), domain.EventRequest{
		Params: domain.QueryParams{"eventid": {"event/big"}},
		Format: domain.FormatText,
		NoData: 204,
	}, &buf)
	require.NoError(t, err)

	var got *domain.Predicate
	for _, c := range index.lastPreds.Clauses {
		for i := range c {
			if c[i].Key == "quakeml_id" {
				got = &c[i]
			}
		}
	}
	require.NotNil(t, got)
	assert.Equal(t, domain.OpLike, got.Op)
	assert.Equal(t, "%event/big%", got.Value)
	assert.True(t, got.FoldCase)

	// A lone * disables the filter entirely.
	buf.Reset()
	_, err = svc.Query(context.Background(), domain.EventRequest{
		Params: domain.QueryParams{"eventid": {"*"}},
		Format: domain.FormatText,
		NoData: 204,
	}, &buf)
	require.NoError(t, err)
	for _, c := range index.lastPreds.Clauses {
		for _, p := range c {
			assert.NotEqual(t, "quakeml_id", p.Key)
		}
	}
}

// TestEventService_ContributorAndAuthor tests the contributor and
// author parameter mappings.
func TestEventService_ContributorAndAuthor(t *testing.T) {
	svc, _, index := newEventFixture(t)

	var buf bytes.Buffer
	_, err := svc.Query(context.Background(), domain.EventRequest{
		Params: domain.QueryParams{"contributor": {"BGR"}, "author": {"ehb"}},
		Format: domain.FormatText,
		NoData: 204,
	}, &buf)
	require.NoError(t, err)

	byKey := map[string]domain.Predicate{}
	for _, c := range index.lastPreds.Clauses {
		for _, p := range c {
			byKey[p.Key] = p
		}
	}
	require.Contains(t, byKey, "agency")
	assert.Equal(t, "BGR", byKey["agency"].Value)
	require.Contains(t, byKey, "author")
	assert.Equal(t, "ehb", byKey["author"].Value)

	_, err = svc.Query(context.Background(), domain.EventRequest{
		Params: domain.QueryParams{"catalog": {"ISC"}},
		Format: domain.FormatText,
		NoData: 204,
	}, &buf)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// TestEventService_NoData tests the empty-match outcome.
func TestEventService_NoData(t *testing.T) {
	svc, _, index := newEventFixture(t)
	index.records[quakeml.TypeName] = nil

	var buf bytes.Buffer
	report, err := svc.Query(context.Background(), domain.EventRequest{
		Params: domain.QueryParams{},
		NoData: 404,
	}, &buf)
	require.NoError(t, err)

	assert.Equal(t, 404, report.StatusCode)
	assert.Zero(t, buf.Len())
}

// TestEventService_TextFormat tests the event text rows.
func TestEventService_TextFormat(t *testing.T) {
	svc, _, _ := newEventFixture(t)

	var buf bytes.Buffer
	report, err := svc.Query(context.Background(), domain.EventRequest{
		Params: domain.QueryParams{},
		Format: domain.FormatText,
		NoData: 204,
	}, &buf)
	require.NoError(t, err)

	assert.Equal(t, 200, report.StatusCode)
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "#EventID|Time|"))
	assert.True(t, strings.HasPrefix(lines[1], "smi:local/event/big|"))
}
