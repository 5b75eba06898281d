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
	"github.com/seismo-labs/jane/internal/stationxml"
)

const stationDocOne = `<?xml version="1.0" encoding="UTF-8"?>
<FDSNStationXML xmlns="http://www.fdsn.org/xml/station/1" schemaVersion="1.0">
  <Source>Test</Source>
  <Network code="BW">
    <Description>BayernNetz</Description>
    <Station code="ALTM">
      <Latitude>48.9953</Latitude>
      <Longitude>11.5194</Longitude>
      <Site><Name>Altmuehlberg</Name></Site>
      <Channel code="EHE" locationCode="" startDate="2006-07-18T00:00:00">
        <Latitude>48.9953</Latitude>
        <Longitude>11.5194</Longitude>
        <SampleRate>200.0</SampleRate>
        <Response><InstrumentSensitivity><Value>1.0</Value></InstrumentSensitivity></Response>
      </Channel>
      <Channel code="EHN" locationCode="" startDate="2006-07-18T00:00:00">
        <Latitude>48.9953</Latitude>
        <Longitude>11.5194</Longitude>
        <SampleRate>200.0</SampleRate>
      </Channel>
    </Station>
  </Network>
</FDSNStationXML>`

const stationDocTwo = `<?xml version="1.0" encoding="UTF-8"?>
<FDSNStationXML xmlns="http://www.fdsn.org/xml/station/1" schemaVersion="1.0">
  <Source>Test</Source>
  <Network code="BW">
    <Description>BayernNetz</Description>
    <Station code="ALTM">
      <Latitude>48.9953</Latitude>
      <Longitude>11.5194</Longitude>
      <Site><Name>Altmuehlberg</Name></Site>
      <Channel code="EHZ" locationCode="" startDate="2006-07-18T00:00:00">
        <Latitude>48.9953</Latitude>
        <Longitude>11.5194</Longitude>
        <SampleRate>200.0</SampleRate>
      </Channel>
    </Station>
  </Network>
</FDSNStationXML>`

func channelRecord(docID, channel string) domain.IndexRecord {
	return domain.IndexRecord{
		DocumentID: docID,
		Attributes: map[string]any{
			"network":    "BW",
			"station":    "ALTM",
			"location":   "",
			"channel":    channel,
			"start_date": "2006-07-18T00:00:00",
			"latitude":   48.9953,
			"longitude":  11.5194,
		},
		Geometry: &domain.Point{Latitude: 48.9953, Longitude: 11.5194},
	}
}

func newStationFixture(t *testing.T) (*StationService, *fakeDocStore, *fakeIndexStore) {
	t.Helper()
	docs := newFakeDocStore()
	docs.put("d1", []byte(stationDocOne))
	docs.put("d2", []byte(stationDocTwo))

	index := newFakeIndexStore()
	index.records[stationxml.TypeName] = []domain.IndexRecord{
		channelRecord("d1", "EHE"),
		channelRecord("d1", "EHN"),
		channelRecord("d2", "EHZ"),
	}

	doctype := &driven.DocumentType{
		Name:        stationxml.TypeName,
		ContentType: "text/xml",
		Indexer:     stationxml.Indexer{},
		Validator:   stationxml.Validator{},
	}
	svc := NewStationService(docs, index, doctype, stationxml.Header{Source: "Jane"})
	return svc, docs, index
}

// TestStationService_QueryXML tests the full reassembly pipeline across
// two source documents, including the single-open guarantee.
func TestStationService_QueryXML(t *testing.T) {
	svc, docs, _ := newStationFixture(t)

	var buf bytes.Buffer
	report, err := svc.Query(context.Background(), domain.StationRequest{
		Params: domain.QueryParams{"station": {"ALTM"}},
		Level:  domain.LevelChannel,
		Format: domain.FormatXML,
		NoData: 204,
	}, &buf)
	require.NoError(t, err)

	assert.Equal(t, 200, report.StatusCode)
	assert.Equal(t, 3, report.MatchedRecords)
	assert.Equal(t, 0, report.SkippedDocuments)

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, `<Network code="BW">`))
	assert.Equal(t, 1, strings.Count(out, `<Station code="ALTM">`))
	for _, code := range []string{"EHE", "EHN", "EHZ"} {
		assert.Contains(t, out, `<Channel code="`+code+`"`)
	}
	// channel level strips instrument responses
	assert.NotContains(t, out, "<Response>")

	// each document was opened exactly once
	assert.Equal(t, 1, docs.opens["d1"])
	assert.Equal(t, 1, docs.opens["d2"])
}

// TestStationService_NoData tests that an empty match writes nothing
// and reports the requested nodata code.
func TestStationService_NoData(t *testing.T) {
	svc, _, index := newStationFixture(t)
	index.records[stationxml.TypeName] = nil

	var buf bytes.Buffer
	report, err := svc.Query(context.Background(), domain.StationRequest{
		Params: domain.QueryParams{},
		Level:  domain.LevelChannel,
		NoData: 404,
	}, &buf)
	require.NoError(t, err)

	assert.Equal(t, 404, report.StatusCode)
	assert.Zero(t, buf.Len())
}

// TestStationService_SkipsUnparseableDocument tests that a corrupt
// document is counted and skipped while the rest of the result stands.
func TestStationService_SkipsUnparseableDocument(t *testing.T) {
	svc, docs, _ := newStationFixture(t)
	docs.put("d2", []byte("<FDSNStationXML><Network"))

	var buf bytes.Buffer
	report, err := svc.Query(context.Background(), domain.StationRequest{
		Params: domain.QueryParams{},
		Level:  domain.LevelChannel,
		Format: domain.FormatXML,
		NoData: 204,
	}, &buf)
	require.NoError(t, err)

	assert.Equal(t, 200, report.StatusCode)
	assert.Equal(t, 1, report.SkippedDocuments)
	assert.Contains(t, buf.String(), `<Channel code="EHE"`)
	assert.NotContains(t, buf.String(), `<Channel code="EHZ"`)
}

// TestStationService_TextFormat tests record-driven text output.
func TestStationService_TextFormat(t *testing.T) {
	svc, docs, _ := newStationFixture(t)

	var buf bytes.Buffer
	report, err := svc.Query(context.Background(), domain.StationRequest{
		Params: domain.QueryParams{},
		Level:  domain.LevelStation,
		Format: domain.FormatText,
		NoData: 204,
	}, &buf)
	require.NoError(t, err)

	assert.Equal(t, 200, report.StatusCode)
	assert.True(t, strings.HasPrefix(buf.String(), "#Network|Station|"))
	assert.Contains(t, buf.String(), "BW|ALTM|")
	// text output never touches the raw documents
	assert.Empty(t, docs.opens)
}

// TestStationService_RadialFilter tests that a radial constraint
// excludes far records at the service level.
func TestStationService_RadialFilter(t *testing.T) {
	svc, _, index := newStationFixture(t)
	far := channelRecord("d1", "FAR")
	far.Geometry = &domain.Point{Latitude: -30, Longitude: 100}
	index.records[stationxml.TypeName] = append(index.records[stationxml.TypeName], far)

	maxr := 5.0
	var buf bytes.Buffer
	report, err := svc.Query(context.Background(), domain.StationRequest{
		Params: domain.QueryParams{},
		Level:  domain.LevelChannel,
		Format: domain.FormatText,
		NoData: 204,
		Radial: &domain.RadialConstraint{Latitude: 48.99, Longitude: 11.52, MaxRadius: &maxr},
	}, &buf)
	require.NoError(t, err)

	assert.Equal(t, 3, report.MatchedRecords)
	assert.NotContains(t, buf.String(), "FAR")
}

// TestStationService_TranslateWindows tests the null-aware epoch window
// operators.
func TestStationService_TranslateWindows(t *testing.T) {
	svc, _, index := newStationFixture(t)

	var buf bytes.Buffer
	_, err := svc.Query(context.Background(), domain.StationRequest{
		Params: domain.QueryParams{
			"starttime": {"2010-01-01"},
			"endbefore": {"2020-01-01"},
		},
		Level:  domain.LevelChannel,
		Format: domain.FormatText,
		NoData: 204,
	}, &buf)
	require.NoError(t, err)

	var sawNullOrGTE, sawNotNullLT bool
	for _, c := range index.lastPreds.Clauses {
		p := c[0]
		if p.Key == "end_date" && p.Op == domain.OpIsNullOrGTE {
			sawNullOrGTE = true
		}
		if p.Key == "end_date" && p.Op == domain.OpNotNullAndLT {
			sawNotNullLT = true
		}
	}
	assert.True(t, sawNullOrGTE)
	assert.True(t, sawNotNullLT)
}

// TestStationService_UnknownParameter tests rejection of parameters
// outside the vocabulary and schema.
func TestStationService_UnknownParameter(t *testing.T) {
	svc, _, _ := newStationFixture(t)

	var buf bytes.Buffer
	_, err := svc.Query(context.Background(), domain.StationRequest{
		Params: domain.QueryParams{"colour": {"blue"}},
		NoData: 204,
	}, &buf)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
