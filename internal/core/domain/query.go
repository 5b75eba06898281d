package domain

import (
	"fmt"
	"strings"
)

// DetailLevel selects how deep a station metadata response goes.
type DetailLevel int

const (
	LevelNetwork DetailLevel = iota
	LevelStation
	LevelChannel
	LevelResponse
)

func (l DetailLevel) String() string {
	switch l {
	case LevelNetwork:
		return "network"
	case LevelStation:
		return "station"
	case LevelChannel:
		return "channel"
	case LevelResponse:
		return "response"
	default:
		return fmt.Sprintf("DetailLevel(%d)", int(l))
	}
}

// ParseDetailLevel parses an FDSN level parameter value.
func ParseDetailLevel(s string) (DetailLevel, error) {
	switch strings.ToLower(s) {
	case "network":
		return LevelNetwork, nil
	case "station":
		return LevelStation, nil
	case "channel":
		return LevelChannel, nil
	case "response":
		return LevelResponse, nil
	default:
		return 0, &ParameterError{Name: "level", Value: s,
			Reason: "must be one of network, station, channel, response"}
	}
}

// OutputFormat selects the response serialization.
type OutputFormat int

const (
	FormatXML OutputFormat = iota
	FormatText
)

// ParseOutputFormat parses an FDSN format parameter value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch strings.ToLower(s) {
	case "", "xml":
		return FormatXML, nil
	case "text":
		return FormatText, nil
	default:
		return 0, &ParameterError{Name: "format", Value: s,
			Reason: "must be xml or text"}
	}
}

// EventOrder selects event result ordering.
type EventOrder int

const (
	OrderTimeDesc EventOrder = iota
	OrderTimeAsc
	OrderMagnitudeDesc
	OrderMagnitudeAsc
)

// ParseEventOrder parses an FDSN orderby parameter value.
func ParseEventOrder(s string) (EventOrder, error) {
	switch strings.ToLower(s) {
	case "", "time":
		return OrderTimeDesc, nil
	case "time-asc":
		return OrderTimeAsc, nil
	case "magnitude":
		return OrderMagnitudeDesc, nil
	case "magnitude-asc":
		return OrderMagnitudeAsc, nil
	default:
		return 0, &ParameterError{Name: "orderby", Value: s,
			Reason: "must be time, time-asc, magnitude, or magnitude-asc"}
	}
}

// ParseNoData parses the FDSN nodata parameter, the status code reported
// when a query matches nothing.
func ParseNoData(s string) (int, error) {
	switch s {
	case "", "204":
		return 204, nil
	case "404":
		return 404, nil
	default:
		return 0, &ParameterError{Name: "nodata", Value: s,
			Reason: "must be 204 or 404"}
	}
}

// QueryParams holds raw query parameters. Multiple values for one key
// form alternatives (OR).
type QueryParams map[string][]string

// First returns the first value for a key, or "".
func (p QueryParams) First(key string) string {
	vs := p[key]
	if len(vs) == 0 {
		return ""
	}
	return vs[0]
}

// StationRequest is a normalised fdsnws-station query.
type StationRequest struct {
	Params QueryParams
	Level  DetailLevel
	Format OutputFormat
	NoData int
	Radial *RadialConstraint
}

// EventRequest is a normalised fdsnws-event query.
type EventRequest struct {
	Params  QueryParams
	OrderBy EventOrder
	Format  OutputFormat
	NoData  int
	Radial  *RadialConstraint
}

// DataselectRequest is a normalised fdsnws-dataselect query.
type DataselectRequest struct {
	Params QueryParams
	NoData int
}

// QueryReport summarises what a query did. StatusCode follows the FDSN
// vocabulary: 200 with output, the request's nodata code on an empty
// match, 413 when the query is too broad to answer.
type QueryReport struct {
	StatusCode       int
	MatchedRecords   int
	SkippedDocuments int
}
