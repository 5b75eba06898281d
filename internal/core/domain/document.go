package domain

import (
	"strconv"
	"time"
)

// ValueType describes the declared type of an indexed attribute.
// The attribute schema of a document type assigns one to every
// searchable key.
type ValueType int

const (
	ValueString ValueType = iota
	ValueInt
	ValueFloat
	ValueBool
	ValueDateTime
)

// AttributeSchema maps attribute names to their declared value types.
// It is declared by a document type's indexer and drives both predicate
// translation and storage-level type coercion.
type AttributeSchema map[string]ValueType

// Document is one stored file of a particular type, described by its
// index records.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// TypeName names the document type (e.g. "stationxml", "quakeml").
	TypeName string

	// Name is the resource name, usually the original filename. Unique
	// together with the type.
	Name string

	// ContentType of the raw data.
	ContentType string

	// Data is the raw document payload. Deferred on list operations.
	Data []byte

	// SHA1 of the data, used to reject duplicate uploads.
	SHA1 string

	// Filesize in bytes.
	Filesize int

	CreatedAt  time.Time
	ModifiedAt time.Time
}

// Point is a geographic location in degrees.
type Point struct {
	Latitude  float64
	Longitude float64
}

// Attachment is a binary blob associated with one index record,
// categorised by a tag (e.g. a rendered response plot).
type Attachment struct {
	Category    string
	ContentType string
	Data        []byte
}

// IndexRecord is the extracted, queryable attribute set for one entity
// inside one document: one channel epoch for station metadata, one event
// for an event catalog. Records are immutable once written and replaced
// wholesale when their document is re-indexed.
type IndexRecord struct {
	// ID is assigned by the index store.
	ID int64

	// DocumentID references the owning document.
	DocumentID string

	// Attributes holds the extracted key/value pairs. Values are strings,
	// float64, bool, or nil; timestamps are stored as normalised UTC
	// strings so that lexicographic and temporal order coincide.
	Attributes map[string]any

	// Geometry is the record's point location, if it has one. Records
	// without geometry are excluded from radial queries.
	Geometry *Point

	// Attachments associated with this record.
	Attachments []Attachment
}

// StringAttr returns the named attribute as a string. Missing or null
// attributes return "".
func (r *IndexRecord) StringAttr(key string) string {
	v, ok := r.Attributes[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

// FloatAttr returns the named attribute as a float64.
func (r *IndexRecord) FloatAttr(key string) (float64, bool) {
	v, ok := r.Attributes[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// timeLayouts are the accepted input layouts for timestamps, most
// specific first.
var timeLayouts = []string{
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTime parses a timestamp in any of the accepted FDSN layouts.
// Times without an explicit zone are interpreted as UTC.
func ParseTime(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range timeLayouts {
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// FormatTime renders a timestamp in the canonical form used across the
// index and the streaming extractors. Both sides must agree so that
// identity tuples built from index records match those built from raw
// documents.
func FormatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05")
}
