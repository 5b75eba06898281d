package stationxml

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"

	"github.com/seismo-labs/jane/internal/core/domain"
	"github.com/seismo-labs/jane/internal/core/ports/driven"
)

// TypeName is the registered document type for station metadata.
const TypeName = "stationxml"

// Schema is the searchable attribute set of station metadata records,
// one record per channel epoch.
var Schema = domain.AttributeSchema{
	"network":                 domain.ValueString,
	"network_name":            domain.ValueString,
	"station":                 domain.ValueString,
	"station_name":            domain.ValueString,
	"location":                domain.ValueString,
	"channel":                 domain.ValueString,
	"latitude":                domain.ValueFloat,
	"longitude":               domain.ValueFloat,
	"elevation_in_m":          domain.ValueFloat,
	"depth_in_m":              domain.ValueFloat,
	"azimuth":                 domain.ValueFloat,
	"dip":                     domain.ValueFloat,
	"start_date":              domain.ValueDateTime,
	"end_date":                domain.ValueDateTime,
	"station_creation_date":   domain.ValueDateTime,
	"sample_rate":             domain.ValueFloat,
	"sensor_type":             domain.ValueString,
	"total_sensitivity":       domain.ValueFloat,
	"sensitivity_frequency":   domain.ValueFloat,
	"units_after_sensitivity": domain.ValueString,
}

// Indexer extracts one index record per channel epoch.
type Indexer struct{}

var _ driven.Indexer = (*Indexer)(nil)

func (Indexer) Schema() domain.AttributeSchema {
	return Schema
}

// Index scans the whole document, capturing every channel.
func (Indexer) Index(ctx context.Context, data []byte) ([]domain.IndexRecord, error) {
	frags, err := Extract(bytes.NewReader(data), nil)
	if err != nil {
		return nil, err
	}

	records := make([]domain.IndexRecord, 0, len(frags.channelOrder))
	for _, key := range frags.channelOrder {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ch := frags.channels[key]
		attrs := map[string]any{
			"network":  key.Network,
			"station":  key.Station,
			"location": key.Location,
			"channel":  key.Channel,
		}
		setString(attrs, "start_date", key.Start)
		setString(attrs, "end_date", key.End)

		if net := frags.networks[key.Network]; net != nil {
			setString(attrs, "network_name", net.ChildText("Description"))
		}
		if sta := frags.stations[key.stationKey()]; sta != nil {
			if site := sta.Child("Site"); site != nil {
				setString(attrs, "station_name", site.ChildText("Name"))
			}
			setString(attrs, "station_creation_date", normalizeTime(sta.ChildText("CreationDate")))
		}

		setFloat(attrs, "latitude", ch.ChildText("Latitude"))
		setFloat(attrs, "longitude", ch.ChildText("Longitude"))
		setFloat(attrs, "elevation_in_m", ch.ChildText("Elevation"))
		setFloat(attrs, "depth_in_m", ch.ChildText("Depth"))
		setFloat(attrs, "azimuth", ch.ChildText("Azimuth"))
		setFloat(attrs, "dip", ch.ChildText("Dip"))
		setFloat(attrs, "sample_rate", ch.ChildText("SampleRate"))

		if sensor := ch.Child("Sensor"); sensor != nil {
			typ := sensor.ChildText("Type")
			if typ == "" {
				typ = sensor.ChildText("Description")
			}
			setString(attrs, "sensor_type", typ)
		}
		if resp := ch.Child("Response"); resp != nil {
			if sens := resp.Child("InstrumentSensitivity"); sens != nil {
				setFloat(attrs, "total_sensitivity", sens.ChildText("Value"))
				setFloat(attrs, "sensitivity_frequency", sens.ChildText("Frequency"))
				if units := sens.Child("InputUnits"); units != nil {
					setString(attrs, "units_after_sensitivity", units.ChildText("Name"))
				}
			}
		}

		rec := domain.IndexRecord{Attributes: attrs}
		lat, okLat := rec.FloatAttr("latitude")
		lon, okLon := rec.FloatAttr("longitude")
		if okLat && okLon {
			rec.Geometry = &domain.Point{Latitude: lat, Longitude: lon}
		}
		records = append(records, rec)
	}
	return records, nil
}

func setString(attrs map[string]any, key, value string) {
	if value != "" {
		attrs[key] = value
	}
}

func setFloat(attrs map[string]any, key, value string) {
	if value == "" {
		return
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return
	}
	attrs[key] = f
}

// Validator accepts payloads whose root element is FDSNStationXML.
type Validator struct{}

var _ driven.Validator = (*Validator)(nil)

func (Validator) Validate(ctx context.Context, data []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return fmt.Errorf("%w: no root element", domain.ErrValidationFailed)
		}
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrValidationFailed, err)
		}
		if start, ok := tok.(xml.StartElement); ok {
			if start.Name.Local != "FDSNStationXML" {
				return fmt.Errorf("%w: root element is <%s>, want <FDSNStationXML>",
					domain.ErrValidationFailed, start.Name.Local)
			}
			return nil
		}
	}
}
