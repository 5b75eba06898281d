package quakeml

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"

	"github.com/seismo-labs/jane/internal/core/domain"
	"github.com/seismo-labs/jane/internal/core/ports/driven"
	"github.com/seismo-labs/jane/internal/xmltree"
)

// TypeName is the registered document type for event catalogs.
const TypeName = "quakeml"

// Schema is the searchable attribute set of event records, one record
// per event.
var Schema = domain.AttributeSchema{
	"quakeml_id":                     domain.ValueString,
	"latitude":                       domain.ValueFloat,
	"longitude":                      domain.ValueFloat,
	"depth_in_m":                     domain.ValueFloat,
	"origin_time":                    domain.ValueDateTime,
	"magnitude":                      domain.ValueFloat,
	"magnitude_type":                 domain.ValueString,
	"agency":                         domain.ValueString,
	"author":                         domain.ValueString,
	"public":                         domain.ValueBool,
	"evaluation_mode":                domain.ValueString,
	"event_type":                     domain.ValueString,
	"has_focal_mechanism":            domain.ValueBool,
	"has_moment_tensor":              domain.ValueBool,
	"horizontal_uncertainty_max":     domain.ValueFloat,
	"horizontal_uncertainty_min":     domain.ValueFloat,
	"horizontal_uncertainty_azimuth": domain.ValueFloat,
}

// Indexer extracts one index record per event, using the preferred
// origin and magnitude where the event names them.
type Indexer struct{}

var _ driven.Indexer = (*Indexer)(nil)

func (Indexer) Schema() domain.AttributeSchema {
	return Schema
}

func (Indexer) Index(ctx context.Context, data []byte) ([]domain.IndexRecord, error) {
	events, err := Extract(bytes.NewReader(data), nil)
	if err != nil {
		return nil, err
	}

	records := make([]domain.IndexRecord, 0, len(events.order))
	for _, publicID := range events.order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ev := events.byPublic[publicID]

		attrs := map[string]any{
			"quakeml_id": publicID,
			// events are public unless an ingestion policy marks them
			// otherwise
			"public": true,
		}
		setString(attrs, "event_type", ev.ChildText("type"))
		if ci := ev.Child("creationInfo"); ci != nil {
			setString(attrs, "agency", ci.ChildText("agencyID"))
			setString(attrs, "author", ci.ChildText("author"))
		}

		origin := preferredChild(ev, "origin", "preferredOriginID")
		if origin != nil {
			if tv := origin.Child("time"); tv != nil {
				setString(attrs, "origin_time", normalizeTime(tv.ChildText("value")))
			}
			setValueFloat(attrs, "latitude", origin.Child("latitude"))
			setValueFloat(attrs, "longitude", origin.Child("longitude"))
			setValueFloat(attrs, "depth_in_m", origin.Child("depth"))
			setString(attrs, "evaluation_mode", origin.ChildText("evaluationMode"))
			if ou := origin.Child("originUncertainty"); ou != nil {
				setFloat(attrs, "horizontal_uncertainty_max", ou.ChildText("maxHorizontalUncertainty"))
				setFloat(attrs, "horizontal_uncertainty_min", ou.ChildText("minHorizontalUncertainty"))
				setFloat(attrs, "horizontal_uncertainty_azimuth", ou.ChildText("azimuthMaxHorizontalUncertainty"))
				if _, ok := attrs["horizontal_uncertainty_max"]; !ok {
					setFloat(attrs, "horizontal_uncertainty_max", ou.ChildText("horizontalUncertainty"))
				}
			}
		}

		magnitude := preferredChild(ev, "magnitude", "preferredMagnitudeID")
		if magnitude != nil {
			if mv := magnitude.Child("mag"); mv != nil {
				setFloat(attrs, "magnitude", mv.ChildText("value"))
			}
			setString(attrs, "magnitude_type", magnitude.ChildText("type"))
		}

		attrs["has_focal_mechanism"] = ev.Child("focalMechanism") != nil
		attrs["has_moment_tensor"] = hasMomentTensor(ev)

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

// preferredChild returns the child element named by the event's
// preferred id reference, falling back to the first child of the kind.
func preferredChild(ev *xmltree.Element, name, refName string) *xmltree.Element {
	ref := ev.ChildText(refName)
	var first *xmltree.Element
	for _, c := range ev.Children {
		if c.Name != name {
			continue
		}
		if first == nil {
			first = c
		}
		if ref != "" && c.Attr("publicID") == ref {
			return c
		}
	}
	return first
}

func hasMomentTensor(ev *xmltree.Element) bool {
	for _, c := range ev.Children {
		if c.Name == "focalMechanism" && c.Child("momentTensor") != nil {
			return true
		}
	}
	return false
}

func normalizeTime(s string) string {
	if s == "" {
		return ""
	}
	t, err := domain.ParseTime(s)
	if err != nil {
		return s
	}
	return domain.FormatTime(t)
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

func setValueFloat(attrs map[string]any, key string, el *xmltree.Element) {
	if el == nil {
		return
	}
	setFloat(attrs, key, el.ChildText("value"))
}

// Validator accepts payloads whose root element is quakeml.
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
			if start.Name.Local != "quakeml" {
				return fmt.Errorf("%w: root element is <%s>, want <quakeml>",
					domain.ErrValidationFailed, start.Name.Local)
			}
			return nil
		}
	}
}
