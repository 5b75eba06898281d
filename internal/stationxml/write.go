package stationxml

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/seismo-labs/jane/internal/core/domain"
	"github.com/seismo-labs/jane/internal/xmltree"
)

const stationNS = "http://www.fdsn.org/xml/station/1"

// Header identifies the data center in the FDSNStationXML envelope.
type Header struct {
	Source    string
	Sender    string
	Module    string
	ModuleURI string
	Created   time.Time
}

// WriteDocument serializes assembled networks as an FDSNStationXML 1.0
// document.
func WriteDocument(w io.Writer, networks []*xmltree.Element, hdr Header) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}

	enc := xml.NewEncoder(w)
	root := xml.StartElement{
		Name: xml.Name{Local: "FDSNStationXML"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "xmlns"}, Value: stationNS},
			{Name: xml.Name{Local: "schemaVersion"}, Value: "1.0"},
		},
	}
	if err := enc.EncodeToken(root); err != nil {
		return err
	}

	envelope := []*xmltree.Element{
		{Name: "Source", Text: hdr.Source},
		{Name: "Sender", Text: hdr.Sender},
		{Name: "Module", Text: hdr.Module},
		{Name: "ModuleURI", Text: hdr.ModuleURI},
		{Name: "Created", Text: domain.FormatTime(hdr.Created)},
	}
	for _, el := range envelope {
		if el.Text == "" {
			continue
		}
		if err := el.Encode(enc); err != nil {
			return err
		}
	}

	for _, n := range networks {
		if err := n.Encode(enc); err != nil {
			return err
		}
	}

	if err := enc.EncodeToken(xml.EndElement{Name: root.Name}); err != nil {
		return err
	}
	return enc.Flush()
}

// WriteText serializes matched records in the FDSN text format for the
// requested level. Text output is built from the index directly; the
// response level is treated as channel.
func WriteText(w io.Writer, records []domain.IndexRecord, level domain.DetailLevel) error {
	switch level {
	case domain.LevelNetwork:
		return writeNetworkText(w, records)
	case domain.LevelStation:
		return writeStationText(w, records)
	default:
		return writeChannelText(w, records)
	}
}

func writeNetworkText(w io.Writer, records []domain.IndexRecord) error {
	if _, err := fmt.Fprintln(w, "#Network|Description|StartTime|EndTime|TotalStations"); err != nil {
		return err
	}

	var order []string
	type netInfo struct {
		description string
		start, end  string
		openEnd     bool
		stations    map[string]bool
	}
	nets := make(map[string]*netInfo)

	for _, r := range records {
		code := r.StringAttr("network")
		info, ok := nets[code]
		if !ok {
			info = &netInfo{stations: make(map[string]bool)}
			nets[code] = info
			order = append(order, code)
			info.description = r.StringAttr("network_name")
		}
		info.stations[r.StringAttr("station")] = true
		mergeSpan(&info.start, &info.end, &info.openEnd, r)
	}

	for _, code := range order {
		info := nets[code]
		end := info.end
		if info.openEnd {
			end = ""
		}
		_, err := fmt.Fprintf(w, "%s|%s|%s|%s|%d\n",
			code, info.description, info.start, end, len(info.stations))
		if err != nil {
			return err
		}
	}
	return nil
}

func writeStationText(w io.Writer, records []domain.IndexRecord) error {
	if _, err := fmt.Fprintln(w, "#Network|Station|Latitude|Longitude|Elevation|SiteName|StartTime|EndTime"); err != nil {
		return err
	}

	var order []StationKey
	type staInfo struct {
		record     domain.IndexRecord
		start, end string
		openEnd    bool
	}
	stas := make(map[StationKey]*staInfo)

	for _, r := range records {
		key := KeyFromRecord(r).stationKey()
		info, ok := stas[key]
		if !ok {
			info = &staInfo{record: r}
			stas[key] = info
			order = append(order, key)
		}
		mergeSpan(&info.start, &info.end, &info.openEnd, r)
	}

	for _, key := range order {
		info := stas[key]
		end := info.end
		if info.openEnd {
			end = ""
		}
		_, err := fmt.Fprintf(w, "%s|%s|%s|%s|%s|%s|%s|%s\n",
			key.Network, key.Station,
			floatAttr(info.record, "latitude"),
			floatAttr(info.record, "longitude"),
			floatAttr(info.record, "elevation_in_m"),
			info.record.StringAttr("station_name"),
			info.start, end)
		if err != nil {
			return err
		}
	}
	return nil
}

func writeChannelText(w io.Writer, records []domain.IndexRecord) error {
	if _, err := fmt.Fprintln(w, "#Network|Station|Location|Channel|Latitude|Longitude|Elevation|Depth|Azimuth|Dip|SensorDescription|Scale|ScaleFreq|ScaleUnits|SampleRate|StartTime|EndTime"); err != nil {
		return err
	}

	for _, r := range records {
		_, err := fmt.Fprintf(w, "%s|%s|%s|%s|%s|%s|%s|%s|%s|%s|%s|%s|%s|%s|%s|%s|%s\n",
			r.StringAttr("network"), r.StringAttr("station"),
			r.StringAttr("location"), r.StringAttr("channel"),
			floatAttr(r, "latitude"), floatAttr(r, "longitude"),
			floatAttr(r, "elevation_in_m"), floatAttr(r, "depth_in_m"),
			floatAttr(r, "azimuth"), floatAttr(r, "dip"),
			r.StringAttr("sensor_type"),
			floatAttr(r, "total_sensitivity"), floatAttr(r, "sensitivity_frequency"),
			r.StringAttr("units_after_sensitivity"),
			floatAttr(r, "sample_rate"),
			r.StringAttr("start_date"), r.StringAttr("end_date"))
		if err != nil {
			return err
		}
	}
	return nil
}

// mergeSpan widens a start/end span with one record's epoch. An absent
// end date marks the span as still open.
func mergeSpan(start, end *string, openEnd *bool, r domain.IndexRecord) {
	s := r.StringAttr("start_date")
	if s != "" && (*start == "" || s < *start) {
		*start = s
	}
	e := r.StringAttr("end_date")
	if e == "" {
		*openEnd = true
		return
	}
	if e > *end {
		*end = e
	}
}

func floatAttr(r domain.IndexRecord, key string) string {
	v, ok := r.FloatAttr(key)
	if !ok {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
