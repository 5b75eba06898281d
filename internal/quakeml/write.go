package quakeml

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"

	"github.com/seismo-labs/jane/internal/core/domain"
	"github.com/seismo-labs/jane/internal/xmltree"
)

const (
	quakemlNS = "http://quakeml.org/xmlns/quakeml/1.2"
	bedNS     = "http://quakeml.org/xmlns/bed/1.2"
)

// WriteDocument serializes events as a QuakeML 1.2 document. The
// wrapper and the eventParameters envelope are emitted around the
// captured event subtrees.
func WriteDocument(w io.Writer, events []*xmltree.Element, catalogID string) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	if catalogID == "" {
		catalogID = "smi:local/catalog"
	}
	_, err := fmt.Fprintf(w, `<q:quakeml xmlns:q=%q xmlns=%q><eventParameters publicID=%q>`,
		quakemlNS, bedNS, catalogID)
	if err != nil {
		return err
	}

	enc := xml.NewEncoder(w)
	for _, ev := range events {
		if err := ev.Encode(enc); err != nil {
			return err
		}
	}
	if err := enc.Flush(); err != nil {
		return err
	}

	_, err = io.WriteString(w, `</eventParameters></q:quakeml>`)
	return err
}

// WriteText serializes matched event records in the FDSN event text
// format. Depth converts from the indexed metres to kilometres.
func WriteText(w io.Writer, records []domain.IndexRecord) error {
	if _, err := fmt.Fprintln(w, "#EventID|Time|Latitude|Longitude|Depth/km|Author|Catalog|Contributor|ContributorID|MagType|Magnitude|MagAuthor|EventLocationName"); err != nil {
		return err
	}

	for _, r := range records {
		depth := ""
		if m, ok := r.FloatAttr("depth_in_m"); ok {
			depth = strconv.FormatFloat(m/1000.0, 'f', -1, 64)
		}
		mag := ""
		if v, ok := r.FloatAttr("magnitude"); ok {
			mag = strconv.FormatFloat(v, 'f', -1, 64)
		}
		_, err := fmt.Fprintf(w, "%s|%s|%s|%s|%s|%s|%s|||%s|%s||\n",
			r.StringAttr("quakeml_id"),
			r.StringAttr("origin_time"),
			floatAttr(r, "latitude"),
			floatAttr(r, "longitude"),
			depth,
			r.StringAttr("author"),
			r.StringAttr("agency"),
			r.StringAttr("magnitude_type"),
			mag)
		if err != nil {
			return err
		}
	}
	return nil
}

func floatAttr(r domain.IndexRecord, key string) string {
	v, ok := r.FloatAttr(key)
	if !ok {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
