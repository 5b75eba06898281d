// Package quakeml parses, indexes and serializes QuakeML event catalog
// documents.
package quakeml

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/seismo-labs/jane/internal/xmltree"
)

// Events holds the captured event subtrees of one scanned document in
// document order, addressable by publicID.
type Events struct {
	order    []string
	byPublic map[string]*xmltree.Element
}

// Get returns the event with the given publicID, or nil.
func (e *Events) Get(publicID string) *xmltree.Element {
	return e.byPublic[publicID]
}

// PublicIDs returns the captured ids in document order.
func (e *Events) PublicIDs() []string {
	return e.order
}

// Extract scans a QuakeML document for events. Only events whose
// publicID is in wanted are captured; the scan stops as soon as every
// wanted id has been found. A nil wanted set captures all events.
func Extract(r io.Reader, wanted map[string]bool) (*Events, error) {
	dec := xml.NewDecoder(r)
	events := &Events{byPublic: make(map[string]*xmltree.Element)}

	remaining := len(wanted)
	for {
		if wanted != nil && remaining == 0 {
			break
		}
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "event" {
			continue
		}

		var publicID string
		for _, a := range start.Attr {
			if a.Name.Local == "publicID" {
				publicID = a.Value
				break
			}
		}

		if wanted != nil && !wanted[publicID] {
			if err := dec.Skip(); err != nil {
				return nil, fmt.Errorf("skipping event: %w", err)
			}
			continue
		}
		if _, seen := events.byPublic[publicID]; seen {
			if err := dec.Skip(); err != nil {
				return nil, fmt.Errorf("skipping event: %w", err)
			}
			continue
		}

		el, err := xmltree.Capture(dec, start)
		if err != nil {
			return nil, fmt.Errorf("capturing event: %w", err)
		}
		events.byPublic[publicID] = el
		events.order = append(events.order, publicID)
		if wanted != nil {
			remaining--
		}
	}

	return events, nil
}
