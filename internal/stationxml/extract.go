// Package stationxml parses, indexes, assembles and serializes FDSN
// StationXML documents. Parsing is streaming: a document is scanned in
// one pass and only the fragments a query actually needs are retained.
package stationxml

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/seismo-labs/jane/internal/core/domain"
	"github.com/seismo-labs/jane/internal/xmltree"
)

// StationKey identifies a station element across documents.
type StationKey struct {
	Network string
	Station string
}

// ChannelKey identifies one channel epoch across documents. Start and
// End hold normalised timestamps so keys built from index records and
// keys built from raw documents compare equal.
type ChannelKey struct {
	Network  string
	Station  string
	Location string
	Channel  string
	Start    string
	End      string
}

// KeyFromRecord builds the channel identity tuple of an index record.
func KeyFromRecord(r domain.IndexRecord) ChannelKey {
	return ChannelKey{
		Network:  r.StringAttr("network"),
		Station:  r.StringAttr("station"),
		Location: r.StringAttr("location"),
		Channel:  r.StringAttr("channel"),
		Start:    r.StringAttr("start_date"),
		End:      r.StringAttr("end_date"),
	}
}

func (k ChannelKey) stationKey() StationKey {
	return StationKey{Network: k.Network, Station: k.Station}
}

// Fragments holds the retained pieces of one scanned document: shallow
// network and station elements (attributes plus their non-structural
// children) and the full subtrees of the wanted channels. First-seen
// order is preserved for deterministic assembly.
type Fragments struct {
	networkOrder []string
	networks     map[string]*xmltree.Element

	stationOrder []StationKey
	stations     map[StationKey]*xmltree.Element

	channelOrder []ChannelKey
	channels     map[ChannelKey]*xmltree.Element
}

func newFragments() *Fragments {
	return &Fragments{
		networks: make(map[string]*xmltree.Element),
		stations: make(map[StationKey]*xmltree.Element),
		channels: make(map[ChannelKey]*xmltree.Element),
	}
}

// Channels returns the captured channel keys in document order.
func (f *Fragments) Channels() []ChannelKey {
	return f.channelOrder
}

// normalizeTime rewrites a StationXML timestamp into the canonical
// index form. Values that do not parse are passed through unchanged so
// that they at least compare consistently within one run.
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

// Extract scans a StationXML document in a single pass. Channel
// subtrees are captured only when their identity tuple is in wanted; a
// nil wanted set captures every channel. Network and station elements
// are always captured shallowly (attributes and non-structural
// children) so matched channels can be reattached to their ancestry.
func Extract(r io.Reader, wanted map[ChannelKey]bool) (*Fragments, error) {
	dec := xml.NewDecoder(r)
	frags := newFragments()

	const (
		inDocument = iota
		inNetwork
		inStation
	)
	state := inDocument

	var netCode string
	var staKey StationKey
	// ownsNet/ownsSta are set when the current element created its
	// fragment; later duplicates contribute channels but not shallow
	// children.
	var ownsNet, ownsSta bool

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case state == inDocument && t.Name.Local == "Network":
				netCode = attrValue(t, "code")
				state = inNetwork
				_, seen := frags.networks[netCode]
				ownsNet = !seen
				if ownsNet {
					frags.networks[netCode] = shallowStart(t)
					frags.networkOrder = append(frags.networkOrder, netCode)
				}

			case state == inNetwork && t.Name.Local == "Station":
				staKey = StationKey{Network: netCode, Station: attrValue(t, "code")}
				state = inStation
				_, seen := frags.stations[staKey]
				ownsSta = !seen
				if ownsSta {
					frags.stations[staKey] = shallowStart(t)
					frags.stationOrder = append(frags.stationOrder, staKey)
				}

			case state == inStation && t.Name.Local == "Channel":
				key := ChannelKey{
					Network:  staKey.Network,
					Station:  staKey.Station,
					Location: attrValue(t, "locationCode"),
					Channel:  attrValue(t, "code"),
					Start:    normalizeTime(attrValue(t, "startDate")),
					End:      normalizeTime(attrValue(t, "endDate")),
				}
				if wanted != nil && !wanted[key] {
					if err := dec.Skip(); err != nil {
						return nil, fmt.Errorf("skipping channel: %w", err)
					}
					continue
				}
				el, err := xmltree.Capture(dec, t)
				if err != nil {
					return nil, fmt.Errorf("capturing channel: %w", err)
				}
				if _, seen := frags.channels[key]; !seen {
					frags.channels[key] = el
					frags.channelOrder = append(frags.channelOrder, key)
				}

			case state == inNetwork || state == inStation:
				// Non-structural child of the shallow element. Capture
				// consumes through its end tag, keeping the loop at
				// direct-child level.
				el, err := xmltree.Capture(dec, t)
				if err != nil {
					return nil, fmt.Errorf("capturing element: %w", err)
				}
				if state == inStation && ownsSta {
					frags.stations[staKey].Children = append(frags.stations[staKey].Children, el)
				} else if state == inNetwork && ownsNet {
					frags.networks[netCode].Children = append(frags.networks[netCode].Children, el)
				}
			}

		case xml.EndElement:
			switch {
			case state == inStation && t.Name.Local == "Station":
				state = inNetwork
			case state == inNetwork && t.Name.Local == "Network":
				state = inDocument
			}
		}
	}

	return frags, nil
}

func attrValue(start xml.StartElement, name string) string {
	for _, a := range start.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// shallowStart builds an element from a start tag's attributes.
func shallowStart(start xml.StartElement) *xmltree.Element {
	el := &xmltree.Element{Name: start.Name.Local}
	for _, a := range start.Attr {
		if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
			continue
		}
		el.Attrs = append(el.Attrs, xml.Attr{
			Name:  xml.Name{Local: a.Name.Local},
			Value: a.Value,
		})
	}
	return el
}
