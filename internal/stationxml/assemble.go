package stationxml

import (
	"strconv"

	"github.com/seismo-labs/jane/internal/core/domain"
	"github.com/seismo-labs/jane/internal/logger"
	"github.com/seismo-labs/jane/internal/xmltree"
)

// Stats holds inventory-wide counts, computed from the full index
// rather than from any single document. They feed the TotalNumber
// counters of the assembled tree.
type Stats struct {
	StationsPerNetwork map[string]int
	ChannelsPerStation map[StationKey]int
}

// ComputeStats derives inventory counts from the complete record set of
// the document type.
func ComputeStats(records []domain.IndexRecord) Stats {
	stats := Stats{
		StationsPerNetwork: make(map[string]int),
		ChannelsPerStation: make(map[StationKey]int),
	}
	seenStations := make(map[StationKey]bool)
	for _, r := range records {
		key := KeyFromRecord(r).stationKey()
		if !seenStations[key] {
			seenStations[key] = true
			stats.StationsPerNetwork[key.Network]++
		}
		stats.ChannelsPerStation[key]++
	}
	return stats
}

// Assemble merges the fragments of all scanned documents into one
// network tree truncated to the requested detail level.
//
// Matched channels drive the assembly: stations and networks appear
// only when they own a matched channel, in first-match order, each
// rendered from the first document that carried it. A channel whose
// parent was never seen gets a synthesized stub parent; that indicates
// an inconsistent source document and is logged.
func Assemble(frags []*Fragments, stats Stats, level domain.DetailLevel) []*xmltree.Element {
	var netOrder []string
	nets := make(map[string]*xmltree.Element)
	var staOrder []StationKey
	stas := make(map[StationKey]*xmltree.Element)

	chanSeen := make(map[ChannelKey]bool)
	chansByStation := make(map[StationKey][]*xmltree.Element)

	network := func(code string) *xmltree.Element {
		if el, ok := nets[code]; ok {
			return el
		}
		el := findShallow(frags, func(f *Fragments) *xmltree.Element { return f.networks[code] })
		if el == nil {
			logger.Warn("synthesizing stub for channel without network element",
				"network", code)
			el = &xmltree.Element{Name: "Network"}
			el.SetAttr("code", code)
		}
		nets[code] = el
		netOrder = append(netOrder, code)
		return el
	}

	station := func(key StationKey) *xmltree.Element {
		if el, ok := stas[key]; ok {
			return el
		}
		el := findShallow(frags, func(f *Fragments) *xmltree.Element { return f.stations[key] })
		if el == nil {
			logger.Warn("synthesizing stub for channel without station element",
				"network", key.Network, "station", key.Station)
			el = &xmltree.Element{Name: "Station"}
			el.SetAttr("code", key.Station)
		}
		stas[key] = el
		staOrder = append(staOrder, key)
		network(key.Network)
		return el
	}

	for _, f := range frags {
		for _, key := range f.channelOrder {
			if chanSeen[key] {
				continue
			}
			chanSeen[key] = true
			station(key.stationKey())

			ch := f.channels[key].Clone()
			if level == domain.LevelChannel {
				ch.RemoveChildren("Response")
			}
			chansByStation[key.stationKey()] = append(chansByStation[key.stationKey()], ch)
		}
	}

	// Counter recomputation. Totals come from the whole index, selected
	// counts from what this query matched. Selected channel counts are
	// zeroed when channels are not part of the output.
	selectedStations := make(map[string]int)
	for _, key := range staOrder {
		selectedStations[key.Network]++
	}
	for code, el := range nets {
		el.SetChildText("TotalNumberStations", strconv.Itoa(stats.StationsPerNetwork[code]))
		el.SetChildText("SelectedNumberStations", strconv.Itoa(selectedStations[code]))
	}
	for key, el := range stas {
		selected := 0
		if level >= domain.LevelChannel {
			selected = len(chansByStation[key])
		}
		el.SetChildText("TotalNumberChannels", strconv.Itoa(stats.ChannelsPerStation[key]))
		el.SetChildText("SelectedNumberChannels", strconv.Itoa(selected))
	}

	if level >= domain.LevelChannel {
		for _, key := range staOrder {
			stas[key].Children = append(stas[key].Children, chansByStation[key]...)
		}
	}
	if level >= domain.LevelStation {
		for _, key := range staOrder {
			nets[key.Network].Children = append(nets[key.Network].Children, stas[key])
		}
	}

	out := make([]*xmltree.Element, 0, len(netOrder))
	for _, code := range netOrder {
		out = append(out, nets[code])
	}
	return out
}

// findShallow returns a clone of the first fragment any document holds
// for the element.
func findShallow(frags []*Fragments, get func(*Fragments) *xmltree.Element) *xmltree.Element {
	for _, f := range frags {
		if el := get(f); el != nil {
			return el.Clone()
		}
	}
	return nil
}
