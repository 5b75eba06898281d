package xmltree

import (
	"bytes"
	"encoding/xml"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T, doc string) *Element {
	t.Helper()
	dec := xml.NewDecoder(strings.NewReader(doc))
	for {
		tok, err := dec.Token()
		require.NoError(t, err)
		if start, ok := tok.(xml.StartElement); ok {
			el, err := Capture(dec, start)
			require.NoError(t, err)
			return el
		}
	}
}

// TestCapture_SubtreeAndAttrs tests that capture keeps structure, text
// and attributes while dropping namespace declarations.
func TestCapture_SubtreeAndAttrs(t *testing.T) {
	el := capture(t, `<Network xmlns="http://example.org/ns" code="BW">
		<Description>BayernNetz</Description>
		<Station code="ALTM"><Latitude>48.99</Latitude></Station>
	</Network>`)

	assert.Equal(t, "Network", el.Name)
	assert.Equal(t, "BW", el.Attr("code"))
	assert.Equal(t, "BayernNetz", el.ChildText("Description"))

	sta := el.Child("Station")
	require.NotNil(t, sta)
	assert.Equal(t, "ALTM", sta.Attr("code"))
	assert.Equal(t, "48.99", sta.ChildText("Latitude"))
}

// TestCapture_UnterminatedElement tests the error on truncated input.
func TestCapture_UnterminatedElement(t *testing.T) {
	dec := xml.NewDecoder(strings.NewReader(`<Network code="BW"><Station>`))
	tok, err := dec.Token()
	require.NoError(t, err)
	_, err = Capture(dec, tok.(xml.StartElement))
	assert.Error(t, err)
}

// TestElement_RemoveChildren tests selective child removal.
func TestElement_RemoveChildren(t *testing.T) {
	el := capture(t, `<Station><Latitude>1</Latitude><Channel/><Channel/><Longitude>2</Longitude></Station>`)

	el.RemoveChildren("Channel")

	assert.Len(t, el.Children, 2)
	assert.Nil(t, el.Child("Channel"))
	assert.Equal(t, "1", el.ChildText("Latitude"))
}

// TestElement_ShallowClone tests that a shallow clone excludes the
// named children and copies the rest deeply.
func TestElement_ShallowClone(t *testing.T) {
	el := capture(t, `<Network code="BW"><Description>x</Description><Station code="A"/></Network>`)

	cp := el.ShallowClone("Station")

	assert.Equal(t, "BW", cp.Attr("code"))
	assert.Equal(t, "x", cp.ChildText("Description"))
	assert.Nil(t, cp.Child("Station"))
	// the original keeps its children
	assert.NotNil(t, el.Child("Station"))
}

// TestElement_SetChildText tests replace and append behaviour.
func TestElement_SetChildText(t *testing.T) {
	el := capture(t, `<Network><TotalNumberStations>9</TotalNumberStations></Network>`)

	el.SetChildText("TotalNumberStations", "3")
	el.SetChildText("SelectedNumberStations", "1")

	assert.Equal(t, "3", el.ChildText("TotalNumberStations"))
	assert.Equal(t, "1", el.ChildText("SelectedNumberStations"))
}

// TestElement_Encode tests round-tripping a captured subtree.
func TestElement_Encode(t *testing.T) {
	el := capture(t, `<Station code="ALTM"><Latitude>48.99</Latitude></Station>`)

	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	require.NoError(t, el.Encode(enc))
	require.NoError(t, enc.Flush())

	assert.Equal(t, `<Station code="ALTM"><Latitude>48.99</Latitude></Station>`, buf.String())
}
