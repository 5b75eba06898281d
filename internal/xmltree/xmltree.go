// Package xmltree captures XML subtrees from a streaming decoder into a
// small mutable element tree and re-emits them. It exists so that the
// document scanners can hold on to exactly the fragments a query needs
// while the decoder discards everything else.
//
// Namespaces are resolved on capture and dropped on output; the root
// serializers declare the single document namespace themselves.
package xmltree

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Element is one captured XML element.
type Element struct {
	// Name is the element's local name.
	Name string

	// Attrs in document order, local attribute names only.
	Attrs []xml.Attr

	// Children in document order.
	Children []*Element

	// Text is the element's character data, concatenated and trimmed.
	Text string
}

// Capture reads the subtree rooted at start from the decoder and
// returns it as an Element. The decoder is left positioned after the
// matching end element.
func Capture(dec *xml.Decoder, start xml.StartElement) (*Element, error) {
	el := &Element{Name: start.Name.Local}
	for _, a := range start.Attr {
		if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
			continue
		}
		el.Attrs = append(el.Attrs, xml.Attr{
			Name:  xml.Name{Local: a.Name.Local},
			Value: a.Value,
		})
	}

	var text strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				return nil, fmt.Errorf("unexpected EOF inside <%s>", el.Name)
			}
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, err := Capture(dec, t)
			if err != nil {
				return nil, err
			}
			el.Children = append(el.Children, child)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			el.Text = strings.TrimSpace(text.String())
			return el, nil
		}
	}
}

// Attr returns the value of the named attribute, or "".
func (e *Element) Attr(name string) string {
	for _, a := range e.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// SetAttr sets or replaces an attribute.
func (e *Element) SetAttr(name, value string) {
	for i, a := range e.Attrs {
		if a.Name.Local == name {
			e.Attrs[i].Value = value
			return
		}
	}
	e.Attrs = append(e.Attrs, xml.Attr{Name: xml.Name{Local: name}, Value: value})
}

// Child returns the first child with the given name, or nil.
func (e *Element) Child(name string) *Element {
	for _, c := range e.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ChildText returns the text of the first child with the given name.
func (e *Element) ChildText(name string) string {
	if c := e.Child(name); c != nil {
		return c.Text
	}
	return ""
}

// RemoveChildren drops every child with one of the given names.
func (e *Element) RemoveChildren(names ...string) {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	kept := e.Children[:0]
	for _, c := range e.Children {
		if !drop[c.Name] {
			kept = append(kept, c)
		}
	}
	e.Children = kept
}

// SetChildText replaces the text of the first child with the given
// name, appending a new child if absent.
func (e *Element) SetChildText(name, text string) {
	if c := e.Child(name); c != nil {
		c.Text = text
		c.Children = nil
		return
	}
	e.Children = append(e.Children, &Element{Name: name, Text: text})
}

// Clone returns a deep copy of the element.
func (e *Element) Clone() *Element {
	cp := &Element{Name: e.Name, Text: e.Text}
	cp.Attrs = append([]xml.Attr(nil), e.Attrs...)
	for _, c := range e.Children {
		cp.Children = append(cp.Children, c.Clone())
	}
	return cp
}

// ShallowClone copies the element's attributes and text-only children,
// leaving out children whose names appear in except.
func (e *Element) ShallowClone(except ...string) *Element {
	drop := make(map[string]bool, len(except))
	for _, n := range except {
		drop[n] = true
	}
	cp := &Element{Name: e.Name, Text: e.Text}
	cp.Attrs = append([]xml.Attr(nil), e.Attrs...)
	for _, c := range e.Children {
		if drop[c.Name] {
			continue
		}
		cp.Children = append(cp.Children, c.Clone())
	}
	return cp
}

// Encode writes the element and its subtree to the encoder.
func (e *Element) Encode(enc *xml.Encoder) error {
	start := xml.StartElement{Name: xml.Name{Local: e.Name}, Attr: e.Attrs}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	if e.Text != "" {
		if err := enc.EncodeToken(xml.CharData(e.Text)); err != nil {
			return err
		}
	}
	for _, c := range e.Children {
		if err := c.Encode(enc); err != nil {
			return err
		}
	}
	return enc.EncodeToken(xml.EndElement{Name: start.Name})
}
