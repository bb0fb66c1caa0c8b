package readers

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pranayb2773/products-parser/pkg/catalog"
	"github.com/pranayb2773/products-parser/pkg/formats"
)

// recordElementNames are the element names recognized as records, at any
// nesting depth.
var recordElementNames = map[string]bool{
	"product": true,
	"item":    true,
}

// XMLReader performs a forward-only pull scan of an XML document, yielding a
// record for every product or item element.
type XMLReader struct {
	dec      *xml.Decoder
	index    int
	found    bool
	elements int
	err      error
}

// NewXMLReader creates an XML reader over the stream.
func NewXMLReader(r io.Reader) *XMLReader {
	return &XMLReader{dec: xml.NewDecoder(r)}
}

// Read implements RecordReader. A well-formed document with zero matching
// elements is itself a parse error.
func (x *XMLReader) Read() (*catalog.Record, error) {
	if x.err != nil {
		return nil, x.err
	}

	for {
		tok, err := x.dec.Token()
		if errors.Is(err, io.EOF) {
			// A bare root with no children is an empty catalog (a partition
			// that received zero records). A document that has elements but
			// none of them records is malformed input.
			if !x.found && x.elements > 1 {
				x.err = &ParseError{
					Format: formats.XML,
					Offset: x.dec.InputOffset(),
					Msg:    "no product elements found",
				}
				return nil, x.err
			}
			x.err = io.EOF
			return nil, io.EOF
		}
		if err != nil {
			x.err = x.wrapXMLError(err)
			return nil, x.err
		}

		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		x.elements++
		if !recordElementNames[se.Name.Local] {
			continue
		}

		node, err := parseXMLElement(x.dec, se)
		if err != nil {
			x.err = x.wrapXMLError(err)
			return nil, x.err
		}

		x.found = true
		x.index++

		keys, values := flattenXMLNode(node)
		rec, err := buildRecord(keys, values, x.index)
		if err != nil {
			x.err = err
			return nil, err
		}
		return rec, nil
	}
}

// wrapXMLError aggregates the decoder-reported issue with positional context.
func (x *XMLReader) wrapXMLError(err error) error {
	return &ParseError{
		Format: formats.XML,
		Index:  x.index,
		Offset: x.dec.InputOffset(),
		Msg:    "malformed document",
		Err:    err,
	}
}

// xmlNode is the in-memory form of one record element's subtree.
type xmlNode struct {
	name     string
	attrs    []xml.Attr
	children []*xmlNode
	text     strings.Builder
}

// parseXMLElement consumes the subtree opened by se into an xmlNode.
func parseXMLElement(dec *xml.Decoder, se xml.StartElement) (*xmlNode, error) {
	node := &xmlNode{name: se.Name.Local, attrs: se.Attr}
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("unexpected end of element <%s>", node.name)
			}
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, err := parseXMLElement(dec, t)
			if err != nil {
				return nil, err
			}
			node.children = append(node.children, child)
		case xml.CharData:
			node.text.Write(t)
		case xml.EndElement:
			return node, nil
		}
	}
}

// flattenXMLNode converts a record element to flat key/value pairs:
// attributes first, then child elements. A child with its own attributes or
// children contributes its serialized form; a record element with neither
// attributes nor children yields its own text under "value".
func flattenXMLNode(node *xmlNode) (keys, values []string) {
	if len(node.attrs) == 0 && len(node.children) == 0 {
		return []string{"value"}, []string{strings.TrimSpace(node.text.String())}
	}

	for _, a := range node.attrs {
		keys = append(keys, a.Name.Local)
		values = append(values, a.Value)
	}
	for _, c := range node.children {
		keys = append(keys, c.name)
		if len(c.attrs) == 0 && len(c.children) == 0 {
			values = append(values, strings.TrimSpace(c.text.String()))
		} else {
			values = append(values, serializeXMLNode(c))
		}
	}
	return keys, values
}

// ScanXMLElements walks the direct element children of the document root and
// invokes fn with each child's serialized outer form. It returns the root
// element's name so callers re-emitting the children can pick a different
// wrapper.
func ScanXMLElements(r io.Reader, fn func(outer string) error) (string, error) {
	dec := xml.NewDecoder(r)
	root := ""
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			if root == "" {
				return "", &ParseError{Format: formats.XML, Msg: "no root element found"}
			}
			return root, nil
		}
		if err != nil {
			return root, &ParseError{
				Format: formats.XML,
				Offset: dec.InputOffset(),
				Msg:    "malformed document",
				Err:    err,
			}
		}

		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if root == "" {
			root = se.Name.Local
			continue
		}

		node, err := parseXMLElement(dec, se)
		if err != nil {
			return root, &ParseError{
				Format: formats.XML,
				Offset: dec.InputOffset(),
				Msg:    "malformed document",
				Err:    err,
			}
		}
		if err := fn(serializeXMLNode(node)); err != nil {
			return root, err
		}
	}
}

// serializeXMLNode rebuilds a nested element's serialized form.
func serializeXMLNode(node *xmlNode) string {
	var sb strings.Builder
	writeXMLNode(&sb, node)
	return sb.String()
}

func writeXMLNode(sb *strings.Builder, node *xmlNode) {
	sb.WriteByte('<')
	sb.WriteString(node.name)
	for _, a := range node.attrs {
		sb.WriteByte(' ')
		sb.WriteString(a.Name.Local)
		sb.WriteString(`="`)
		_ = xml.EscapeText(sb, []byte(a.Value))
		sb.WriteByte('"')
	}
	sb.WriteByte('>')
	if text := strings.TrimSpace(node.text.String()); text != "" {
		_ = xml.EscapeText(sb, []byte(text))
	}
	for _, c := range node.children {
		writeXMLNode(sb, c)
	}
	sb.WriteString("</")
	sb.WriteString(node.name)
	sb.WriteByte('>')
}
