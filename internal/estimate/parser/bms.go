package parser

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

// Node is one element of the normalized XML tree. Character data is trimmed;
// nesting is preserved in document order.
type Node struct {
	Name     string
	Attr     map[string]string
	Text     string
	Children []*Node
}

// Root element names emitted by the various estimating systems, normalized to
// a single canonical root so the validator sees one shape.
const canonicalRoot = "Estimate"

var rootAliases = map[string]string{
	"Estimate":                   canonicalRoot,
	"VehicleDamageEstimateAddRq": canonicalRoot,
	"EstimateDocument":           canonicalRoot,
	"BMSEstimate":                canonicalRoot,
	"CollisionEstimate":          canonicalRoot,
}

// ParseBMS decodes XML content into a Node tree. The error is the raw
// decoder error; callers wrap it in a ParseError.
func ParseBMS(content []byte) (*Node, error) {
	dec := xml.NewDecoder(bytes.NewReader(content))
	root, err := decodeElement(dec)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, errors.New("no root element")
	}
	if canonical, ok := rootAliases[root.Name]; ok {
		root.Name = canonical
	}
	// Trailing garbage after the root element is malformed too.
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return root, nil
		}
		if err != nil {
			return nil, err
		}
		if _, ok := tok.(xml.StartElement); ok {
			return nil, errors.New("multiple root elements")
		}
	}
}

// decodeElement consumes tokens until it has built the next element subtree.
func decodeElement(dec *xml.Decoder) (*Node, error) {
	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				return nil, nil
			}
			return nil, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		return decodeFrom(dec, start)
	}
}

func decodeFrom(dec *xml.Decoder, start xml.StartElement) (*Node, error) {
	node := &Node{Name: start.Name.Local}
	if len(start.Attr) > 0 {
		node.Attr = make(map[string]string, len(start.Attr))
		for _, attr := range start.Attr {
			node.Attr[attr.Name.Local] = attr.Value
		}
	}
	var text strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, err := decodeFrom(dec, t)
			if err != nil {
				return nil, err
			}
			node.Children = append(node.Children, child)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			node.Text = strings.TrimSpace(text.String())
			return node, nil
		}
	}
}

// Find returns the first child at the given path, or nil.
func (n *Node) Find(path ...string) *Node {
	cur := n
	for _, name := range path {
		if cur == nil {
			return nil
		}
		var next *Node
		for _, child := range cur.Children {
			if child.Name == name {
				next = child
				break
			}
		}
		cur = next
	}
	return cur
}

// FindAll returns every direct child with the given name.
func (n *Node) FindAll(name string) []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	for _, child := range n.Children {
		if child.Name == name {
			out = append(out, child)
		}
	}
	return out
}

// TextAt returns the trimmed text at path, or "" when the path is absent.
func (n *Node) TextAt(path ...string) string {
	if found := n.Find(path...); found != nil {
		return found.Text
	}
	return ""
}
