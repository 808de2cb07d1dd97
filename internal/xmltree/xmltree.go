// Package xmltree parses XML into a generic element tree with namespace
// prefixes stripped. The OOXML readers walk these trees recursively instead of
// mapping every part onto struct types: the dialects involved (WordprocessingML,
// DrawingML, OMML) interleave elements whose order matters, which encoding/xml
// field mapping does not preserve.
package xmltree

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Node is a single XML element. Name and attribute keys are local names; the
// namespace prefix is discarded during parsing. Attributes are additionally
// indexed under "<namespace uri>|<local>" so that elements carrying the same
// local name in two namespaces, such as sldId's id and r:id, stay addressable
// through AttrNS.
type Node struct {
	Name     string
	Attrs    map[string]string
	Children []*Node
	Text     string
}

// Parse decodes data and returns the document's root element.
func Parse(data []byte) (*Node, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	// Office packages occasionally declare single-byte encodings.
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		return input, nil
	}

	var root *Node
	var stack []*Node

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Name: t.Name.Local}
			if len(t.Attr) > 0 {
				n.Attrs = make(map[string]string, len(t.Attr))
				for _, a := range t.Attr {
					if a.Name.Local == "xmlns" || strings.HasPrefix(a.Name.Space, "xmlns") {
						continue
					}
					if a.Name.Space != "" {
						n.Attrs[a.Name.Space+"|"+a.Name.Local] = a.Value
					}
					// The bare local name keeps the first spelling seen.
					if _, ok := n.Attrs[a.Name.Local]; !ok {
						n.Attrs[a.Name.Local] = a.Value
					}
				}
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("multiple root elements")
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			}
			stack = append(stack, n)

		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("unbalanced end element %q", t.Name.Local)
			}
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].Text += string(t)
			}
		}
	}

	if root == nil {
		return nil, fmt.Errorf("no root element")
	}
	return root, nil
}

// Attr returns the value of the named attribute, or "" if absent. When two
// attributes share a local name the first spelling in the element wins; use
// AttrNS to pick a namespace explicitly.
func (n *Node) Attr(name string) string {
	if n == nil || n.Attrs == nil {
		return ""
	}
	return n.Attrs[name]
}

// AttrNS returns the value of the attribute with the given namespace URI and
// local name, falling back to the bare local name when no qualified spelling
// was present.
func (n *Node) AttrNS(space, name string) string {
	if n == nil || n.Attrs == nil {
		return ""
	}
	if v, ok := n.Attrs[space+"|"+name]; ok {
		return v
	}
	return n.Attrs[name]
}

// Child returns the first direct child with the given local name.
func (n *Node) Child(name string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ChildrenNamed returns all direct children with the given local name.
func (n *Node) ChildrenNamed(name string) []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	for _, c := range n.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Find performs a depth-first search for the first descendant (including n
// itself) with the given local name.
func (n *Node) Find(name string) *Node {
	if n == nil {
		return nil
	}
	if n.Name == name {
		return n
	}
	for _, c := range n.Children {
		if found := c.Find(name); found != nil {
			return found
		}
	}
	return nil
}

// FindAll collects every descendant (including n itself) with the given local
// name, in document order.
func (n *Node) FindAll(name string) []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	n.findAll(name, &out)
	return out
}

func (n *Node) findAll(name string, out *[]*Node) {
	if n.Name == name {
		*out = append(*out, n)
	}
	for _, c := range n.Children {
		c.findAll(name, out)
	}
}

// FullText concatenates the text content of n and all its descendants.
func (n *Node) FullText() string {
	if n == nil {
		return ""
	}
	var sb strings.Builder
	n.fullText(&sb)
	return sb.String()
}

func (n *Node) fullText(sb *strings.Builder) {
	sb.WriteString(n.Text)
	for _, c := range n.Children {
		c.fullText(sb)
	}
}
