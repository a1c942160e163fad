package jobxml

import (
	"strings"
)

// Attr is one attribute of a Node
type Attr struct {
	Name  string
	Value string
}

// Node is an XML element. A node holds either children or text.
type Node struct {
	Tag      string
	Attrs    []Attr
	Children []*Node
	Text     string
}

// NewNode creates an element with attrs in the given order
func NewNode(tag string, attrs ...Attr) *Node {
	return &Node{Tag: tag, Attrs: attrs}
}

// TextNode creates a leaf element holding text
func TextNode(tag, text string) *Node {
	return &Node{Tag: tag, Text: text}
}

// Append adds children at the end and returns n
func (n *Node) Append(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

// Attr returns the value of the named attribute
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Child returns the first child with tag, or nil
func (n *Node) Child(tag string) *Node {
	for _, c := range n.Children {
		if c.Tag == tag {
			return c
		}
	}
	return nil
}

// ChildrenNamed returns every child with tag, in document order
func (n *Node) ChildrenNamed(tag string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Tag == tag {
			out = append(out, c)
		}
	}
	return out
}

// SetChild replaces the first child with the same tag, or appends child
func (n *Node) SetChild(child *Node) {
	for i, c := range n.Children {
		if c.Tag == child.Tag {
			n.Children[i] = child
			return
		}
	}
	n.Children = append(n.Children, child)
}

// Clone returns a deep copy of n
func (n *Node) Clone() *Node {
	out := &Node{Tag: n.Tag, Text: n.Text}
	if len(n.Attrs) > 0 {
		out.Attrs = make([]Attr, len(n.Attrs))
		copy(out.Attrs, n.Attrs)
	}
	if len(n.Children) > 0 {
		out.Children = make([]*Node, len(n.Children))
		for i, c := range n.Children {
			out.Children[i] = c.Clone()
		}
	}
	return out
}

// String renders n without an XML declaration
func (n *Node) String() string {
	var sb strings.Builder
	n.render(&sb)
	return sb.String()
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "'", "&apos;", "\"", "&quot;")
)

// render writes attributes on the opening tag only; the closing tag is the bare name
func (n *Node) render(sb *strings.Builder) {
	sb.WriteByte('<')
	sb.WriteString(n.Tag)
	for _, a := range n.Attrs {
		sb.WriteByte(' ')
		sb.WriteString(a.Name)
		sb.WriteString("='")
		sb.WriteString(attrEscaper.Replace(a.Value))
		sb.WriteByte('\'')
	}

	if len(n.Children) == 0 && n.Text == "" {
		sb.WriteString("/>")
		return
	}
	sb.WriteByte('>')

	if len(n.Children) > 0 {
		for _, c := range n.Children {
			c.render(sb)
		}
	} else {
		sb.WriteString(textEscaper.Replace(n.Text))
	}

	sb.WriteString("</")
	sb.WriteString(n.Tag)
	sb.WriteByte('>')
}
