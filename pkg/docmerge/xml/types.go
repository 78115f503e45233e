package xml

import "strings"

// Namespace URIs used by the merge engine.
const (
	NamespaceW     = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	NamespaceR     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	NamespaceMC    = "http://schemas.openxmlformats.org/markup-compatibility/2006"
	NamespaceXML   = "http://www.w3.org/XML/1998/namespace"
	NamespaceXMLNS = "http://www.w3.org/2000/xmlns/"
)

// Kind identifies the shape of a Node.
type Kind int

const (
	ElementNode Kind = iota
	TextNode
	CommentNode
	ProcInstNode
	DirectiveNode
)

func (k Kind) String() string {
	switch k {
	case ElementNode:
		return "element"
	case TextNode:
		return "text"
	case CommentNode:
		return "comment"
	case ProcInstNode:
		return "procinst"
	case DirectiveNode:
		return "directive"
	default:
		return "unknown"
	}
}

// Name is a qualified name exactly as written in the source document.
type Name struct {
	Prefix string
	Local  string
}

// String returns the name in prefix:local form.
func (n Name) String() string {
	if n.Prefix == "" {
		return n.Local
	}
	return n.Prefix + ":" + n.Local
}

// Attr is an element attribute. Space holds the namespace URI the prefix resolved to
// (empty for unprefixed attributes and for namespace declarations).
type Attr struct {
	Name  Name
	Space string
	Value string
}

// IsNamespaceDecl reports whether the attribute declares a namespace prefix.
func (a Attr) IsNamespaceDecl() bool {
	return a.Name.Prefix == "xmlns" || (a.Name.Prefix == "" && a.Name.Local == "xmlns")
}

// Node is one node of the content tree. Children are kept in document order.
type Node struct {
	Kind Kind
	// Name is the element name, or the target of a processing instruction.
	Name Name
	// Space is the namespace URI of an element.
	Space    string
	Attrs    []Attr
	Data     string
	Children []*Node
	Parent   *Node
}

// NewElement creates a detached element node.
func NewElement(prefix, space, local string) *Node {
	return &Node{
		Kind:  ElementNode,
		Name:  Name{Prefix: prefix, Local: local},
		Space: space,
	}
}

// NewText creates a detached text node.
func NewText(data string) *Node {
	return &Node{Kind: TextNode, Data: data}
}

// Is reports whether n is an element with the given namespace URI and local name.
func (n *Node) Is(space, local string) bool {
	return n != nil && n.Kind == ElementNode && n.Space == space && n.Name.Local == local
}

// IsW reports whether n is a WordprocessingML element with the given local name.
func (n *Node) IsW(local string) bool {
	return n.Is(NamespaceW, local)
}

// NewSibling creates a detached element in the same namespace and with the same prefix as n.
func (n *Node) NewSibling(local string) *Node {
	return NewElement(n.Name.Prefix, n.Space, local)
}

// Elements returns the element children of n, skipping text, comments and other nodes.
func (n *Node) Elements() []*Node {
	out := make([]*Node, 0, len(n.Children))
	for _, c := range n.Children {
		if c.Kind == ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// Child returns the first element child matching space and local.
func (n *Node) Child(space, local string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Is(space, local) {
			return c
		}
	}
	return nil
}

// LastElement returns the last element child of n, or nil.
func (n *Node) LastElement() *Node {
	for i := len(n.Children) - 1; i >= 0; i-- {
		if n.Children[i].Kind == ElementNode {
			return n.Children[i]
		}
	}
	return nil
}

// IndexOf returns the position of child in n.Children, or -1.
func (n *Node) IndexOf(child *Node) int {
	for i, c := range n.Children {
		if c == child {
			return i
		}
	}
	return -1
}

// AppendChild appends child to n, detaching it from any previous parent.
func (n *Node) AppendChild(child *Node) {
	child.Detach()
	child.Parent = n
	n.Children = append(n.Children, child)
}

// InsertChildren inserts nodes at index i. Nodes are detached from previous parents first.
func (n *Node) InsertChildren(i int, nodes ...*Node) {
	if i < 0 {
		i = 0
	}
	for _, c := range nodes {
		c.Detach()
	}
	// Detaching may have shortened n.Children if nodes were already children of n.
	if i > len(n.Children) {
		i = len(n.Children)
	}
	for _, c := range nodes {
		c.Parent = n
	}
	rest := append([]*Node(nil), n.Children[i:]...)
	n.Children = append(append(n.Children[:i], nodes...), rest...)
}

// RemoveChildAt removes and returns the child at index i.
func (n *Node) RemoveChildAt(i int) *Node {
	c := n.Children[i]
	n.Children = append(n.Children[:i], n.Children[i+1:]...)
	c.Parent = nil
	return c
}

// Detach removes n from its parent. It is a no-op for detached nodes.
func (n *Node) Detach() {
	if n.Parent == nil {
		return
	}
	if i := n.Parent.IndexOf(n); i >= 0 {
		n.Parent.RemoveChildAt(i)
	}
	n.Parent = nil
}

// Clone returns a deep copy of n with a nil Parent.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	cloned := &Node{
		Kind:  n.Kind,
		Name:  n.Name,
		Space: n.Space,
		Data:  n.Data,
	}
	if n.Attrs != nil {
		cloned.Attrs = make([]Attr, len(n.Attrs))
		copy(cloned.Attrs, n.Attrs)
	}
	if n.Children != nil {
		cloned.Children = make([]*Node, len(n.Children))
		for i, c := range n.Children {
			cc := c.Clone()
			cc.Parent = cloned
			cloned.Children[i] = cc
		}
	}
	return cloned
}

// Equal reports whether a and b are structurally identical, ignoring parent links.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind || a.Name != b.Name || a.Space != b.Space || a.Data != b.Data {
		return false
	}
	if len(a.Attrs) != len(b.Attrs) || len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Attrs {
		if a.Attrs[i] != b.Attrs[i] {
			return false
		}
	}
	for i := range a.Children {
		if !Equal(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}

// Walk visits n and its descendants depth-first in document order. Returning false from fn
// skips the children of the visited node.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, fn)
	}
}

// isWhitespace reports whether s consists only of XML whitespace.
func isWhitespace(s string) bool {
	return strings.TrimLeft(s, " \t\r\n") == ""
}
