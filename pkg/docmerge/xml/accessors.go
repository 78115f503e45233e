package xml

import "strings"

// Attr returns the value of the attribute with the given namespace URI and local name.
func (n *Node) Attr(space, local string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attrs {
		if a.Space == space && a.Name.Local == local && !a.IsNamespaceDecl() {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttr sets an attribute value, keeping the position and prefix of an existing attribute.
// New attributes take the prefix declared for space on the closest ancestor (the conventional
// prefix as a fallback).
func (n *Node) SetAttr(space, local, value string) {
	for i, a := range n.Attrs {
		if a.Space == space && a.Name.Local == local && !a.IsNamespaceDecl() {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{
		Name:  Name{Prefix: n.prefixFor(space), Local: local},
		Space: space,
		Value: value,
	})
}

// RemoveAttr deletes the attribute if present.
func (n *Node) RemoveAttr(space, local string) {
	for i, a := range n.Attrs {
		if a.Space == space && a.Name.Local == local && !a.IsNamespaceDecl() {
			n.Attrs = append(n.Attrs[:i], n.Attrs[i+1:]...)
			return
		}
	}
}

func (n *Node) prefixFor(space string) string {
	switch space {
	case "":
		return ""
	case NamespaceXML:
		return "xml"
	}
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Space == space && cur.Name.Prefix != "" {
			return cur.Name.Prefix
		}
		for _, a := range cur.Attrs {
			if a.Name.Prefix == "xmlns" && a.Value == space {
				return a.Name.Local
			}
		}
	}
	switch space {
	case NamespaceW:
		return "w"
	case NamespaceR:
		return "r"
	case NamespaceMC:
		return "mc"
	}
	return ""
}

// RelationshipAttrs returns pointers to every attribute of n in the relationships namespace
// (r:id, r:embed, r:link, r:dm, ...), whatever prefix the document bound to it.
func RelationshipAttrs(n *Node) []*Attr {
	var out []*Attr
	if n == nil || n.Kind != ElementNode {
		return out
	}
	for i := range n.Attrs {
		if n.Attrs[i].Space == NamespaceR {
			out = append(out, &n.Attrs[i])
		}
	}
	return out
}

// RelationshipIDs returns every relationship id referenced below root, in document order and
// without duplicates.
func RelationshipIDs(root *Node) []string {
	seen := make(map[string]bool)
	var ids []string
	Walk(root, func(n *Node) bool {
		for _, a := range RelationshipAttrs(n) {
			if a.Value != "" && !seen[a.Value] {
				seen[a.Value] = true
				ids = append(ids, a.Value)
			}
		}
		return true
	})
	return ids
}

// RewriteRelationshipIDs replaces relationship ids below root according to mapping and
// returns the number of attributes changed. Ids missing from mapping are left alone.
func RewriteRelationshipIDs(root *Node, mapping map[string]string) int {
	changed := 0
	Walk(root, func(n *Node) bool {
		for _, a := range RelationshipAttrs(n) {
			if to, ok := mapping[a.Value]; ok && to != a.Value {
				a.Value = to
				changed++
			}
		}
		return true
	})
	return changed
}

// textElements are the WordprocessingML elements whose character content is literal text.
var textElements = map[string]bool{
	"t":            true,
	"instrText":    true,
	"delText":      true,
	"delInstrText": true,
}

// IsTextElement reports whether n carries literal run text.
func IsTextElement(n *Node) bool {
	return n != nil && n.Kind == ElementNode && n.Space == NamespaceW && textElements[n.Name.Local]
}

// MarkPreserveSpace sets xml:space="preserve" on every text element below root that does not
// carry it yet, and returns how many were marked.
func MarkPreserveSpace(root *Node) int {
	marked := 0
	Walk(root, func(n *Node) bool {
		if !IsTextElement(n) {
			return true
		}
		if v, ok := n.Attr(NamespaceXML, "space"); !ok || v != "preserve" {
			n.SetAttr(NamespaceXML, "space", "preserve")
			marked++
		}
		return false
	})
	return marked
}

// Text returns the concatenated run text below n.
func Text(n *Node) string {
	var b strings.Builder
	Walk(n, func(c *Node) bool {
		if IsTextElement(c) && c.Name.Local != "instrText" && c.Name.Local != "delInstrText" {
			for _, t := range c.Children {
				if t.Kind == TextNode {
					b.WriteString(t.Data)
				}
			}
			return false
		}
		return true
	})
	return b.String()
}

// SetText replaces the character content of a text element.
func SetText(n *Node, text string) {
	for _, c := range n.Children {
		c.Parent = nil
	}
	n.Children = nil
	if text != "" {
		n.AppendChild(NewText(text))
	}
}

// ParagraphProperties returns the w:pPr of paragraph p, creating it as the first child when
// create is true.
func ParagraphProperties(p *Node, create bool) *Node {
	if ppr := p.Child(NamespaceW, "pPr"); ppr != nil || !create {
		return ppr
	}
	ppr := p.NewSibling("pPr")
	p.InsertChildren(0, ppr)
	return ppr
}

// SectionProperties returns the w:sectPr attached to paragraph p, or nil.
func SectionProperties(p *Node) *Node {
	return ParagraphProperties(p, false).Child(NamespaceW, "sectPr")
}

// DetachSectionProperties removes and returns the w:sectPr attached to paragraph p.
func DetachSectionProperties(p *Node) *Node {
	sect := SectionProperties(p)
	if sect != nil {
		sect.Detach()
	}
	return sect
}

// SetSectionProperties attaches sect to paragraph p, replacing any section properties it
// already has. The element is placed before w:pPrChange, which must stay last in w:pPr.
func SetSectionProperties(p, sect *Node) {
	ppr := ParagraphProperties(p, true)
	if old := ppr.Child(NamespaceW, "sectPr"); old != nil {
		old.Detach()
	}
	if change := ppr.Child(NamespaceW, "pPrChange"); change != nil {
		ppr.InsertChildren(ppr.IndexOf(change), sect)
		return
	}
	ppr.AppendChild(sect)
}

// pPr children that precede w:pageBreakBefore in the schema sequence.
var beforePageBreak = map[string]bool{
	"pStyle":    true,
	"keepNext":  true,
	"keepLines": true,
}

// PageBreakBefore reports whether paragraph p forces a page break before itself.
func PageBreakBefore(p *Node) bool {
	pb := ParagraphProperties(p, false).Child(NamespaceW, "pageBreakBefore")
	if pb == nil {
		return false
	}
	v, ok := pb.Attr(NamespaceW, "val")
	return !ok || (v != "0" && v != "false" && v != "off")
}

// SetPageBreakBefore forces paragraph p to start on a new page.
func SetPageBreakBefore(p *Node) {
	ppr := ParagraphProperties(p, true)
	if pb := ppr.Child(NamespaceW, "pageBreakBefore"); pb != nil {
		pb.RemoveAttr(NamespaceW, "val")
		return
	}
	at := 0
	for i, c := range ppr.Children {
		if c.Space == NamespaceW && beforePageBreak[c.Name.Local] {
			at = i + 1
		}
	}
	ppr.InsertChildren(at, ppr.NewSibling("pageBreakBefore"))
}

// NewPageBreakParagraph returns <w:p><w:r><w:br w:type="page"/></w:r></w:p> using the
// prefix of like.
func NewPageBreakParagraph(like *Node) *Node {
	p := NewElement(like.Name.Prefix, NamespaceW, "p")
	r := p.NewSibling("r")
	br := p.NewSibling("br")
	p.AppendChild(r)
	r.AppendChild(br)
	br.SetAttr(NamespaceW, "type", "page")
	return p
}
