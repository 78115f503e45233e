package xml

// SectionKind distinguishes the two places a w:sectPr element may live.
type SectionKind int

const (
	// BodySection is a w:sectPr that is a direct child of w:body. A valid document has
	// exactly one, and it governs the final section.
	BodySection SectionKind = iota
	// ParagraphSection is a w:sectPr inside w:p/w:pPr. It closes a mid-document section at
	// that paragraph.
	ParagraphSection
)

func (k SectionKind) String() string {
	switch k {
	case BodySection:
		return "body"
	case ParagraphSection:
		return "paragraph"
	default:
		return "unknown"
	}
}

// SectionRef locates one w:sectPr element.
type SectionRef struct {
	Kind SectionKind
	// Node is the w:sectPr element.
	Node *Node
	// Holder is w:body for a BodySection and the owning w:p for a ParagraphSection.
	Holder *Node
	// Path holds child indices from w:body down to Node. Path[0] is the index of the
	// top-level block that contains the match.
	Path []int
}

// Container returns the index of the top-level block containing the section.
func (r SectionRef) Container() int {
	if len(r.Path) == 0 {
		return -1
	}
	return r.Path[0]
}

// FindSections returns every section-properties node below body in document order.
func FindSections(body *Node) []SectionRef {
	var refs []SectionRef
	VisitSections(body, func(ref SectionRef) bool {
		refs = append(refs, ref)
		return true
	})
	return refs
}

// FirstSection returns the first section-properties node in document order.
func FirstSection(body *Node) (SectionRef, bool) {
	var found SectionRef
	ok := false
	VisitSections(body, func(ref SectionRef) bool {
		found, ok = ref, true
		return false
	})
	return found, ok
}

// TrailingSection returns the last w:sectPr that is a direct child of body.
func TrailingSection(body *Node) (SectionRef, bool) {
	if body == nil {
		return SectionRef{}, false
	}
	for i := len(body.Children) - 1; i >= 0; i-- {
		if c := body.Children[i]; c.IsW("sectPr") {
			return SectionRef{Kind: BodySection, Node: c, Holder: body, Path: []int{i}}, true
		}
	}
	return SectionRef{}, false
}

// BodySections returns the direct w:sectPr children of body.
func BodySections(body *Node) []SectionRef {
	var refs []SectionRef
	if body == nil {
		return refs
	}
	for i, c := range body.Children {
		if c.IsW("sectPr") {
			refs = append(refs, SectionRef{Kind: BodySection, Node: c, Holder: body, Path: []int{i}})
		}
	}
	return refs
}

// VisitSections walks the blocks of body depth-first and calls visit for every section
// properties node. Content controls (w:sdt) and custom XML blocks are descended into; tables
// are not, since a section break cannot live inside a cell. Returning false stops the walk.
func VisitSections(body *Node, visit func(SectionRef) bool) {
	if body == nil {
		return
	}
	visitBlocks(body, nil, visit)
}

func visitBlocks(container *Node, path []int, visit func(SectionRef) bool) bool {
	for i, block := range container.Children {
		if block.Kind != ElementNode || block.Space != NamespaceW {
			continue
		}
		here := appendPath(path, i)
		switch block.Name.Local {
		case "sectPr":
			if len(path) == 0 {
				if !visit(SectionRef{Kind: BodySection, Node: block, Holder: container, Path: here}) {
					return false
				}
			}
		case "p":
			ppr := block.Child(NamespaceW, "pPr")
			if ppr == nil {
				continue
			}
			for j, c := range ppr.Children {
				if c.IsW("sectPr") {
					ref := SectionRef{
						Kind:   ParagraphSection,
						Node:   c,
						Holder: block,
						Path:   appendPath(appendPath(here, block.IndexOf(ppr)), j),
					}
					if !visit(ref) {
						return false
					}
				}
			}
		case "sdt":
			content := block.Child(NamespaceW, "sdtContent")
			if content == nil {
				continue
			}
			if !visitBlocks(content, appendPath(here, block.IndexOf(content)), visit) {
				return false
			}
		case "customXml":
			if !visitBlocks(block, here, visit) {
				return false
			}
		}
	}
	return true
}

func appendPath(path []int, i int) []int {
	out := make([]int, len(path), len(path)+1)
	copy(out, path)
	return append(out, i)
}
