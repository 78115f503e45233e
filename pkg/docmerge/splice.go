package docmerge

import (
	"fmt"
	"sort"

	"github.com/benjaminschreck/docmerge/pkg/docmerge/xml"
)

// SpliceOptions controls the structural merge.
type SpliceOptions struct {
	// ForcePageBreak starts the inserted content on a new page.
	ForcePageBreak bool
	// MergeNamespaces declares the body's root namespaces on the cover root.
	MergeNamespaces bool
}

// SpliceResult describes what Splice did to the cover tree.
type SpliceResult struct {
	// Boundary is the kind of the section break the body was inserted at. It is meaningless
	// when Degraded is set.
	Boundary xml.SectionKind
	// Degraded is set when the cover had no section break and the body was appended.
	Degraded bool
	// InsertedAt is the index in w:body of the first inserted block.
	InsertedAt int
	// Blocks is the number of top-level blocks inserted, including a page-break paragraph.
	Blocks int
	// Rewritten counts relationship attributes changed in the body tree.
	Rewritten int
	// NamespaceConflicts lists body prefixes bound to a different URI on the cover root.
	NamespaceConflicts []string
	Warnings           []*MergeError
}

// Splice inserts the block content of body into cover at the cover's first section break.
// The cover tree is modified in place and the body tree is consumed.
//
// The body's blocks go in front of the paragraph that carries the boundary section
// properties, so the cover's first section ends after the inserted content. The cover's
// trailing w:sectPr stays the single body-level section and remains the last block. If the
// cover has no section break at all, the blocks are appended and the body's own trailing
// section properties become the document's.
func Splice(cover, body *xml.Document, remap *RelationshipRemap, opts SpliceOptions) (*SpliceResult, error) {
	coverBody := cover.Body()
	if coverBody == nil {
		return nil, malformed(DocumentPart, "cover document has no body", nil)
	}
	bodyBody := body.Body()
	if bodyBody == nil {
		return nil, malformed(DocumentPart, "body document has no body", nil)
	}

	result := &SpliceResult{}

	if remap != nil {
		for _, id := range xml.RelationshipIDs(bodyBody) {
			if _, ok := remap.IDs[id]; !ok {
				return nil, malformed(DocumentPart, "body references undefined relationship "+id, nil)
			}
		}
		result.Rewritten = xml.RewriteRelationshipIDs(bodyBody, remap.IDs)
	}

	// The body's own body-level section properties never survive, except as the fallback
	// trailing section in degraded mode.
	var bodyTrailing *xml.Node
	for _, ref := range xml.BodySections(bodyBody) {
		ref.Node.Detach()
		bodyTrailing = ref.Node
	}

	blocks := make([]*xml.Node, 0, len(bodyBody.Children))
	for len(bodyBody.Children) > 0 {
		blocks = append(blocks, bodyBody.RemoveChildAt(0))
	}
	if !hasElement(blocks) {
		// Nothing to insert: the cover stays as it is.
		return result, nil
	}

	boundary, found := xml.FirstSection(coverBody)
	var trailing *xml.Node
	if ref, ok := xml.TrailingSection(coverBody); ok {
		trailing = ref.Node
		trailing.Detach()
	}

	insertAt := len(coverBody.Children)
	var boundaryNode *xml.Node
	switch {
	case !found:
		result.Degraded = true
		result.Warnings = append(result.Warnings, NewMergeError(BoundaryNotFound, DocumentPart,
			"cover has no section break; body content appended at the end", nil))
		trailing = bodyTrailing
	case boundary.Kind == xml.BodySection:
		// A single-section cover: its only section break is the trailing one.
		result.Boundary = xml.BodySection
	default:
		result.Boundary = xml.ParagraphSection
		insertAt = boundary.Container()
		boundaryNode = xml.DetachSectionProperties(boundary.Holder)
	}

	if opts.MergeNamespaces {
		result.NamespaceConflicts = cover.MergeNamespaces(body.ExtractNamespaces())
		cover.MergeIgnorable(body.Ignorable())
	}
	localizeNamespaces(cover, body, blocks)

	if opts.ForcePageBreak {
		blocks = forcePageBreak(coverBody, blocks)
	}

	coverBody.InsertChildren(insertAt, blocks...)
	result.InsertedAt = insertAt
	result.Blocks = len(blocks)

	if boundaryNode != nil {
		holder := boundary.Holder
		if holder.Parent == nil {
			holder = coverBody.NewSibling("p")
			coverBody.InsertChildren(insertAt+len(blocks), holder)
		}
		xml.SetSectionProperties(holder, boundaryNode)
	}

	// Strip leftovers at the end, then put the trailing section back.
	for last := coverBody.LastElement(); last != nil && last.IsW("sectPr"); last = coverBody.LastElement() {
		last.Detach()
	}
	if trailing != nil {
		coverBody.AppendChild(trailing)
	}

	if err := checkTrailingSection(coverBody); err != nil {
		return nil, err
	}
	return result, nil
}

// forcePageBreak makes the first block start a new page: paragraphs get w:pageBreakBefore,
// anything else is preceded by a page-break paragraph.
func forcePageBreak(coverBody *xml.Node, blocks []*xml.Node) []*xml.Node {
	for i, block := range blocks {
		if block.Kind != xml.ElementNode {
			continue
		}
		if block.IsW("p") {
			xml.SetPageBreakBefore(block)
			return blocks
		}
		out := make([]*xml.Node, 0, len(blocks)+1)
		out = append(out, blocks[:i]...)
		out = append(out, xml.NewPageBreakParagraph(coverBody))
		return append(out, blocks[i:]...)
	}
	return blocks
}

// localizeNamespaces declares, on each moved block, the body root namespaces the cover root
// does not bind to the same URI. Moved nodes keep their prefixes, so this keeps them
// resolvable when the root merge was skipped or hit a conflict.
func localizeNamespaces(cover, body *xml.Document, blocks []*xml.Node) {
	coverNS := cover.ExtractNamespaces()
	bodyNS := body.ExtractNamespaces()

	var missing []string
	for prefix, uri := range bodyNS {
		if coverNS[prefix] != uri {
			missing = append(missing, prefix)
		}
	}
	if len(missing) == 0 {
		return
	}
	sort.Strings(missing)

	for _, block := range blocks {
		if block.Kind != xml.ElementNode {
			continue
		}
		used := usedPrefixes(block)
		for _, prefix := range missing {
			if !used[prefix] {
				continue
			}
			name := xml.Name{Prefix: "xmlns", Local: prefix}
			if prefix == "" {
				name = xml.Name{Local: "xmlns"}
			}
			block.Attrs = append(block.Attrs, xml.Attr{Name: name, Value: bodyNS[prefix]})
		}
	}
}

func usedPrefixes(root *xml.Node) map[string]bool {
	used := make(map[string]bool)
	xml.Walk(root, func(n *xml.Node) bool {
		if n.Kind != xml.ElementNode {
			return false
		}
		used[n.Name.Prefix] = true
		for _, a := range n.Attrs {
			if a.IsNamespaceDecl() {
				continue
			}
			if a.Name.Prefix != "" {
				used[a.Name.Prefix] = true
			}
		}
		return true
	})
	return used
}

// checkTrailingSection enforces a single body-level w:sectPr, placed last.
func checkTrailingSection(body *xml.Node) error {
	refs := xml.BodySections(body)
	if len(refs) > 1 {
		return NewMergeError(InvariantViolation, DocumentPart,
			fmt.Sprintf("%d body-level section properties after splice", len(refs)), nil)
	}
	if len(refs) == 1 && refs[0].Node != body.LastElement() {
		return NewMergeError(InvariantViolation, DocumentPart,
			"body-level section properties are not the last block", nil)
	}
	return nil
}

func hasElement(nodes []*xml.Node) bool {
	for _, n := range nodes {
		if n.Kind == xml.ElementNode {
			return true
		}
	}
	return false
}

// describeBoundary renders the splice point for log lines.
func describeBoundary(r *SpliceResult) string {
	if r.Degraded {
		return "none (appended)"
	}
	return fmt.Sprintf("%s section at block %d", r.Boundary, r.InsertedAt)
}
