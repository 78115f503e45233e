// Package xml provides the order-preserving XML tree used by docmerge to manipulate
// WordprocessingML content parts.
//
// DOCX files are ZIP archives whose main content part (word/document.xml) is an XML tree in
// which element order is rendering order. Merging two such trees requires moving subtrees
// around without losing unknown markup, namespace prefixes or literal whitespace, so this
// package does not map the document onto typed Go structs. Instead every element, text run,
// comment and processing instruction becomes a Node that is written back exactly as it was
// read, apart from the edits the caller makes.
//
// # Structure Organization
//
//   - types.go: Node, Name and Attr, plus tree editing helpers (insert, remove, clone)
//   - document.go: Document, Parse and Marshal, namespace declaration helpers
//   - section.go: section-properties visitor over the two nesting shapes
//   - accessors.go: typed accessors for the few attributes the merge engine touches
//
// # Key Concepts
//
// Block: a direct child of w:body (w:p, w:tbl, w:sdt, ...). The order of blocks is the order
// in which Word lays out the document.
//
// Section properties (w:sectPr): either the trailing child of w:body, governing the last
// section of the document, or nested at w:p/w:pPr/w:sectPr where it closes a mid-document
// section. FindSections reports both shapes as SectionRef values carrying the structural path
// to the match.
//
// # Usage
//
//	doc, err := xml.ParseBytes(data)
//	if err != nil {
//	    return err
//	}
//	for _, ref := range xml.FindSections(doc.Body()) {
//	    fmt.Println(ref.Kind, ref.Path)
//	}
//	out, err := doc.Bytes()
//
// # XML Namespaces
//
// Prefixes are kept as written. Each element and attribute additionally records the namespace
// URI its prefix resolved to while parsing, and matching is always done on the URI:
//   - w: (word processing) - NamespaceW
//   - r: (relationships) - NamespaceR
//   - mc: (markup compatibility) - NamespaceMC
package xml
