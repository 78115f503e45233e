// Package inspect summarizes DOCX packages and re-checks the invariants a merged package must
// satisfy. The checks run XPath queries over the serialized parts, independently of the
// content tree the merge engine works on.
package inspect

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/benjaminschreck/docmerge/pkg/docmerge"
	"github.com/benjaminschreck/docmerge/pkg/docmerge/xml"
)

// Part describes one part of the archive.
type Part struct {
	Name        string
	Size        int
	ContentType string
	// Digest is the hex BLAKE3 digest of the part bytes.
	Digest string
}

// Report is the result of inspecting a package.
type Report struct {
	Size          int
	Digest        string
	Parts         []Part
	Relationships []docmerge.Relationship
	// Blocks counts the top-level blocks of w:body, section properties excluded.
	Blocks            int
	BodySections      int
	ParagraphSections int
	// References lists the relationship ids used by the main document, in document order.
	References []string
	// Issues are invariant violations. A package with issues is not a valid merge output.
	Issues []string
	// Warnings are tolerated defects, such as relationships to parts that are not present.
	Warnings []string
}

// OK reports whether the package passed every invariant check.
func (r *Report) OK() bool {
	return len(r.Issues) == 0
}

var namespaces = map[string]string{
	"w": xml.NamespaceW,
	"r": xml.NamespaceR,
}

var (
	blocksExpr            = mustCompile("count(/w:document/w:body/*[not(self::w:sectPr)])")
	bodySectionsExpr      = mustCompile("count(/w:document/w:body/w:sectPr)")
	trailingLastExpr      = mustCompile("count(/w:document/w:body/*[last()][self::w:sectPr])")
	paragraphSectionsExpr = mustCompile("count(//w:p/w:pPr/w:sectPr)")
	referencesExpr        = mustCompile("//@r:id | //@r:embed | //@r:link | //@r:pict")
)

func mustCompile(expr string) *xpath.Expr {
	compiled, err := xpath.CompileWithNS(expr, namespaces)
	if err != nil {
		panic(fmt.Sprintf("inspect: invalid xpath %q: %v", expr, err))
	}
	return compiled
}

// Inspect loads data as a DOCX package and reports on it. It fails only when the archive
// cannot be loaded; invariant violations are reported in Report.Issues.
func Inspect(data []byte) (*Report, error) {
	pkg, err := docmerge.LoadPackage(data, nil)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Size:          len(data),
		Digest:        docmerge.Digest(data),
		Relationships: pkg.Relationships,
	}

	for _, name := range pkg.PartNames() {
		part := Part{
			Name:   name,
			Size:   len(pkg.Parts[name]),
			Digest: docmerge.Digest(pkg.Parts[name]),
		}
		if name != docmerge.ContentTypesPart {
			if ct, ok := pkg.ContentTypes.ContentTypeFor(name); ok {
				part.ContentType = ct
			} else {
				report.issue("part %s has no content type", name)
			}
		}
		report.Parts = append(report.Parts, part)
	}

	doc, err := xmlquery.Parse(bytes.NewReader(pkg.Parts[docmerge.DocumentPart]))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", docmerge.DocumentPart, err)
	}
	nav := xmlquery.CreateXPathNavigator(doc)

	report.Blocks = count(blocksExpr, nav)
	report.BodySections = count(bodySectionsExpr, nav)
	report.ParagraphSections = count(paragraphSectionsExpr, nav)
	switch {
	case report.BodySections > 1:
		report.issue("%d body-level section properties", report.BodySections)
	case report.BodySections == 1 && count(trailingLastExpr, nav) != 1:
		report.issue("body-level section properties are not the last block")
	}

	iter := referencesExpr.Select(xmlquery.CreateXPathNavigator(doc))
	for iter.MoveNext() {
		report.References = append(report.References, iter.Current().Value())
	}

	report.checkRelationships(pkg)
	return report, nil
}

func count(expr *xpath.Expr, nav xpath.NodeNavigator) int {
	n, _ := expr.Evaluate(nav.Copy()).(float64)
	return int(n)
}

func (r *Report) checkRelationships(pkg *docmerge.Package) {
	ids := make(map[string]bool, len(r.Relationships))
	for _, rel := range r.Relationships {
		if ids[rel.ID] {
			r.issue("relationship id %s is used more than once", rel.ID)
		}
		ids[rel.ID] = true

		if rel.IsExternal() {
			continue
		}
		if target := docmerge.ResolveTarget(docmerge.DocumentPart, rel.Target); !pkg.HasPart(target) {
			r.Warnings = append(r.Warnings, fmt.Sprintf("%s relationship %s targets missing part %s", rel.TypeName(), rel.ID, target))
		}
	}

	undefined := make(map[string]bool)
	for _, id := range r.References {
		if !ids[id] {
			undefined[id] = true
		}
	}
	missing := make([]string, 0, len(undefined))
	for id := range undefined {
		missing = append(missing, id)
	}
	sort.Strings(missing)
	for _, id := range missing {
		r.issue("reference to undefined relationship %s", id)
	}
}

func (r *Report) issue(format string, args ...interface{}) {
	r.Issues = append(r.Issues, fmt.Sprintf(format, args...))
}
