package xml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelationshipIDs(t *testing.T) {
	// The relationships namespace is bound to a non-conventional prefix on purpose.
	src := `<w:document xmlns:w="` + NamespaceW + `" xmlns:rel="` + NamespaceR + `" xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">` +
		`<w:body><w:p><w:hyperlink rel:id="rId3"><w:r><w:t>x</w:t></w:r></w:hyperlink>` +
		`<w:r><w:drawing><a:blip rel:embed="rId2" rel:link="rId4"/></w:drawing></w:r>` +
		`<w:r><w:drawing><a:blip rel:embed="rId2"/></w:drawing></w:r></w:p></w:body></w:document>`

	doc, err := ParseBytes([]byte(src))
	require.NoError(t, err)

	assert.Equal(t, []string{"rId3", "rId2", "rId4"}, RelationshipIDs(doc.Root))

	changed := RewriteRelationshipIDs(doc.Root, map[string]string{"rId2": "rId9", "rId3": "rId3"})
	assert.Equal(t, 2, changed)
	assert.Equal(t, []string{"rId3", "rId9", "rId4"}, RelationshipIDs(doc.Root))

	out, err := doc.Bytes()
	require.NoError(t, err)
	assert.Contains(t, string(out), `rel:embed="rId9"`)
}

func TestMarkPreserveSpace(t *testing.T) {
	doc, err := ParseBytes([]byte(wrapBody(`<w:p><w:r><w:t>a</w:t><w:t xml:space="preserve"> b</w:t><w:instrText> PAGE </w:instrText></w:r></w:p>`)))
	require.NoError(t, err)

	assert.Equal(t, 2, MarkPreserveSpace(doc.Root))
	assert.Equal(t, 0, MarkPreserveSpace(doc.Root))

	out, err := doc.Bytes()
	require.NoError(t, err)
	assert.Contains(t, string(out), `<w:t xml:space="preserve">a</w:t>`)
	assert.Contains(t, string(out), `<w:instrText xml:space="preserve"> PAGE </w:instrText>`)
	assert.Equal(t, "a b", Text(doc.Body()))
}

func TestSetText(t *testing.T) {
	doc, err := ParseBytes([]byte(wrapBody(`<w:p><w:r><w:t>old</w:t></w:r></w:p>`)))
	require.NoError(t, err)

	var text *Node
	Walk(doc.Root, func(n *Node) bool {
		if n.IsW("t") {
			text = n
		}
		return true
	})
	require.NotNil(t, text)

	SetText(text, "new & improved")
	assert.Equal(t, "new & improved", Text(doc.Body()))
}

func TestSectionPropertiesAccessors(t *testing.T) {
	doc, err := ParseBytes([]byte(wrapBody(`<w:p><w:pPr><w:jc w:val="left"/><w:pPrChange/></w:pPr></w:p><w:p/>`)))
	require.NoError(t, err)
	body := doc.Body()
	first, second := body.Children[0], body.Children[1]

	assert.Nil(t, SectionProperties(first))
	assert.Nil(t, SectionProperties(second))

	sect := NewElement("w", NamespaceW, "sectPr")
	SetSectionProperties(first, sect)
	ppr := first.Child(NamespaceW, "pPr")
	require.Len(t, ppr.Children, 3)
	assert.Same(t, sect, ppr.Children[1], "sectPr goes before pPrChange")

	SetSectionProperties(second, sect)
	assert.Nil(t, SectionProperties(first), "moving a sectPr detaches it from its old paragraph")
	assert.Same(t, sect, SectionProperties(second))
	assert.Same(t, second.Children[0], sect.Parent)

	assert.Same(t, sect, DetachSectionProperties(second))
	assert.Nil(t, SectionProperties(second))
	assert.Nil(t, DetachSectionProperties(second))
}

func TestSetPageBreakBefore(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "no properties",
			body: `<w:p><w:r/></w:p>`,
			want: `<w:p><w:pPr><w:pageBreakBefore/></w:pPr><w:r/></w:p>`,
		},
		{
			name: "after style and keep flags",
			body: `<w:p><w:pPr><w:pStyle w:val="Heading1"/><w:keepNext/><w:jc w:val="center"/></w:pPr></w:p>`,
			want: `<w:p><w:pPr><w:pStyle w:val="Heading1"/><w:keepNext/><w:pageBreakBefore/><w:jc w:val="center"/></w:pPr></w:p>`,
		},
		{
			name: "explicitly disabled",
			body: `<w:p><w:pPr><w:pageBreakBefore w:val="0"/></w:pPr></w:p>`,
			want: `<w:p><w:pPr><w:pageBreakBefore/></w:pPr></w:p>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseBytes([]byte(wrapBody(tt.body)))
			require.NoError(t, err)
			p := doc.Body().Children[0]

			SetPageBreakBefore(p)
			assert.True(t, PageBreakBefore(p))

			out, err := (&Document{Root: p}).Bytes()
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(out))
		})
	}
}

func TestNewPageBreakParagraph(t *testing.T) {
	doc, err := ParseBytes([]byte(wrapBody(`<w:tbl/>`)))
	require.NoError(t, err)

	p := NewPageBreakParagraph(doc.Body())
	doc.Body().InsertChildren(0, p)

	out, err := (&Document{Root: p}).Bytes()
	require.NoError(t, err)
	assert.Equal(t, `<w:p><w:r><w:br w:type="page"/></w:r></w:p>`, string(out))
	assert.Same(t, doc.Body(), p.Parent)
}
