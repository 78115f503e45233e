package xml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wrapBody(inner string) string {
	return `<w:document xmlns:w="` + NamespaceW + `" xmlns:r="` + NamespaceR + `"><w:body>` + inner + `</w:body></w:document>`
}

func TestFindSections(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantKinds []SectionKind
		wantPaths [][]int
	}{
		{
			name:      "no sections",
			body:      `<w:p/><w:tbl/>`,
			wantKinds: nil,
		},
		{
			name:      "trailing only",
			body:      `<w:p/><w:sectPr/>`,
			wantKinds: []SectionKind{BodySection},
			wantPaths: [][]int{{1}},
		},
		{
			name:      "paragraph break then trailing",
			body:      `<w:p/><w:p><w:pPr><w:jc w:val="center"/><w:sectPr/></w:pPr></w:p><w:p/><w:sectPr/>`,
			wantKinds: []SectionKind{ParagraphSection, BodySection},
			wantPaths: [][]int{{1, 0, 1}, {3}},
		},
		{
			name:      "break nested in content control",
			body:      `<w:sdt><w:sdtPr/><w:sdtContent><w:p/><w:p><w:pPr><w:sectPr/></w:pPr></w:p></w:sdtContent></w:sdt><w:sectPr/>`,
			wantKinds: []SectionKind{ParagraphSection, BodySection},
			wantPaths: [][]int{{0, 1, 1, 0, 0}, {1}},
		},
		{
			name:      "tables are not searched",
			body:      `<w:tbl><w:tr><w:tc><w:p><w:pPr><w:sectPr/></w:pPr></w:p></w:tc></w:tr></w:tbl>`,
			wantKinds: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseBytes([]byte(wrapBody(tt.body)))
			require.NoError(t, err)

			refs := FindSections(doc.Body())
			require.Len(t, refs, len(tt.wantKinds))
			for i, ref := range refs {
				assert.Equal(t, tt.wantKinds[i], ref.Kind)
				assert.Equal(t, tt.wantPaths[i], ref.Path)
				assert.True(t, ref.Node.IsW("sectPr"))
				if ref.Kind == ParagraphSection {
					assert.True(t, ref.Holder.IsW("p"))
					assert.Same(t, ref.Node, SectionProperties(ref.Holder))
				}
			}
		})
	}
}

func TestFirstAndTrailingSection(t *testing.T) {
	doc, err := ParseBytes([]byte(wrapBody(`<w:p><w:pPr><w:sectPr w:rsidR="1"/></w:pPr></w:p><w:p/><w:sectPr w:rsidR="2"/>`)))
	require.NoError(t, err)
	body := doc.Body()

	first, ok := FirstSection(body)
	require.True(t, ok)
	assert.Equal(t, ParagraphSection, first.Kind)
	assert.Equal(t, 0, first.Container())
	v, _ := first.Node.Attr(NamespaceW, "rsidR")
	assert.Equal(t, "1", v)

	trailing, ok := TrailingSection(body)
	require.True(t, ok)
	assert.Equal(t, BodySection, trailing.Kind)
	assert.Equal(t, 2, trailing.Container())
	v, _ = trailing.Node.Attr(NamespaceW, "rsidR")
	assert.Equal(t, "2", v)

	assert.Len(t, BodySections(body), 1)

	_, ok = FirstSection(nil)
	assert.False(t, ok)
}
