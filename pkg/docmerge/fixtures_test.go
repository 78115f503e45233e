package docmerge

import (
	"archive/zip"
	"bytes"
	"io"
	"path"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/benjaminschreck/docmerge/pkg/docmerge/xml"
)

const (
	testNamespaces = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" ` +
		`xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"`
	mainContentType   = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
	headerContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.header+xml"
	footerContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.footer+xml"
	themeContentType  = "application/vnd.openxmlformats-officedocument.theme+xml"
	stylesContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"
	pngBytes          = "\x89PNG\r\n\x1a\n"
)

// testDocx builds DOCX archives in memory.
type testDocx struct {
	parts map[string][]byte
	order []string
	types *ContentTypes
}

func newTestDocx(body string) *testDocx {
	d := &testDocx{parts: make(map[string][]byte), types: NewContentTypes()}
	d.types.AddDefault("rels", relsContentType)
	d.types.AddDefault("xml", xmlContentType)
	d.types.AddOverride("/"+DocumentPart, mainContentType)

	d.with("_rels/.rels", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`)
	d.with(DocumentPart, documentXML(testNamespaces, body))
	return d
}

func documentXML(namespaces, body string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
		`<w:document ` + namespaces + `><w:body>` + body + `</w:body></w:document>`
}

func (d *testDocx) with(name, content string) *testDocx {
	if _, ok := d.parts[name]; !ok {
		d.order = append(d.order, name)
	}
	d.parts[name] = []byte(content)
	return d
}

func (d *testDocx) without(name string) *testDocx {
	delete(d.parts, name)
	return d
}

// header adds a header or footer part with the given paragraph text and its override.
func (d *testDocx) header(name, text string) *testDocx {
	root, contentType := "hdr", headerContentType
	if strings.Contains(name, "footer") {
		root, contentType = "ftr", footerContentType
	}
	d.types.AddOverride("/"+name, contentType)
	return d.with(name, `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`+"\n"+
		`<w:`+root+` `+testNamespaces+`><w:p><w:r><w:t>`+text+`</w:t></w:r></w:p></w:`+root+`>`)
}

func (d *testDocx) media(name string, content string) *testDocx {
	d.types.AddDefault(path.Ext(name), "image/png")
	return d.with(name, content)
}

func (d *testDocx) override(name, contentType string) *testDocx {
	d.types.AddOverride("/"+name, contentType)
	return d
}

func (d *testDocx) rels(rels ...Relationship) *testDocx {
	return d.relsFor(DocumentRelsPart, rels...)
}

func (d *testDocx) relsFor(name string, rels ...Relationship) *testDocx {
	data, err := MarshalRelationships(rels)
	if err != nil {
		panic(err)
	}
	return d.with(name, string(data))
}

func (d *testDocx) bytes(t testing.TB) []byte {
	t.Helper()
	ct, err := d.types.Bytes()
	require.NoError(t, err)

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	write := func(name string, content []byte) {
		fw, err := w.Create(name)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	write(ContentTypesPart, ct)
	for _, name := range d.order {
		if content, ok := d.parts[name]; ok {
			write(name, content)
		}
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func (d *testDocx) load(t testing.TB) *Package {
	t.Helper()
	pkg, err := LoadPackage(d.bytes(t), nil)
	require.NoError(t, err)
	return pkg
}

func rel(id, kind, target string) Relationship {
	return Relationship{ID: id, Type: RelTypeBase + kind, Target: target}
}

func externalRel(id, target string) Relationship {
	return Relationship{ID: id, Type: RelTypeHyperlink, Target: target, TargetMode: "External"}
}

// readZip returns the parts of an archive and their order.
func readZip(t testing.TB, data []byte) (map[string][]byte, []string) {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	parts := make(map[string][]byte)
	var order []string
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		parts[f.Name] = content
		order = append(order, f.Name)
	}
	return parts, order
}

func relIDs(rels []Relationship) []string {
	ids := make([]string, 0, len(rels))
	for _, r := range rels {
		ids = append(ids, r.ID)
	}
	sort.Strings(ids)
	return ids
}

// blockTexts returns the text of each top-level block of the document body.
func blockTexts(doc *xml.Document) []string {
	var out []string
	for _, block := range doc.Body().Elements() {
		if block.IsW("sectPr") {
			out = append(out, "<sectPr>")
			continue
		}
		out = append(out, xml.Text(block))
	}
	return out
}

// Paragraph helpers for document bodies.
func para(text string) string {
	return `<w:p><w:r><w:t>` + text + `</w:t></w:r></w:p>`
}

func sectionBreakPara(text, id string) string {
	return `<w:p><w:pPr><w:sectPr w:rsidR="` + id + `"><w:pgSz w:w="11906" w:h="16838"/></w:sectPr></w:pPr>` +
		`<w:r><w:t>` + text + `</w:t></w:r></w:p>`
}

func trailingSect(id string) string {
	return `<w:sectPr w:rsidR="` + id + `"><w:pgSz w:w="11906" w:h="16838"/></w:sectPr>`
}

func imagePara(id string) string {
	return `<w:p><w:r><w:drawing><a:blip xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" r:embed="` +
		id + `"/></w:drawing></w:r></w:p>`
}
