package docmerge

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/flate"

	"github.com/benjaminschreck/docmerge/pkg/docmerge/xml"
)

// Well-known part names of a WordprocessingML package.
const (
	DocumentPart     = "word/document.xml"
	DocumentRelsPart = "word/_rels/document.xml.rels"
	ContentTypesPart = "[Content_Types].xml"
)

// Package is an opened DOCX archive held in memory. Parts holds the raw bytes of every part;
// Document, Relationships and ContentTypes are the parsed forms of the main document, its
// relationship part and the manifest, and take precedence over the raw bytes on assembly.
type Package struct {
	Parts         map[string][]byte
	Order         []string
	Document      *xml.Document
	Relationships []Relationship
	ContentTypes  *ContentTypes
}

// LoadPackage opens a DOCX archive. A missing relationship part yields an empty relationship
// list; a missing manifest yields an empty one.
func LoadPackage(data []byte, config *Config) (*Package, error) {
	config = NewConfigWithDefaults(config)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, malformed("", "failed to read zip file", err)
	}
	zr.RegisterDecompressor(zip.Deflate, func(r io.Reader) io.ReadCloser {
		return flate.NewReader(r)
	})

	pkg := &Package{
		Parts: make(map[string][]byte, len(zr.File)),
		Order: make([]string, 0, len(zr.File)),
	}

	for _, file := range zr.File {
		if strings.HasSuffix(file.Name, "/") {
			continue
		}
		if _, dup := pkg.Parts[file.Name]; dup {
			return nil, malformed(file.Name, "duplicate part", nil)
		}
		content, err := readPart(file, config.MaxPartSize)
		if err != nil {
			return nil, err
		}
		pkg.Parts[file.Name] = content
		pkg.Order = append(pkg.Order, file.Name)
	}

	documentXML, ok := pkg.Parts[DocumentPart]
	if !ok {
		return nil, malformed(DocumentPart, "not a valid DOCX file: missing main document part", nil)
	}
	pkg.Document, err = xml.ParseBytes(documentXML)
	if err != nil {
		return nil, malformed(DocumentPart, "failed to parse", err)
	}
	if pkg.Document.Body() == nil {
		return nil, malformed(DocumentPart, "document has no body", nil)
	}
	xml.MarkPreserveSpace(pkg.Document.Root)

	if relsXML, ok := pkg.Parts[DocumentRelsPart]; ok {
		pkg.Relationships, err = ParseRelationships(relsXML)
		if err != nil {
			return nil, malformed(DocumentRelsPart, "failed to parse", err)
		}
	}

	if ctXML, ok := pkg.Parts[ContentTypesPart]; ok {
		pkg.ContentTypes, err = ParseContentTypes(ctXML)
		if err != nil {
			return nil, malformed(ContentTypesPart, "failed to parse", err)
		}
	} else {
		pkg.ContentTypes = NewContentTypes()
	}

	return pkg, nil
}

func readPart(file *zip.File, limit int64) ([]byte, error) {
	if limit > 0 && file.UncompressedSize64 > uint64(limit) {
		return nil, malformed(file.Name, fmt.Sprintf("part exceeds %d bytes", limit), nil)
	}

	rc, err := file.Open()
	if err != nil {
		return nil, malformed(file.Name, "failed to open", err)
	}
	defer rc.Close()

	var r io.Reader = rc
	if limit > 0 {
		// The header size can lie; cap the read as well.
		r = io.LimitReader(rc, limit+1)
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, malformed(file.Name, "failed to read", err)
	}
	if limit > 0 && int64(len(content)) > limit {
		return nil, malformed(file.Name, fmt.Sprintf("part exceeds %d bytes", limit), nil)
	}
	return content, nil
}

// Relationship returns the relationship with the given id.
func (p *Package) Relationship(id string) (Relationship, bool) {
	for _, rel := range p.Relationships {
		if rel.ID == id {
			return rel, true
		}
	}
	return Relationship{}, false
}

// HasPart reports whether a part exists, comparing names case-insensitively as OPC requires.
func (p *Package) HasPart(name string) bool {
	if _, ok := p.Parts[name]; ok {
		return true
	}
	for existing := range p.Parts {
		if strings.EqualFold(existing, name) {
			return true
		}
	}
	return false
}

// AddPart stores a new part, keeping the archive order stable.
func (p *Package) AddPart(name string, content []byte) {
	if _, exists := p.Parts[name]; !exists {
		p.Order = append(p.Order, name)
	}
	p.Parts[name] = content
}

// PartNames returns every part name in archive order.
func (p *Package) PartNames() []string {
	names := make([]string, 0, len(p.Parts))
	seen := make(map[string]bool, len(p.Parts))
	for _, name := range p.Order {
		if _, ok := p.Parts[name]; ok && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// Clone returns a copy that can be mutated without affecting p. Part contents are shared:
// the merge pipeline replaces part bytes but never writes into them.
func (p *Package) Clone() *Package {
	cloned := &Package{
		Parts:         make(map[string][]byte, len(p.Parts)),
		Order:         append([]string(nil), p.Order...),
		Relationships: append([]Relationship(nil), p.Relationships...),
	}
	for name, content := range p.Parts {
		cloned.Parts[name] = content
	}
	if p.Document != nil {
		cloned.Document = p.Document.Clone()
	}
	if p.ContentTypes != nil {
		cloned.ContentTypes = p.ContentTypes.Clone()
	}
	return cloned
}
