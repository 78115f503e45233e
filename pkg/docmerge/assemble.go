package docmerge

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

// CopyReport lists what CopyParts carried from the body into the output.
type CopyReport struct {
	// Copied holds output part names in the order they were added.
	Copied []string
	// Copies maps each copied output part to its name in the body package.
	Copies   map[string]string
	Warnings []*MergeError
}

func (r *CopyReport) warn(part, format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, NewMergeError(RelationshipTargetMissing, part, fmt.Sprintf(format, args...), nil))
}

func (r *CopyReport) copied(dst, src string) {
	r.Copied = append(r.Copied, dst)
	r.Copies[dst] = src
}

// copyOf returns the output name of a body part that was copied already.
func (r *CopyReport) copyOf(src string) (string, bool) {
	for _, dst := range r.Copied {
		if r.Copies[dst] == src {
			return dst, true
		}
	}
	return "", false
}

// CopyParts appends the remap's new relationships to out and copies the parts they point at
// from body. A part is copied only when its relationship is new, its type is media, header,
// footer or theme, and its output name is free. Header and footer copies bring their own
// relationship part, with the media it references copied under collision-free names.
func CopyParts(out *Package, remap *RelationshipRemap, body *Package) (*CopyReport, error) {
	report := &CopyReport{Copies: make(map[string]string)}
	var pages []string

	for _, rel := range remap.Added {
		out.Relationships = append(out.Relationships, rel)

		src, dst, ok := remap.SourcePart(rel)
		if !ok {
			continue
		}
		if _, done := report.Copies[dst]; done {
			continue
		}
		if !isCopyableRelationship(rel) {
			if !out.HasPart(dst) {
				report.warn(dst, "%s relationship %s points at a part that is not carried over", rel.TypeName(), rel.ID)
			}
			continue
		}
		if out.HasPart(dst) {
			continue
		}
		content, ok := body.Parts[src]
		if !ok {
			report.warn(src, "%s relationship %s has no source part in body", rel.TypeName(), rel.ID)
			continue
		}
		out.AddPart(dst, content)
		report.copied(dst, src)
		if isHeaderFooterRelationship(rel) {
			pages = append(pages, dst)
		}
	}

	// Page parts are handled last so their media cannot take a name reserved above.
	for _, dst := range pages {
		if err := carryPartRelationships(out, body, report.Copies[dst], dst, report); err != nil {
			return nil, err
		}
	}

	return report, nil
}

// carryPartRelationships copies the relationship part of a copied header or footer.
func carryPartRelationships(out, body *Package, src, dst string, report *CopyReport) error {
	relsName := RelsPartFor(src)
	data, ok := body.Parts[relsName]
	if !ok {
		return nil
	}
	rels, err := ParseRelationships(data)
	if err != nil {
		return malformed(relsName, "failed to parse", err)
	}

	for i, rel := range rels {
		if rel.IsExternal() {
			continue
		}
		part := ResolveTarget(src, rel.Target)
		if !isMediaRelationship(rel) {
			if !out.HasPart(part) {
				report.warn(part, "%s relationship %s of %s is not carried over", rel.TypeName(), rel.ID, dst)
			}
			continue
		}
		if dst, ok := report.copyOf(part); ok {
			rels[i].Target = retarget(rel.Target, dst)
			continue
		}
		content, ok := body.Parts[part]
		if !ok {
			report.warn(part, "%s relationship %s of %s has no source part in body", rel.TypeName(), rel.ID, src)
			continue
		}
		target := part
		if existing, ok := out.Parts[part]; ok {
			if bytes.Equal(existing, content) {
				continue
			}
			taken := make(partSet, len(out.Parts))
			for name := range out.Parts {
				taken.add(name)
			}
			target = uniquePartName(part, taken)
			rels[i].Target = retarget(rel.Target, target)
		} else if out.HasPart(part) {
			continue
		}
		out.AddPart(target, content)
		report.copied(target, part)
	}

	encoded, err := MarshalRelationships(rels)
	if err != nil {
		return NewMergeError(AssemblyError, RelsPartFor(dst), "failed to marshal", err)
	}
	out.AddPart(RelsPartFor(dst), encoded)
	return nil
}

// FinalizeContentTypes replaces the manifest of out with its union with body's, then makes it
// declare exactly the parts present. It returns the parts that needed a new entry.
func FinalizeContentTypes(out *Package, body *Package, copies map[string]string) []string {
	if _, ok := out.Parts[DocumentRelsPart]; !ok {
		// Written on assembly.
		out.AddPart(DocumentRelsPart, nil)
	}
	var bodyTypes *ContentTypes
	if body != nil {
		bodyTypes = body.ContentTypes
	}
	merged := MergeContentTypes(out.ContentTypes, bodyTypes)
	names := out.PartNames()
	added := merged.Complete(names, copies, bodyTypes)
	merged.Prune(names)
	out.ContentTypes = merged
	return added
}

// Assemble serializes out into a DOCX archive. The parsed document, relationships and
// manifest replace their raw parts; the package is validated before anything is written.
func Assemble(out *Package, config *Config) ([]byte, error) {
	config = NewConfigWithDefaults(config)

	documentXML, err := out.Document.Bytes()
	if err != nil {
		return nil, NewMergeError(AssemblyError, DocumentPart, "failed to serialize", err)
	}
	relsXML, err := MarshalRelationships(out.Relationships)
	if err != nil {
		return nil, NewMergeError(AssemblyError, DocumentRelsPart, "failed to serialize", err)
	}
	if out.ContentTypes == nil {
		out.ContentTypes = NewContentTypes()
	}
	ctXML, err := out.ContentTypes.Bytes()
	if err != nil {
		return nil, NewMergeError(AssemblyError, ContentTypesPart, "failed to serialize", err)
	}
	out.AddPart(DocumentPart, documentXML)
	out.AddPart(DocumentRelsPart, relsXML)
	out.AddPart(ContentTypesPart, ctXML)

	if err := Validate(out); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	level := config.CompressionLevel
	if level == 0 {
		level = DefaultCompressionLevel
	}
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, level)
	})

	for _, name := range out.PartNames() {
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
		if err != nil {
			return nil, NewMergeError(AssemblyError, name, "failed to create", err)
		}
		if _, err := fw.Write(out.Parts[name]); err != nil {
			return nil, NewMergeError(AssemblyError, name, "failed to write", err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, NewMergeError(AssemblyError, "", "failed to close zip writer", err)
	}
	return buf.Bytes(), nil
}
