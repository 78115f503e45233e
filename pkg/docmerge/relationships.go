package docmerge

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"path"
	"strconv"
	"strings"
)

// RelationshipsNamespace is the namespace of .rels parts.
const RelationshipsNamespace = "http://schemas.openxmlformats.org/package/2006/relationships"

// Relationship types the merge engine distinguishes.
const (
	RelTypeBase        = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/"
	RelTypeHeader      = RelTypeBase + "header"
	RelTypeFooter      = RelTypeBase + "footer"
	RelTypeImage       = RelTypeBase + "image"
	RelTypeTheme       = RelTypeBase + "theme"
	RelTypeStyles      = RelTypeBase + "styles"
	RelTypeSettings    = RelTypeBase + "settings"
	RelTypeWebSettings = RelTypeBase + "webSettings"
	RelTypeFontTable   = RelTypeBase + "fontTable"
	RelTypeNumbering   = RelTypeBase + "numbering"
	RelTypeFootnotes   = RelTypeBase + "footnotes"
	RelTypeEndnotes    = RelTypeBase + "endnotes"
	RelTypeHyperlink   = RelTypeBase + "hyperlink"
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

// Relationship represents a relationship in the DOCX package
type Relationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr,omitempty"`
}

// Relationships represents the collection of relationships
type Relationships struct {
	XMLName      xml.Name       `xml:"Relationships"`
	Namespace    string         `xml:"xmlns,attr"`
	Relationship []Relationship `xml:"Relationship"`
}

// IsExternal reports whether the target lives outside the package (hyperlinks, linked images).
func (r Relationship) IsExternal() bool {
	return strings.EqualFold(r.TargetMode, "External")
}

// TypeName returns the last segment of the relationship type URI, e.g. "image".
func (r Relationship) TypeName() string {
	return path.Base(r.Type)
}

// ParseRelationships decodes a .rels part. Ids must be unique within the part.
func ParseRelationships(data []byte) ([]Relationship, error) {
	var rels Relationships
	if err := xml.Unmarshal(data, &rels); err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(rels.Relationship))
	for _, rel := range rels.Relationship {
		if rel.ID == "" {
			return nil, fmt.Errorf("relationship to %q has no id", rel.Target)
		}
		if seen[rel.ID] {
			return nil, fmt.Errorf("duplicate relationship id %s", rel.ID)
		}
		seen[rel.ID] = true
	}
	return rels.Relationship, nil
}

// MarshalRelationships encodes a .rels part with the standalone declaration Word expects.
func MarshalRelationships(rels []Relationship) ([]byte, error) {
	doc := Relationships{
		Namespace:    RelationshipsNamespace,
		Relationship: rels,
	}
	output, err := xml.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Grow(len(xmlHeader) + len(output))
	buf.WriteString(xmlHeader)
	buf.Write(output)
	return buf.Bytes(), nil
}

// RelsPartFor returns the relationship part belonging to a part, e.g.
// word/header1.xml -> word/_rels/header1.xml.rels.
func RelsPartFor(partName string) string {
	dir, file := path.Split(partName)
	return dir + "_rels/" + file + ".rels"
}

// ResolveTarget turns a relationship target into a package part name. Relative targets are
// resolved against the directory of the source part; absolute targets are rooted at the
// package.
func ResolveTarget(sourcePart, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return strings.TrimPrefix(path.Join(path.Dir(sourcePart), target), "/")
}

// retarget keeps the directory form of target and swaps in the file name of partName.
func retarget(target, partName string) string {
	dir := path.Dir(target)
	if dir == "." {
		return path.Base(partName)
	}
	return dir + "/" + path.Base(partName)
}

// extractRelationshipNumber extracts the numeric ID from a relationship ID like "rId6"
func extractRelationshipNumber(rId string) (int, error) {
	if !strings.HasPrefix(rId, "rId") {
		return 0, fmt.Errorf("invalid relationship ID format: %s", rId)
	}

	numStr := strings.TrimPrefix(rId, "rId")
	num, err := strconv.Atoi(numStr)
	if err != nil || num < 0 {
		return 0, fmt.Errorf("invalid relationship ID number: %s", rId)
	}

	return num, nil
}

// isMediaRelationship checks if a relationship is for media (images, video, etc.)
func isMediaRelationship(rel Relationship) bool {
	mediaTypes := []string{
		"image",
		"video",
		"audio",
		"media",
	}

	name := strings.ToLower(rel.TypeName())
	for _, mediaType := range mediaTypes {
		if strings.Contains(name, mediaType) {
			return true
		}
	}

	return false
}

// Type checks compare the last segment of the type URI so that transitional and strict
// (purl.oclc.org) packages classify the same way.
func isHeaderFooterRelationship(rel Relationship) bool {
	name := rel.TypeName()
	return name == "header" || name == "footer"
}

// singletonTypes may be owned only once by the main document part.
var singletonTypes = map[string]bool{
	"styles":      true,
	"settings":    true,
	"webSettings": true,
	"fontTable":   true,
	"numbering":   true,
	"theme":       true,
	"footnotes":   true,
	"endnotes":    true,
}

func isSingletonRelationship(rel Relationship) bool {
	return singletonTypes[rel.TypeName()]
}

// isCopyableRelationship reports whether the target part of rel may be carried from the
// body package into the output.
func isCopyableRelationship(rel Relationship) bool {
	return isMediaRelationship(rel) || isHeaderFooterRelationship(rel) || rel.TypeName() == "theme"
}
