package docmerge

import (
	"bytes"
	"encoding/xml"
	"path"
	"sort"
	"strings"
)

// ContentTypesNamespace is the namespace of the [Content_Types].xml part.
const ContentTypesNamespace = "http://schemas.openxmlformats.org/package/2006/content-types"

// Baseline defaults every package carries.
const (
	relsContentType = "application/vnd.openxmlformats-package.relationships+xml"
	xmlContentType  = "application/xml"
)

// ContentTypes is the package manifest. Defaults are serialized before overrides.
type ContentTypes struct {
	XMLName   xml.Name              `xml:"Types"`
	Namespace string                `xml:"xmlns,attr"`
	Defaults  []ContentTypeDefault  `xml:"Default"`
	Overrides []ContentTypeOverride `xml:"Override"`
}

// ContentTypeDefault maps a file extension to a MIME type.
type ContentTypeDefault struct {
	Extension   string `xml:"Extension,attr"`
	ContentType string `xml:"ContentType,attr"`
}

// ContentTypeOverride maps one part name (with leading slash) to a MIME type.
type ContentTypeOverride struct {
	PartName    string `xml:"PartName,attr"`
	ContentType string `xml:"ContentType,attr"`
}

// extensionContentTypes covers the extensions a merge can introduce without the body
// declaring them.
var extensionContentTypes = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"tiff": "image/tiff",
	"tif":  "image/tiff",
	"svg":  "image/svg+xml",
	"webp": "image/webp",
	"emf":  "image/x-emf",
	"wmf":  "image/x-wmf",
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"mp4":  "video/mp4",
	"rels": relsContentType,
	"xml":  xmlContentType,
}

// NewContentTypes returns an empty manifest.
func NewContentTypes() *ContentTypes {
	return &ContentTypes{Namespace: ContentTypesNamespace}
}

// ParseContentTypes decodes a [Content_Types].xml part.
func ParseContentTypes(data []byte) (*ContentTypes, error) {
	ct := NewContentTypes()
	if err := xml.Unmarshal(data, ct); err != nil {
		return nil, err
	}
	ct.Namespace = ContentTypesNamespace
	return ct, nil
}

// Bytes serializes the manifest with the standalone declaration.
func (ct *ContentTypes) Bytes() ([]byte, error) {
	out := *ct
	out.XMLName = xml.Name{}
	out.Namespace = ContentTypesNamespace
	output, err := xml.Marshal(out)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString(xmlHeader)
	buf.Write(output)
	return buf.Bytes(), nil
}

// Clone returns a deep copy.
func (ct *ContentTypes) Clone() *ContentTypes {
	return &ContentTypes{
		Namespace: ct.Namespace,
		Defaults:  append([]ContentTypeDefault(nil), ct.Defaults...),
		Overrides: append([]ContentTypeOverride(nil), ct.Overrides...),
	}
}

// Default returns the MIME type registered for an extension (case-insensitive).
func (ct *ContentTypes) Default(ext string) (string, bool) {
	ext = strings.TrimPrefix(ext, ".")
	for _, d := range ct.Defaults {
		if strings.EqualFold(d.Extension, ext) {
			return d.ContentType, true
		}
	}
	return "", false
}

// Override returns the MIME type registered for a part. partName may omit the leading slash.
func (ct *ContentTypes) Override(partName string) (string, bool) {
	partName = "/" + strings.TrimPrefix(partName, "/")
	for _, o := range ct.Overrides {
		if o.PartName == partName {
			return o.ContentType, true
		}
	}
	return "", false
}

// ContentTypeFor resolves the MIME type of a part: an override first, then the default for
// its extension.
func (ct *ContentTypes) ContentTypeFor(partName string) (string, bool) {
	if t, ok := ct.Override(partName); ok {
		return t, true
	}
	ext := path.Ext(partName)
	if ext == "" {
		return "", false
	}
	return ct.Default(ext)
}

// AddDefault registers ext unless it is declared already. It reports whether it was added.
func (ct *ContentTypes) AddDefault(ext, contentType string) bool {
	ext = strings.TrimPrefix(ext, ".")
	if _, ok := ct.Default(ext); ok {
		return false
	}
	ct.Defaults = append(ct.Defaults, ContentTypeDefault{Extension: ext, ContentType: contentType})
	return true
}

// AddOverride registers a part unless it is declared already. It reports whether it was added.
func (ct *ContentTypes) AddOverride(partName, contentType string) bool {
	partName = "/" + strings.TrimPrefix(partName, "/")
	if _, ok := ct.Override(partName); ok {
		return false
	}
	ct.Overrides = append(ct.Overrides, ContentTypeOverride{PartName: partName, ContentType: contentType})
	return true
}

// MergeContentTypes unions two manifests. Cover entries come first and win on key collision;
// body entries are added only when their key is absent. The rels and xml defaults are always
// present in the result. Neither input is modified.
func MergeContentTypes(cover, body *ContentTypes) *ContentTypes {
	merged := NewContentTypes()
	for _, src := range []*ContentTypes{cover, body} {
		if src == nil {
			continue
		}
		for _, d := range src.Defaults {
			merged.AddDefault(d.Extension, d.ContentType)
		}
		for _, o := range src.Overrides {
			merged.AddOverride(o.PartName, o.ContentType)
		}
	}
	merged.AddDefault("rels", relsContentType)
	merged.AddDefault("xml", xmlContentType)
	return merged
}

// Complete declares a type for every part in parts that has none. Parts copied from the body
// under a new name (copies maps output name to body name) inherit the body's override; other
// parts get a default for their extension.
func (ct *ContentTypes) Complete(parts []string, copies map[string]string, body *ContentTypes) []string {
	var added []string
	for _, name := range parts {
		if name == ContentTypesPart {
			continue
		}
		if src, ok := copies[name]; ok && body != nil {
			if t, ok := body.Override(src); ok {
				if ct.AddOverride(name, t) {
					added = append(added, name)
				}
				continue
			}
		}
		if _, ok := ct.ContentTypeFor(name); ok {
			continue
		}
		ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
		if ext == "" {
			ct.AddOverride(name, "application/octet-stream")
			added = append(added, name)
			continue
		}
		contentType, ok := extensionContentTypes[ext]
		if !ok && body != nil {
			contentType, ok = body.Default(ext)
		}
		if !ok {
			contentType = "application/octet-stream"
		}
		ct.AddDefault(ext, contentType)
		added = append(added, name)
	}
	return added
}

// Prune drops overrides for parts that are not in parts and returns their names, sorted.
func (ct *ContentTypes) Prune(parts []string) []string {
	present := make(map[string]bool, len(parts))
	for _, name := range parts {
		present["/"+name] = true
	}
	var dropped []string
	kept := ct.Overrides[:0]
	for _, o := range ct.Overrides {
		if present[o.PartName] {
			kept = append(kept, o)
			continue
		}
		dropped = append(dropped, strings.TrimPrefix(o.PartName, "/"))
	}
	ct.Overrides = kept
	sort.Strings(dropped)
	return dropped
}
