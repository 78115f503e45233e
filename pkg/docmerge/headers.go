package docmerge

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Substitutions are the values written into header and footer placeholders.
type Substitutions struct {
	// VersionLabel replaces the VERSION token. Numeric labels are zero-padded to 8 digits.
	VersionLabel string `yaml:"version_label"`
	// CourseCode replaces the COURSE CODE token.
	CourseCode string `yaml:"course_code"`
}

// Placeholder tokens as they may appear in part XML: literal brackets, bracket character
// references, and escaped angle brackets.
var (
	versionTokens    = tokenForms("VERSION")
	courseCodeTokens = tokenForms("COURSE CODE")
)

type replacement struct {
	tokens [][]byte
	value  []byte
}

func tokenForms(name string) [][]byte {
	return [][]byte{
		[]byte("[" + name + "]"),
		[]byte("&#91;" + name + "&#93;"),
		[]byte("&lt;" + name + "&gt;"),
	}
}

// FormatVersion renders a version label: "3" becomes "VERSION 00000003", anything that is
// not a non-negative integer is used as is.
func FormatVersion(label string) string {
	label = strings.TrimSpace(label)
	if n, err := strconv.ParseUint(label, 10, 64); err == nil {
		return fmt.Sprintf("VERSION %08d", n)
	}
	return "VERSION " + label
}

// IsHeaderFooterPart reports whether a part name is a header or footer part.
func IsHeaderFooterPart(name string) bool {
	for _, pattern := range []string{"word/header*.xml", "word/footer*.xml"} {
		if ok, _ := path.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

// RewriteHeaderFooters replaces placeholder tokens in every header and footer part of parts
// and returns the names of the parts that changed, sorted. Empty substitution values leave
// their tokens alone.
func RewriteHeaderFooters(parts map[string][]byte, subs *Substitutions) []string {
	if subs == nil {
		return nil
	}

	var replacements []replacement
	if strings.TrimSpace(subs.VersionLabel) != "" {
		replacements = append(replacements, replacement{versionTokens, escapeXMLText(FormatVersion(subs.VersionLabel))})
	}
	if subs.CourseCode != "" {
		replacements = append(replacements, replacement{courseCodeTokens, escapeXMLText(norm.NFC.String(subs.CourseCode))})
	}
	if len(replacements) == 0 {
		return nil
	}

	var rewritten []string
	for name, content := range parts {
		if !IsHeaderFooterPart(name) {
			continue
		}
		updated := content
		for _, r := range replacements {
			for _, token := range r.tokens {
				if bytes.Contains(updated, token) {
					updated = bytes.ReplaceAll(updated, token, r.value)
				}
			}
		}
		if !bytes.Equal(updated, content) {
			parts[name] = updated
			rewritten = append(rewritten, name)
		}
	}
	sort.Strings(rewritten)
	return rewritten
}

func escapeXMLText(s string) []byte {
	var buf bytes.Buffer
	// EscapeText only fails when the writer does.
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.Bytes()
}
