package docmerge

import (
	"strings"
	"testing"
)

func TestFormatVersion(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{"3", "VERSION 00000003"},
		{"12345678", "VERSION 12345678"},
		{"123456789", "VERSION 123456789"},
		{" 7 ", "VERSION 00000007"},
		{"2.1", "VERSION 2.1"},
		{"-4", "VERSION -4"},
		{"draft", "VERSION draft"},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			if got := FormatVersion(tt.label); got != tt.want {
				t.Errorf("FormatVersion(%q) = %q, want %q", tt.label, got, tt.want)
			}
		})
	}
}

func TestIsHeaderFooterPart(t *testing.T) {
	tests := map[string]bool{
		"word/header1.xml":            true,
		"word/footer12.xml":           true,
		"word/header.xml":             true,
		"word/document.xml":           false,
		"word/_rels/header1.xml.rels": false,
		"word/media/header1.xml":      false,
		"customXml/header1.xml":       false,
	}

	for name, want := range tests {
		if got := IsHeaderFooterPart(name); got != want {
			t.Errorf("IsHeaderFooterPart(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestRewriteHeaderFooters_AllTokenForms(t *testing.T) {
	parts := map[string][]byte{
		"word/header1.xml":  []byte(`<w:t>[VERSION]</w:t><w:t>&#91;COURSE CODE&#93;</w:t>`),
		"word/footer1.xml":  []byte(`<w:t>&lt;VERSION&gt; / &lt;COURSE CODE&gt;</w:t>`),
		"word/footer2.xml":  []byte(`<w:t>no tokens</w:t>`),
		"word/document.xml": []byte(`<w:t>[VERSION]</w:t>`),
	}

	rewritten := RewriteHeaderFooters(parts, &Substitutions{VersionLabel: "3", CourseCode: "ABC-101"})

	if strings.Join(rewritten, ",") != "word/footer1.xml,word/header1.xml" {
		t.Errorf("rewritten = %v", rewritten)
	}
	if got := string(parts["word/header1.xml"]); got != `<w:t>VERSION 00000003</w:t><w:t>ABC-101</w:t>` {
		t.Errorf("header1 = %s", got)
	}
	if got := string(parts["word/footer1.xml"]); got != `<w:t>VERSION 00000003 / ABC-101</w:t>` {
		t.Errorf("footer1 = %s", got)
	}
	if got := string(parts["word/document.xml"]); got != `<w:t>[VERSION]</w:t>` {
		t.Errorf("document part must not be touched, got %s", got)
	}
}

func TestRewriteHeaderFooters_EscapesValues(t *testing.T) {
	parts := map[string][]byte{
		"word/header1.xml": []byte(`<w:t>[COURSE CODE]</w:t>`),
	}

	// "e" followed by a combining acute accent normalizes to a single code point.
	RewriteHeaderFooters(parts, &Substitutions{CourseCode: "R&D <Cafe\u0301>"})

	want := "<w:t>R&amp;D &lt;Caf\u00e9&gt;</w:t>"
	if got := string(parts["word/header1.xml"]); got != want {
		t.Errorf("header1 = %q, want %q", got, want)
	}
}

func TestRewriteHeaderFooters_NoValues(t *testing.T) {
	original := `<w:t>[VERSION] [COURSE CODE]</w:t>`

	for name, subs := range map[string]*Substitutions{
		"nil":   nil,
		"empty": {},
		"blank": {VersionLabel: "  "},
	} {
		t.Run(name, func(t *testing.T) {
			parts := map[string][]byte{"word/header1.xml": []byte(original)}
			if rewritten := RewriteHeaderFooters(parts, subs); len(rewritten) != 0 {
				t.Errorf("expected no rewrites, got %v", rewritten)
			}
			if string(parts["word/header1.xml"]) != original {
				t.Errorf("part changed: %s", parts["word/header1.xml"])
			}
		})
	}

	parts := map[string][]byte{"word/header1.xml": []byte(original)}
	RewriteHeaderFooters(parts, &Substitutions{VersionLabel: "1"})
	if got := string(parts["word/header1.xml"]); got != `<w:t>VERSION 00000001 [COURSE CODE]</w:t>` {
		t.Errorf("only the version token should change, got %s", got)
	}
}
