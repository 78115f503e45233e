package docmerge

import (
	"fmt"

	"github.com/benjaminschreck/docmerge/pkg/docmerge/xml"
)

// Validate checks the invariants of a package about to be written:
//   - relationship ids are unique
//   - every relationship id referenced from the document resolves
//   - there is at most one body-level w:sectPr, and it is the last block
//   - the manifest declares a type for every part
//
// All violations are returned together as InvariantViolation errors.
func Validate(pkg *Package) error {
	errs := NewMultiError()
	violation := func(part, format string, args ...interface{}) {
		errs.Add(NewMergeError(InvariantViolation, part, fmt.Sprintf(format, args...), nil))
	}

	ids := make(map[string]bool, len(pkg.Relationships))
	for _, rel := range pkg.Relationships {
		if ids[rel.ID] {
			violation(DocumentRelsPart, "relationship id %s is used more than once", rel.ID)
		}
		ids[rel.ID] = true
	}

	if pkg.Document == nil || pkg.Document.Body() == nil {
		violation(DocumentPart, "document has no body")
	} else {
		for _, id := range xml.RelationshipIDs(pkg.Document.Root) {
			if !ids[id] {
				violation(DocumentPart, "reference to undefined relationship %s", id)
			}
		}
		if err := checkTrailingSection(pkg.Document.Body()); err != nil {
			errs.Add(err)
		}
	}

	if pkg.ContentTypes == nil {
		violation(ContentTypesPart, "package has no content types")
	} else {
		for _, name := range pkg.PartNames() {
			if name == ContentTypesPart {
				continue
			}
			if _, ok := pkg.ContentTypes.ContentTypeFor(name); !ok {
				violation(name, "no content type declared")
			}
		}
	}

	return errs.Err()
}
