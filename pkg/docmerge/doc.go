// Package docmerge merges two Word (DOCX) packages: a cover document and a body document
// are combined into one package with the body's content inserted at the cover's first
// section break.
//
// Basic Usage:
//
//	cover, _ := os.ReadFile("cover.docx")
//	body, _ := os.ReadFile("questions.docx")
//
//	output, err := docmerge.Merge(cover, body, &docmerge.Substitutions{
//	    VersionLabel: "3",
//	    CourseCode:   "MATH 101",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// The merge keeps the package consistent:
//
//   - body relationships get fresh ids above the cover's highest rIdN; headers and footers
//     that point at the same part as a cover relationship reuse the cover's id
//   - body media whose name is taken in the cover is copied under a new name (image1.png
//     becomes image2.png)
//   - the output has exactly one trailing w:sectPr, after all inserted content
//   - [VERSION] and [COURSE CODE] placeholders in headers and footers are filled in
//   - the content-type manifest declares every part in the archive
//
// Use a Merger for reports, strict mode, file output and batches:
//
//	m := docmerge.NewWithConfig(&docmerge.Config{StrictMode: true})
//	results, err := m.MergeBatch(ctx, cover, body, []docmerge.Substitutions{
//	    {VersionLabel: "1"}, {VersionLabel: "2"},
//	})
//
// Failures are *MergeError values; test them with errors.Is against ErrMalformedPackage,
// ErrInvariantViolation and the other sentinels.
package docmerge
