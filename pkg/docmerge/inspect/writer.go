package inspect

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/nao1215/markdown"
)

// shortDigest is the digest prefix shown in listings.
const shortDigest = 12

// WriteText writes a plain-text summary of the report.
func (r *Report) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "size:\t%s\n", humanize.Bytes(uint64(r.Size)))
	fmt.Fprintf(tw, "blake3:\t%s\n", r.Digest)
	fmt.Fprintf(tw, "blocks:\t%d\n", r.Blocks)
	fmt.Fprintf(tw, "sections:\t%d paragraph, %d body-level\n", r.ParagraphSections, r.BodySections)
	fmt.Fprintf(tw, "relationships:\t%d\n", len(r.Relationships))
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "PART\tSIZE\tCONTENT TYPE\tBLAKE3")
	for _, p := range r.Parts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Name, humanize.Bytes(uint64(p.Size)), p.ContentType, abbreviate(p.Digest))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, warning := range r.Warnings {
		if _, err := fmt.Fprintf(w, "warning: %s\n", warning); err != nil {
			return err
		}
	}
	for _, issue := range r.Issues {
		if _, err := fmt.Fprintf(w, "issue: %s\n", issue); err != nil {
			return err
		}
	}
	if r.OK() {
		_, err := fmt.Fprintln(w, "all invariants hold")
		return err
	}
	return nil
}

// WriteMarkdown writes the report as a Markdown document.
func (r *Report) WriteMarkdown(w io.Writer) error {
	md := markdown.NewMarkdown(w)

	md.H1("Package report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Size", humanize.Bytes(uint64(r.Size))},
			{"BLAKE3", "`" + r.Digest + "`"},
			{"Blocks", strconv.Itoa(r.Blocks)},
			{"Paragraph sections", strconv.Itoa(r.ParagraphSections)},
			{"Body-level sections", strconv.Itoa(r.BodySections)},
			{"Relationships", strconv.Itoa(len(r.Relationships))},
		},
	})
	md.PlainText("")

	md.H2("Invariants")
	md.PlainText("")
	if r.OK() {
		md.Tip("All invariants hold.")
	} else {
		md.Cautionf("%d invariant violations.", len(r.Issues))
		md.PlainText("")
		md.BulletList(r.Issues...)
	}
	md.PlainText("")
	if len(r.Warnings) > 0 {
		md.Warningf("%d warnings.", len(r.Warnings))
		md.PlainText("")
		md.BulletList(r.Warnings...)
		md.PlainText("")
	}

	md.H2("Parts")
	md.PlainText("")
	rows := make([][]string, 0, len(r.Parts))
	for _, p := range r.Parts {
		rows = append(rows, []string{"`" + p.Name + "`", humanize.Bytes(uint64(p.Size)), p.ContentType, "`" + abbreviate(p.Digest) + "`"})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Part", "Size", "Content type", "BLAKE3"},
		Rows:   rows,
	})
	md.PlainText("")

	if len(r.Relationships) > 0 {
		md.H2("Relationships")
		md.PlainText("")
		relRows := make([][]string, 0, len(r.Relationships))
		for _, rel := range r.Relationships {
			mode := "internal"
			if rel.IsExternal() {
				mode = "external"
			}
			relRows = append(relRows, []string{rel.ID, rel.TypeName(), "`" + rel.Target + "`", mode})
		}
		md.Table(markdown.TableSet{
			Header: []string{"Id", "Type", "Target", "Mode"},
			Rows:   relRows,
		})
		md.PlainText("")
	}

	return md.Build()
}

func abbreviate(digest string) string {
	if len(digest) > shortDigest {
		return digest[:shortDigest]
	}
	return digest
}
