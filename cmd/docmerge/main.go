// Package main provides the docmerge command line tool.
//
// docmerge combines a cover DOCX and a body DOCX into one document, filling in the version
// and course code placeholders of the cover's headers and footers.
//
// Usage:
//
//	docmerge merge --cover cover.docx --body questions.docx --out exam.docx --version-label 3
//	docmerge batch --cover cover.docx --body questions.docx --out-dir out --versions 1,2,3
//	docmerge inspect exam.docx
//
// See --help for all available options.
package main

import (
	"context"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	Execute(ctx)
}
