package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/benjaminschreck/docmerge/pkg/docmerge"
)

type mergeOptions struct {
	cover        string
	body         string
	out          string
	versionLabel string
	courseCode   string
	strict       bool
}

func newMergeCmd(global *globalOptions) *cobra.Command {
	opts := &mergeOptions{}

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge a body document into a cover document",
		Long: `Merge inserts the body document at the cover's first section break and writes the
result to --out. The output file is replaced atomically; it is left untouched when
the merge fails.`,
		Example: `  docmerge merge --cover cover.docx --body questions.docx --out exam.docx
  docmerge merge --cover cover.docx --body questions.docx --out exam.docx --version-label 3 --course-code "MATH 101"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMerge(cmd, global, opts)
		},
	}

	cmd.Flags().StringVar(&opts.cover, "cover", "", "cover document (required)")
	cmd.Flags().StringVar(&opts.body, "body", "", "body document (required)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "output document (required)")
	cmd.Flags().StringVar(&opts.versionLabel, "version-label", "", "value for the VERSION placeholder")
	cmd.Flags().StringVar(&opts.courseCode, "course-code", "", "value for the COURSE CODE placeholder")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "treat warnings as errors")
	for _, name := range []string{"cover", "body", "out"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func runMerge(cmd *cobra.Command, global *globalOptions, opts *mergeOptions) error {
	config := *global.config
	if opts.strict {
		config.StrictMode = true
	}

	result, err := docmerge.NewWithConfig(&config).MergeFiles(opts.cover, opts.body, opts.out, &docmerge.Substitutions{
		VersionLabel: opts.versionLabel,
		CourseCode:   opts.courseCode,
	})
	if err != nil {
		return err
	}

	printResult(cmd.OutOrStdout(), cmd.ErrOrStderr(), opts.out, result.Report)
	return nil
}

// printResult writes a one-line summary to out and the merge warnings to errOut.
func printResult(out, errOut io.Writer, path string, report *docmerge.Report) {
	for _, w := range report.Warnings {
		fmt.Fprintf(errOut, "warning: %v\n", w)
	}
	fmt.Fprintf(out, "wrote %s (%s, %d blocks inserted, %d parts copied, %d warnings)\n",
		path, humanize.Bytes(uint64(report.Size)), report.Splice.Blocks, len(report.Copied), len(report.Warnings))
}
