package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/benjaminschreck/docmerge/pkg/docmerge/inspect"
)

func newInspectCmd() *cobra.Command {
	var markdown bool

	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Summarize a DOCX package and check its invariants",
		Long: `Inspect lists the parts, relationships and section layout of a DOCX package and
re-checks the invariants of a merge output: unique relationship ids, resolvable
references, a single trailing section and a content type for every part. The
command fails when an invariant does not hold.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			report, err := inspect.Inspect(data)
			if err != nil {
				return err
			}

			if markdown {
				err = report.WriteMarkdown(cmd.OutOrStdout())
			} else {
				err = report.WriteText(cmd.OutOrStdout())
			}
			if err != nil {
				return err
			}
			if !report.OK() {
				return fmt.Errorf("%s: %d invariant violations", args[0], len(report.Issues))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&markdown, "markdown", false, "write the report as Markdown")
	return cmd
}
