package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/benjaminschreck/docmerge/pkg/docmerge"
)

type batchOptions struct {
	cover      string
	body       string
	outDir     string
	prefix     string
	versions   []string
	courseCode string
}

func newBatchCmd(global *globalOptions) *cobra.Command {
	opts := &batchOptions{}

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Produce one merged document per version",
		Long: `Batch merges the same cover and body once per version label, concurrently, and
writes <prefix>-v<version>.docx files to --out-dir. Nothing is written unless every
merge succeeds.`,
		Example: `  docmerge batch --cover cover.docx --body questions.docx --out-dir out --versions 1,2,3`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBatch(cmd, global, opts)
		},
	}

	cmd.Flags().StringVar(&opts.cover, "cover", "", "cover document (required)")
	cmd.Flags().StringVar(&opts.body, "body", "", "body document (required)")
	cmd.Flags().StringVar(&opts.outDir, "out-dir", ".", "output directory")
	cmd.Flags().StringVar(&opts.prefix, "prefix", "", "output file name prefix (default: body file name)")
	cmd.Flags().StringSliceVar(&opts.versions, "versions", nil, "version labels, comma separated (required)")
	cmd.Flags().StringVar(&opts.courseCode, "course-code", "", "value for the COURSE CODE placeholder")
	for _, name := range []string{"cover", "body", "versions"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func runBatch(cmd *cobra.Command, global *globalOptions, opts *batchOptions) error {
	cover, err := os.ReadFile(opts.cover)
	if err != nil {
		return fmt.Errorf("failed to read cover: %w", err)
	}
	body, err := os.ReadFile(opts.body)
	if err != nil {
		return fmt.Errorf("failed to read body: %w", err)
	}

	subs := make([]docmerge.Substitutions, 0, len(opts.versions))
	for _, v := range opts.versions {
		v = strings.TrimSpace(v)
		if v == "" {
			return fmt.Errorf("empty version label in --versions")
		}
		subs = append(subs, docmerge.Substitutions{VersionLabel: v, CourseCode: opts.courseCode})
	}

	results, err := docmerge.NewWithConfig(global.config).MergeBatch(cmd.Context(), cover, body, subs)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	prefix := opts.prefix
	if prefix == "" {
		prefix = strings.TrimSuffix(filepath.Base(opts.body), filepath.Ext(opts.body))
	}
	for i, result := range results {
		path := filepath.Join(opts.outDir, fmt.Sprintf("%s-v%s.docx", prefix, subs[i].VersionLabel))
		if err := docmerge.WriteFileAtomic(path, result.Data); err != nil {
			return err
		}
		printResult(cmd.OutOrStdout(), cmd.ErrOrStderr(), path, result.Report)
	}
	return nil
}
