package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/benjaminschreck/docmerge/pkg/docmerge"
)

// globalOptions holds the persistent flags and the configuration they resolve to.
type globalOptions struct {
	configPath string
	verbose    bool
	config     *docmerge.Config
}

// NewRootCmd creates the root command for docmerge.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "docmerge",
		Short: "Merge a cover DOCX and a body DOCX into one document",
		Long: `docmerge inserts the content of a body document at the first section break of a
cover document. Relationships, media, headers, footers and content types of both
packages are reconciled so the result opens as a single valid DOCX.

Configuration is read from --config, ./.docmerge.yaml or
$XDG_CONFIG_HOME/docmerge/config.yaml, and DOCMERGE_* environment variables
(a .env file in the working directory is loaded first).`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "configuration file")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newMergeCmd(opts))
	cmd.AddCommand(newBatchCmd(opts))
	cmd.AddCommand(newInspectCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// load resolves the configuration and installs it as the global one.
func (o *globalOptions) load() error {
	// A missing .env file is fine.
	_ = godotenv.Load()

	path := docmerge.FindConfigFile(o.configPath)
	var config *docmerge.Config
	switch {
	case path != "":
		loaded, err := docmerge.LoadConfigFile(path)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
		config = loaded
	case o.configPath != "":
		return fmt.Errorf("%w: %s", docmerge.ErrConfigNotFound, o.configPath)
	default:
		config = docmerge.ConfigFromEnvironment()
	}

	if o.verbose {
		config.LogLevel = "debug"
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	docmerge.SetGlobalConfig(config)
	o.config = config
	docmerge.Debug("configuration loaded from %q", path)
	return nil
}

// Execute runs the root command and exits with status 1 on failure.
func Execute(ctx context.Context) {
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
