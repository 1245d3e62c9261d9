// Package cli implements the querycore command line: parse, search, count
// and explain over a JSON-lines corpus, plus the Kafka side of cache
// invalidation.
package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/search-query-core/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/search-query-core/pkg/logger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Format     string
	Verbose    bool

	cfg *config.Config
}

var validFormats = []string{"text", "json"}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "querycore",
		Short:         "Boolean and scored queries over an in-memory segmented index",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(validFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, validFormats)
			}
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}
			level := cfg.Logging.Level
			if opts.Verbose {
				level = "debug"
			}
			logger.SetupWriter(cmd.ErrOrStderr(), level, cfg.Logging.Format)
			opts.cfg = cfg
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(newParseCommand(opts))
	cmd.AddCommand(newSearchCommand(opts))
	cmd.AddCommand(newCountCommand(opts))
	cmd.AddCommand(newExplainCommand(opts))
	cmd.AddCommand(newInvalidateCommand(opts))
	cmd.AddCommand(newListenCommand(opts))
	return cmd
}
