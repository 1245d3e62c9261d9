package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	apperrors "github.com/Adithya-Monish-Kumar-K/search-query-core/pkg/errors"
)

func newParseCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <query>",
		Short: "Print the AST of a query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ast, err := parserFor(schemaFor(opts.cfg.Index)).Parse(args[0])
			if err != nil {
				return apperrors.Newf(apperrors.ErrInvalidArgument, "parsing query: %v", err)
			}
			if opts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), map[string]string{"query": args[0], "ast": ast.String()})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), ast.String())
			return err
		},
	}
}
