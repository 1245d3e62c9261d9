package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/search-query-core/internal/index"
	"github.com/Adithya-Monish-Kumar-K/search-query-core/internal/searcher/merger"
)

func newExplainCommand(root *RootOptions) *cobra.Command {
	opts := &corpusOptions{RootOptions: root}
	var (
		segment uint32
		doc     uint32
	)
	cmd := &cobra.Command{
		Use:   "explain <query>",
		Short: "Explain how a query scores one document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEngine(cmd.Context(), opts.cfg, opts.Corpus)
			if err != nil {
				return err
			}
			defer e.Close()

			_, q, err := e.compile(args[0])
			if err != nil {
				return err
			}
			ex, err := e.executor.Explain(cmd.Context(), q, merger.DocAddress{Segment: segment, Doc: index.DocID(doc)})
			if err != nil {
				return err
			}
			if opts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), ex)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), ex.String())
			return err
		},
	}
	opts.bind(cmd)
	cmd.Flags().Uint32Var(&segment, "segment", 0, "segment ordinal")
	cmd.Flags().Uint32Var(&doc, "doc", 0, "segment-local doc id")
	return cmd
}
