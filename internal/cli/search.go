package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/search-query-core/internal/index"
)

type corpusOptions struct {
	*RootOptions
	Corpus string
}

func (o *corpusOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Corpus, "corpus", "", "JSON-lines corpus file")
}

type hitView struct {
	Segment uint32         `json:"segment"`
	Doc     index.DocID    `json:"doc"`
	Score   float64        `json:"score"`
	Fields  index.Document `json:"fields"`
}

type searchView struct {
	RequestID string    `json:"request_id"`
	Query     string    `json:"query"`
	TotalHits uint64    `json:"total_hits"`
	Cached    bool      `json:"cached"`
	Hits      []hitView `json:"hits"`
}

func newSearchCommand(root *RootOptions) *cobra.Command {
	opts := &corpusOptions{RootOptions: root}
	var limit int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Return the best matching documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEngine(cmd.Context(), opts.cfg, opts.Corpus)
			if err != nil {
				return err
			}
			defer e.Close()

			res, cached, err := e.search(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			view := searchView{
				RequestID: res.RequestID,
				Query:     res.Query,
				TotalHits: res.TotalHits,
				Cached:    cached,
				Hits:      make([]hitView, 0, len(res.Hits)),
			}
			for _, hit := range res.Hits {
				doc, err := e.executor.Document(hit.Address)
				if err != nil {
					return err
				}
				view.Hits = append(view.Hits, hitView{
					Segment: hit.Address.Segment,
					Doc:     hit.Address.Doc,
					Score:   hit.Score,
					Fields:  doc,
				})
			}

			out := cmd.OutOrStdout()
			if opts.Format == "json" {
				return writeJSON(out, view)
			}
			fmt.Fprintf(out, "%s: %d hits\n", view.Query, view.TotalHits)
			for i, hit := range view.Hits {
				fmt.Fprintf(out, "%3d. %d/%d %.4f %s\n", i+1, hit.Segment, hit.Doc, hit.Score, summarize(hit.Fields))
			}
			return nil
		},
	}
	opts.bind(cmd)
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum hits to return (0 uses the configured default)")
	return cmd
}

func newCountCommand(root *RootOptions) *cobra.Command {
	opts := &corpusOptions{RootOptions: root}
	cmd := &cobra.Command{
		Use:   "count <query>",
		Short: "Count the live documents matching a query",
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
			n, err := e.executor.Count(cmd.Context(), q)
			if err != nil {
				return err
			}
			if opts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"query": fmt.Sprint(q), "count": n})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), n)
			return err
		},
	}
	opts.bind(cmd)
	return cmd
}
