package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"speechcorpus/internal/corpus"
	"speechcorpus/internal/store"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search over the utterances of the last build",
		Long: `Search utterance text with SQLite FTS5 query syntax, for example
"добрий день" for a phrase or "привіт OR вітаю". Results are ranked by relevance.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			var results []corpus.Utterance
			err := ctx.withStore(func(st *store.Store) error {
				var err error
				results, err = st.Search(commandCtx(cmd), query, limit)
				return err
			})
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, results)
			}
			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintln(out, "No matches")
				return nil
			}
			columns := []column{
				{title: "Utterance"},
				{title: "Start", right: true},
				{title: "End", right: true},
				{title: "Text", maxWidth: 60},
			}
			rows := make([][]string, 0, len(results))
			for _, u := range results {
				rows = append(rows, []string{u.ID, fmt.Sprintf("%.2f", u.Start), fmt.Sprintf("%.2f", u.End), u.Text})
			}
			fmt.Fprintln(out, renderTable(columns, rows, nil))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of results")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print matches as JSON")
	return cmd
}
