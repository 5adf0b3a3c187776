package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"speechcorpus/internal/speakers"
	"speechcorpus/internal/store"
)

type speakerRow struct {
	speakers.Entry
	Utterances int `json:"utterances"`
}

func newSpeakersCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "speakers",
		Short: "List the global speaker table of the last build",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx := commandCtx(cmd)
			var rows []speakerRow
			err := ctx.withStore(func(st *store.Store) error {
				entries, err := st.Speakers(runCtx)
				if err != nil {
					return err
				}
				counts, err := st.SpeakerCounts(runCtx)
				if err != nil {
					return err
				}
				rows = make([]speakerRow, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, speakerRow{Entry: e, Utterances: counts[e.ID]})
				}
				return nil
			})
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, rows)
			}
			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "No speakers; run `speechcorpus build` first")
				return nil
			}
			columns := []column{
				{title: "Speaker"},
				{title: "Recording"},
				{title: "Local", right: true},
				{title: "Label", maxWidth: 40},
				{title: "Utterances", right: true},
			}
			table := make([][]string, 0, len(rows))
			total := 0
			for _, r := range rows {
				total += r.Utterances
				table = append(table, []string{r.ID, r.RecordingID, strconv.Itoa(r.Local), r.Label, humanize.Comma(int64(r.Utterances))})
			}
			footer := []string{fmt.Sprintf("%d speakers", len(rows)), "", "", "", humanize.Comma(int64(total))}
			fmt.Fprintln(out, renderTable(columns, table, footer))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print speakers as JSON")
	return cmd
}
