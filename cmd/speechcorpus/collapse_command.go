package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"speechcorpus/internal/corpus"
	"speechcorpus/internal/export"
)

func newCollapseCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "collapse [utterances.jsonl]",
		Short: "Merge consecutive utterances that share source, start and speaker",
		Long: `Read a JSONL corpus (stdin when no file is given or the file is "-") and
merge runs of utterances with the same source, start time and speaker id.
The merged corpus is written to stdout or to --output.`,
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			input := "-"
			if len(args) == 1 {
				input = args[0]
			}
			utts, err := readUtterances(cmd, input)
			if err != nil {
				return err
			}
			collapsed, merged := corpus.Collapse(utts)
			if output != "" {
				if err := export.WriteJSONLFile(output, collapsed); err != nil {
					return err
				}
			} else if err := export.WriteJSONL(cmd.OutOrStdout(), collapsed); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Collapsed %d utterances into %d (%d merged)\n", len(utts), len(collapsed), merged)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the collapsed corpus to this file instead of stdout")
	return cmd
}
