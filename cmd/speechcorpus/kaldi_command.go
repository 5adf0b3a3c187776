package main

import (
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"speechcorpus/internal/corpus"
	"speechcorpus/internal/export"
	"speechcorpus/internal/services/ffmpeg"
	"speechcorpus/internal/services/phonetisaurus"
	"speechcorpus/internal/textutil"
	"speechcorpus/internal/verbalize"
)

func newKaldiCommand(ctx *commandContext) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "kaldi [utterances.jsonl]",
		Short: "Write a Kaldi data directory from a built corpus",
		Long: `Verbalize the normalized text of every utterance and write text, utt2spk,
spk2utt, segments, wav.scp, words.txt and unk.txt. With lexicon.enabled the
vocabulary is sent through phonetisaurus and lexicon.txt is written too.
The input defaults to the utterances.jsonl of the last build; "-" reads stdin.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}

			input := cfg.UtterancesPath()
			if len(args) == 1 {
				input = args[0]
			}
			utts, err := readUtterances(cmd, input)
			if err != nil {
				return err
			}
			if dir == "" {
				dir = filepath.Join(cfg.Paths.OutputDir, "kaldi", textutil.SanitizeToken(cfg.Corpus.Domain))
			}

			tr := ffmpeg.New(cfg.Transcode)
			writer := export.KaldiWriter{
				Tokenizer:  verbalize.New(logger),
				ScpCommand: tr.ScpCommand,
				Logger:     logger,
			}
			if cfg.Lexicon.Enabled {
				writer.Lexicon = phonetisaurus.New(cfg.Lexicon, phonetisaurus.WithLogger(logger))
			}

			stats, err := writer.Write(commandCtx(cmd), dir, utts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote %s\n", dir)
			fmt.Fprintf(out, "Utterances:  %s (%s without words)\n", humanize.Comma(int64(stats.Utterances)), humanize.Comma(int64(stats.Skipped)))
			fmt.Fprintf(out, "Speakers:    %s across %s recordings\n", humanize.Comma(int64(stats.Speakers)), humanize.Comma(int64(stats.Recordings)))
			fmt.Fprintf(out, "Vocabulary:  %s words, %s unknown tokens\n", humanize.Comma(int64(stats.Words)), humanize.Comma(int64(stats.Unknown)))
			if cfg.Lexicon.Enabled {
				fmt.Fprintf(out, "Lexicon:     %s pronunciations\n", humanize.Comma(int64(stats.Lexicon)))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Kaldi data directory (default <output_dir>/kaldi/<domain>)")
	return cmd
}

// readUtterances reads a JSONL corpus from path, or from the command's
// stdin when path is "-".
func readUtterances(cmd *cobra.Command, path string) ([]corpus.Utterance, error) {
	if path == "-" {
		return export.ReadJSONL(cmd.InOrStdin())
	}
	return export.ReadJSONLFile(path)
}
