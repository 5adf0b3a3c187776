package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"speechcorpus/internal/config"
	"speechcorpus/internal/corpus"
	"speechcorpus/internal/export"
	"speechcorpus/internal/logging"
	"speechcorpus/internal/metrics"
	"speechcorpus/internal/preflight"
	"speechcorpus/internal/services"
	"speechcorpus/internal/store"
)

func newBuildCommand(ctx *commandContext) *cobra.Command {
	var manifest string
	var alignments []string
	var workers int
	var output string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Segment alignment documents into a corpus",
		Long: `Segment every recording listed in the manifest (or every file given with
--alignment) into utterances, assign global speaker ids and write
utterances.jsonl, speakers.tsv and the SQLite index into the output directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if output != "" {
				if err := cfg.SetOutputDir(output); err != nil {
					return services.Wrap(services.ErrConfiguration, "build", "output", "", err)
				}
			}
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			runCtx := commandCtx(cmd)

			strict := len(alignments) > 0
			entries, err := buildEntries(cfg, manifest, alignments)
			if err != nil {
				return err
			}

			checks := preflight.RunAll(runCtx, cfg, preflight.ScopeBuild)
			if strict {
				checks = dropCheck(checks, "Alignment directory")
			}
			if err := preflight.FirstFailure(checks); err != nil {
				return err
			}

			rec := metrics.New()
			opts := []corpus.Option{
				corpus.WithLogger(logger),
				corpus.WithMetrics(rec),
				corpus.WithWorkers(workers),
				corpus.WithStrictInputs(strict),
			}
			if isTerminal(cmd.ErrOrStderr()) {
				bar := newProgressBar(cmd.ErrOrStderr(), len(entries), "segmenting")
				opts = append(opts, corpus.WithProgress(func(done, _ int) { _ = bar.Set(done) }))
				defer bar.Finish()
			}

			started := time.Now()
			c, err := corpus.NewBuilder(cfg, opts...).Build(runCtx, entries)
			if err != nil {
				return err
			}
			if err := writeBuildOutputs(cmd, ctx, cfg, c, rec); err != nil {
				return err
			}
			logger.Info("build outputs written",
				logging.String("utterances_path", cfg.UtterancesPath()),
				logging.String("store_path", cfg.Paths.StorePath),
			)
			printBuildSummary(cmd.OutOrStdout(), cfg, c, time.Since(started))
			return nil
		},
	}

	cmd.Flags().StringVarP(&manifest, "manifest", "m", "", "Manifest (index.json) listing recordings; defaults to corpus.manifest")
	cmd.Flags().StringArrayVarP(&alignments, "alignment", "a", nil, "Alignment document to build from instead of the manifest (repeatable)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output directory (default paths.output_dir)")
	cmd.Flags().IntVarP(&workers, "workers", "j", 0, "Parallel segmentation workers (default corpus.workers)")
	return cmd
}

func buildEntries(cfg *config.Config, manifest string, alignments []string) ([]corpus.Entry, error) {
	if len(alignments) > 0 {
		return corpus.EntriesFromFiles(alignments), nil
	}
	path := strings.TrimSpace(manifest)
	if path == "" {
		path = cfg.Corpus.Manifest
	}
	if path == "" {
		return nil, services.Wrap(services.ErrConfiguration, "build", "manifest",
			"no manifest configured; set corpus.manifest, pass --manifest or use --alignment", nil)
	}
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "build", "manifest", "", err)
	}
	return corpus.LoadManifest(expanded)
}

func dropCheck(results []preflight.Result, name string) []preflight.Result {
	out := results[:0]
	for _, r := range results {
		if r.Name != name {
			out = append(out, r)
		}
	}
	return out
}

// writeBuildOutputs persists a finished corpus: the JSONL file, the SQLite
// index, the speaker table and the metrics textfile.
func writeBuildOutputs(cmd *cobra.Command, cc *commandContext, cfg *config.Config, c *corpus.Corpus, rec *metrics.Recorder) error {
	if err := export.WriteJSONLFile(cfg.UtterancesPath(), c.Utterances()); err != nil {
		return services.Wrap(services.ErrTransient, "build", "write utterances", cfg.UtterancesPath(), err)
	}

	var counts map[string]int
	runCtx := commandCtx(cmd)
	err := cc.withStore(func(st *store.Store) error {
		if err := st.ReplaceCorpus(runCtx, c); err != nil {
			return err
		}
		var err error
		counts, err = st.SpeakerCounts(runCtx)
		return err
	})
	if err != nil {
		return err
	}

	if err := export.WriteSpeakersTSV(cfg.SpeakersPath(), c.Speakers.Entries(), counts); err != nil {
		return services.Wrap(services.ErrTransient, "build", "write speakers", cfg.SpeakersPath(), err)
	}
	if path := strings.TrimSpace(cfg.Paths.MetricsFile); path != "" {
		if err := rec.WriteTextfile(path); err != nil {
			return services.Wrap(services.ErrTransient, "build", "write metrics", path, err)
		}
	}
	return nil
}

func printBuildSummary(out io.Writer, cfg *config.Config, c *corpus.Corpus, elapsed time.Duration) {
	skipped := 0
	for _, rec := range c.Records {
		if rec.Skipped {
			skipped++
		}
	}
	var audio float64
	for _, u := range c.Utterances() {
		audio += u.Duration()
	}

	fmt.Fprintf(out, "Run %s\n", c.RunID)
	fmt.Fprintf(out, "Recordings:  %s (%s without alignment)\n", humanize.Comma(int64(len(c.Records))), humanize.Comma(int64(skipped)))
	fmt.Fprintf(out, "Utterances:  %s (%s of speech)\n", humanize.Comma(int64(c.Len())), (time.Duration(audio * float64(time.Second))).Round(time.Second))
	fmt.Fprintf(out, "Speakers:    %s\n", humanize.Comma(int64(c.Speakers.Len())))
	fmt.Fprintf(out, "Words:       %s aligned, %s not found, %s dropped\n",
		humanize.Comma(int64(c.Stats.Aligned)), humanize.Comma(int64(c.Stats.NotFound)), humanize.Comma(int64(c.Stats.Skipped)))
	fmt.Fprintf(out, "Output:      %s\n", cfg.Paths.OutputDir)
	fmt.Fprintf(out, "Finished in %s\n", elapsed.Round(time.Millisecond))
}

func newProgressBar(w io.Writer, total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionClearOnFinish(),
	)
}
