package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"speechcorpus/internal/corpus"
	"speechcorpus/internal/fileutil"
	"speechcorpus/internal/logging"
	"speechcorpus/internal/media/ffprobe"
	"speechcorpus/internal/preflight"
	"speechcorpus/internal/services"
	"speechcorpus/internal/services/fetcher"
	"speechcorpus/internal/services/ffmpeg"
)

// sourceDirName holds downloaded media before transcoding.
const sourceDirName = "source"

func newFetchCommand(ctx *commandContext) *cobra.Command {
	var manifest string
	var force bool

	cmd := &cobra.Command{
		Use:   "fetch [id...]",
		Short: "Download and transcode the media of manifest recordings",
		Long: `Download the media of every manifest recording (or only the given ids),
convert it to mono 16-bit PCM with ffmpeg and verify the result with ffprobe.
Recordings whose audio already exists are left alone unless --force is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			runCtx := commandCtx(cmd)

			entries, err := buildEntries(cfg, manifest, nil)
			if err != nil {
				return err
			}
			entries = selectEntries(entries, args)
			if len(entries) == 0 {
				return services.Wrap(services.ErrNotFound, "fetch", "select", "no matching manifest entries", nil)
			}
			if err := preflight.FirstFailure(preflight.RunAll(runCtx, cfg, preflight.ScopeFetch)); err != nil {
				return err
			}

			fetchOpts := []fetcher.Option{fetcher.WithLogger(logger)}
			if isTerminal(cmd.ErrOrStderr()) {
				fetchOpts = append(fetchOpts, fetcher.WithProgress(cmd.ErrOrStderr()))
			}
			f := fetcher.New(filepath.Join(cfg.Paths.MediaDir, sourceDirName), cfg.Fetch, fetchOpts...)
			tr := ffmpeg.New(cfg.Transcode)

			out := cmd.OutOrStdout()
			var fetched, present, failed int
			for _, entry := range entries {
				if err := runCtx.Err(); err != nil {
					return err
				}
				id := entry.RecordingID()
				dst := cfg.RecordingPath(id)
				entryCtx := services.WithRecordingID(runCtx, id)
				entryLogger := logging.WithContext(entryCtx, logger)
				if fileutil.Exists(dst) && !force {
					present++
					entryLogger.Debug("recording audio already present", logging.String("path", dst))
					continue
				}

				format, err := fetchOne(entryCtx, f, tr, entry.MediaURL(), id, dst)
				if err != nil {
					if errors.Is(err, services.ErrConfiguration) {
						return err
					}
					failed++
					logging.ErrorWithContext(entryLogger, "recording fetch failed", "fetch_failed",
						logging.Error(err),
						logging.String("url", entry.MediaURL()),
						logging.String(logging.FieldImpact, "recording has no audio and its utterances point at a missing file"),
					)
					continue
				}
				fetched++
				entryLogger.Info("recording ready", logging.String("path", dst), logging.String("format", format.String()))
			}

			fmt.Fprintf(out, "Fetched %d, already present %d, failed %d\n", fetched, present, failed)
			if failed > 0 {
				return services.Wrap(services.ErrTransient, "fetch", "", fmt.Sprintf("%d of %d recordings failed", failed, len(entries)), nil)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&manifest, "manifest", "m", "", "Manifest (index.json) listing recordings; defaults to corpus.manifest")
	cmd.Flags().BoolVar(&force, "force", false, "Transcode again even when the recording audio exists")
	return cmd
}

func fetchOne(ctx context.Context, f *fetcher.Fetcher, tr *ffmpeg.Transcoder, url, id, dst string) (ffprobe.AudioFormat, error) {
	src, err := f.Fetch(ctx, url, id)
	if err != nil {
		return ffprobe.AudioFormat{}, err
	}
	if err := tr.ToPCM(ctx, src, dst); err != nil {
		return ffprobe.AudioFormat{}, err
	}
	return tr.Verify(ctx, dst)
}

// selectEntries keeps the entries whose manifest id or recording id is in
// ids; an empty ids keeps everything.
func selectEntries(entries []corpus.Entry, ids []string) []corpus.Entry {
	if len(ids) == 0 {
		return entries
	}
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var out []corpus.Entry
	for _, e := range entries {
		_, byID := want[e.ID]
		_, byName := want[e.RecordingID()]
		if byID || byName {
			out = append(out, e)
		}
	}
	return out
}
