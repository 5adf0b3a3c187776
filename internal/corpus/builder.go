package corpus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"speechcorpus/internal/alignment"
	"speechcorpus/internal/config"
	"speechcorpus/internal/logging"
	"speechcorpus/internal/metrics"
	"speechcorpus/internal/segment"
	"speechcorpus/internal/services"
)

// LockFileName is the advisory lock taken in the output directory for the
// duration of a build.
const LockFileName = ".speechcorpus.lock"

// Builder turns manifest entries into a Corpus.
type Builder struct {
	cfg      *config.Config
	logger   *slog.Logger
	metrics  *metrics.Recorder
	workers  int
	strict   bool
	progress func(done, total int)
	newRunID func() string
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger; nil keeps the no-op default.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(b *Builder) { b.metrics = rec }
}

// WithWorkers overrides the configured worker count. Values below one are
// ignored.
func WithWorkers(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.workers = n
		}
	}
}

// WithStrictInputs makes a missing alignment document a configuration error
// instead of a skipped recording.
func WithStrictInputs(strict bool) Option {
	return func(b *Builder) { b.strict = strict }
}

// WithProgress registers a callback invoked after each recording is
// segmented. It may be called from several goroutines.
func WithProgress(fn func(done, total int)) Option {
	return func(b *Builder) { b.progress = fn }
}

// WithRunID fixes the run id instead of generating a UUID.
func WithRunID(id string) Option {
	return func(b *Builder) {
		if id != "" {
			b.newRunID = func() string { return id }
		}
	}
}

// NewBuilder creates a builder for cfg.
func NewBuilder(cfg *config.Config, opts ...Option) *Builder {
	b := &Builder{
		cfg:      cfg,
		logger:   logging.NewNop(),
		workers:  cfg.Corpus.Workers,
		newRunID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.workers <= 0 {
		b.workers = runtime.NumCPU()
	}
	b.logger = logging.NewComponentLogger(b.logger, "corpus")
	return b
}

type segmented struct {
	result  segment.Result
	skipped bool
}

// Build segments every entry and assembles the corpus. Recordings are loaded
// and segmented in parallel; utterance ordinals and global speaker ids are
// assigned afterwards in entry order.
func (b *Builder) Build(ctx context.Context, entries []Entry) (*Corpus, error) {
	runID := b.newRunID()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, b.logger)

	unlock, err := b.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	entries, err = b.prepare(entries)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	logger.Info("corpus build started",
		logging.Int("recordings", len(entries)),
		logging.Int("workers", b.workers),
	)

	results, err := b.segmentAll(ctx, entries)
	if err != nil {
		return nil, err
	}

	corpus, err := b.assemble(ctx, runID, entries, results)
	if err != nil {
		return nil, err
	}

	logger.Info("corpus build finished",
		logging.Int("recordings", len(corpus.Records)),
		logging.Int("utterances", corpus.Len()),
		logging.Int("speakers", corpus.Speakers.Len()),
		logging.Int("words_skipped", corpus.Stats.Skipped),
		logging.Duration("elapsed", time.Since(started)),
	)
	return corpus, nil
}

func (b *Builder) lock() (func(), error) {
	dir := b.cfg.Paths.OutputDir
	if dir == "" {
		return func() {}, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "corpus", "lock", "create output directory", err)
	}
	lock := flock.New(filepath.Join(dir, LockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "corpus", "lock", dir, err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrConfiguration, "corpus", "lock",
			fmt.Sprintf("another build holds %s", dir), nil)
	}
	return func() { _ = lock.Unlock() }, nil
}

// prepare fills derived paths and checks inputs before any segmentation.
func (b *Builder) prepare(entries []Entry) ([]Entry, error) {
	out := make([]Entry, len(entries))
	names := make(map[string]string, len(entries))
	for i, entry := range entries {
		name := entry.RecordingID()
		if prev, dup := names[name]; dup {
			return nil, services.Wrap(services.ErrConfiguration, "corpus", "prepare",
				fmt.Sprintf("sources %q and %q share recording name %s", prev, entry.ID, name), nil)
		}
		names[name] = entry.ID
		if entry.AlignmentPath == "" {
			entry.AlignmentPath = b.cfg.AlignmentPath(entry.ID)
		}
		if entry.RecordingPath == "" {
			entry.RecordingPath = b.cfg.RecordingPath(name)
		}
		if b.strict {
			if _, err := os.Stat(entry.AlignmentPath); err != nil {
				return nil, services.Wrap(services.ErrConfiguration, "corpus", "prepare",
					fmt.Sprintf("alignment %q", entry.AlignmentPath), err)
			}
		}
		out[i] = entry
	}
	return out, nil
}

func (b *Builder) segmentAll(ctx context.Context, entries []Entry) ([]segmented, error) {
	results := make([]segmented, len(entries))
	var done atomic.Int64

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(b.workers)
	for i, entry := range entries {
		group.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := b.segmentOne(gctx, entry)
			if err != nil {
				return err
			}
			results[i] = res
			if b.progress != nil {
				b.progress(int(done.Add(1)), len(entries))
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (b *Builder) segmentOne(ctx context.Context, entry Entry) (segmented, error) {
	ctx = services.WithRecordingID(ctx, entry.RecordingID())
	ctx = services.WithStage(ctx, "segment")
	logger := logging.WithContext(ctx, b.logger)

	started := time.Now()
	doc, err := alignment.Load(entry.AlignmentPath)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) && !b.strict {
			logging.WarnWithContext(logger, "alignment missing; recording skipped", "alignment_missing",
				logging.String("source", entry.ID),
				logging.String("path", entry.AlignmentPath),
				logging.String(logging.FieldErrorHint, "run the aligner for this recording"),
				logging.String(logging.FieldImpact, "recording left out of the corpus"),
			)
			b.metrics.RecordingSkipped()
			return segmented{skipped: true}, nil
		}
		if errors.Is(err, services.ErrValidation) {
			return segmented{}, services.Wrap(services.ErrConfiguration, "corpus", "load", entry.ID, err)
		}
		return segmented{}, err
	}

	res := segment.Segment(doc.View(), doc.Words, segment.Options{Logger: logger})
	b.metrics.ObserveRecording(metrics.RecordingCounts{
		Aligned:         res.Stats.Aligned,
		NotFound:        res.Stats.NotFound,
		Skipped:         res.Stats.Skipped,
		Labels:          res.Stats.Labels,
		LabelsDiscarded: res.Stats.LabelsDiscarded,
		Elapsed:         time.Since(started),
	})
	logger.Debug("recording segmented",
		logging.Int("words", res.Stats.Words),
		logging.Int("spans", len(res.Spans)),
		logging.Int("labels", len(res.Speakers)),
	)
	return segmented{result: res}, nil
}

func (b *Builder) assemble(ctx context.Context, runID string, entries []Entry, results []segmented) (*Corpus, error) {
	corpus := NewCorpus(runID, b.cfg.Corpus.MaxSpeakers)
	asm := Assembler{Domain: b.cfg.Corpus.Domain, MaxRows: b.cfg.Corpus.MaxRows}

	base := 0
	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res := results[i]
		rec := &Record{
			Entry:   entry,
			ID:      entry.RecordingID(),
			Labels:  res.result.Speakers,
			Stats:   res.result.Stats,
			Skipped: res.skipped,
		}
		rec.Utterances = make([]Utterance, 0, len(res.result.Spans))
		for _, span := range res.result.Spans {
			u, err := asm.Assemble(rec, span, base+span.Ordinal)
			if err != nil {
				return nil, err
			}
			rec.Utterances = append(rec.Utterances, u)
			b.metrics.ObserveUtterance(u.Duration())
		}
		base += len(res.result.Spans)
		corpus.Stats.Add(rec.Stats)
		corpus.Records = append(corpus.Records, rec)
	}

	if err := Resolve(corpus); err != nil {
		return nil, err
	}
	b.metrics.SetSpeakers(corpus.Speakers.Len())
	return corpus, nil
}
