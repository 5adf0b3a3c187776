package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"speechcorpus/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.AlignmentDir = filepath.Join(base, "align")
	cfgVal.Paths.MediaDir = filepath.Join(base, "media")
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.StorePath = filepath.Join(base, "output", "corpus.db")
	cfgVal.Paths.MetricsFile = filepath.Join(base, "output", "metrics.prom")
	cfgVal.Corpus.Manifest = filepath.Join(base, "index.json")
	cfgVal.Corpus.Workers = 2

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithWorkers sets the segmentation worker count.
func WithWorkers(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Corpus.Workers = n
	}
}

// WithDomain sets the corpus domain.
func WithDomain(domain string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Corpus.Domain = domain
	}
}

// WithLimits sets the speaker and row limits.
func WithLimits(maxSpeakers, maxRows int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Corpus.MaxSpeakers = maxSpeakers
		b.cfg.Corpus.MaxRows = maxRows
	}
}

// WithLexicon enables pronunciation generation with model files under the
// test directory.
func WithLexicon() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Lexicon.Enabled = true
		b.cfg.Lexicon.ModelPath = filepath.Join(b.baseDir, "dict", "g2p.fst")
		b.cfg.Lexicon.LexiconPath = filepath.Join(b.baseDir, "dict", "lexicon.vcb")
	}
}

// WithStubbedBinaries points every external tool at a no-op script under the
// test directory so dependency checks pass without the real binaries.
func WithStubbedBinaries() ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		stub := func(name string) string {
			path := filepath.Join(binDir, name)
			if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
			return path
		}
		b.cfg.Transcode.FFmpegBinary = stub("ffmpeg")
		b.cfg.Transcode.FFprobeBinary = stub("ffprobe")
		b.cfg.Fetch.YtDlpBinary = stub("yt-dlp")
		b.cfg.Lexicon.PhonetisaurusBinary = stub("phonetisaurus")
	}
}

// BaseDir returns the temp directory backing the config's paths.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.OutputDir)
}
