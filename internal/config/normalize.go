package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCorpus()
	c.normalizeFetch()
	c.normalizeTranscode()
	if err := c.normalizeLexicon(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.AlignmentDir, err = expandPath(strings.TrimSpace(c.Paths.AlignmentDir)); err != nil {
		return fmt.Errorf("paths.alignment_dir: %w", err)
	}
	if c.Paths.MediaDir, err = expandPath(strings.TrimSpace(c.Paths.MediaDir)); err != nil {
		return fmt.Errorf("paths.media_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(strings.TrimSpace(c.Paths.OutputDir)); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StorePath) == "" && c.Paths.OutputDir != "" {
		c.Paths.StorePath = filepath.Join(c.Paths.OutputDir, defaultStoreFile)
	}
	if c.Paths.StorePath, err = expandPath(strings.TrimSpace(c.Paths.StorePath)); err != nil {
		return fmt.Errorf("paths.store_path: %w", err)
	}
	if strings.TrimSpace(c.Paths.MetricsFile) == "" && c.Paths.OutputDir != "" {
		c.Paths.MetricsFile = filepath.Join(c.Paths.OutputDir, defaultMetricsFile)
	}
	if c.Paths.MetricsFile, err = expandPath(strings.TrimSpace(c.Paths.MetricsFile)); err != nil {
		return fmt.Errorf("paths.metrics_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeCorpus() {
	c.Corpus.Domain = strings.TrimSpace(c.Corpus.Domain)
	if c.Corpus.Domain == "" {
		c.Corpus.Domain = defaultDomain
	}
	c.Corpus.Manifest = strings.TrimSpace(c.Corpus.Manifest)
	if c.Corpus.Manifest != "" {
		if expanded, err := expandPath(c.Corpus.Manifest); err == nil {
			c.Corpus.Manifest = expanded
		}
	}
	if c.Corpus.Workers <= 0 {
		c.Corpus.Workers = runtime.NumCPU()
	}
	c.Corpus.AudioExt = strings.TrimSpace(c.Corpus.AudioExt)
	if c.Corpus.AudioExt == "" {
		c.Corpus.AudioExt = defaultAudioExt
	}
	if !strings.HasPrefix(c.Corpus.AudioExt, ".") {
		c.Corpus.AudioExt = "." + c.Corpus.AudioExt
	}
}

func (c *Config) normalizeFetch() {
	c.Fetch.UserAgent = strings.TrimSpace(c.Fetch.UserAgent)
	if c.Fetch.UserAgent == "" {
		c.Fetch.UserAgent = defaultFetchUserAgent
	}
	c.Fetch.Username = strings.TrimSpace(c.Fetch.Username)
	if c.Fetch.Username == "" {
		if value, ok := os.LookupEnv("SPEECHCORPUS_FETCH_USER"); ok {
			c.Fetch.Username = strings.TrimSpace(value)
		}
	}
	if c.Fetch.Password == "" {
		if value, ok := os.LookupEnv("SPEECHCORPUS_FETCH_PASSWORD"); ok {
			c.Fetch.Password = value
		}
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		c.Fetch.TimeoutSeconds = defaultFetchTimeout
	}
	if c.Fetch.RetryCount < 0 {
		c.Fetch.RetryCount = 0
	}
	c.Fetch.YtDlpBinary = strings.TrimSpace(c.Fetch.YtDlpBinary)
	if c.Fetch.YtDlpBinary == "" {
		c.Fetch.YtDlpBinary = defaultYtDlpBinary
	}
}

func (c *Config) normalizeTranscode() {
	c.Transcode.FFmpegBinary = strings.TrimSpace(c.Transcode.FFmpegBinary)
	if c.Transcode.FFmpegBinary == "" {
		c.Transcode.FFmpegBinary = defaultFFmpegBinary
	}
	c.Transcode.FFprobeBinary = strings.TrimSpace(c.Transcode.FFprobeBinary)
	if c.Transcode.FFprobeBinary == "" {
		c.Transcode.FFprobeBinary = defaultFFprobeBinary
	}
}

func (c *Config) normalizeLexicon() error {
	c.Lexicon.PhonetisaurusBinary = strings.TrimSpace(c.Lexicon.PhonetisaurusBinary)
	if c.Lexicon.PhonetisaurusBinary == "" {
		c.Lexicon.PhonetisaurusBinary = defaultPhonetisaurus
	}
	var err error
	if c.Lexicon.ModelPath, err = expandPath(strings.TrimSpace(c.Lexicon.ModelPath)); err != nil {
		return fmt.Errorf("lexicon.model_path: %w", err)
	}
	if c.Lexicon.LexiconPath, err = expandPath(strings.TrimSpace(c.Lexicon.LexiconPath)); err != nil {
		return fmt.Errorf("lexicon.lexicon_path: %w", err)
	}
	if c.Lexicon.NBest <= 0 {
		c.Lexicon.NBest = defaultG2PNBest
	}
	return nil
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if format == "" {
		format = defaultLogFormat
	}
	c.Logging.Format = format

	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
