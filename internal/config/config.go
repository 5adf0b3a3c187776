package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains input and output locations.
type Paths struct {
	AlignmentDir string `toml:"alignment_dir"`
	MediaDir     string `toml:"media_dir"`
	OutputDir    string `toml:"output_dir"`
	LogDir       string `toml:"log_dir"`
	StorePath    string `toml:"store_path"`
	MetricsFile  string `toml:"metrics_file"`
}

// Corpus contains settings that shape the emitted dataset.
type Corpus struct {
	// Domain is copied onto every utterance (e.g. "news").
	Domain string `toml:"domain"`
	// Manifest points at the index.json listing recordings in discovery order.
	Manifest string `toml:"manifest"`
	// Workers bounds parallel segmentation. Zero means one per CPU.
	Workers     int    `toml:"workers"`
	AudioExt    string `toml:"audio_ext"`
	MaxSpeakers int    `toml:"max_speakers"`
	MaxRows     int    `toml:"max_rows"`
}

// Fetch contains settings for downloading source media.
type Fetch struct {
	UserAgent      string `toml:"user_agent"`
	Username       string `toml:"username"`
	Password       string `toml:"password"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	RetryCount     int    `toml:"retry_count"`
	YtDlpBinary    string `toml:"ytdlp_binary"`
}

// Transcode contains settings for audio conversion.
type Transcode struct {
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
	SampleRate    int    `toml:"sample_rate"`
	Channels      int    `toml:"channels"`
}

// Lexicon contains settings for pronunciation generation.
type Lexicon struct {
	Enabled             bool   `toml:"enabled"`
	PhonetisaurusBinary string `toml:"phonetisaurus_binary"`
	ModelPath           string `toml:"model_path"`
	LexiconPath         string `toml:"lexicon_path"`
	NBest               int    `toml:"nbest"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	MaxSizeMB     int    `toml:"max_size_mb"`
	MaxBackups    int    `toml:"max_backups"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for speechcorpus.
//
// Configuration sections by subsystem:
//   - Paths: alignment input, media, output, logs, store and metrics files
//   - Corpus: dataset domain, manifest, worker count and hard limits
//   - Fetch: HTTP and yt-dlp download settings
//   - Transcode: ffmpeg/ffprobe binaries and the target PCM format
//   - Lexicon: phonetisaurus pronunciation generation
//   - Logging: log format, level, and rotation
type Config struct {
	Paths     Paths     `toml:"paths"`
	Corpus    Corpus    `toml:"corpus"`
	Fetch     Fetch     `toml:"fetch"`
	Transcode Transcode `toml:"transcode"`
	Lexicon   Lexicon   `toml:"lexicon"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/speechcorpus/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("speechcorpus.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a build writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.LogDir, c.Paths.MediaDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SetOutputDir moves the output directory. Store and metrics files that
// lived inside the old directory move with it.
func (c *Config) SetOutputDir(dir string) error {
	expanded, err := expandPath(strings.TrimSpace(dir))
	if err != nil {
		return err
	}
	if expanded == "" {
		return errors.New("paths.output_dir must be set")
	}
	for _, p := range []*string{&c.Paths.StorePath, &c.Paths.MetricsFile} {
		if *p == "" || c.Paths.OutputDir == "" {
			continue
		}
		rel, err := filepath.Rel(c.Paths.OutputDir, *p)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		*p = filepath.Join(expanded, rel)
	}
	c.Paths.OutputDir = expanded
	if err := os.MkdirAll(expanded, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", expanded, err)
	}
	return nil
}

// AlignmentPath returns the alignment document location for a recording.
func (c *Config) AlignmentPath(recordingID string) string {
	return filepath.Join(c.Paths.AlignmentDir, recordingID+".json")
}

// RecordingPath returns the transcoded audio location for a recording.
func (c *Config) RecordingPath(recordingID string) string {
	return filepath.Join(c.Paths.MediaDir, recordingID+c.Corpus.AudioExt)
}

// UtterancesPath returns the JSONL output file of a build.
func (c *Config) UtterancesPath() string {
	return filepath.Join(c.Paths.OutputDir, "utterances.jsonl")
}

// SpeakersPath returns the speaker table written next to the utterances.
func (c *Config) SpeakersPath() string {
	return filepath.Join(c.Paths.OutputDir, "speakers.tsv")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
