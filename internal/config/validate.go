package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateCorpus(); err != nil {
		return err
	}
	if err := c.validateTranscode(); err != nil {
		return err
	}
	if err := c.validateLexicon(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.AlignmentDir) == "" {
		return errors.New("paths.alignment_dir must be set")
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	return nil
}

func (c *Config) validateCorpus() error {
	if c.Corpus.MaxSpeakers <= 0 || c.Corpus.MaxSpeakers > defaultMaxSpeakers {
		return fmt.Errorf("corpus.max_speakers must be between 1 and %d", defaultMaxSpeakers)
	}
	if c.Corpus.MaxRows <= 0 || c.Corpus.MaxRows > defaultMaxRows {
		return fmt.Errorf("corpus.max_rows must be between 1 and %d", defaultMaxRows)
	}
	if strings.ContainsAny(c.Corpus.Domain, " \t\n") {
		return fmt.Errorf("corpus.domain %q must not contain whitespace", c.Corpus.Domain)
	}
	return nil
}

func (c *Config) validateTranscode() error {
	if c.Transcode.SampleRate <= 0 {
		return errors.New("transcode.sample_rate must be positive")
	}
	if c.Transcode.Channels <= 0 {
		return errors.New("transcode.channels must be positive")
	}
	return nil
}

func (c *Config) validateLexicon() error {
	if !c.Lexicon.Enabled {
		return nil
	}
	if c.Lexicon.ModelPath == "" {
		return errors.New("lexicon.model_path must be set when lexicon.enabled is true")
	}
	if c.Lexicon.LexiconPath == "" {
		return errors.New("lexicon.lexicon_path must be set when lexicon.enabled is true")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
