// Package export writes a corpus to line-oriented files: JSON Lines for the
// utterance records and a Kaldi data directory for training.
package export
