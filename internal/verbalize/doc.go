// Package verbalize turns utterance text into vocabulary tokens for the
// Kaldi export: lowercase, punctuation and accents stripped, apostrophes
// unified, and any token outside the Cyrillic alphabet replaced by <unk>.
package verbalize
