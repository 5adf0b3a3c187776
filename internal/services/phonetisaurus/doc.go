// Package phonetisaurus generates pronunciations for out-of-lexicon words by
// running `phonetisaurus predict` over a batch of words fed on stdin.
package phonetisaurus
