package testsupport

import (
	"encoding/json"
	"strings"
	"testing"
	"unicode"

	"speechcorpus/internal/alignment"
)

// Token is the alignment outcome of one whitespace-separated transcript token.
type Token struct {
	Start   float64
	End     float64
	Missing bool
}

// At marks a token as aligned to [start, end].
func At(start, end float64) Token {
	return Token{Start: start, End: end}
}

// Missing marks a token as not found in the audio.
func Missing() Token {
	return Token{Missing: true}
}

// BuildAlignment produces a document for transcript whose words are the
// whitespace-separated tokens, with surrounding punctuation excluded from
// each word's offsets. One Token must be given per transcript token.
func BuildAlignment(t testing.TB, transcript string, tokens ...Token) alignment.Document {
	t.Helper()

	runes := []rune(transcript)
	var words []alignment.Word
	i := 0
	for i < len(runes) {
		if unicode.IsSpace(runes[i]) {
			i++
			continue
		}
		start := i
		for i < len(runes) && !unicode.IsSpace(runes[i]) {
			i++
		}
		end := i
		for start < end && isEdgePunct(runes[start]) {
			start++
		}
		for end > start && isEdgePunct(runes[end-1]) {
			end--
		}
		if start == end {
			continue
		}
		if len(words) >= len(tokens) {
			t.Fatalf("transcript %q has more words than the %d tokens given", transcript, len(tokens))
		}
		tok := tokens[len(words)]
		surface := string(runes[start:end])
		w := alignment.Word{
			StartOffset: start,
			EndOffset:   end,
			Word:        surface,
			Case:        alignment.NotFound,
		}
		if !tok.Missing {
			w.Case = alignment.Aligned
			w.Start = tok.Start
			w.End = tok.End
			w.HasTiming = true
			w.AlignedWord = strings.ToLower(surface)
		}
		words = append(words, w)
	}
	if len(words) != len(tokens) {
		t.Fatalf("transcript %q has %d words, %d tokens given", transcript, len(words), len(tokens))
	}
	return alignment.Document{Transcript: transcript, Words: words}
}

func isEdgePunct(r rune) bool {
	return unicode.IsPunct(r) || r == '='
}

// WriteAlignment stores doc as JSON at path.
func WriteAlignment(t testing.TB, path string, doc alignment.Document) {
	t.Helper()

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal alignment: %v", err)
	}
	WriteText(t, path, string(data))
}
