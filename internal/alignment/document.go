package alignment

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"speechcorpus/internal/services"
)

// Document is one recording's transcript plus its word alignment, in the
// layout written by the gentle aligner.
type Document struct {
	Transcript string `json:"transcript"`
	Words      []Word `json:"words"`
}

// Load reads and validates an alignment document from disk. A missing file
// is reported as services.ErrNotFound, malformed content as
// services.ErrValidation.
func Load(path string) (*Document, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "alignment", "open", path, err)
		}
		return nil, services.Wrap(services.ErrConfiguration, "alignment", "open", path, err)
	}
	defer file.Close()

	doc, err := Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Decode parses and validates an alignment document.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, services.Wrap(services.ErrValidation, "alignment", "decode", "", err)
	}
	for i := range doc.Words {
		doc.Words[i].HasTiming = doc.Words[i].Case == Aligned
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks that word offsets lie inside the transcript, are ordered
// and do not overlap, and that aligned words have end >= start.
func (d *Document) Validate() error {
	length := NewView(d.Transcript).Len()
	prevEnd := 0
	for i, w := range d.Words {
		switch {
		case w.StartOffset < 0 || w.EndOffset < w.StartOffset:
			return invalidWord(i, "offsets [%d, %d) are not a range", w.StartOffset, w.EndOffset)
		case w.EndOffset > length:
			return invalidWord(i, "end offset %d exceeds transcript length %d", w.EndOffset, length)
		case w.StartOffset < prevEnd:
			return invalidWord(i, "start offset %d overlaps previous word ending at %d", w.StartOffset, prevEnd)
		case w.Case == Aligned && (w.End < w.Start || w.Start < 0):
			return invalidWord(i, "timing %.2f-%.2f is not a range", w.Start, w.End)
		}
		prevEnd = w.EndOffset
	}
	return nil
}

// View returns a code-point view over the transcript.
func (d *Document) View() View {
	return NewView(d.Transcript)
}

func invalidWord(index int, format string, args ...any) error {
	return services.Wrap(services.ErrValidation, "alignment", "validate", fmt.Sprintf("word %d: "+format, append([]any{index}, args...)...), nil)
}
