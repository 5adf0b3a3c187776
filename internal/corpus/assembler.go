package corpus

import (
	"fmt"

	"speechcorpus/internal/segment"
	"speechcorpus/internal/services"
	"speechcorpus/internal/speakers"
)

// Assembler builds utterances from spans. It holds only run-wide constants
// and is safe for concurrent use.
type Assembler struct {
	Domain string
	// MaxRows caps utterance ordinals; zero means MaxRows.
	MaxRows int
}

// Assemble builds the utterance for span. The speaker id is the local id of
// the span's speaker until Resolve globalizes it.
func (a Assembler) Assemble(rec *Record, span segment.Span, ordinal int) (Utterance, error) {
	limit := a.MaxRows
	if limit <= 0 || limit > MaxRows {
		limit = MaxRows
	}
	if ordinal < 0 || ordinal >= limit {
		return Utterance{}, services.Wrap(services.ErrLimitExceeded, "assemble", "utterance",
			fmt.Sprintf("utterance ordinal %d exceeds the %d row limit (recording %s)", ordinal, limit, rec.ID), nil)
	}
	u := Utterance{
		RecordingID:    rec.ID,
		UtteranceID:    UtteranceID(ordinal),
		SpeakerID:      speakers.LocalID(span.Speaker),
		Text:           span.Text,
		NormalizedText: span.NormalizedText,
		Start:          span.Start,
		End:            span.End,
		Domain:         a.Domain,
		Source:         rec.Entry.ID,
		ProvenanceURL:  ProvenanceURL(rec.Entry.MediaURL(), span.Start, span.End),
		RecordingPath:  rec.Entry.RecordingPath,
		SpeakerLabel:   rec.Label(span.Speaker),
		Local:          span.Speaker,
	}
	u.Recompute()
	return u, nil
}

// Resolve replaces local speaker ids with global ones, walking records and
// their utterances in order. Utterances already globalized are left alone so
// a second call is a no-op.
func Resolve(c *Corpus) error {
	for _, rec := range c.Records {
		for i := range rec.Utterances {
			u := &rec.Utterances[i]
			if u.Globalized {
				continue
			}
			id, err := c.Speakers.Resolve(rec.ID, u.Local, rec.Label(u.Local))
			if err != nil {
				return err
			}
			u.SpeakerID = id
			u.Globalized = true
			u.Recompute()
		}
	}
	return nil
}
