package corpus

import (
	"speechcorpus/internal/segment"
	"speechcorpus/internal/speakers"
)

// Record is one recording and the utterances cut from it.
type Record struct {
	Entry      Entry
	ID         string
	Utterances []Utterance
	// Labels holds speaker label names; local ordinal n is Labels[n-1].
	Labels []string
	Stats  segment.Stats
	// Skipped is set when the recording had no alignment document.
	Skipped bool
}

// Label returns the label name of a local ordinal, or "" for unlabelled speech.
func (r *Record) Label(local int) string {
	if local <= 0 || local > len(r.Labels) {
		return ""
	}
	return r.Labels[local-1]
}

// Corpus is the result of one build. It owns the global speaker table.
type Corpus struct {
	RunID    string
	Records  []*Record
	Speakers *speakers.Registry
	Stats    segment.Stats
}

// NewCorpus returns an empty corpus whose speaker table holds at most
// maxSpeakers ids.
func NewCorpus(runID string, maxSpeakers int) *Corpus {
	return &Corpus{RunID: runID, Speakers: speakers.NewRegistry(maxSpeakers)}
}

// Utterances flattens all records in order.
func (c *Corpus) Utterances() []Utterance {
	total := 0
	for _, rec := range c.Records {
		total += len(rec.Utterances)
	}
	out := make([]Utterance, 0, total)
	for _, rec := range c.Records {
		out = append(out, rec.Utterances...)
	}
	return out
}

// Len returns the number of utterances across all records.
func (c *Corpus) Len() int {
	total := 0
	for _, rec := range c.Records {
		total += len(rec.Utterances)
	}
	return total
}
