package corpus

import (
	"fmt"
	"math"

	"speechcorpus/internal/speakers"
)

// MaxRows is the number of utterance ordinals the seven-digit format holds.
const MaxRows = 10000000

// Utterance is one emitted dataset row.
type Utterance struct {
	ID             string  `json:"id"`
	RecordingID    string  `json:"recording_id"`
	UtteranceID    string  `json:"utterance_id"`
	SpeakerID      string  `json:"speaker_id"`
	Text           string  `json:"text"`
	NormalizedText string  `json:"normalized_text"`
	Start          float64 `json:"start"`
	End            float64 `json:"end"`
	Domain         string  `json:"domain"`
	Source         string  `json:"source"`
	ProvenanceURL  string  `json:"provenance_url,omitempty"`
	RecordingPath  string  `json:"recording_path,omitempty"`
	SpeakerLabel   string  `json:"speaker_label,omitempty"`

	// Globalized is set once SpeakerID holds a corpus-global id.
	Globalized bool `json:"-"`
	// Local is the per-recording speaker ordinal the utterance was built with.
	Local int `json:"-"`
}

// UtteranceID formats a zero-based utterance ordinal.
func UtteranceID(ordinal int) string {
	return fmt.Sprintf("U%07d", ordinal)
}

// FormatID renders the derived utterance id.
func FormatID(speakerID, recordingID, utteranceID string, start, end float64) string {
	return fmt.Sprintf("%s-%s-%s-%07d-%07d", speakerID, recordingID, utteranceID, centiseconds(start), centiseconds(end))
}

func centiseconds(seconds float64) int64 {
	return int64(math.Round(seconds * 100))
}

// Recompute refreshes ID from the current constituents.
func (u *Utterance) Recompute() {
	u.ID = FormatID(u.SpeakerID, u.RecordingID, u.UtteranceID, u.Start, u.End)
}

// Duration returns End-Start in seconds.
func (u Utterance) Duration() float64 {
	return u.End - u.Start
}

// MarkDecoded restores the bookkeeping fields that are not serialized. It is
// called on utterances read back from JSONL or the store.
func (u *Utterance) MarkDecoded() {
	if speakers.IsGlobal(u.SpeakerID) {
		u.Globalized = true
		return
	}
	if local, ok := speakers.ParseLocal(u.SpeakerID); ok {
		u.Local = local
	}
}
