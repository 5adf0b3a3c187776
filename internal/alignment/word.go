package alignment

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Case reports whether audio timing was established for a word.
type Case int

const (
	// NotFound words have no audio timing from the aligner.
	NotFound Case = iota
	// Aligned words carry start and end times.
	Aligned
)

const (
	caseSuccess  = "success"
	caseNotFound = "not-found-in-audio"
)

func (c Case) String() string {
	if c == Aligned {
		return caseSuccess
	}
	return caseNotFound
}

// MarshalJSON renders the aligner's wire names.
func (c Case) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON accepts the aligner's wire names. Any case other than
// "success" has no usable timing and decodes as NotFound.
func (c *Case) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("alignment case: %w", err)
	}
	if strings.TrimSpace(raw) == caseSuccess {
		*c = Aligned
	} else {
		*c = NotFound
	}
	return nil
}

// Word is one token of the alignment. StartOffset and EndOffset form a
// half-open code-point range into the transcript.
type Word struct {
	StartOffset int     `json:"startOffset"`
	EndOffset   int     `json:"endOffset"`
	Case        Case    `json:"case"`
	Start       float64 `json:"start,omitempty"`
	End         float64 `json:"end,omitempty"`
	Word        string  `json:"word"`
	AlignedWord string  `json:"alignedWord,omitempty"`
	// HasTiming is true for aligned words and for words whose timing was
	// synthesized during segmentation.
	HasTiming bool `json:"-"`
}

// Duration returns End-Start for timed words and zero otherwise.
func (w Word) Duration() float64 {
	if !w.HasTiming {
		return 0
	}
	return w.End - w.Start
}
