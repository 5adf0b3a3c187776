package segment

import (
	"log/slog"

	"speechcorpus/internal/alignment"
	"speechcorpus/internal/logging"
)

const (
	// MinSpanDuration is the length in seconds a span must reach before a
	// silence may cut it.
	MinSpanDuration = 20.0
	// MinGap is the silence in seconds, strictly exceeded, that allows a cut.
	MinGap = 0.1
	// SynthesizedPad is the half-width in seconds of the timing given to words
	// that follow a label terminator.
	SynthesizedPad = 0.1

	epsilon = 1e-9
)

// State names the scanner state.
type State int

const (
	Scanning State = iota
	InLabel
	LabelTerminated
)

func (s State) String() string {
	switch s {
	case InLabel:
		return "in_label"
	case LabelTerminated:
		return "label_terminated"
	default:
		return "scanning"
	}
}

// Options tunes a Segment call.
type Options struct {
	// FirstOrdinal is the utterance ordinal given to the first emitted span.
	FirstOrdinal int
	Logger       *slog.Logger
}

// Span is one utterance-sized run of words. StartIndex and EndIndex form a
// half-open range into Result.Words.
type Span struct {
	StartIndex     int
	EndIndex       int
	Speaker        int
	Start          float64
	End            float64
	Text           string
	NormalizedText string
	Ordinal        int
}

// Duration returns End-Start.
func (s Span) Duration() float64 {
	return s.End - s.Start
}

// Stats counts what happened to the words of one recording.
type Stats struct {
	Words           int `json:"words"`
	Aligned         int `json:"aligned"`
	NotFound        int `json:"not_found"`
	Repaired        int `json:"repaired"`
	Synthesized     int `json:"synthesized"`
	Skipped         int `json:"skipped"`
	Labels          int `json:"labels"`
	LabelsDiscarded int `json:"labels_discarded"`
	Spans           int `json:"spans"`
}

// Add accumulates other into s.
func (s *Stats) Add(other Stats) {
	s.Words += other.Words
	s.Aligned += other.Aligned
	s.NotFound += other.NotFound
	s.Repaired += other.Repaired
	s.Synthesized += other.Synthesized
	s.Skipped += other.Skipped
	s.Labels += other.Labels
	s.LabelsDiscarded += other.LabelsDiscarded
	s.Spans += other.Spans
}

// Result is the outcome of segmenting one recording.
type Result struct {
	// Words is the repaired copy of the input: label remainders carry
	// rewritten offsets and surfaces, untimed words carry inherited or
	// synthesized timing.
	Words []alignment.Word
	Spans []Span
	// Speakers holds label names; the name of local ordinal n is Speakers[n-1].
	Speakers []string
	Stats    Stats
}

// Segment splits a recording into utterance spans. The input words are not
// modified.
func Segment(view alignment.View, words []alignment.Word, opts Options) Result {
	s := newSegmenter(view, words, opts)
	for i := range s.words {
		s.step(i)
	}
	s.finish()
	return Result{
		Words:    s.words,
		Spans:    s.spans,
		Speakers: s.speakers.names,
		Stats:    s.stats,
	}
}

type segmenter struct {
	view   alignment.View
	words  []alignment.Word
	logger *slog.Logger

	// orig holds the input offsets; label splitting rewrites words.
	orig []alignment.Word

	state State
	run   labelRun
	// nested is a candidate that began on a new line after run terminated.
	nested labelRun
	open   openSpan

	speakers       speakerTable
	currentSpeaker int
	speakerChanged bool

	lastAlignedEnd float64
	seenAligned    bool

	nextOrdinal int
	spans       []Span
	stats       Stats
}

func newSegmenter(view alignment.View, words []alignment.Word, opts Options) *segmenter {
	copied := make([]alignment.Word, len(words))
	copy(copied, words)
	return &segmenter{
		view:        view,
		words:       copied,
		orig:        words,
		logger:      logging.NewComponentLogger(opts.Logger, "segment"),
		speakers:    newSpeakerTable(),
		nextOrdinal: opts.FirstOrdinal,
		stats:       Stats{Words: len(words)},
	}
}

func (s *segmenter) step(i int) {
	w := s.words[i]
	if w.Case == alignment.Aligned {
		s.stats.Aligned++
	} else {
		s.stats.NotFound++
	}

	switch s.state {
	case Scanning:
		if w.Case == alignment.NotFound && s.view.AtLineStart(w.StartOffset) {
			s.beginRun(i)
			return
		}
		s.emit(i)
	case InLabel:
		if s.terminateRun(w.StartOffset) {
			s.stepTerminated(i)
			return
		}
		if w.Case == alignment.NotFound {
			if s.view.AtLineStart(w.StartOffset) {
				s.releaseRun()
				s.beginRun(i)
				return
			}
			s.run.words = append(s.run.words, i)
			return
		}
		s.releaseRun()
		s.state = Scanning
		s.emit(i)
	case LabelTerminated:
		s.stepTerminated(i)
	}
}

// stepTerminated handles a word while a terminated label waits for the first
// aligned word. Unaligned lines in between are the label's speech unless one
// of them turns out to be a label itself.
func (s *segmenter) stepTerminated(i int) {
	w := s.words[i]
	if s.nestedPending() && s.terminate(&s.nested, w.StartOffset) {
		s.replaceRun()
	}
	if w.Case == alignment.NotFound {
		switch {
		case s.view.AtLineStart(w.StartOffset):
			s.beginNested(i)
		case s.nestedPending():
			s.nested.words = append(s.nested.words, i)
		default:
			s.run.post = append(s.run.post, i)
		}
		return
	}
	s.foldNested()
	s.resolveRun(i)
	s.state = Scanning
	s.emit(i)
}

// finish handles the sentinel position after the last word.
func (s *segmenter) finish() {
	switch s.state {
	case InLabel:
		if s.terminateRun(s.view.Len()) {
			s.discardRun("speaker label at end of transcript has no aligned speech")
		} else {
			s.skipRun()
		}
	case LabelTerminated:
		if s.nestedPending() && s.terminate(&s.nested, s.view.Len()) {
			s.replaceRun()
		}
		s.foldNested()
		s.discardRun("speaker label at end of transcript has no aligned speech")
	}
	s.state = Scanning
	s.closeSpan()
}

// emit feeds one ordinary word to the span builder.
func (s *segmenter) emit(i int) {
	w := &s.words[i]
	if !w.HasTiming {
		if !s.seenAligned {
			s.stats.Skipped++
			s.logger.Debug("word skipped without timing",
				logging.Int("word_index", i),
				logging.String("word", w.Word),
			)
			return
		}
		w.Start = s.lastAlignedEnd
		w.End = s.lastAlignedEnd
		w.HasTiming = true
		s.stats.Repaired++
	}

	if s.startsSpan(*w) {
		s.closeSpan()
		s.open = openSpan{active: true, first: i, last: i, start: w.Start, end: w.End, speaker: s.currentSpeaker}
	} else {
		s.open.last = i
		if w.End > s.open.end {
			s.open.end = w.End
		}
	}
	s.speakerChanged = false

	if w.Case == alignment.Aligned {
		s.lastAlignedEnd = w.End
		s.seenAligned = true
	}
}

func (s *segmenter) startsSpan(w alignment.Word) bool {
	if !s.open.active || s.speakerChanged {
		return true
	}
	longEnough := w.End-s.open.start >= MinSpanDuration-epsilon
	silence := s.seenAligned && w.Start-s.lastAlignedEnd > MinGap+epsilon
	return longEnough && silence
}
