package segment

import (
	"math"
	"strings"
	"unicode"

	"speechcorpus/internal/alignment"
	"speechcorpus/internal/logging"
)

// labelRun is a NOT_FOUND run that began at the start of a line.
type labelRun struct {
	// startOffset is where the candidate label text begins.
	startOffset int
	// scanned is the offset up to which no terminator was found.
	scanned int
	// words holds the run before its terminator is known.
	words []int
	// name and post are set once the terminator is found: post holds the
	// words after the terminator, including a split remainder.
	name string
	post []int
}

func (s *segmenter) beginRun(i int) {
	start := s.words[i].StartOffset
	s.run = labelRun{startOffset: start, scanned: start, words: []int{i}}
	s.state = InLabel
}

// terminateRun looks for a terminator in the candidate text that ends at
// limit. On success the state moves to LabelTerminated.
func (s *segmenter) terminateRun(limit int) bool {
	if !s.terminate(&s.run, limit) {
		return false
	}
	s.state = LabelTerminated
	return true
}

// terminate splits run's words into label and post-terminator content once a
// terminator appears in the text before limit.
func (s *segmenter) terminate(run *labelRun, limit int) bool {
	name, termEnd, ok := findTerminator(s.view, run.startOffset, run.scanned, limit)
	if !ok {
		// A "=" at the edge may pair with the next rune.
		if limit-1 > run.scanned {
			run.scanned = limit - 1
		}
		return false
	}
	run.name = name
	for _, idx := range run.words {
		w := &s.words[idx]
		if w.EndOffset <= termEnd {
			continue
		}
		if w.StartOffset < termEnd {
			start := skipSpace(s.view, termEnd, w.EndOffset)
			remainder := s.view.Slice(start, w.EndOffset)
			if !hasWordRune(remainder) {
				continue
			}
			w.StartOffset = start
			w.Word = remainder
		}
		run.post = append(run.post, idx)
	}
	run.words = nil
	return true
}

// beginNested opens a candidate on a new line while a terminated label is
// still waiting for aligned speech. An earlier nested candidate that never
// terminated becomes part of that speech.
func (s *segmenter) beginNested(i int) {
	s.foldNested()
	start := s.words[i].StartOffset
	s.nested = labelRun{startOffset: start, scanned: start, words: []int{i}}
}

func (s *segmenter) nestedPending() bool {
	return len(s.nested.words) > 0
}

// foldNested hands the words of an unterminated nested candidate to the
// pending label.
func (s *segmenter) foldNested() {
	s.run.post = append(s.run.post, s.nested.words...)
	s.nested = labelRun{}
}

// replaceRun discards the pending label in favour of a nested candidate that
// reached its own terminator.
func (s *segmenter) replaceRun() {
	s.discardRun("speaker label has no aligned speech before the next label")
	s.run = s.nested
	s.nested = labelRun{}
}

// resolveRun registers the label and anchors post-terminator words to the
// aligned word at anchor, which starts the speaker's first utterance.
func (s *segmenter) resolveRun(anchor int) {
	ordinal := s.speakers.register(s.run.name)
	s.currentSpeaker = ordinal
	s.speakerChanged = true
	s.stats.Labels++
	s.logger.Debug("speaker label resolved",
		logging.String("speaker_label", s.run.name),
		logging.Int("speaker_ordinal", ordinal),
		logging.Int("word_index", anchor),
	)

	t := s.words[anchor]
	start := math.Max(t.Start-SynthesizedPad, 0)
	if s.seenAligned && start < s.lastAlignedEnd {
		start = s.lastAlignedEnd
	}
	end := math.Min(t.Start+SynthesizedPad, t.End)
	if end < start {
		end = start
	}
	post := s.run.post
	s.run = labelRun{}
	for _, idx := range post {
		w := &s.words[idx]
		w.Start = start
		w.End = end
		w.HasTiming = true
		s.stats.Synthesized++
		s.emit(idx)
	}
}

// releaseRun hands an unterminated run back as ordinary words.
func (s *segmenter) releaseRun() {
	words := s.run.words
	s.run = labelRun{}
	for _, idx := range words {
		s.emit(idx)
	}
}

// skipRun drops an unterminated run that no aligned word follows.
func (s *segmenter) skipRun() {
	s.stats.Skipped += len(s.run.words)
	s.run = labelRun{}
}

// discardRun drops a terminated label whose speech never aligned.
func (s *segmenter) discardRun(reason string) {
	s.stats.LabelsDiscarded++
	s.stats.Skipped += len(s.run.post)
	logging.WarnWithContext(s.logger, "speaker label discarded", "label_discarded",
		logging.String("speaker_label", s.run.name),
		logging.Int("words_dropped", len(s.run.post)),
		logging.String("reason", reason),
		logging.String(logging.FieldImpact, "label and its unaligned text are left out of the corpus"),
	)
	s.run = labelRun{}
}

// findTerminator scans [scan, to) for the earliest ":" or "==" that follows
// a non-empty name starting at from. It returns the cleaned name and the
// offset just past the terminator.
func findTerminator(view alignment.View, from, scan, to int) (string, int, bool) {
	for i := scan; i < to; i++ {
		var end int
		switch {
		case view.Rune(i) == ':':
			end = i + 1
		case view.Rune(i) == '=' && i+1 < to && view.Rune(i+1) == '=':
			end = i + 2
			for end < to && view.Rune(end) == '=' {
				end++
			}
		default:
			continue
		}
		name := cleanName(view.Slice(from, i))
		if name == "" {
			i = end - 1
			continue
		}
		return name, end, true
	}
	return "", 0, false
}

func cleanName(raw string) string {
	trimmed := strings.TrimFunc(raw, func(r rune) bool {
		return unicode.IsSpace(r) || r == '='
	})
	return strings.Join(strings.Fields(trimmed), " ")
}

func skipSpace(view alignment.View, from, to int) int {
	for from < to && unicode.IsSpace(view.Rune(from)) {
		from++
	}
	return from
}

func hasWordRune(text string) bool {
	return strings.IndexFunc(text, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	}) >= 0
}

// speakerTable assigns 1-based ordinals to label names in first-seen order.
type speakerTable struct {
	ordinals map[string]int
	names    []string
}

func newSpeakerTable() speakerTable {
	return speakerTable{ordinals: make(map[string]int)}
}

func (t *speakerTable) register(name string) int {
	if ordinal, ok := t.ordinals[name]; ok {
		return ordinal
	}
	t.names = append(t.names, name)
	ordinal := len(t.names)
	t.ordinals[name] = ordinal
	return ordinal
}
