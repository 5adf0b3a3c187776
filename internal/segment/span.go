package segment

import "strings"

// openSpan is the side table for the span under construction.
type openSpan struct {
	active  bool
	first   int
	last    int
	start   float64
	end     float64
	speaker int
}

// closeSpan emits the open span, if any. Every span has a start time: emit
// never opens one on a word without timing.
func (s *segmenter) closeSpan() {
	if !s.open.active {
		return
	}
	open := s.open
	s.open = openSpan{}

	end := open.end
	if end < open.start {
		end = open.start
	}
	span := Span{
		StartIndex:     open.first,
		EndIndex:       open.last + 1,
		Speaker:        open.speaker,
		Start:          open.start,
		End:            end,
		Text:           s.spanText(open.first, open.last),
		NormalizedText: s.normalizedText(open.first, open.last),
		Ordinal:        s.nextOrdinal,
	}
	s.nextOrdinal++
	s.stats.Spans++
	s.spans = append(s.spans, span)
}

// spanText rebuilds the transcript text of words first..last. Each word
// contributes the text up to the next word's original start, so punctuation
// and unaligned stretches stay while a following label does not; a line break
// at a word boundary becomes a space.
func (s *segmenter) spanText(first, last int) string {
	var b strings.Builder
	for i := first; i <= last; i++ {
		end := s.view.Len()
		if i+1 < len(s.words) {
			end = s.orig[i+1].StartOffset
		}
		piece := s.view.Slice(s.words[i].StartOffset, end)
		if trimmed := strings.TrimRight(piece, " \t\r\n"); trimmed != piece && strings.ContainsAny(piece[len(trimmed):], "\r\n") {
			piece = trimmed + " "
		}
		b.WriteString(piece)
	}
	return strings.TrimRightFunc(b.String(), isTrailingSpace)
}

// normalizedText joins the word tokens of first..last with single spaces.
func (s *segmenter) normalizedText(first, last int) string {
	tokens := make([]string, 0, last-first+1)
	for i := first; i <= last; i++ {
		w := s.words[i]
		tokens = append(tokens, strings.Fields(s.view.Slice(w.StartOffset, w.EndOffset))...)
	}
	return strings.Join(tokens, " ")
}

func isTrailingSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r' || r == '\n'
}
