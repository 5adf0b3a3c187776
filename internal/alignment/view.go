package alignment

import "unicode"

// View is a read-only, code-point indexed window over a transcript.
type View struct {
	runes []rune
}

// NewView indexes the transcript by code point.
func NewView(transcript string) View {
	return View{runes: []rune(transcript)}
}

// Len returns the transcript length in code points.
func (v View) Len() int {
	return len(v.runes)
}

// Rune returns the code point at i.
func (v View) Rune(i int) rune {
	return v.runes[i]
}

// Slice returns the text in [start, end), clamped to the transcript bounds.
func (v View) Slice(start, end int) string {
	start = v.clamp(start)
	end = v.clamp(end)
	if end <= start {
		return ""
	}
	return string(v.runes[start:end])
}

// AtLineStart reports whether only whitespace separates offset from the
// previous newline or from the beginning of the transcript.
func (v View) AtLineStart(offset int) bool {
	for i := v.clamp(offset) - 1; i >= 0; i-- {
		switch r := v.runes[i]; {
		case r == '\n' || r == '\r':
			return true
		case unicode.IsSpace(r):
			continue
		default:
			return false
		}
	}
	return true
}

// Index returns the code-point offset of the first occurrence of sub in
// [from, to), or -1.
func (v View) Index(sub string, from, to int) int {
	needle := []rune(sub)
	from = v.clamp(from)
	to = v.clamp(to)
	if len(needle) == 0 {
		return from
	}
	for i := from; i+len(needle) <= to; i++ {
		match := true
		for j, r := range needle {
			if v.runes[i+j] != r {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// String returns the full transcript.
func (v View) String() string {
	return string(v.runes)
}

func (v View) clamp(i int) int {
	if i < 0 {
		return 0
	}
	if i > len(v.runes) {
		return len(v.runes)
	}
	return i
}
