package segment_test

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"testing"

	"speechcorpus/internal/alignment"
	"speechcorpus/internal/segment"
)

type tok struct {
	text       string
	aligned    bool
	start, end float64
}

func nf(text string) tok { return tok{text: text} }

func al(text string, start, end float64) tok {
	return tok{text: text, aligned: true, start: start, end: end}
}

// words locates each token in the transcript, in order, and returns the
// matching alignment entries with code-point offsets.
func words(t *testing.T, transcript string, toks ...tok) (alignment.View, []alignment.Word) {
	t.Helper()
	view := alignment.NewView(transcript)
	out := make([]alignment.Word, 0, len(toks))
	cursor := 0
	for _, tk := range toks {
		at := view.Index(tk.text, cursor, view.Len())
		if at < 0 {
			t.Fatalf("token %q not found after offset %d", tk.text, cursor)
		}
		end := at + len([]rune(tk.text))
		w := alignment.Word{StartOffset: at, EndOffset: end, Word: tk.text, Case: alignment.NotFound}
		if tk.aligned {
			w.Case = alignment.Aligned
			w.Start = tk.start
			w.End = tk.end
			w.HasTiming = true
		}
		out = append(out, w)
		cursor = end
	}
	return view, out
}

func requireSpans(t *testing.T, res segment.Result, want int) {
	t.Helper()
	if len(res.Spans) != want {
		t.Fatalf("expected %d spans, got %d: %+v", want, len(res.Spans), res.Spans)
	}
}

func requireSpan(t *testing.T, span segment.Span, speaker int, text string, start, end float64) {
	t.Helper()
	if span.Speaker != speaker {
		t.Fatalf("speaker = %d, want %d (%+v)", span.Speaker, speaker, span)
	}
	if span.Text != text {
		t.Fatalf("text = %q, want %q", span.Text, text)
	}
	if math.Abs(span.Start-start) > 1e-9 || math.Abs(span.End-end) > 1e-9 {
		t.Fatalf("timing = %.3f-%.3f, want %.3f-%.3f", span.Start, span.End, start, end)
	}
}

func TestLabelAtTranscriptStart(t *testing.T) {
	view, ws := words(t, "Іван: Привіт світ",
		nf("Іван:"), al("Привіт", 0.0, 0.5), al("світ", 0.5, 1.0))

	res := segment.Segment(view, ws, segment.Options{})

	requireSpans(t, res, 1)
	requireSpan(t, res.Spans[0], 1, "Привіт світ", 0.0, 1.0)
	if res.Spans[0].NormalizedText != "Привіт світ" {
		t.Fatalf("unexpected normalized text %q", res.Spans[0].NormalizedText)
	}
	if res.Spans[0].StartIndex != 1 || res.Spans[0].EndIndex != 3 {
		t.Fatalf("unexpected word range %d-%d", res.Spans[0].StartIndex, res.Spans[0].EndIndex)
	}
	if len(res.Speakers) != 1 || res.Speakers[0] != "Іван" {
		t.Fatalf("unexpected speakers %v", res.Speakers)
	}
	if res.Stats.Labels != 1 || res.Stats.NotFound != 1 || res.Stats.Aligned != 2 {
		t.Fatalf("unexpected stats %+v", res.Stats)
	}
}

func TestGaplessRunDoesNotSplit(t *testing.T) {
	var b strings.Builder
	var toks []tok
	for k := 0; k < 50; k++ {
		word := fmt.Sprintf("слово%d", k)
		if k > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(word)
		toks = append(toks, al(word, float64(k)*0.5, float64(k+1)*0.5))
	}
	view, ws := words(t, b.String(), toks...)

	res := segment.Segment(view, ws, segment.Options{})

	requireSpans(t, res, 1)
	requireSpan(t, res.Spans[0], 0, b.String(), 0, 25)
}

func TestSpeakerChangeMidTranscript(t *testing.T) {
	view, ws := words(t, "Іван: Привіт світ\nМарія: Добрий день",
		nf("Іван"), al("Привіт", 0.0, 0.5), al("світ", 0.5, 1.0),
		nf("Марія"), al("Добрий", 1.5, 2.0), al("день", 2.0, 2.5))

	res := segment.Segment(view, ws, segment.Options{})

	requireSpans(t, res, 2)
	requireSpan(t, res.Spans[0], 1, "Привіт світ", 0.0, 1.0)
	requireSpan(t, res.Spans[1], 2, "Добрий день", 1.5, 2.5)
	if res.Spans[1].StartIndex != 4 {
		t.Fatalf("second span should start at the first word after the label, got %d", res.Spans[1].StartIndex)
	}
	if strings.Join(res.Speakers, ",") != "Іван,Марія" {
		t.Fatalf("unexpected speakers %v", res.Speakers)
	}
}

func TestTrailingLabelWithoutSpeechIsDiscarded(t *testing.T) {
	view, ws := words(t, "Привіт світ\nМарія: дякую",
		al("Привіт", 0.0, 0.5), al("світ", 0.5, 1.0), nf("Марія"), nf("дякую"))

	res := segment.Segment(view, ws, segment.Options{})

	requireSpans(t, res, 1)
	requireSpan(t, res.Spans[0], 0, "Привіт світ", 0.0, 1.0)
	if len(res.Speakers) != 0 {
		t.Fatalf("discarded label must not be registered, got %v", res.Speakers)
	}
	if res.Stats.LabelsDiscarded != 1 || res.Stats.Skipped != 1 {
		t.Fatalf("unexpected stats %+v", res.Stats)
	}
}

func TestTrailingUnalignedLineIsSkipped(t *testing.T) {
	view, ws := words(t, "Привіт світ\nкінець запису",
		al("Привіт", 0.0, 0.5), al("світ", 0.5, 1.0), nf("кінець"), nf("запису"))

	res := segment.Segment(view, ws, segment.Options{})

	requireSpans(t, res, 1)
	requireSpan(t, res.Spans[0], 0, "Привіт світ", 0.0, 1.0)
	if res.Stats.Skipped != 2 || res.Stats.LabelsDiscarded != 0 {
		t.Fatalf("unexpected stats %+v", res.Stats)
	}
}

func TestTerminatorPrecedence(t *testing.T) {
	tests := []struct {
		name       string
		transcript string
		toks       []tok
		speaker    string
		text       string
	}{
		{
			name:       "colon only",
			transcript: "Іван Петренко: Добрий день",
			toks:       []tok{nf("Іван"), nf("Петренко"), al("Добрий", 1.0, 1.5), al("день", 1.5, 2.0)},
			speaker:    "Іван Петренко",
			text:       "Добрий день",
		},
		{
			name:       "double equals only",
			transcript: "Марія == Добрий день",
			toks:       []tok{nf("Марія"), al("Добрий", 1.0, 1.5), al("день", 1.5, 2.0)},
			speaker:    "Марія",
			text:       "Добрий день",
		},
		{
			name:       "equals before colon",
			transcript: "Ведучий == Іван: Добрий день",
			toks:       []tok{nf("Ведучий"), nf("Іван"), al("Добрий", 1.0, 1.5), al("день", 1.5, 2.0)},
			speaker:    "Ведучий",
			text:       "Іван: Добрий день",
		},
		{
			name:       "colon before equals",
			transcript: "Іван: Ведучий == Добрий день",
			toks:       []tok{nf("Іван"), nf("Ведучий"), al("Добрий", 1.0, 1.5), al("день", 1.5, 2.0)},
			speaker:    "Іван",
			text:       "Ведучий == Добрий день",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			view, ws := words(t, tc.transcript, tc.toks...)
			res := segment.Segment(view, ws, segment.Options{})
			requireSpans(t, res, 1)
			if len(res.Speakers) != 1 || res.Speakers[0] != tc.speaker {
				t.Fatalf("speakers = %v, want [%s]", res.Speakers, tc.speaker)
			}
			if res.Spans[0].Text != tc.text {
				t.Fatalf("text = %q, want %q", res.Spans[0].Text, tc.text)
			}
			if res.Spans[0].Speaker != 1 {
				t.Fatalf("speaker ordinal = %d, want 1", res.Spans[0].Speaker)
			}
		})
	}
}

func TestPostTerminatorWordsGetSynthesizedTiming(t *testing.T) {
	view, ws := words(t, "Привіт\nІван: ну Добрий день",
		al("Привіт", 0.0, 0.4), nf("Іван"), nf("ну"), al("Добрий", 3.0, 3.5), al("день", 3.5, 4.0))

	res := segment.Segment(view, ws, segment.Options{})

	requireSpans(t, res, 2)
	requireSpan(t, res.Spans[1], 1, "ну Добрий день", 2.9, 4.0)
	if res.Spans[1].StartIndex != 2 {
		t.Fatalf("expected span to start at the post-terminator word, got %d", res.Spans[1].StartIndex)
	}
	if w := res.Words[2]; !w.HasTiming || math.Abs(w.End-3.1) > 1e-9 {
		t.Fatalf("unexpected synthesized timing %+v", w)
	}
	if res.Stats.Synthesized != 1 {
		t.Fatalf("unexpected stats %+v", res.Stats)
	}
}

func TestSynthesizedTimingClampedToPreviousAlignedWord(t *testing.T) {
	view, ws := words(t, "Привіт\nІван: ну так",
		al("Привіт", 0.0, 1.0), nf("Іван"), nf("ну"), al("так", 1.05, 1.5))

	res := segment.Segment(view, ws, segment.Options{})

	requireSpans(t, res, 2)
	if got := res.Spans[1].Start; math.Abs(got-1.0) > 1e-9 {
		t.Fatalf("expected start clamped to previous aligned end, got %.3f", got)
	}
	if res.Spans[1].Start < res.Spans[0].Start {
		t.Fatal("span starts must not decrease")
	}
}

func TestTerminatorInsideWordSplitsIt(t *testing.T) {
	view, ws := words(t, "Іван:Привіт світ",
		nf("Іван:Привіт"), al("світ", 1.0, 1.5))
	original := ws[0]

	res := segment.Segment(view, ws, segment.Options{})

	requireSpans(t, res, 1)
	requireSpan(t, res.Spans[0], 1, "Привіт світ", 0.9, 1.5)
	if res.Words[0].Word != "Привіт" || res.Words[0].StartOffset != 5 {
		t.Fatalf("expected split remainder, got %+v", res.Words[0])
	}
	if ws[0] != original {
		t.Fatal("input words must not be modified")
	}
}

func TestUntimedWordInheritsPreviousEnd(t *testing.T) {
	view, ws := words(t, "Привіт ой світ",
		al("Привіт", 0.0, 0.5), nf("ой"), al("світ", 1.0, 1.5))

	res := segment.Segment(view, ws, segment.Options{})

	requireSpans(t, res, 1)
	requireSpan(t, res.Spans[0], 0, "Привіт ой світ", 0.0, 1.5)
	if w := res.Words[1]; !w.HasTiming || w.Start != 0.5 || w.End != 0.5 {
		t.Fatalf("expected inherited timing 0.5-0.5, got %+v", w)
	}
	if res.Stats.Repaired != 1 {
		t.Fatalf("unexpected stats %+v", res.Stats)
	}
}

func TestLeadingUntimedWordsAreSkipped(t *testing.T) {
	view, ws := words(t, "ну от Привіт",
		nf("ну"), nf("от"), al("Привіт", 2.0, 2.5))

	res := segment.Segment(view, ws, segment.Options{})

	requireSpans(t, res, 1)
	requireSpan(t, res.Spans[0], 0, "Привіт", 2.0, 2.5)
	if res.Stats.Skipped != 2 {
		t.Fatalf("unexpected stats %+v", res.Stats)
	}
}

func TestDurationAndGapCut(t *testing.T) {
	var b strings.Builder
	var toks []tok
	for k := 0; k < 30; k++ {
		word := fmt.Sprintf("w%d", k)
		if k > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(word)
		start := float64(k) * 1.2
		toks = append(toks, al(word, start, start+1.0))
	}
	view, ws := words(t, b.String(), toks...)

	res := segment.Segment(view, ws, segment.Options{})

	requireSpans(t, res, 2)
	if res.Spans[0].EndIndex != 16 || res.Spans[1].StartIndex != 16 {
		t.Fatalf("expected cut before word 16, got %+v", res.Spans)
	}
	for _, span := range res.Spans {
		if span.Duration() > segment.MinSpanDuration+1e-9 {
			t.Fatalf("span exceeds duration cap: %+v", span)
		}
	}
}

func TestDurationTieCuts(t *testing.T) {
	view, ws := words(t, "раз два", al("раз", 0, 10), al("два", 10.5, 20))
	res := segment.Segment(view, ws, segment.Options{})
	requireSpans(t, res, 2)
}

func TestGapMustExceedThreshold(t *testing.T) {
	view, ws := words(t, "раз два", al("раз", 0, 10), al("два", 10.1, 20.5))
	res := segment.Segment(view, ws, segment.Options{})
	requireSpans(t, res, 1)
}

func TestUnterminatedRunIsReleased(t *testing.T) {
	view, ws := words(t, "Іван\nМарія: Добрий день",
		nf("Іван"), nf("Марія"), al("Добрий", 1.0, 1.5), al("день", 1.5, 2.0))

	res := segment.Segment(view, ws, segment.Options{})

	requireSpans(t, res, 1)
	requireSpan(t, res.Spans[0], 1, "Добрий день", 1.0, 2.0)
	if strings.Join(res.Speakers, ",") != "Марія" {
		t.Fatalf("unexpected speakers %v", res.Speakers)
	}
	if res.Stats.Skipped != 1 {
		t.Fatalf("expected the released word to be skipped, got %+v", res.Stats)
	}
}

func TestLabelWithoutSpeechBeforeNextLineIsDiscarded(t *testing.T) {
	view, ws := words(t, "Іван: так\nМарія: Добрий день",
		nf("Іван"), nf("так"), nf("Марія"), al("Добрий", 1.0, 1.5), al("день", 1.5, 2.0))

	res := segment.Segment(view, ws, segment.Options{})

	requireSpans(t, res, 1)
	requireSpan(t, res.Spans[0], 1, "Добрий день", 1.0, 2.0)
	if strings.Join(res.Speakers, ",") != "Марія" {
		t.Fatalf("unexpected speakers %v", res.Speakers)
	}
	if res.Stats.LabelsDiscarded != 1 {
		t.Fatalf("unexpected stats %+v", res.Stats)
	}
}

func TestUnalignedLineAfterLabelIsSpeakerSpeech(t *testing.T) {
	view, ws := words(t, "Іван: Привіт\nМарія: ой\nне знаю так",
		nf("Іван"), al("Привіт", 0.0, 0.5), nf("Марія"), nf("ой"), nf("не"), nf("знаю"), al("так", 2.0, 2.5))

	res := segment.Segment(view, ws, segment.Options{})

	requireSpans(t, res, 2)
	requireSpan(t, res.Spans[0], 1, "Привіт", 0.0, 0.5)
	requireSpan(t, res.Spans[1], 2, "ой не знаю так", 1.9, 2.5)
	if res.Spans[1].StartIndex != 3 {
		t.Fatalf("expected span to start at the first word after the label, got %d", res.Spans[1].StartIndex)
	}
	if strings.Join(res.Speakers, ",") != "Іван,Марія" {
		t.Fatalf("unexpected speakers %v", res.Speakers)
	}
	if res.Stats.LabelsDiscarded != 0 || res.Stats.Synthesized != 3 || res.Stats.Skipped != 0 {
		t.Fatalf("unexpected stats %+v", res.Stats)
	}
}

func TestDiscardedLabelTextStaysOutOfSpans(t *testing.T) {
	view, ws := words(t, "Іван: Привіт\nМарія: ой\nПетро: так",
		nf("Іван"), al("Привіт", 0.0, 0.5), nf("Марія"), nf("ой"), nf("Петро"), al("так", 2.0, 2.5))

	res := segment.Segment(view, ws, segment.Options{})

	requireSpans(t, res, 2)
	requireSpan(t, res.Spans[0], 1, "Привіт", 0.0, 0.5)
	requireSpan(t, res.Spans[1], 2, "так", 2.0, 2.5)
	if strings.Join(res.Speakers, ",") != "Іван,Петро" {
		t.Fatalf("unexpected speakers %v", res.Speakers)
	}
	if res.Stats.LabelsDiscarded != 1 || res.Stats.Skipped != 1 {
		t.Fatalf("unexpected stats %+v", res.Stats)
	}
}

func TestPendingLabelAtEndFoldsUnalignedLines(t *testing.T) {
	view, ws := words(t, "Іван: Привіт\nМарія: ой\nне знаю",
		nf("Іван"), al("Привіт", 0.0, 0.5), nf("Марія"), nf("ой"), nf("не"), nf("знаю"))

	res := segment.Segment(view, ws, segment.Options{})

	requireSpans(t, res, 1)
	requireSpan(t, res.Spans[0], 1, "Привіт", 0.0, 0.5)
	if strings.Join(res.Speakers, ",") != "Іван" {
		t.Fatalf("unexpected speakers %v", res.Speakers)
	}
	if res.Stats.LabelsDiscarded != 1 || res.Stats.Skipped != 3 {
		t.Fatalf("unexpected stats %+v", res.Stats)
	}
}

func TestSplitLabelStaysOutOfPreviousSpan(t *testing.T) {
	view, ws := words(t, "Привіт\nІван:ну так",
		al("Привіт", 0.0, 1.0), nf("Іван:ну"), al("так", 2.0, 2.5))

	res := segment.Segment(view, ws, segment.Options{})

	requireSpans(t, res, 2)
	requireSpan(t, res.Spans[0], 0, "Привіт", 0.0, 1.0)
	requireSpan(t, res.Spans[1], 1, "ну так", 1.9, 2.5)
}

func TestColonMidLineIsNotALabel(t *testing.T) {
	view, ws := words(t, "Він сказав: так",
		al("Він", 0, 0.3), nf("сказав"), al("так", 1.0, 1.2))

	res := segment.Segment(view, ws, segment.Options{})

	requireSpans(t, res, 1)
	requireSpan(t, res.Spans[0], 0, "Він сказав: так", 0, 1.2)
	if len(res.Speakers) != 0 {
		t.Fatalf("unexpected speakers %v", res.Speakers)
	}
}

func TestReturningSpeakerKeepsOrdinal(t *testing.T) {
	view, ws := words(t, "Іван: а\nМарія: б\nІван: в",
		nf("Іван"), al("а", 0, 1), nf("Марія"), al("б", 1, 2), nf("Іван"), al("в", 2, 3))

	res := segment.Segment(view, ws, segment.Options{FirstOrdinal: 7})

	requireSpans(t, res, 3)
	got := []int{res.Spans[0].Speaker, res.Spans[1].Speaker, res.Spans[2].Speaker}
	if got[0] != 1 || got[1] != 2 || got[2] != 1 {
		t.Fatalf("unexpected ordinals %v", got)
	}
	for k, span := range res.Spans {
		if span.Ordinal != 7+k {
			t.Fatalf("span %d ordinal = %d, want %d", k, span.Ordinal, 7+k)
		}
	}
	if len(res.Speakers) != 2 {
		t.Fatalf("unexpected speakers %v", res.Speakers)
	}
}

func TestNewlinesAtWordBoundariesBecomeSpaces(t *testing.T) {
	view, ws := words(t, "Привіт,\n\nсвіт!\n",
		al("Привіт", 0, 0.5), al("світ", 0.5, 1.0))

	res := segment.Segment(view, ws, segment.Options{})

	requireSpans(t, res, 1)
	if res.Spans[0].Text != "Привіт, світ!" {
		t.Fatalf("unexpected text %q", res.Spans[0].Text)
	}
	if res.Spans[0].NormalizedText != "Привіт світ" {
		t.Fatalf("unexpected normalized text %q", res.Spans[0].NormalizedText)
	}
}

func TestEmptyInput(t *testing.T) {
	res := segment.Segment(alignment.NewView(""), nil, segment.Options{})
	if len(res.Spans) != 0 || res.Stats.Words != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestSpansAreOrderedAndDisjoint(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	names := []string{"Іван", "Марія", "Олег"}
	var b strings.Builder
	var toks []tok
	clock := 0.0
	for line := 0; line < 40; line++ {
		if line > 0 {
			b.WriteByte('\n')
		}
		if rng.Intn(3) == 0 {
			name := names[rng.Intn(len(names))]
			b.WriteString(name + ": ")
			toks = append(toks, nf(name))
		}
		count := 3 + rng.Intn(20)
		for k := 0; k < count; k++ {
			word := fmt.Sprintf("с%dх%d", line, k)
			if k > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(word)
			if rng.Intn(5) == 0 {
				toks = append(toks, nf(word))
				continue
			}
			clock += rng.Float64() * 0.4
			dur := 0.1 + rng.Float64()*0.6
			toks = append(toks, al(word, clock, clock+dur))
			clock += dur
		}
	}
	view, ws := words(t, b.String(), toks...)

	first := segment.Segment(view, ws, segment.Options{FirstOrdinal: 3})
	second := segment.Segment(view, ws, segment.Options{FirstOrdinal: 3})

	if len(first.Spans) == 0 {
		t.Fatal("expected spans")
	}
	for k, span := range first.Spans {
		if span.End < span.Start {
			t.Fatalf("span %d ends before it starts: %+v", k, span)
		}
		if span.EndIndex <= span.StartIndex {
			t.Fatalf("span %d is empty: %+v", k, span)
		}
		if strings.TrimSpace(span.Text) == "" {
			t.Fatalf("span %d has no text", k)
		}
		if k == 0 {
			continue
		}
		prev := first.Spans[k-1]
		if span.StartIndex < prev.EndIndex {
			t.Fatalf("spans %d and %d overlap", k-1, k)
		}
		if span.Start < prev.Start {
			t.Fatalf("span %d starts before span %d", k, k-1)
		}
		if span.Ordinal != prev.Ordinal+1 {
			t.Fatalf("ordinals not consecutive at %d", k)
		}
	}
	if fmt.Sprint(first.Spans) != fmt.Sprint(second.Spans) {
		t.Fatal("segmentation is not deterministic")
	}
}
