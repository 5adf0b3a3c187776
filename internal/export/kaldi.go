package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"speechcorpus/internal/corpus"
	"speechcorpus/internal/fileutil"
	"speechcorpus/internal/logging"
	"speechcorpus/internal/services"
)

// Tokenizer turns utterance text into vocabulary tokens.
type Tokenizer interface {
	Words(text, utteranceID string) []string
	Vocabulary() []string
	UnknownWords() map[string]int
}

// Pronouncer predicts pronunciations for words.
type Pronouncer interface {
	Predict(ctx context.Context, words []string) (map[string][]string, error)
}

// KaldiStats summarizes a Kaldi export.
type KaldiStats struct {
	Utterances int
	Skipped    int
	Speakers   int
	Recordings int
	Words      int
	Unknown    int
	Lexicon    int
}

// KaldiWriter writes a Kaldi data directory.
type KaldiWriter struct {
	Tokenizer Tokenizer
	// Lexicon is optional; without it no lexicon.txt is written.
	Lexicon Pronouncer
	// ScpCommand renders the wav.scp entry of non-WAV recordings.
	ScpCommand func(path string) string
	Logger     *slog.Logger
}

type kaldiRow struct {
	id       string
	text     string
	speaker  string
	record   string
	start    float64
	end      float64
	wavEntry string
}

// Write verbalizes utts and writes text, utt2spk, spk2utt, wav.scp,
// segments, words.txt, unk.txt and, with a Lexicon, lexicon.txt into dir.
// Every file is sorted by its key the way Kaldi's validation expects.
func (k *KaldiWriter) Write(ctx context.Context, dir string, utts []corpus.Utterance) (KaldiStats, error) {
	if k.Tokenizer == nil {
		return KaldiStats{}, services.Wrap(services.ErrConfiguration, "kaldi", "write", "tokenizer required", nil)
	}
	logger := logging.NewComponentLogger(k.Logger, "kaldi")

	var stats KaldiStats
	rows := make([]kaldiRow, 0, len(utts))
	for _, u := range utts {
		words := k.Tokenizer.Words(u.NormalizedText, u.ID)
		if len(words) == 0 {
			stats.Skipped++
			logger.Debug("utterance has no words; skipped", logging.String(logging.FieldUtteranceID, u.ID))
			continue
		}
		rows = append(rows, kaldiRow{
			id:       u.ID,
			text:     strings.Join(words, " "),
			speaker:  u.SpeakerID,
			record:   u.RecordingID,
			start:    u.Start,
			end:      u.End,
			wavEntry: k.wavEntry(u.RecordingPath),
		})
	}
	slices.SortFunc(rows, func(a, b kaldiRow) int { return strings.Compare(a.id, b.id) })

	vocab := k.Tokenizer.Vocabulary()
	unknown := k.Tokenizer.UnknownWords()
	stats.Utterances = len(rows)
	stats.Words = len(vocab)
	stats.Unknown = len(unknown)

	files := map[string][]string{
		"text":      lo.Map(rows, func(r kaldiRow, _ int) string { return r.id + " " + r.text }),
		"utt2spk":   lo.Map(rows, func(r kaldiRow, _ int) string { return r.id + " " + r.speaker }),
		"segments":  lo.Map(rows, func(r kaldiRow, _ int) string { return strings.Join([]string{r.id, r.record, formatSeconds(r.start), formatSeconds(r.end)}, " ") }),
		"spk2utt":   spk2utt(rows),
		"wav.scp":   wavScp(rows),
		"words.txt": vocab,
		"unk.txt":   unkLines(unknown),
	}
	stats.Speakers = len(files["spk2utt"])
	stats.Recordings = len(files["wav.scp"])

	if k.Lexicon != nil {
		prons, err := k.Lexicon.Predict(ctx, vocab)
		if err != nil {
			return stats, err
		}
		files["lexicon.txt"] = lexiconLines(vocab, prons)
		stats.Lexicon = len(files["lexicon.txt"])
	}

	for _, name := range lo.Keys(files) {
		if err := writeLines(filepath.Join(dir, name), files[name]); err != nil {
			return stats, services.Wrap(services.ErrTransient, "kaldi", "write", name, err)
		}
	}
	logger.Info("kaldi data directory written",
		logging.String("dir", dir),
		logging.Int("utterances", stats.Utterances),
		logging.Int("speakers", stats.Speakers),
		logging.Int("words", stats.Words),
		logging.Int("unknown", stats.Unknown),
	)
	return stats, nil
}

func (k *KaldiWriter) wavEntry(path string) string {
	if k.ScpCommand == nil || strings.EqualFold(filepath.Ext(path), ".wav") {
		return path
	}
	return k.ScpCommand(path)
}

func spk2utt(rows []kaldiRow) []string {
	bySpeaker := lo.GroupBy(rows, func(r kaldiRow) string { return r.speaker })
	speakers := lo.Keys(bySpeaker)
	slices.Sort(speakers)
	return lo.Map(speakers, func(spk string, _ int) string {
		ids := lo.Map(bySpeaker[spk], func(r kaldiRow, _ int) string { return r.id })
		slices.Sort(ids)
		return spk + " " + strings.Join(ids, " ")
	})
}

func wavScp(rows []kaldiRow) []string {
	entries := make(map[string]string)
	for _, r := range rows {
		if _, ok := entries[r.record]; !ok {
			entries[r.record] = r.wavEntry
		}
	}
	records := lo.Keys(entries)
	slices.Sort(records)
	return lo.Map(records, func(rec string, _ int) string { return rec + " " + entries[rec] })
}

func unkLines(unknown map[string]int) []string {
	words := lo.Keys(unknown)
	slices.Sort(words)
	return lo.Map(words, func(w string, _ int) string { return fmt.Sprintf("%s %d", w, unknown[w]) })
}

func lexiconLines(vocab []string, prons map[string][]string) []string {
	var lines []string
	for _, word := range vocab {
		for _, pron := range prons[word] {
			lines = append(lines, word+" "+pron)
		}
	}
	return lines
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func writeLines(path string, lines []string) error {
	return fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		for _, line := range lines {
			if _, err := io.WriteString(w, line+"\n"); err != nil {
				return err
			}
		}
		return nil
	})
}
