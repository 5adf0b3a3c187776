package corpus_test

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/gofrs/flock"

	"speechcorpus/internal/config"
	"speechcorpus/internal/corpus"
	"speechcorpus/internal/metrics"
	"speechcorpus/internal/services"
	"speechcorpus/internal/testsupport"
)

func writeFixtures(t *testing.T, cfg *config.Config) []corpus.Entry {
	t.Helper()
	ta := testsupport.At
	miss := testsupport.Missing

	first := testsupport.BuildAlignment(t, "Іван: привіт світ\nМарія: добрий день",
		miss(), ta(0, 0.5), ta(0.5, 1.0), miss(), ta(1.2, 1.6), ta(1.6, 2.0))
	second := testsupport.BuildAlignment(t, "вступ\nІван: так",
		ta(0, 1), miss(), ta(1.5, 2))
	testsupport.WriteAlignment(t, cfg.AlignmentPath("a-1"), first)
	testsupport.WriteAlignment(t, cfg.AlignmentPath("b"), second)

	return []corpus.Entry{
		{ID: "a-1", FileURL: "https://example.org/media/a.mp4"},
		{ID: "b", FileURL: "https://youtu.be/b"},
	}
}

func TestBuildAssignsOrdinalsAndSpeakersInEntryOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDomain("radio"))
	entries := writeFixtures(t, cfg)
	rec := metrics.New()

	c, err := corpus.NewBuilder(cfg, corpus.WithMetrics(rec), corpus.WithRunID("run-1")).Build(context.Background(), entries)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if c.RunID != "run-1" {
		t.Fatalf("unexpected run id %q", c.RunID)
	}
	utts := c.Utterances()
	if len(utts) != 4 {
		t.Fatalf("expected 4 utterances, got %d: %+v", len(utts), utts)
	}

	want := []struct {
		id      string
		text    string
		speaker string
		label   string
	}{
		{"S00000-00000000a01-U0000000-0000000-0000100", "привіт світ", "S00000", "Іван"},
		{"S00001-00000000a01-U0000001-0000120-0000200", "добрий день", "S00001", "Марія"},
		{"S00002-0000000000b-U0000002-0000000-0000100", "вступ", "S00002", ""},
		{"S00003-0000000000b-U0000003-0000150-0000200", "так", "S00003", "Іван"},
	}
	for i, w := range want {
		u := utts[i]
		if u.ID != w.id || u.Text != w.text || u.SpeakerID != w.speaker || u.SpeakerLabel != w.label {
			t.Fatalf("utterance %d = %+v, want %+v", i, u, w)
		}
		if u.Domain != cfg.Corpus.Domain {
			t.Fatalf("utterance %d: domain %q", i, u.Domain)
		}
	}
	if utts[0].ProvenanceURL != "https://example.org/media/a.mp4?start=0&end=1" {
		t.Fatalf("unexpected provenance %q", utts[0].ProvenanceURL)
	}
	if utts[3].ProvenanceURL != "https://www.youtube.com/embed/b?start=1&end=2" {
		t.Fatalf("unexpected provenance %q", utts[3].ProvenanceURL)
	}
	if utts[0].RecordingPath != filepath.Join(cfg.Paths.MediaDir, "00000000a01.wav") {
		t.Fatalf("unexpected recording path %q", utts[0].RecordingPath)
	}
	if c.Speakers.Len() != 4 {
		t.Fatalf("expected 4 global speakers, got %d", c.Speakers.Len())
	}
	if c.Stats.Labels != 3 {
		t.Fatalf("expected 3 labels, got %d", c.Stats.Labels)
	}

	families, err := rec.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	found := false
	for _, mf := range families {
		if mf.GetName() == "speechcorpus_utterances_total" {
			found = true
			if got := mf.GetMetric()[0].GetCounter().GetValue(); got != 4 {
				t.Fatalf("expected 4 utterances counted, got %v", got)
			}
		}
	}
	if !found {
		t.Fatal("utterance counter not registered")
	}
}

func TestBuildIsIndependentOfWorkerCount(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	entries := writeFixtures(t, cfg)

	var outputs [][]corpus.Utterance
	for _, workers := range []int{1, 2, 8} {
		c, err := corpus.NewBuilder(cfg, corpus.WithWorkers(workers)).Build(context.Background(), entries)
		if err != nil {
			t.Fatalf("Build with %d workers: %v", workers, err)
		}
		outputs = append(outputs, c.Utterances())
	}
	for i := 1; i < len(outputs); i++ {
		if !reflect.DeepEqual(outputs[0], outputs[i]) {
			t.Fatalf("output differs between worker counts:\n%+v\n%+v", outputs[0], outputs[i])
		}
	}
}

func TestBuildSkipsMissingAlignment(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithWorkers(1))
	entries := writeFixtures(t, cfg)
	entries = append([]corpus.Entry{{ID: "missing"}}, entries...)

	c, err := corpus.NewBuilder(cfg).Build(context.Background(), entries)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !c.Records[0].Skipped || len(c.Records[0].Utterances) != 0 {
		t.Fatalf("expected first record skipped, got %+v", c.Records[0])
	}
	if got := c.Utterances()[0].UtteranceID; got != "U0000000" {
		t.Fatalf("expected ordinals to start at zero after a skip, got %q", got)
	}
}

func TestBuildStrictRejectsMissingAlignment(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	entries := corpus.EntriesFromFiles([]string{filepath.Join(cfg.Paths.AlignmentDir, "nope.json")})
	_, err := corpus.NewBuilder(cfg, corpus.WithStrictInputs(true)).Build(context.Background(), entries)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestBuildRejectsInvalidAlignment(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	entries := writeFixtures(t, cfg)
	testsupport.WriteText(t, cfg.AlignmentPath("b"), `{"transcript": "x", "words": [{"case": "success", "startOffset": 0, "endOffset": 9, "word": "x"}]}`)

	_, err := corpus.NewBuilder(cfg).Build(context.Background(), entries)
	if !errors.Is(err, services.ErrConfiguration) || !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected configuration error wrapping validation, got %v", err)
	}
}

func TestBuildEnforcesSpeakerLimit(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithLimits(3, 100))
	entries := writeFixtures(t, cfg)

	_, err := corpus.NewBuilder(cfg).Build(context.Background(), entries)
	if !errors.Is(err, services.ErrLimitExceeded) {
		t.Fatalf("expected limit error, got %v", err)
	}
	if services.ExitCode(err) != services.ExitLimitExceeded {
		t.Fatalf("unexpected exit code %d", services.ExitCode(err))
	}
}

func TestBuildEnforcesRowLimit(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithLimits(100, 3))
	entries := writeFixtures(t, cfg)

	_, err := corpus.NewBuilder(cfg).Build(context.Background(), entries)
	if !errors.Is(err, services.ErrLimitExceeded) {
		t.Fatalf("expected limit error, got %v", err)
	}
}

func TestBuildRejectsNameCollision(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	_, err := corpus.NewBuilder(cfg).Build(context.Background(), []corpus.Entry{{ID: "a-b"}, {ID: "a.b"}})
	if !errors.Is(err, services.ErrConfiguration) || !strings.Contains(err.Error(), "recording name") {
		t.Fatalf("expected collision error, got %v", err)
	}
}

func TestBuildRefusesConcurrentRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	entries := writeFixtures(t, cfg)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	lock := flock.New(filepath.Join(cfg.Paths.OutputDir, corpus.LockFileName))
	locked, err := lock.TryLock()
	if err != nil || !locked {
		t.Fatalf("TryLock: locked=%v err=%v", locked, err)
	}
	defer lock.Unlock()

	_, err = corpus.NewBuilder(cfg).Build(context.Background(), entries)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected lock error, got %v", err)
	}
}

func TestBuildReportsProgress(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	entries := writeFixtures(t, cfg)

	var calls []int
	progress := func(done, total int) {
		if total != len(entries) {
			t.Errorf("unexpected total %d", total)
		}
		calls = append(calls, done)
	}
	if _, err := corpus.NewBuilder(cfg, corpus.WithWorkers(1), corpus.WithProgress(progress)).Build(context.Background(), entries); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !reflect.DeepEqual(calls, []int{1, 2}) {
		t.Fatalf("unexpected progress calls %v", calls)
	}
}
