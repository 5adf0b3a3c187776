package phonetisaurus_test

import (
	"context"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"

	"speechcorpus/internal/config"
	"speechcorpus/internal/services"
	"speechcorpus/internal/services/phonetisaurus"
	"speechcorpus/internal/testsupport"
)

func lexiconConfig(t *testing.T) config.Lexicon {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithLexicon()).Lexicon
	testsupport.WriteFile(t, cfg.ModelPath, 64)
	testsupport.WriteFile(t, cfg.LexiconPath, 64)
	return cfg
}

func TestPredictFeedsWordsOnStdin(t *testing.T) {
	cfg := lexiconConfig(t)
	var gotInput string
	var gotArgs []string
	runner := func(_ context.Context, stdin io.Reader, name string, args ...string) ([]byte, error) {
		data, _ := io.ReadAll(stdin)
		gotInput = string(data)
		gotArgs = append([]string{name}, args...)
		return []byte("кіт k i t\nкіт k y t\nкіт k i t\nїжак j i zh a k\n"), nil
	}
	svc := phonetisaurus.New(cfg, phonetisaurus.WithRunner(runner))
	prons, err := svc.Predict(context.Background(), []string{"кіт", "їжак"})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if gotInput != "кіт\nїжак\n" {
		t.Fatalf("unexpected stdin %q", gotInput)
	}
	wantArgs := "phonetisaurus predict --nbest 2 --model " + cfg.ModelPath + " --lexicon " + cfg.LexiconPath
	if strings.Join(gotArgs, " ") != wantArgs {
		t.Fatalf("unexpected args %v", gotArgs)
	}
	want := map[string][]string{"кіт": {"k i t", "k y t"}, "їжак": {"j i zh a k"}}
	if !reflect.DeepEqual(prons, want) {
		t.Fatalf("Predict = %v, want %v", prons, want)
	}
}

func TestPredictMissingModelReturnsEmpty(t *testing.T) {
	cfg := config.Lexicon{ModelPath: "/nonexistent/g2p.fst", LexiconPath: "/nonexistent/uk.vcb"}
	runner := func(context.Context, io.Reader, string, ...string) ([]byte, error) {
		t.Fatal("runner must not be called without model files")
		return nil, nil
	}
	prons, err := phonetisaurus.New(cfg, phonetisaurus.WithRunner(runner)).Predict(context.Background(), []string{"кіт"})
	if err != nil || len(prons) != 0 {
		t.Fatalf("expected empty result, got %v %v", prons, err)
	}
}

func TestPredictWrapsFailure(t *testing.T) {
	runner := func(context.Context, io.Reader, string, ...string) ([]byte, error) {
		return nil, errors.New("exit status 1")
	}
	_, err := phonetisaurus.New(lexiconConfig(t), phonetisaurus.WithRunner(runner)).Predict(context.Background(), []string{"кіт"})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}
