package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"speechcorpus/internal/config"
	"speechcorpus/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

// writeFixtures writes two alignment documents and the manifest listing
// them; "a-1" has two labelled speakers and "b" opens with unlabelled speech.
func (env *cliTestEnv) writeFixtures(t *testing.T) {
	t.Helper()
	ta := testsupport.At
	miss := testsupport.Missing

	first := testsupport.BuildAlignment(t, "Іван: привіт світ\nМарія: добрий день",
		miss(), ta(0, 0.5), ta(0.5, 1.0), miss(), ta(1.2, 1.6), ta(1.6, 2.0))
	second := testsupport.BuildAlignment(t, "вступ\nІван: так",
		ta(0, 1), miss(), ta(1.5, 2))
	testsupport.WriteAlignment(t, env.cfg.AlignmentPath("a-1"), first)
	testsupport.WriteAlignment(t, env.cfg.AlignmentPath("b"), second)

	testsupport.WriteText(t, env.cfg.Corpus.Manifest, `{"rows": [
  ["a-1", "channel", "First", "2024-03-01", 2, "https://example.org/media/a.mp4", "file"],
  ["b", "channel", "Second", "2024-03-02", 2, "https://youtu.be/b", "youtube"]
]}`)
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	return runCLIWithInput(t, args, configPath, nil)
}

func runCLIWithInput(t *testing.T, args []string, configPath string, stdin io.Reader) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if stdin != nil {
		cmd.SetIn(stdin)
	}
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func readOutput(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}
