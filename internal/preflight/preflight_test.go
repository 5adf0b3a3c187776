package preflight

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"speechcorpus/internal/config"
	"speechcorpus/internal/services"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckReadable(t *testing.T) {
	f := filepath.Join(t.TempDir(), "index.json")
	if err := os.WriteFile(f, []byte("[]"), 0o644); err != nil {
		t.Fatal(err)
	}
	if r := CheckReadable("Manifest", f); !r.Passed {
		t.Fatalf("expected readable file to pass, got %s", r.Detail)
	}
	if r := CheckReadable("Manifest", f+".missing"); r.Passed {
		t.Fatal("expected missing file to fail")
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()
	if r := CheckFreeSpace("space", dir, 1); !r.Passed {
		t.Fatalf("expected 1 byte to be available, got %s", r.Detail)
	}
	r := CheckFreeSpace("space", dir, ^uint64(0))
	if r.Passed {
		t.Fatal("expected failure for impossible requirement")
	}
	if !strings.Contains(r.Detail, "need") {
		t.Fatalf("expected detail to name the requirement, got %q", r.Detail)
	}
}

func TestCheckToolsOptionalMissingPasses(t *testing.T) {
	cfg := config.Default()
	cfg.Fetch.YtDlpBinary = "clearly-not-present-ytdlp"
	cfg.Transcode.FFmpegBinary = "clearly-not-present-ffmpeg"

	byName := map[string]Result{}
	for _, r := range CheckTools(&cfg) {
		byName[r.Name] = r
	}
	if r := byName["yt-dlp"]; !r.Passed || !r.Optional || !strings.Contains(r.Detail, "optional") {
		t.Fatalf("expected optional yt-dlp to pass, got %#v", r)
	}
	if r := byName["FFmpeg"]; r.Passed {
		t.Fatalf("expected missing ffmpeg to fail, got %#v", r)
	}
}

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.AlignmentDir = filepath.Join(base, "align")
	cfg.Paths.OutputDir = filepath.Join(base, "output")
	cfg.Paths.MediaDir = filepath.Join(base, "media")
	for _, dir := range []string{cfg.Paths.AlignmentDir, cfg.Paths.OutputDir, cfg.Paths.MediaDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return &cfg
}

func TestRunAllBuildScope(t *testing.T) {
	cfg := newTestConfig(t)
	results := RunAll(context.Background(), cfg, ScopeBuild)
	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Name)
	}
	want := []string{"Alignment directory", "Output directory", "Output free space"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected checks %v", names)
	}

	cfg.Lexicon.Enabled = true
	cfg.Lexicon.PhonetisaurusBinary = "clearly-not-present-phonetisaurus"
	results = RunAll(context.Background(), cfg, ScopeBuild)
	last := results[len(results)-1]
	if last.Name != "Phonetisaurus" || last.Passed {
		t.Fatalf("expected failing phonetisaurus check, got %#v", last)
	}
}

func TestRunAllFetchScopeChecksMediaAndTools(t *testing.T) {
	cfg := newTestConfig(t)
	seen := map[string]bool{}
	for _, r := range RunAll(context.Background(), cfg, ScopeFetch) {
		seen[r.Name] = true
	}
	for _, name := range []string{"Media directory", "FFmpeg", "FFprobe", "yt-dlp"} {
		if !seen[name] {
			t.Fatalf("expected %s check in fetch scope", name)
		}
	}
	if seen["Phonetisaurus"] {
		t.Fatal("fetch scope should not check phonetisaurus")
	}
}

func TestRunAllNilConfig(t *testing.T) {
	if got := RunAll(context.Background(), nil, ScopeAll); got != nil {
		t.Fatalf("expected nil results, got %v", got)
	}
}

func TestFirstFailure(t *testing.T) {
	if err := FirstFailure([]Result{{Name: "a", Passed: true}}); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	err := FirstFailure([]Result{
		{Name: "a", Passed: true},
		{Name: "Output directory", Detail: "/x (error: does not exist)"},
		{Name: "c", Detail: "later"},
	})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if !strings.Contains(err.Error(), "does not exist") {
		t.Fatalf("expected detail in error, got %v", err)
	}
}
