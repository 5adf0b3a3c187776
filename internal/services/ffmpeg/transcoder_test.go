package ffmpeg_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"speechcorpus/internal/config"
	"speechcorpus/internal/services"
	"speechcorpus/internal/services/ffmpeg"
)

func TestArgsAndScpCommand(t *testing.T) {
	tr := ffmpeg.New(config.Transcode{})
	got := strings.Join(tr.Args("in.m4a", "out.wav"), " ")
	want := "-y -hide_banner -loglevel error -i in.m4a -vn -ac 1 -ar 16000 -acodec pcm_s16le out.wav"
	if got != want {
		t.Fatalf("Args = %q, want %q", got, want)
	}
	scp := tr.ScpCommand("/media/a b.m4a")
	if scp != `ffmpeg -i "/media/a b.m4a" -f wav -ac 1 -acodec pcm_s16le -ar 16000 - |` {
		t.Fatalf("unexpected scp command %q", scp)
	}
}

func TestToPCMRenamesOutput(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "wav", "a.wav")
	runner := func(_ context.Context, _ io.Reader, name string, args ...string) ([]byte, error) {
		if name != "ffmpeg" {
			t.Fatalf("unexpected binary %q", name)
		}
		out := args[len(args)-1]
		if out == dst {
			t.Fatal("ffmpeg must write to a temporary path")
		}
		return nil, os.WriteFile(out, []byte("RIFF"), 0o644)
	}
	tr := ffmpeg.New(config.Transcode{}, ffmpeg.WithRunner(runner))
	if err := tr.ToPCM(context.Background(), "src.m4a", dst); err != nil {
		t.Fatalf("ToPCM: %v", err)
	}
	data, err := os.ReadFile(dst)
	if err != nil || string(data) != "RIFF" {
		t.Fatalf("expected output at %s: %v", dst, err)
	}
	entries, _ := os.ReadDir(filepath.Dir(dst))
	if len(entries) != 1 {
		t.Fatalf("expected temp file to be gone, found %d entries", len(entries))
	}
}

func TestToPCMReportsToolFailure(t *testing.T) {
	runner := func(context.Context, io.Reader, string, ...string) ([]byte, error) {
		return nil, errors.New("exit status 1: invalid data")
	}
	tr := ffmpeg.New(config.Transcode{}, ffmpeg.WithRunner(runner))
	err := tr.ToPCM(context.Background(), "src.m4a", filepath.Join(t.TempDir(), "a.wav"))
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestVerifyRejectsWrongFormat(t *testing.T) {
	runner := func(context.Context, io.Reader, string, ...string) ([]byte, error) {
		return []byte(`{"streams":[{"codec_type":"audio","codec_name":"pcm_s16le","sample_rate":"44100","channels":2}],"format":{}}`), nil
	}
	tr := ffmpeg.New(config.Transcode{SampleRate: 16000, Channels: 1}, ffmpeg.WithRunner(runner))
	_, err := tr.Verify(context.Background(), "a.wav")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
