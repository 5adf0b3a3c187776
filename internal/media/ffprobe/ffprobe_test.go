package ffprobe

import (
	"context"
	"errors"
	"io"
	"testing"

	"speechcorpus/internal/services"
)

const probeJSON = `{
  "streams": [
    {"index": 0, "codec_name": "h264", "codec_type": "video"},
    {"index": 1, "codec_name": "pcm_s16le", "codec_type": "audio", "sample_rate": "16000", "channels": 1, "duration": ""}
  ],
  "format": {"filename": "a.wav", "nb_streams": 2, "duration": "12.5", "size": "400000", "format_name": "wav"}
}`

func TestInspectParsesAudio(t *testing.T) {
	var gotArgs []string
	runner := func(_ context.Context, stdin io.Reader, name string, args ...string) ([]byte, error) {
		if stdin != nil {
			t.Fatal("ffprobe must not receive stdin")
		}
		gotArgs = append([]string{name}, args...)
		return []byte(probeJSON), nil
	}
	result, err := Inspect(context.Background(), runner, "", "/media/a.wav")
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if gotArgs[0] != "ffprobe" || gotArgs[len(gotArgs)-1] != "/media/a.wav" {
		t.Fatalf("unexpected command %v", gotArgs)
	}
	if result.AudioStreamCount() != 1 {
		t.Fatalf("expected one audio stream, got %d", result.AudioStreamCount())
	}
	audio, ok := result.Audio()
	if !ok {
		t.Fatal("expected audio stream")
	}
	if !audio.Matches(16000, 1) {
		t.Fatalf("expected 16 kHz mono PCM, got %s", audio)
	}
	if audio.Duration != 12.5 {
		t.Fatalf("expected container duration fallback, got %v", audio.Duration)
	}
	if result.SizeBytes() != 400000 {
		t.Fatalf("unexpected size %d", result.SizeBytes())
	}
}

func TestInspectWrapsToolFailure(t *testing.T) {
	runner := func(context.Context, io.Reader, string, ...string) ([]byte, error) {
		return nil, errors.New("exit status 1")
	}
	_, err := Inspect(context.Background(), runner, "ffprobe", "x.wav")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{Format: Format{Duration: "bad", Size: "-1"}}
	if result.DurationSeconds() != 0 || result.SizeBytes() != 0 {
		t.Fatalf("expected zero values, got %v %d", result.DurationSeconds(), result.SizeBytes())
	}
	if _, ok := result.Audio(); ok {
		t.Fatal("expected no audio stream")
	}
	if (AudioFormat{Codec: "aac", SampleRate: 16000, Channels: 1}).Matches(16000, 1) {
		t.Fatal("aac must not match PCM")
	}
}
