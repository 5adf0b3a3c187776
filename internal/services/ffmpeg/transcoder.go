package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"speechcorpus/internal/config"
	"speechcorpus/internal/media/ffprobe"
	"speechcorpus/internal/services"
)

// Command names for external tools.
const (
	FFmpegCommand  = "ffmpeg"
	FFprobeCommand = "ffprobe"
)

// Default output format.
const (
	DefaultSampleRate = 16000
	DefaultChannels   = 1
	pcmCodec          = "pcm_s16le"
)

// Transcoder wraps ffmpeg.
type Transcoder struct {
	ffmpeg     string
	ffprobe    string
	sampleRate int
	channels   int
	runner     services.CommandRunner
}

// Option configures a Transcoder.
type Option func(*Transcoder)

// WithRunner injects a command runner (primarily for tests).
func WithRunner(runner services.CommandRunner) Option {
	return func(t *Transcoder) {
		if runner != nil {
			t.runner = runner
		}
	}
}

// New builds a Transcoder from the transcode config section.
func New(cfg config.Transcode, opts ...Option) *Transcoder {
	t := &Transcoder{
		ffmpeg:     strings.TrimSpace(cfg.FFmpegBinary),
		ffprobe:    strings.TrimSpace(cfg.FFprobeBinary),
		sampleRate: cfg.SampleRate,
		channels:   cfg.Channels,
		runner:     services.RunCommand,
	}
	if t.ffmpeg == "" {
		t.ffmpeg = FFmpegCommand
	}
	if t.ffprobe == "" {
		t.ffprobe = FFprobeCommand
	}
	if t.sampleRate <= 0 {
		t.sampleRate = DefaultSampleRate
	}
	if t.channels <= 0 {
		t.channels = DefaultChannels
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Args returns the ffmpeg arguments converting src into dst.
func (t *Transcoder) Args(src, dst string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", src,
		"-vn",
		"-ac", strconv.Itoa(t.channels),
		"-ar", strconv.Itoa(t.sampleRate),
		"-acodec", pcmCodec,
		dst,
	}
}

// ToPCM converts src into a PCM WAV at dst. The output is written next to
// dst under a temporary name and renamed once ffmpeg succeeds.
func (t *Transcoder) ToPCM(ctx context.Context, src, dst string) error {
	if strings.TrimSpace(src) == "" || strings.TrimSpace(dst) == "" {
		return services.Wrap(services.ErrValidation, "ffmpeg", "transcode", "source and destination required", nil)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "ffmpeg", "transcode", "create output directory", err)
	}
	tmp := filepath.Join(filepath.Dir(dst), ".partial-"+filepath.Base(dst))
	if filepath.Ext(tmp) == "" {
		tmp += ".wav"
	}
	if _, err := t.runner(ctx, nil, t.ffmpeg, t.Args(src, tmp)...); err != nil {
		_ = os.Remove(tmp)
		return services.Wrap(services.ErrExternalTool, "ffmpeg", "transcode", src, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return services.Wrap(services.ErrExternalTool, "ffmpeg", "transcode", "finalize output", err)
	}
	return nil
}

// Verify probes path and checks it holds PCM audio in the configured format.
func (t *Transcoder) Verify(ctx context.Context, path string) (ffprobe.AudioFormat, error) {
	result, err := ffprobe.Inspect(ctx, t.runner, t.ffprobe, path)
	if err != nil {
		return ffprobe.AudioFormat{}, err
	}
	audio, ok := result.Audio()
	if !ok {
		return ffprobe.AudioFormat{}, services.Wrap(services.ErrValidation, "ffmpeg", "verify", path+" has no audio stream", nil)
	}
	if !audio.Matches(t.sampleRate, t.channels) {
		return audio, services.Wrap(services.ErrValidation, "ffmpeg", "verify",
			fmt.Sprintf("%s is %s, want %s %d Hz %d ch", path, audio, pcmCodec, t.sampleRate, t.channels), nil)
	}
	return audio, nil
}

// ScpCommand renders the wav.scp pipe entry that decodes path on the fly.
func (t *Transcoder) ScpCommand(path string) string {
	return fmt.Sprintf(`%s -i "%s" -f wav -ac %d -acodec %s -ar %d - |`, t.ffmpeg, path, t.channels, pcmCodec, t.sampleRate)
}
