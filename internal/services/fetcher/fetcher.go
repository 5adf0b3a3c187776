package fetcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/schollz/progressbar/v3"

	"speechcorpus/internal/config"
	"speechcorpus/internal/corpus"
	"speechcorpus/internal/fileutil"
	"speechcorpus/internal/logging"
	"speechcorpus/internal/services"
)

// YtDlpCommand is the default yt-dlp binary name.
const YtDlpCommand = "yt-dlp"

const (
	youtubeAudioFormat = "m4a"
	defaultExt         = ".media"
)

// Fetcher downloads media into a directory.
type Fetcher struct {
	dir      string
	client   *resty.Client
	ytdlp    string
	runner   services.CommandRunner
	logger   *slog.Logger
	progress io.Writer
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithRunner injects the command runner used for yt-dlp.
func WithRunner(runner services.CommandRunner) Option {
	return func(f *Fetcher) {
		if runner != nil {
			f.runner = runner
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithProgress renders a byte progress bar for HTTP downloads on w.
func WithProgress(w io.Writer) Option {
	return func(f *Fetcher) { f.progress = w }
}

// New builds a Fetcher writing into dir.
func New(dir string, cfg config.Fetch, opts ...Option) *Fetcher {
	client := resty.New().
		SetTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(time.Second).
		SetRetryMaxWaitTime(30 * time.Second).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			return err != nil || resp.StatusCode() >= http.StatusInternalServerError || resp.StatusCode() == http.StatusTooManyRequests
		})
	if ua := strings.TrimSpace(cfg.UserAgent); ua != "" {
		client.SetHeader("User-Agent", ua)
	}
	if cfg.Username != "" {
		client.SetBasicAuth(cfg.Username, cfg.Password)
	}

	f := &Fetcher{
		dir:    dir,
		client: client,
		ytdlp:  strings.TrimSpace(cfg.YtDlpBinary),
		runner: services.RunCommand,
		logger: logging.NewNop(),
	}
	if f.ytdlp == "" {
		f.ytdlp = YtDlpCommand
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = logging.NewComponentLogger(f.logger, "fetcher")
	return f
}

// DownloadURL applies the rewrites the media host needs: waveform viewer
// links are swapped for the raw file endpoint.
func DownloadURL(raw string) string {
	return strings.Replace(strings.TrimSpace(raw), "wavesurfer", "file", 1)
}

// Target returns where Fetch stores the media of rawURL under stem.
func (f *Fetcher) Target(rawURL, stem string) string {
	if corpus.IsYouTube(rawURL) {
		return filepath.Join(f.dir, stem+"."+youtubeAudioFormat)
	}
	ext := defaultExt
	if parsed, err := url.Parse(DownloadURL(rawURL)); err == nil {
		if e := path.Ext(parsed.Path); e != "" && len(e) <= 6 {
			ext = strings.ToLower(e)
		}
	}
	return filepath.Join(f.dir, stem+ext)
}

// Fetch downloads rawURL to Target(rawURL, stem) unless it already exists,
// and returns the local path.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, stem string) (string, error) {
	if strings.TrimSpace(rawURL) == "" {
		return "", services.Wrap(services.ErrValidation, "fetch", "resolve", fmt.Sprintf("no media url for %s", stem), nil)
	}
	target := f.Target(rawURL, stem)
	logger := logging.WithContext(ctx, f.logger).With(logging.String("target", target))
	if fileutil.Exists(target) {
		logger.Info("media already present; skipping download")
		return target, nil
	}
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "fetch", "prepare", f.dir, err)
	}

	started := time.Now()
	var err error
	if corpus.IsYouTube(rawURL) {
		err = f.fetchYouTube(ctx, rawURL, stem)
	} else {
		err = f.fetchHTTP(ctx, DownloadURL(rawURL), target)
	}
	if err != nil {
		return "", err
	}
	logger.Info("media downloaded", logging.Duration("elapsed", time.Since(started)))
	return target, nil
}

func (f *Fetcher) fetchYouTube(ctx context.Context, rawURL, stem string) error {
	args := []string{
		"-x",
		"--audio-format", youtubeAudioFormat,
		"--no-progress",
		"-o", filepath.Join(f.dir, stem+".%(ext)s"),
		rawURL,
	}
	if _, err := f.runner(ctx, nil, f.ytdlp, args...); err != nil {
		return services.Wrap(services.ErrExternalTool, "fetch", "yt-dlp", rawURL, err)
	}
	return nil
}

func (f *Fetcher) fetchHTTP(ctx context.Context, rawURL, target string) error {
	resp, err := f.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(rawURL)
	if err != nil {
		return services.Wrap(services.ErrTransient, "fetch", "download", rawURL, err)
	}
	body := resp.RawBody()
	defer body.Close()
	if resp.StatusCode() >= http.StatusBadRequest {
		marker := services.ErrTransient
		switch resp.StatusCode() {
		case http.StatusNotFound, http.StatusGone:
			marker = services.ErrNotFound
		case http.StatusUnauthorized, http.StatusForbidden:
			marker = services.ErrConfiguration
		}
		return services.Wrap(marker, "fetch", "download", fmt.Sprintf("%s returned %s", rawURL, resp.Status()), nil)
	}

	var reader io.Reader = body
	if f.progress != nil {
		bar := progressbar.NewOptions64(resp.RawResponse.ContentLength,
			progressbar.OptionSetWriter(f.progress),
			progressbar.OptionSetDescription(filepath.Base(target)),
			progressbar.OptionShowBytes(true),
			progressbar.OptionClearOnFinish(),
		)
		defer func() { _ = bar.Finish() }()
		reader = io.TeeReader(body, bar)
	}

	err = fileutil.WriteAtomic(target, 0o644, func(w io.Writer) error {
		_, err := io.Copy(w, reader)
		return err
	})
	if err != nil {
		return services.Wrap(services.ErrTransient, "fetch", "write", target, err)
	}
	return nil
}
