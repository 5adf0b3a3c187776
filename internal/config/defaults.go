package config

const (
	defaultAlignmentDir       = "~/.local/share/speechcorpus/align"
	defaultMediaDir           = "~/.local/share/speechcorpus/media"
	defaultOutputDir          = "~/.local/share/speechcorpus/output"
	defaultLogDir             = "~/.local/share/speechcorpus/logs"
	defaultStoreFile          = "corpus.db"
	defaultMetricsFile        = "metrics.prom"
	defaultDomain             = "news"
	defaultAudioExt           = ".wav"
	defaultMaxSpeakers        = 100000
	defaultMaxRows            = 10000000
	defaultFetchUserAgent     = "speechcorpus/dev"
	defaultFetchTimeout       = 600
	defaultFetchRetries       = 3
	defaultYtDlpBinary        = "yt-dlp"
	defaultFFmpegBinary       = "ffmpeg"
	defaultFFprobeBinary      = "ffprobe"
	defaultSampleRate         = 16000
	defaultChannels           = 1
	defaultPhonetisaurus      = "phonetisaurus"
	defaultG2PModel           = "data/local/dict/g2p.fst"
	defaultG2PLexicon         = "data/local/dict/uk_pron.v3.vcb"
	defaultG2PNBest           = 2
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultLogMaxSizeMB       = 50
	defaultLogMaxBackups      = 5
	defaultLogRetentionDays   = 30
	defaultMinFreeBytesOutput = 512 << 20
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			AlignmentDir: defaultAlignmentDir,
			MediaDir:     defaultMediaDir,
			OutputDir:    defaultOutputDir,
			LogDir:       defaultLogDir,
		},
		Corpus: Corpus{
			Domain:      defaultDomain,
			AudioExt:    defaultAudioExt,
			MaxSpeakers: defaultMaxSpeakers,
			MaxRows:     defaultMaxRows,
		},
		Fetch: Fetch{
			UserAgent:      defaultFetchUserAgent,
			TimeoutSeconds: defaultFetchTimeout,
			RetryCount:     defaultFetchRetries,
			YtDlpBinary:    defaultYtDlpBinary,
		},
		Transcode: Transcode{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
			SampleRate:    defaultSampleRate,
			Channels:      defaultChannels,
		},
		Lexicon: Lexicon{
			PhonetisaurusBinary: defaultPhonetisaurus,
			ModelPath:           defaultG2PModel,
			LexiconPath:         defaultG2PLexicon,
			NBest:               defaultG2PNBest,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			MaxSizeMB:     defaultLogMaxSizeMB,
			MaxBackups:    defaultLogMaxBackups,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}

// MinFreeOutputBytes is the free space preflight expects on the output volume.
const MinFreeOutputBytes uint64 = defaultMinFreeBytesOutput
