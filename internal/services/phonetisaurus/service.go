package phonetisaurus

import (
	"bufio"
	"bytes"
	"context"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"speechcorpus/internal/config"
	"speechcorpus/internal/logging"
	"speechcorpus/internal/services"
)

// Command is the default phonetisaurus binary name.
const Command = "phonetisaurus"

// Service runs phonetisaurus predictions.
type Service struct {
	binary  string
	model   string
	lexicon string
	nbest   int
	runner  services.CommandRunner
	logger  *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithRunner injects a command runner (primarily for tests).
func WithRunner(runner services.CommandRunner) Option {
	return func(s *Service) {
		if runner != nil {
			s.runner = runner
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New builds a Service from the lexicon config section.
func New(cfg config.Lexicon, opts ...Option) *Service {
	s := &Service{
		binary:  strings.TrimSpace(cfg.PhonetisaurusBinary),
		model:   cfg.ModelPath,
		lexicon: cfg.LexiconPath,
		nbest:   cfg.NBest,
		runner:  services.RunCommand,
		logger:  logging.NewNop(),
	}
	if s.binary == "" {
		s.binary = Command
	}
	if s.nbest <= 0 {
		s.nbest = 1
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "phonetisaurus")
	return s
}

// Args returns the predict invocation.
func (s *Service) Args() []string {
	return []string{
		"predict",
		"--nbest", strconv.Itoa(s.nbest),
		"--model", s.model,
		"--lexicon", s.lexicon,
	}
}

// Predict returns up to nbest distinct pronunciations per word, in the order
// phonetisaurus printed them. Missing model files are logged and yield an
// empty result so the export continues without a lexicon.
func (s *Service) Predict(ctx context.Context, words []string) (map[string][]string, error) {
	if len(words) == 0 {
		return map[string][]string{}, nil
	}
	for _, path := range []string{s.model, s.lexicon} {
		if _, err := os.Stat(path); err != nil {
			logging.ErrorWithContext(s.logger, "g2p model files not found", "g2p_model_missing",
				logging.String("model", s.model),
				logging.String("lexicon", s.lexicon),
				logging.String(logging.FieldErrorHint, "set lexicon.model_path and lexicon.lexicon_path"),
			)
			return map[string][]string{}, nil
		}
	}

	input := strings.Join(words, "\n") + "\n"
	output, err := s.runner(ctx, strings.NewReader(input), s.binary, s.Args()...)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "phonetisaurus", "predict", "", err)
	}
	prons := Parse(output)
	s.logger.Debug("pronunciations generated",
		logging.Int("words", len(words)),
		logging.Int("predicted", len(prons)),
	)
	return prons, nil
}

// Parse reads "word phone phone ..." lines, deduplicating pronunciations per
// word while keeping their order.
func Parse(output []byte) map[string][]string {
	prons := make(map[string][]string)
	scanner := bufio.NewScanner(bytes.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		word, pron := fields[0], strings.Join(fields[1:], " ")
		if !lo.Contains(prons[word], pron) {
			prons[word] = append(prons[word], pron)
		}
	}
	return prons
}
