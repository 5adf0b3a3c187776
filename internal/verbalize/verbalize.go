package verbalize

import (
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"sync"
	"unicode"

	"github.com/samber/lo"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"speechcorpus/internal/logging"
)

// Unknown is the token emitted for words that cannot be spelled with the
// Cyrillic alphabet.
const Unknown = "<unk>"

const (
	combiningBreve     = '\u0306'
	combiningDiaeresis = '\u0308'
)

var (
	rePunct      = regexp.MustCompile(`[.,!?"«»“”…/:;–—―-]+`)
	reWhitespace = regexp.MustCompile(`[\s-]+`)
	reLeading    = regexp.MustCompile(`^['-]+`)
	reTrailing   = regexp.MustCompile(`['-]+$`)

	apostrophes = strings.NewReplacer("’", "'", "`", "'", "՚", "'")
	lower       = cases.Lower(language.Ukrainian)
)

// cyrillic lists every rune a vocabulary word may contain. The Latin i is
// kept because transcripts use it in place of the Cyrillic one.
const cyrillic = "ыёэъйцукенгшщзхїфивапролджєґячсміiтьбю" +
	"ЫЁЭЪЙЦУКЕНГШЩЗХЇФИВАПРОЛДЖЄҐЯЧСМІТЬБЮ' -"

func isVocabularyRune(r rune) bool {
	return strings.ContainsRune(cyrillic, r)
}

// stripMarks removes combining marks except the breve of й and the
// diaeresis of ї, then recomposes.
func stripMarks(s string) string {
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.Predicate(func(r rune) bool {
			return unicode.Is(unicode.Mn, r) && r != combiningBreve && r != combiningDiaeresis
		})),
		norm.NFC,
	)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Clean normalizes a sentence without tokenizing it.
func Clean(text string) string {
	s := norm.NFC.String(text)
	s = lower.String(s)
	s = apostrophes.Replace(s)
	s = rePunct.ReplaceAllString(s, " ")
	s = stripMarks(s)
	s = reWhitespace.ReplaceAllString(s, " ")
	s = reLeading.ReplaceAllString(s, "")
	s = reTrailing.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// Verbalizer converts text to vocabulary tokens and remembers every token it
// produced. It is safe for concurrent use.
type Verbalizer struct {
	logger *slog.Logger

	mu      sync.Mutex
	unknown map[string]int
	vocab   map[string]struct{}
}

// New returns a Verbalizer that logs unrepresentable words at debug level.
func New(logger *slog.Logger) *Verbalizer {
	return &Verbalizer{
		logger:  logging.NewComponentLogger(logger, "verbalize"),
		unknown: make(map[string]int),
		vocab:   make(map[string]struct{}),
	}
}

// Words returns the vocabulary tokens of text.
func (v *Verbalizer) Words(text, utteranceID string) []string {
	fields := strings.Fields(Clean(text))
	words := make([]string, 0, len(fields))

	v.mu.Lock()
	defer v.mu.Unlock()
	for _, f := range fields {
		if strings.IndexFunc(f, func(r rune) bool { return !isVocabularyRune(r) }) >= 0 {
			v.unknown[f]++
			v.logger.Debug("word not represented",
				logging.String(logging.FieldUtteranceID, utteranceID),
				logging.String("word", f),
			)
			words = append(words, Unknown)
			continue
		}
		v.vocab[f] = struct{}{}
		words = append(words, f)
	}
	return words
}

// Unknown returns how many tokens were replaced by <unk> so far.
func (v *Verbalizer) Unknown() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	total := 0
	for _, n := range v.unknown {
		total += n
	}
	return total
}

// UnknownWords returns each replaced token with its number of occurrences.
func (v *Verbalizer) UnknownWords() map[string]int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return lo.Assign(v.unknown)
}

// Vocabulary returns the distinct words produced so far, sorted.
func (v *Verbalizer) Vocabulary() []string {
	v.mu.Lock()
	words := lo.Keys(v.vocab)
	v.mu.Unlock()
	slices.Sort(words)
	return words
}
