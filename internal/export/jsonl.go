package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"speechcorpus/internal/corpus"
	"speechcorpus/internal/fileutil"
	"speechcorpus/internal/services"
)

// WriteJSONL writes one JSON object per utterance. Non-ASCII text is kept
// as is.
func WriteJSONL(w io.Writer, utts []corpus.Utterance) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, u := range utts {
		if err := enc.Encode(u); err != nil {
			return fmt.Errorf("encode utterance %s: %w", u.ID, err)
		}
	}
	return nil
}

// WriteJSONLFile writes utts to path atomically.
func WriteJSONLFile(path string, utts []corpus.Utterance) error {
	return fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		return WriteJSONL(w, utts)
	})
}

// ReadJSONL decodes utterances written by WriteJSONL. Blank lines are
// ignored; a malformed line is a validation error naming its line number.
func ReadJSONL(r io.Reader) ([]corpus.Utterance, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	var out []corpus.Utterance
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var u corpus.Utterance
		if err := json.Unmarshal([]byte(text), &u); err != nil {
			return nil, services.Wrap(services.ErrValidation, "export", "read jsonl", fmt.Sprintf("line %d", line), err)
		}
		u.MarkDecoded()
		out = append(out, u)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read jsonl: %w", err)
	}
	return out, nil
}

// ReadJSONLFile reads utterances from path; "-" means stdin.
func ReadJSONLFile(path string) ([]corpus.Utterance, error) {
	if path == "-" || path == "" {
		return ReadJSONL(os.Stdin)
	}
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, services.Wrap(services.ErrConfiguration, "export", "read jsonl", fmt.Sprintf("%s not found", path), err)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()
	return ReadJSONL(file)
}
