package corpus

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"speechcorpus/internal/services"
	"speechcorpus/internal/textutil"
)

// Entry is one recording listed in the manifest.
type Entry struct {
	ID       string `json:"id"`
	Channel  string `json:"channel,omitempty"`
	Title    string `json:"title,omitempty"`
	Date     string `json:"date,omitempty"`
	Duration string `json:"duration,omitempty"`
	FileURL  string `json:"file_url,omitempty"`
	TypeURL  string `json:"type_url,omitempty"`

	// AlignmentPath locates the alignment document. Filled by the caller.
	AlignmentPath string `json:"-"`
	// RecordingPath is the transcoded audio the utterances refer to.
	RecordingPath string `json:"-"`
}

// RecordingID is the recording name used in utterance ids.
func (e Entry) RecordingID() string {
	return textutil.MakeName(e.ID)
}

// MediaURL is the URL the media is fetched from. YouTube-hosted entries
// without a file URL resolve to the watch page of their id.
func (e Entry) MediaURL() string {
	if strings.TrimSpace(e.FileURL) != "" {
		return strings.TrimSpace(e.FileURL)
	}
	if strings.Contains(strings.ToLower(e.TypeURL), "youtube") {
		return "https://www.youtube.com/watch?v=" + e.ID
	}
	return ""
}

type manifestFile struct {
	Rows [][]json.RawMessage `json:"rows"`
}

const manifestColumns = 7

// LoadManifest reads an index.json manifest.
func LoadManifest(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, services.Wrap(services.ErrConfiguration, "manifest", "open", fmt.Sprintf("manifest %q not found", path), err)
		}
		return nil, services.Wrap(services.ErrConfiguration, "manifest", "open", path, err)
	}
	defer file.Close()
	return DecodeManifest(file)
}

// DecodeManifest parses rows of [id, channel, title, date, duration,
// file_url, type_url]. Rows are returned in file order; duplicate ids keep
// their first occurrence.
func DecodeManifest(r io.Reader) ([]Entry, error) {
	var payload manifestFile
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return nil, services.Wrap(services.ErrValidation, "manifest", "decode", "", err)
	}
	entries := make([]Entry, 0, len(payload.Rows))
	seen := make(map[string]struct{}, len(payload.Rows))
	for i, row := range payload.Rows {
		if len(row) < manifestColumns {
			return nil, services.Wrap(services.ErrValidation, "manifest", "decode",
				fmt.Sprintf("row %d has %d columns, want %d", i, len(row), manifestColumns), nil)
		}
		cols := make([]string, manifestColumns)
		for c := range cols {
			cols[c] = cellString(row[c])
		}
		if cols[0] == "" {
			return nil, services.Wrap(services.ErrValidation, "manifest", "decode", fmt.Sprintf("row %d has an empty id", i), nil)
		}
		if _, dup := seen[cols[0]]; dup {
			continue
		}
		seen[cols[0]] = struct{}{}
		entries = append(entries, Entry{
			ID:       cols[0],
			Channel:  cols[1],
			Title:    cols[2],
			Date:     cols[3],
			Duration: cols[4],
			FileURL:  cols[5],
			TypeURL:  cols[6],
		})
	}
	return entries, nil
}

// cellString renders a JSON scalar as text; strings lose their quotes and
// null becomes empty.
func cellString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return strconv.FormatBool(b)
	}
	return ""
}

// EntriesFromFiles builds entries for alignment documents given directly on
// the command line; the id is the file name without extension.
func EntriesFromFiles(paths []string) []Entry {
	entries := make([]Entry, 0, len(paths))
	for _, p := range paths {
		id := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		entries = append(entries, Entry{ID: id, AlignmentPath: p})
	}
	return entries
}
