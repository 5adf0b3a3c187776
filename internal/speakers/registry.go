package speakers

import (
	"fmt"
	"strconv"
	"strings"

	"speechcorpus/internal/services"
)

// MaxSpeakers is the number of distinct global ids the five-digit format holds.
const MaxSpeakers = 100000

// GlobalID formats a zero-based global ordinal.
func GlobalID(ordinal int) string {
	return fmt.Sprintf("S%05d", ordinal)
}

// LocalID formats a per-recording ordinal; zero marks unlabelled speech.
func LocalID(ordinal int) string {
	return fmt.Sprintf("L%05d", ordinal)
}

// IsGlobal reports whether id was produced by GlobalID.
func IsGlobal(id string) bool {
	return isFormatted(id, 'S')
}

// ParseLocal extracts the ordinal from an id produced by LocalID.
func ParseLocal(id string) (int, bool) {
	if !isFormatted(id, 'L') {
		return 0, false
	}
	n, err := strconv.Atoi(id[1:])
	if err != nil {
		return 0, false
	}
	return n, true
}

func isFormatted(id string, prefix byte) bool {
	if len(id) != 6 || id[0] != prefix {
		return false
	}
	return strings.Trim(id[1:], "0123456789") == ""
}

// Key identifies a speaker within one recording.
type Key struct {
	RecordingID string
	Local       int
}

// Entry is one row of the global speaker table.
type Entry struct {
	ID          string `json:"speaker_id"`
	RecordingID string `json:"recording_id"`
	Local       int    `json:"local_ordinal"`
	Label       string `json:"label,omitempty"`
}

// Registry is the corpus-global speaker table. It is not safe for concurrent
// use; the corpus builder owns it from a single goroutine.
type Registry struct {
	limit   int
	ids     map[Key]int
	entries []Entry
}

// NewRegistry returns an empty table that refuses to grow past limit
// speakers. A limit outside (0, MaxSpeakers] means MaxSpeakers.
func NewRegistry(limit int) *Registry {
	if limit <= 0 || limit > MaxSpeakers {
		limit = MaxSpeakers
	}
	return &Registry{limit: limit, ids: make(map[Key]int)}
}

// Resolve returns the global id of (recordingID, local), assigning the next
// ordinal on first sight. Exceeding the limit is fatal for the build.
func (r *Registry) Resolve(recordingID string, local int, label string) (string, error) {
	key := Key{RecordingID: recordingID, Local: local}
	if ordinal, ok := r.ids[key]; ok {
		return r.entries[ordinal].ID, nil
	}
	ordinal := len(r.entries)
	if ordinal >= r.limit {
		return "", services.Wrap(services.ErrLimitExceeded, "speakers", "resolve",
			fmt.Sprintf("more than %d distinct speakers (recording %s)", r.limit, recordingID), nil)
	}
	entry := Entry{ID: GlobalID(ordinal), RecordingID: recordingID, Local: local, Label: label}
	r.ids[key] = ordinal
	r.entries = append(r.entries, entry)
	return entry.ID, nil
}

// Lookup returns the global id of a key without assigning one.
func (r *Registry) Lookup(recordingID string, local int) (string, bool) {
	ordinal, ok := r.ids[Key{RecordingID: recordingID, Local: local}]
	if !ok {
		return "", false
	}
	return r.entries[ordinal].ID, true
}

// Len returns the number of assigned ids.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Entries returns the table in assignment order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}
