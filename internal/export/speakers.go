package export

import (
	"fmt"
	"io"
	"strings"

	"speechcorpus/internal/fileutil"
	"speechcorpus/internal/speakers"
)

// WriteSpeakersTSV writes the global speaker table with a header row.
// counts maps speaker ids to their utterance count and may be nil.
func WriteSpeakersTSV(path string, entries []speakers.Entry, counts map[string]int) error {
	return fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		if _, err := io.WriteString(w, "speaker_id\trecording_id\tlocal_ordinal\tlabel\tutterances\n"); err != nil {
			return err
		}
		for _, e := range entries {
			label := strings.NewReplacer("\t", " ", "\n", " ").Replace(e.Label)
			if _, err := fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%d\n", e.ID, e.RecordingID, e.Local, label, counts[e.ID]); err != nil {
				return err
			}
		}
		return nil
	})
}
