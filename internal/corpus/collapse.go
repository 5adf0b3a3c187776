package corpus

// Collapse merges consecutive utterances that share source, start time and
// speaker. Texts are joined with a newline; every other field, id and timing
// included, comes from the first utterance of the run. It returns the merged
// slice and the number of utterances folded away. The input is not modified.
func Collapse(utts []Utterance) ([]Utterance, int) {
	if len(utts) == 0 {
		return nil, 0
	}
	out := make([]Utterance, 0, len(utts))
	out = append(out, utts[0])
	merged := 0
	for _, u := range utts[1:] {
		prev := &out[len(out)-1]
		if u.Source == prev.Source && u.Start == prev.Start && u.SpeakerID == prev.SpeakerID {
			prev.Text += "\n" + u.Text
			if u.NormalizedText != "" {
				if prev.NormalizedText != "" {
					prev.NormalizedText += " "
				}
				prev.NormalizedText += u.NormalizedText
			}
			merged++
			continue
		}
		out = append(out, u)
	}
	return out, merged
}
