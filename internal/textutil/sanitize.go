package textutil

import "strings"

// recordingNameWidth is the fixed width of names produced by MakeName.
const recordingNameWidth = 11

var recordingNameReplacer = strings.NewReplacer(".", "0", "-", "0")

// MakeName derives a recording name from a source identifier: dots and dashes
// become zeros and the result is left-padded with zeros to eleven characters.
// Names sort stably and never contain the '-' used as the utterance id
// separator. Longer identifiers are kept whole.
func MakeName(source string) string {
	name := recordingNameReplacer.Replace(strings.TrimSpace(source))
	if pad := recordingNameWidth - len(name); pad > 0 {
		name = strings.Repeat("0", pad) + name
	}
	return name
}

// SanitizeToken converts a string to a lowercase filesystem-safe token.
// Letters are lowercased, digits and hyphens/underscores are kept, everything
// else becomes an underscore. Returns "unknown" for empty input.
func SanitizeToken(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "_-")
	if out == "" {
		return "unknown"
	}
	return out
}
