package corpus

import (
	"fmt"
	"math"
	"net/url"
	"strings"
)

const youtubeEmbedBase = "https://www.youtube.com/embed/"

// ProvenanceURL returns a link that plays [start, end] of the source media.
// YouTube links are rewritten to the embed player; other URLs get start and
// end query parameters in whole seconds. An empty sourceURL yields "".
func ProvenanceURL(sourceURL string, start, end float64) string {
	sourceURL = strings.TrimSpace(sourceURL)
	if sourceURL == "" {
		return ""
	}
	from := int64(math.Floor(start))
	to := int64(math.Ceil(end))
	if id, ok := YouTubeID(sourceURL); ok {
		return fmt.Sprintf("%s%s?start=%d&end=%d", youtubeEmbedBase, id, from, to)
	}
	sep := "?"
	if strings.Contains(sourceURL, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%sstart=%d&end=%d", sourceURL, sep, from, to)
}

// YouTubeID extracts the video id from watch, short, and embed URLs.
func YouTubeID(raw string) (string, bool) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")
	switch host {
	case "youtu.be":
		id := strings.Trim(parsed.Path, "/")
		return id, id != ""
	case "youtube.com", "youtube-nocookie.com":
		if id := parsed.Query().Get("v"); id != "" {
			return id, true
		}
		for _, prefix := range []string{"/embed/", "/shorts/", "/live/"} {
			if rest, ok := strings.CutPrefix(parsed.Path, prefix); ok {
				id := strings.Trim(rest, "/")
				return id, id != ""
			}
		}
	}
	return "", false
}

// IsYouTube reports whether raw points at a YouTube video.
func IsYouTube(raw string) bool {
	_, ok := YouTubeID(raw)
	return ok
}
