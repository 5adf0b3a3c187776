// Package fetcher downloads source media for the corpus. YouTube URLs are
// handed to yt-dlp for audio extraction; everything else is streamed over
// HTTP with resty. Existing targets are never fetched again.
package fetcher
