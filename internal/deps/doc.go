// Package deps checks that the external tools used by the fetch, transcode
// and lexicon steps are installed.
package deps
