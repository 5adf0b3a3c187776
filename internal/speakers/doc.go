// Package speakers maps per-recording speaker ordinals to corpus-global
// speaker identifiers.
//
// A Registry hands out global ordinals in first-encounter order over
// (recording, local ordinal) keys and never reassigns one. The same local
// ordinal in two recordings is two different speakers.
package speakers
