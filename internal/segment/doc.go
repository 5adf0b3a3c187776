// Package segment turns one recording's transcript and word alignment into
// utterance spans with per-recording speaker ordinals.
//
// Segment runs a single forward pass over the words, driven by a small state
// machine:
//
//	Scanning        ordinary words extend or cut the open span
//	InLabel         a NOT_FOUND run began at the start of a line and may be
//	                a speaker label such as "Name:" or "Name =="
//	LabelTerminated the run reached its terminator; following NOT_FOUND words
//	                wait for the next aligned word to anchor their timing
//
// Untimed words inherit the end of the previous aligned word. Spans are cut
// on a resolved speaker label, or once they are at least MinSpanDuration long
// and the next word follows a silence longer than MinGap.
package segment
