// Package alignment decodes forced-alignment documents and exposes the
// transcript through a code-point indexed View.
//
// Offsets produced by the aligner count Unicode code points, not bytes, so
// every slice into the transcript goes through View. Words carry their
// alignment Case and, when known, their audio timing in seconds.
package alignment
