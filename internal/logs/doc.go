// Package logs reads back the rotated log file that corpus commands write.
//
// Tail returns the last lines of the file, optionally narrowed to one build
// (run_id) or one recording (recording_id), and can follow the file for new
// lines. Both the console and JSON encodings are understood by the field
// filters, so a log written with either format can be searched.
package logs
