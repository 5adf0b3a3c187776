// Package main hosts the speechcorpus CLI entrypoint and command graph.
//
// The Cobra command tree turns forced-alignment output into a speech corpus:
// "fetch" downloads and transcodes source media, "build" segments alignment
// documents into utterances and assigns global speaker ids, and "kaldi"
// renders a built corpus as a Kaldi data directory. "speakers" and "search"
// query the SQLite index a build leaves behind; "doctor" reports whether the
// configured directories and tools are usable.
//
// Keep this package lean: the corpus logic lives in internal packages and
// commands only resolve configuration, wire collaborators and render output.
// Failures exit with the status services.ExitCode assigns to them.
package main
