// Package preflight provides readiness checks for the directories and
// external tools a corpus build depends on.
//
// The CLI "doctor" command renders every result; "build" and "fetch" run
// RunAll first and stop on the first failed check so a long run does not
// die halfway through on a read-only output directory or a full disk.
// Checks for optional tools are reported but never fail the run.
package preflight
