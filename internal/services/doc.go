// Package services defines shared utilities consumed by the corpus builder
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp recording IDs, stage names, and run
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that classify failures
//     into process exit codes (configuration vs validation vs hard limits).
//   - A CommandRunner abstraction that makes external tool execution
//     testable without the binaries installed.
//
// Use these helpers when wiring new collaborators so error handling and
// observability stay uniform across the pipeline.
package services
