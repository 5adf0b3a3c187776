// Package store persists a built corpus in SQLite so utterances can be looked
// up by id, listed per recording, and searched by text.
//
// The schema lives in schema.sql and is embedded into the binary. A database
// created by a different schema version is rejected with ErrSchemaMismatch;
// delete it and rebuild the corpus. Text search uses an FTS5 index kept in
// sync with the utterances table by triggers.
package store
