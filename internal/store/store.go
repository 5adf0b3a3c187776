package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"speechcorpus/internal/corpus"
	"speechcorpus/internal/services"
	"speechcorpus/internal/speakers"
)

// Store is the SQLite-backed corpus store.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open creates or opens the database at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "store", "open", "empty store path", nil)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure store directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	st := &Store{db: db, path: path}
	if err := st.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code()&0xff == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

// withTx runs fn in a transaction, retrying the whole transaction while the
// database is busy.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()
		if err := fn(tx); err != nil {
			return err
		}
		return tx.Commit()
	})
}

const upsertUtterance = `INSERT INTO utterances (
    id, recording_id, utterance_id, speaker_id, text, normalized_text,
    start_seconds, end_seconds, domain, source, provenance_url, recording_path,
    speaker_label, run_id, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    recording_id = excluded.recording_id,
    utterance_id = excluded.utterance_id,
    speaker_id = excluded.speaker_id,
    text = excluded.text,
    normalized_text = excluded.normalized_text,
    start_seconds = excluded.start_seconds,
    end_seconds = excluded.end_seconds,
    domain = excluded.domain,
    source = excluded.source,
    provenance_url = excluded.provenance_url,
    recording_path = excluded.recording_path,
    speaker_label = excluded.speaker_label,
    run_id = excluded.run_id`

const upsertSpeaker = `INSERT INTO speakers (speaker_id, recording_id, local_ordinal, label)
VALUES (?, ?, ?, ?)
ON CONFLICT (speaker_id) DO UPDATE SET
    recording_id = excluded.recording_id,
    local_ordinal = excluded.local_ordinal,
    label = excluded.label`

// PutUtterances inserts or updates utterances by id.
func (s *Store) PutUtterances(ctx context.Context, runID string, utts []corpus.Utterance) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return insertUtterances(ctx, tx, runID, utts)
	})
}

// PutSpeakers inserts or updates speaker table rows.
func (s *Store) PutSpeakers(ctx context.Context, entries []speakers.Entry) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return insertSpeakers(ctx, tx, entries)
	})
}

// ReplaceCorpus swaps the stored corpus for c in one transaction.
func (s *Store) ReplaceCorpus(ctx context.Context, c *corpus.Corpus) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range []string{"DELETE FROM utterances", "DELETE FROM speakers"} {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("clear corpus: %w", err)
			}
		}
		if err := insertUtterances(ctx, tx, c.RunID, c.Utterances()); err != nil {
			return err
		}
		return insertSpeakers(ctx, tx, c.Speakers.Entries())
	})
}

func insertUtterances(ctx context.Context, tx *sql.Tx, runID string, utts []corpus.Utterance) error {
	stmt, err := tx.PrepareContext(ctx, upsertUtterance)
	if err != nil {
		return fmt.Errorf("prepare utterance insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, u := range utts {
		_, err := stmt.ExecContext(ctx,
			u.ID, u.RecordingID, u.UtteranceID, u.SpeakerID, u.Text, u.NormalizedText,
			u.Start, u.End, u.Domain, u.Source,
			nullableString(u.ProvenanceURL), nullableString(u.RecordingPath), nullableString(u.SpeakerLabel),
			nullableString(runID), now,
		)
		if err != nil {
			return fmt.Errorf("insert utterance %s: %w", u.ID, err)
		}
	}
	return nil
}

func insertSpeakers(ctx context.Context, tx *sql.Tx, entries []speakers.Entry) error {
	stmt, err := tx.PrepareContext(ctx, upsertSpeaker)
	if err != nil {
		return fmt.Errorf("prepare speaker insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.ID, e.RecordingID, e.Local, nullableString(e.Label)); err != nil {
			return fmt.Errorf("insert speaker %s: %w", e.ID, err)
		}
	}
	return nil
}

const utteranceColumns = `u.id, u.recording_id, u.utterance_id, u.speaker_id, u.text, u.normalized_text,
    u.start_seconds, u.end_seconds, u.domain, u.source, u.provenance_url, u.recording_path, u.speaker_label`

// Get returns the utterance with the given id.
func (s *Store) Get(ctx context.Context, id string) (corpus.Utterance, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+utteranceColumns+" FROM utterances u WHERE u.id = ?", id)
	u, err := scanUtterance(row)
	if errors.Is(err, sql.ErrNoRows) {
		return corpus.Utterance{}, services.Wrap(services.ErrNotFound, "store", "get", fmt.Sprintf("utterance %s", id), nil)
	}
	if err != nil {
		return corpus.Utterance{}, fmt.Errorf("get utterance: %w", err)
	}
	return u, nil
}

// ByRecording lists a recording's utterances in utterance order.
func (s *Store) ByRecording(ctx context.Context, recordingID string) ([]corpus.Utterance, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+utteranceColumns+" FROM utterances u WHERE u.recording_id = ? ORDER BY u.utterance_id", recordingID)
	if err != nil {
		return nil, fmt.Errorf("list recording utterances: %w", err)
	}
	return collectUtterances(rows)
}

// Search runs an FTS5 query over utterance text, best matches first.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]corpus.Utterance, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, services.Wrap(services.ErrValidation, "store", "search", "empty query", nil)
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+utteranceColumns+`
           FROM utterances_fts f
           JOIN utterances u ON u.rowid = f.rowid
          WHERE utterances_fts MATCH ?
          ORDER BY f.rank, u.utterance_id
          LIMIT ?`, query, limit)
	if err == nil {
		var hits []corpus.Utterance
		hits, err = collectUtterances(rows)
		if err == nil {
			return hits, nil
		}
	}
	if isQueryError(err) {
		return nil, services.Wrap(services.ErrValidation, "store", "search", fmt.Sprintf("query %q", query), err)
	}
	return nil, fmt.Errorf("search utterances: %w", err)
}

// isQueryError reports whether err comes from parsing an FTS5 MATCH
// expression. SQLite reports these at prepare or first step.
func isQueryError(err error) bool {
	msg := err.Error()
	for _, marker := range []string{"fts5", "syntax error", "unterminated string", "no such column"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// Count returns the number of stored utterances.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM utterances").Scan(&n); err != nil {
		return 0, fmt.Errorf("count utterances: %w", err)
	}
	return n, nil
}

// Speakers returns the speaker table ordered by id.
func (s *Store) Speakers(ctx context.Context) ([]speakers.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT speaker_id, recording_id, local_ordinal, label FROM speakers ORDER BY speaker_id")
	if err != nil {
		return nil, fmt.Errorf("list speakers: %w", err)
	}
	defer rows.Close()

	var out []speakers.Entry
	for rows.Next() {
		var e speakers.Entry
		var label sql.NullString
		if err := rows.Scan(&e.ID, &e.RecordingID, &e.Local, &label); err != nil {
			return nil, fmt.Errorf("scan speaker: %w", err)
		}
		e.Label = label.String
		out = append(out, e)
	}
	return out, rows.Err()
}

// SpeakerCounts returns the number of utterances per speaker id.
func (s *Store) SpeakerCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT speaker_id, COUNT(1) FROM utterances GROUP BY speaker_id")
	if err != nil {
		return nil, fmt.Errorf("count speaker utterances: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scan speaker count: %w", err)
		}
		out[id] = n
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUtterance(row scanner) (corpus.Utterance, error) {
	var u corpus.Utterance
	var provenance, recordingPath, label sql.NullString
	err := row.Scan(
		&u.ID, &u.RecordingID, &u.UtteranceID, &u.SpeakerID, &u.Text, &u.NormalizedText,
		&u.Start, &u.End, &u.Domain, &u.Source, &provenance, &recordingPath, &label,
	)
	if err != nil {
		return corpus.Utterance{}, err
	}
	u.ProvenanceURL = provenance.String
	u.RecordingPath = recordingPath.String
	u.SpeakerLabel = label.String
	u.MarkDecoded()
	return u, nil
}

func collectUtterances(rows *sql.Rows) ([]corpus.Utterance, error) {
	defer rows.Close()
	var out []corpus.Utterance
	for rows.Next() {
		u, err := scanUtterance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan utterance: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
