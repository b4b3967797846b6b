package sessionlog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Record is one session row in the history database.
type Record struct {
	SessionID string
	Command   string
	StartTime time.Time
	EndTime   time.Time
	Total     int
	Succeeded int
	Failed    int
	Skipped   int
	LogPath   string
}

// Store manages session history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// OpenStore initializes or connects to the session database and applies
// the schema.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.applySchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) applySchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// InsertSession stores one finished session and its per-file outcomes in a
// single transaction.
func (s *Store) InsertSession(ctx context.Context, record Record, files []FileEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin session insert: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(
		ctx,
		`INSERT INTO sessions (
            session_id, command, started_at, finished_at,
            total_files, succeeded, failed, skipped, log_path
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.SessionID,
		record.Command,
		record.StartTime.Format(time.RFC3339Nano),
		record.EndTime.Format(time.RFC3339Nano),
		record.Total,
		record.Succeeded,
		record.Failed,
		record.Skipped,
		nullableString(record.LogPath),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	sessionRowID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}

	for _, file := range files {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO session_files (
                session_rowid, source, destination, status, message, processed_at
            ) VALUES (?, ?, ?, ?, ?, ?)`,
			sessionRowID,
			file.Source,
			nullableString(file.Destination),
			string(file.Status),
			nullableString(file.Message),
			file.Timestamp.Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("insert session file: %w", err)
		}
	}

	return tx.Commit()
}

// RecentSessions returns up to limit sessions, newest first.
func (s *Store) RecentSessions(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT session_id, command, started_at, finished_at,
                total_files, succeeded, failed, skipped, COALESCE(log_path, '')
         FROM sessions ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var record Record
		var started, finished string
		if err := rows.Scan(
			&record.SessionID, &record.Command, &started, &finished,
			&record.Total, &record.Succeeded, &record.Failed, &record.Skipped,
			&record.LogPath,
		); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		record.StartTime, _ = time.Parse(time.RFC3339Nano, started)
		record.EndTime, _ = time.Parse(time.RFC3339Nano, finished)
		records = append(records, record)
	}
	return records, rows.Err()
}

// SessionFiles returns the per-file outcomes recorded for a session.
func (s *Store) SessionFiles(ctx context.Context, sessionID string) ([]FileEntry, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT f.source, COALESCE(f.destination, ''), f.status, COALESCE(f.message, ''), f.processed_at
         FROM session_files f
         JOIN sessions s ON s.rowid = f.session_rowid
         WHERE s.session_id = ?
         ORDER BY f.rowid`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query session files: %w", err)
	}
	defer rows.Close()

	var entries []FileEntry
	for rows.Next() {
		var entry FileEntry
		var status, processed string
		if err := rows.Scan(&entry.Source, &entry.Destination, &status, &entry.Message, &processed); err != nil {
			return nil, fmt.Errorf("scan session file: %w", err)
		}
		entry.Status = Status(status)
		entry.Timestamp, _ = time.Parse(time.RFC3339Nano, processed)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
