package sessionlog

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"mediasort/internal/fileutil"
)

// Status is the terminal state of one processed file.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// FileEntry records the outcome of one file.
type FileEntry struct {
	Source      string    `json:"source"`
	Destination string    `json:"destination,omitempty"`
	Status      Status    `json:"status"`
	Message     string    `json:"message,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// ErrorEntry records a non-file-scoped error observed during the session.
type ErrorEntry struct {
	Message   string    `json:"message"`
	Context   string    `json:"context,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Summary aggregates outcome counts.
type Summary struct {
	Total      int `json:"total_files"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
	Skipped    int `json:"skipped"`
}

type document struct {
	SessionID string         `json:"session_id"`
	Command   string         `json:"command"`
	Args      map[string]any `json:"args,omitempty"`
	StartTime time.Time      `json:"start_time"`
	EndTime   time.Time      `json:"end_time"`
	Duration  float64        `json:"duration_seconds"`
	Files     []FileEntry    `json:"files_processed"`
	Errors    []ErrorEntry   `json:"errors,omitempty"`
	Summary   Summary        `json:"summary"`
}

// Logger accumulates one session's record. Callers serialize Log* calls.
type Logger struct {
	id      string
	logDir  string
	store   *Store
	doc     document
	started time.Time
}

// New creates a session logger writing its JSON document into logDir and,
// when store is non-nil, mirroring the session into the history database.
func New(logDir string, store *Store) *Logger {
	now := time.Now().UTC()
	id := uuid.NewString()
	return &Logger{
		id:      id,
		logDir:  logDir,
		store:   store,
		started: now,
		doc: document{
			SessionID: id,
			StartTime: now,
		},
	}
}

// ID returns the session identifier.
func (l *Logger) ID() string { return l.id }

// SetCommand records the invoked command and its arguments.
func (l *Logger) SetCommand(command string, args map[string]any) {
	l.doc.Command = command
	l.doc.Args = args
}

// LogFile records one processed file and updates the summary.
func (l *Logger) LogFile(source, destination string, status Status, message string) {
	l.doc.Files = append(l.doc.Files, FileEntry{
		Source:      source,
		Destination: destination,
		Status:      status,
		Message:     message,
		Timestamp:   time.Now().UTC(),
	})
	l.doc.Summary.Total++
	switch status {
	case StatusSuccess:
		l.doc.Summary.Successful++
	case StatusFailed:
		l.doc.Summary.Failed++
	case StatusSkipped:
		l.doc.Summary.Skipped++
	}
}

// LogError records a session-level error.
func (l *Logger) LogError(message, context string) {
	l.doc.Errors = append(l.doc.Errors, ErrorEntry{
		Message:   message,
		Context:   context,
		Timestamp: time.Now().UTC(),
	})
}

// Summary returns the current aggregate counts.
func (l *Logger) Summary() Summary {
	return l.doc.Summary
}

// Finalize stamps the session end, writes the JSON document, and inserts
// the session into the history store. It returns the document path.
func (l *Logger) Finalize(ctx context.Context) (string, error) {
	l.doc.EndTime = time.Now().UTC()
	l.doc.Duration = l.doc.EndTime.Sub(l.doc.StartTime).Seconds()

	data, err := json.MarshalIndent(l.doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode session log: %w", err)
	}
	path := filepath.Join(l.logDir, fmt.Sprintf("session_%s.json", l.id))
	if err := fileutil.WriteFileAtomic(path, data); err != nil {
		return "", fmt.Errorf("write session log: %w", err)
	}

	if l.store != nil {
		record := Record{
			SessionID: l.doc.SessionID,
			Command:   l.doc.Command,
			StartTime: l.doc.StartTime,
			EndTime:   l.doc.EndTime,
			Total:     l.doc.Summary.Total,
			Succeeded: l.doc.Summary.Successful,
			Failed:    l.doc.Summary.Failed,
			Skipped:   l.doc.Summary.Skipped,
			LogPath:   path,
		}
		if err := l.store.InsertSession(ctx, record, l.doc.Files); err != nil {
			return path, fmt.Errorf("persist session history: %w", err)
		}
	}
	return path, nil
}
