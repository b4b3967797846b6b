package sessionlog

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    rowid INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL UNIQUE,
    command TEXT NOT NULL,
    started_at TEXT NOT NULL,
    finished_at TEXT NOT NULL,
    total_files INTEGER NOT NULL DEFAULT 0,
    succeeded INTEGER NOT NULL DEFAULT 0,
    failed INTEGER NOT NULL DEFAULT 0,
    skipped INTEGER NOT NULL DEFAULT 0,
    log_path TEXT
);

CREATE TABLE IF NOT EXISTS session_files (
    rowid INTEGER PRIMARY KEY AUTOINCREMENT,
    session_rowid INTEGER NOT NULL REFERENCES sessions(rowid) ON DELETE CASCADE,
    source TEXT NOT NULL,
    destination TEXT,
    status TEXT NOT NULL,
    message TEXT,
    processed_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_session_files_session
    ON session_files(session_rowid);
`
