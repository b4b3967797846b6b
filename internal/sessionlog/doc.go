// Package sessionlog records per-file outcomes for one batch session.
//
// Each session produces two artifacts on Finalize: a human-inspectable
// JSON document under the log directory and rows in the SQLite history
// database queried by the sessions command. Log calls are not internally
// synchronized; the orchestrator serializes them under its reporting lock.
package sessionlog
