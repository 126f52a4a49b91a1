// Package state implements persistence for the server's alarm State.
//
// FileRepository keeps the state as a JSON document, SQLiteRepository keeps
// it in a SQLite database migrated with goose. Both satisfy Repository,
// which the server service depends on. Watch reports external edits of the
// JSON document so a running server can pick them up.
package state
