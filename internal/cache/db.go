package cache

import (
	"database/sql"
	"sync"

	_ "modernc.org/sqlite"
)

// DB wraps sql.DB and serializes all write operations behind a single mutex.
// SQLite allows only one writer at a time; funnelling writes through here
// means callers never need their own locking.
type DB struct {
	conn    *sql.DB
	writeMu sync.Mutex
}

// OpenDB opens (or creates) a SQLite database at path. Use ":memory:" for an
// ephemeral instance in tests.
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// WAL keeps readers unblocked during the replace transaction; the busy
	// timeout covers the window where another process holds the file.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := conn.Exec(p); err != nil {
			conn.Close()
			return nil, err
		}
	}

	return &DB{conn: conn}, nil
}

// Exec runs a write statement under the write lock.
func (db *DB) Exec(query string, args ...any) (sql.Result, error) {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()
	return db.conn.Exec(query, args...)
}

// Begin starts a transaction, holding the write lock until Commit or
// Rollback releases it.
func (db *DB) Begin() (*Tx, error) {
	db.writeMu.Lock()
	tx, err := db.conn.Begin()
	if err != nil {
		db.writeMu.Unlock()
		return nil, err
	}
	return &Tx{tx: tx, db: db}, nil
}

// Query performs a read; reads don't contend for the write lock.
func (db *DB) Query(query string, args ...any) (*sql.Rows, error) {
	return db.conn.Query(query, args...)
}

// QueryRow performs a single-row read.
func (db *DB) QueryRow(query string, args ...any) *sql.Row {
	return db.conn.QueryRow(query, args...)
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()
	return db.conn.Close()
}

// Tx wraps sql.Tx so the write lock is released exactly once regardless of
// how the transaction finishes. The usual pattern is `defer tx.Rollback()`
// followed by an explicit Commit; the second call is a no-op.
type Tx struct {
	tx       *sql.Tx
	db       *DB
	finished bool
}

func (t *Tx) Exec(query string, args ...any) (sql.Result, error) {
	return t.tx.Exec(query, args...)
}

func (t *Tx) Prepare(query string) (*sql.Stmt, error) {
	return t.tx.Prepare(query)
}

func (t *Tx) Query(query string, args ...any) (*sql.Rows, error) {
	return t.tx.Query(query, args...)
}

func (t *Tx) Commit() error {
	if t.finished {
		return nil
	}
	t.finished = true
	defer t.db.writeMu.Unlock()
	return t.tx.Commit()
}

func (t *Tx) Rollback() error {
	if t.finished {
		return nil
	}
	t.finished = true
	defer t.db.writeMu.Unlock()
	return t.tx.Rollback()
}
