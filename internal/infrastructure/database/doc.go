// Package database manages the SQLite store backing the child run history.
//
// It wraps database/sql with connection setup tuned for SQLite (single
// writer, WAL, busy timeout) and applies embedded schema migrations at
// startup. Repositories in other packages build on the *DB it exposes; this
// package owns no domain queries itself.
package database
