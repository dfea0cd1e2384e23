// Package store provides SQL-backed durable storage for wiki pages.
//
// The store owns a bounded database/sql connection pool and the single
// Pages table. Statement text comes from a catalog.Catalog, so the package
// itself holds no SQL.
//
// # Connection Discipline
//
// Every operation leases one *sql.Conn, runs exactly one statement on it,
// and hands it back to the pool before returning, on success and on error.
// No connection or transaction outlives an operation, so there is no
// multi-statement atomicity and no locking beyond what the pool provides.
//
// # Concurrency
//
// Operations may run concurrently. Writes to the same page resolve
// last-write-wins at the statement level; there is no versioning.
//
// # Database Configuration
//
// The default driver is SQLite (github.com/mattn/go-sqlite3). Per-connection
// settings are passed in the DSN so every pooled connection gets them:
//
//	db/wiki.db?_busy_timeout=5000&_journal_mode=WAL
package store
