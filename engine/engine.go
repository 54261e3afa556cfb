package engine

import (
	"database/sql"

	_ "modernc.org/sqlite" // register pure-Go SQLite driver
)

// memoryDSN names a private in-memory database.
const memoryDSN = ":memory:"

// Open opens a SQLite database using the modernc.org/sqlite driver.
//
// For file-based databases, pass a path like "./points.sqlite". For in-memory
// databases, pass ":memory:"; such handles are limited to one connection
// because every new connection would otherwise see its own empty database.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if IsMemory(dsn) {
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// IsMemory reports whether dsn names the private in-memory database that
// Open limits to a single connection.
func IsMemory(dsn string) bool { return dsn == memoryDSN }
