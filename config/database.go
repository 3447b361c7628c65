package config

import (
	"database/sql"
	"fmt"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"upload-ai/constant"
)

// OpenDB opens the connection pool for the configured record store driver.
// The pool is lazy: nothing is dialed until the first query.
func OpenDB(cfg Database) (*sql.DB, error) {
	switch constant.DatabaseDriver(cfg.Driver) {
	case constant.DatabaseDriverPostgres:
		return sql.Open("postgres", cfg.DSN)
	case constant.DatabaseDriverSQLite:
		dsn := cfg.DSN
		if dsn == "" {
			dsn = "file:upload-ai.db?_journal_mode=WAL&_busy_timeout=5000"
		}
		return sql.Open("sqlite3", dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
