// Package database opens and manages the sqlite store file: connection
// pragmas, schema migrations, and the transaction plumbing the repositories
// run on.
package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Config holds database configuration settings.
type Config struct {
	Path               string
	MaxOpenConnections int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
	BusyTimeout        time.Duration
	ReadOnly           bool
}

// DSN builds the sqlite connection string for the configured store file.
// Pragmas ride on the DSN so every pooled connection gets them: WAL journaling
// for concurrent readers, NORMAL synchronous (safe under WAL), enforced
// foreign keys, and a busy timeout so short lock contention waits instead of
// failing immediately. Read-only connections skip the journal pragmas;
// switching journal modes needs a writable handle.
func (c Config) DSN() string {
	params := []string{
		fmt.Sprintf("_pragma=busy_timeout(%d)", c.BusyTimeout.Milliseconds()),
	}
	if c.ReadOnly {
		params = append([]string{"mode=ro"}, params...)
	} else {
		params = append(params,
			"_pragma=journal_mode(WAL)",
			"_pragma=synchronous(NORMAL)",
		)
	}
	params = append(params, "_pragma=foreign_keys(1)")
	return fmt.Sprintf("file:%s?%s", c.Path, strings.Join(params, "&"))
}

// Connect establishes a database connection with the given configuration.
func Connect(cfg Config) (*sql.DB, error) {
	db, err := sql.Open("sqlite", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConnections)
	db.SetMaxIdleConns(cfg.MaxIdleConnections)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
