// SPDX-License-Identifier: MIT

// Package sqlite opens SQLite connection pools with the operational
// PRAGMAs every store in this service depends on.
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure Go driver
)

// Config defines the pool parameters for one database file.
type Config struct {
	BusyTimeout  time.Duration
	MaxOpenConns int
}

// DefaultConfig returns the pool configuration both stores share. The
// workload is a handful of catalog reads plus one status upsert per
// run, so the pool stays small; SQLite serializes writers anyway and
// extra connections only add lock contention.
func DefaultConfig() Config {
	return Config{
		BusyTimeout:  5 * time.Second,
		MaxOpenConns: 8,
	}
}

// Open initializes a SQLite connection pool. The PRAGMAs ride in the
// DSN so every pooled connection gets them, not just the first: WAL so
// status reads never block behind a generation run's upsert,
// busy_timeout so a briefly held write lock waits instead of failing,
// synchronous NORMAL (safe under WAL), and foreign_keys on.
func Open(dbPath string, cfg Config) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)",
		dbPath, cfg.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open failed: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxOpenConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping failed: %w", err)
	}

	return db, nil
}
