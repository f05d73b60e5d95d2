package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"crm_sync_backend/platform/config"

	"github.com/go-sql-driver/mysql"
)

// NewMySQL opens the scheduling ledger (MariaDB). Agenda timestamps are
// stored as local DATETIME values, so they are parsed in loc.
func NewMySQL(ctx context.Context, cfg config.SchedulingLedgerConfig, loc *time.Location) (*sql.DB, error) {
	dsn, err := mysqlDSN(cfg.GetAgendaDatabaseDSN(), loc)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open agenda database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping agenda database: %w", err)
	}

	return db, nil
}

func mysqlDSN(raw string, loc *time.Location) (string, error) {
	parsed, err := mysql.ParseDSN(raw)
	if err != nil {
		return "", fmt.Errorf("parse AGENDA_DATABASE_DSN: %w", err)
	}
	parsed.ParseTime = true
	if loc != nil {
		parsed.Loc = loc
	}
	if parsed.Timeout == 0 {
		parsed.Timeout = 5 * time.Second
	}
	if parsed.ReadTimeout == 0 {
		parsed.ReadTimeout = 30 * time.Second
	}
	return parsed.FormatDSN(), nil
}

// SQLAdapter exposes a database/sql handle as a health checker.
type SQLAdapter struct {
	db *sql.DB
}

// NewSQLAdapter wraps db.
func NewSQLAdapter(db *sql.DB) *SQLAdapter {
	return &SQLAdapter{db: db}
}

// Ping checks the scheduling ledger connection.
func (a *SQLAdapter) Ping(ctx context.Context) error {
	return a.db.PingContext(ctx)
}
