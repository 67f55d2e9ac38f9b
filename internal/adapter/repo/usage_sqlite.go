package repo

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"foodscan/internal/domain"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

// UsageRepositorySQLite implements domain.UsageLedger on a local SQLite file.
// created_at is stored as unix milliseconds.
type UsageRepositorySQLite struct {
	db *sql.DB
}

// OpenUsageSQLite opens (or creates) the database at path and applies the schema.
func OpenUsageSQLite(ctx context.Context, path string) (*UsageRepositorySQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	} else if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}
	return &UsageRepositorySQLite{db: db}, nil
}

func (r *UsageRepositorySQLite) CountSince(ctx context.Context, userID string, since time.Time) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM api_usage WHERE user_id = ? AND created_at >= ?`,
		userID, since.UnixMilli(),
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count usage: %w", err)
	}
	return total, nil
}

func (r *UsageRepositorySQLite) Append(ctx context.Context, event domain.UsageEvent) error {
	event = normalizeEvent(event)
	props, err := encodeProperties(event.Properties)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO api_usage (id, user_id, created_at, properties) VALUES (?, ?, ?, ?)`,
		event.ID, event.UserID, event.CreatedAt.UnixMilli(), props,
	)
	if err != nil {
		return fmt.Errorf("insert usage: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (r *UsageRepositorySQLite) Close() error {
	return r.db.Close()
}

var _ domain.UsageLedger = (*UsageRepositorySQLite)(nil)
