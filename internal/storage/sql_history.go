// Package storage persists the article history window.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/deusflow/aqibot/internal/article"
)

// Dialect selects the SQL driver and placeholder style.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// SQLHistory keeps the link history in a link_history table, one row per
// link, ordered by position.
type SQLHistory struct {
	db      *sql.DB
	dialect Dialect
}

// OpenSQLHistory connects with the dialect's driver and creates the table if
// it does not exist.
func OpenSQLHistory(ctx context.Context, dialect Dialect, dsn string, logger *slog.Logger) (*SQLHistory, error) {
	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialect, err)
	}
	if dialect == SQLite {
		// an in-memory database lives only as long as its one connection
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", dialect, err)
	}

	h := &SQLHistory{db: db, dialect: dialect}
	if err := h.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("history database connected", "dialect", dialect)
	return h, nil
}

func (h *SQLHistory) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS link_history (
		position INTEGER NOT NULL,
		title TEXT NOT NULL,
		url TEXT NOT NULL
	)`
	if _, err := h.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// placeholders renders n bind parameters in the dialect's style.
func (h *SQLHistory) placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		if h.dialect == Postgres {
			parts[i] = "$" + strconv.Itoa(i+1)
		} else {
			parts[i] = "?"
		}
	}
	return strings.Join(parts, ", ")
}

// Load returns the stored history, oldest first.
func (h *SQLHistory) Load(ctx context.Context) (article.History, error) {
	rows, err := h.db.QueryContext(ctx, `SELECT title, url FROM link_history ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var items article.History
	for rows.Next() {
		var c article.Candidate
		if err := rows.Scan(&c.Title, &c.URL); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return items, nil
}

// Save replaces the stored history in one transaction.
func (h *SQLHistory) Save(ctx context.Context, items article.History) error {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM link_history`); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}

	insert := `INSERT INTO link_history (position, title, url) VALUES (` + h.placeholders(3) + `)`
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, c := range items {
		if _, err := stmt.ExecContext(ctx, i, c.Title, c.URL); err != nil {
			return fmt.Errorf("failed to insert history row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit history: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (h *SQLHistory) Close() error {
	return h.db.Close()
}
