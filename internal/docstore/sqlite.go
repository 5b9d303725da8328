package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/lectern/internal/apperr"
	"github.com/starford/lectern/internal/models"
)

const sqliteSchemaSQL = `
CREATE TABLE IF NOT EXISTS notes (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL UNIQUE,
	doc        TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS lectures (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL UNIQUE,
	doc        TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS tags (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL UNIQUE,
	doc        TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// SQLite is a Store keeping each record as a JSON document in a per-kind table.
type SQLite struct {
	conn     *sql.DB
	notes    *sqlCollection[models.Note]
	lectures *sqlCollection[models.Lecture]
	tags     *sqlCollection[models.Tag]
}

// OpenSQLite opens (or creates) the database at dsn and applies the schema.
func OpenSQLite(dsn string) (*SQLite, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("docstore: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("docstore: ping: %w", err)
	}
	if _, err := conn.Exec(sqliteSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("docstore: apply schema: %w", err)
	}
	return &SQLite{
		conn:     conn,
		notes:    &sqlCollection[models.Note]{conn: conn},
		lectures: &sqlCollection[models.Lecture]{conn: conn},
		tags:     &sqlCollection[models.Tag]{conn: conn},
	}, nil
}

func (s *SQLite) Notes() Collection[models.Note]       { return s.notes }
func (s *SQLite) Lectures() Collection[models.Lecture] { return s.lectures }
func (s *SQLite) Tags() Collection[models.Tag]         { return s.tags }

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.conn.Close()
}

// sqlCollection stores records of T in the table named after models.KindOf[T].
// Table names come from that fixed set, never from input.
type sqlCollection[T models.Record[T]] struct {
	conn *sql.DB
}

func (c *sqlCollection[T]) table() string { return string(models.KindOf[T]()) }

func (c *sqlCollection[T]) Create(ctx context.Context, rec T) (string, error) {
	id := uuid.NewString()
	doc, err := json.Marshal(rec.WithIdentifier(id))
	if err != nil {
		return "", fmt.Errorf("docstore: encode %s: %w", c.table(), err)
	}
	_, err = c.conn.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, doc, updated_at) VALUES (?, ?, ?)`, c.table()),
		id, string(doc), time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("docstore: insert %s: %w", c.table(), err)
	}
	return id, nil
}

func (c *sqlCollection[T]) Update(ctx context.Context, id string, rec T) error {
	doc, err := json.Marshal(rec.WithIdentifier(id))
	if err != nil {
		return fmt.Errorf("docstore: encode %s: %w", c.table(), err)
	}
	res, err := c.conn.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET doc = ?, updated_at = ? WHERE id = ?`, c.table()),
		string(doc), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("docstore: update %s: %w", c.table(), err)
	}
	return requireRow(res, c.table(), id)
}

func (c *sqlCollection[T]) Delete(ctx context.Context, id string) error {
	res, err := c.conn.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, c.table()), id)
	if err != nil {
		return fmt.Errorf("docstore: delete %s: %w", c.table(), err)
	}
	return requireRow(res, c.table(), id)
}

func (c *sqlCollection[T]) List(ctx context.Context) ([]T, error) {
	rows, err := c.conn.QueryContext(ctx, fmt.Sprintf(`SELECT id, doc FROM %s ORDER BY seq`, c.table()))
	if err != nil {
		return nil, fmt.Errorf("docstore: list %s: %w", c.table(), err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var id, doc string
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, err
		}
		var rec T
		if err := json.Unmarshal([]byte(doc), &rec); err != nil {
			return nil, fmt.Errorf("docstore: decode %s %s: %w", c.table(), id, err)
		}
		out = append(out, rec.WithIdentifier(id))
	}
	return out, rows.Err()
}

func requireRow(res sql.Result, table, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("docstore: %s %s: %w", table, id, apperr.ErrNotFound)
	}
	return nil
}
