// Package store provides SQLite storage for feed events.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Event is one appended domain event. Position is its 0-based index in the
// feed, assigned in append order.
type Event struct {
	Feed      string
	Position  int64
	ID        string
	Type      string
	Data      string
	Timestamp time.Time
}

// DB wraps the SQLite connection.
type DB struct {
	conn *sql.DB
}

// Open opens or creates an SQLite database at the given path.
func Open(path string) (*DB, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=busy_timeout(5000)"
	}
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// Enable WAL mode so page reads do not block the mirror's appends.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}
	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks the connection.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		feed TEXT NOT NULL,
		event_id TEXT NOT NULL,
		type TEXT NOT NULL DEFAULT '',
		data TEXT NOT NULL DEFAULT '',
		timestamp_ns INTEGER NOT NULL,
		UNIQUE(feed, event_id)
	);
	CREATE INDEX IF NOT EXISTS idx_events_feed_seq ON events(feed, seq);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Append stores events in order, skipping ids already present in the feed.
// Returns the number of events actually added.
func (db *DB) Append(ctx context.Context, feed string, events []Event) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events (feed, event_id, type, data, timestamp_ns)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(feed, event_id) DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	added := 0
	for _, e := range events {
		if e.ID == "" {
			return 0, errors.New("event id is required")
		}
		res, err := stmt.ExecContext(ctx, feed, e.ID, e.Type, e.Data, e.Timestamp.UnixNano())
		if err != nil {
			return 0, fmt.Errorf("insert event %s: %w", e.ID, err)
		}
		affected, _ := res.RowsAffected()
		added += int(affected)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return added, nil
}

// Window returns up to limit events of a feed starting at position offset,
// oldest first.
func (db *DB) Window(ctx context.Context, feed string, offset, limit int64) ([]Event, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT event_id, type, data, timestamp_ns
		FROM events
		WHERE feed = ?
		ORDER BY seq ASC
		LIMIT ? OFFSET ?`, feed, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query window: %w", err)
	}
	defer rows.Close()

	var events []Event
	position := offset
	for rows.Next() {
		e := Event{Feed: feed, Position: position}
		var ns int64
		if err := rows.Scan(&e.ID, &e.Type, &e.Data, &ns); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Timestamp = time.Unix(0, ns).UTC()
		events = append(events, e)
		position++
	}
	return events, rows.Err()
}

// Count returns the number of events in a feed.
func (db *DB) Count(ctx context.Context, feed string) (int64, error) {
	var n int64
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM events WHERE feed = ?", feed).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

// Contains reports whether an event id is already stored for the feed.
func (db *DB) Contains(ctx context.Context, feed, id string) (bool, error) {
	var one int
	err := db.conn.QueryRowContext(ctx, "SELECT 1 FROM events WHERE feed = ? AND event_id = ?", feed, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup event %s: %w", id, err)
	}
	return true, nil
}
