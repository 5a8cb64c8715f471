package observability

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const eventsSchema = `
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY,
		timestamp INTEGER NOT NULL,
		event_type TEXT NOT NULL,
		level INTEGER NOT NULL,
		source TEXT NOT NULL,
		payload TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_events_type ON events(event_type);
`

// SQLiteObserver appends events to an events table for later audit.
// Insert failures are reported to the fallback logger and otherwise ignored.
type SQLiteObserver struct {
	db       *sql.DB
	fallback *slog.Logger
}

// OpenSQLiteObserver opens (or creates) the database at path, creating the
// parent directory and the events table as needed.
func OpenSQLiteObserver(path string) (*SQLiteObserver, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create db directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open db at %s: %w", path, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping db at %s: %w", path, err)
	}

	if _, err := db.Exec(eventsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create events table: %w", err)
	}

	return &SQLiteObserver{db: db, fallback: slog.Default()}, nil
}

func (o *SQLiteObserver) OnEvent(ctx context.Context, event Event) {
	var payload []byte
	if len(event.Data) > 0 {
		var err error
		payload, err = json.Marshal(event.Data)
		if err != nil {
			payload = []byte(fmt.Sprintf(`{"marshal_error":%q}`, err.Error()))
		}
	}

	_, err := o.db.ExecContext(context.WithoutCancel(ctx),
		`INSERT INTO events (timestamp, event_type, level, source, payload) VALUES (?, ?, ?, ?, ?)`,
		event.Timestamp.UnixMilli(), string(event.Type), int(event.Level), event.Source, string(payload),
	)
	if err != nil {
		o.fallback.Warn("failed to record event", "type", string(event.Type), "error", err)
	}
}

// StoredEvent is one row of the events table.
type StoredEvent struct {
	ID        int64
	Timestamp int64 // Unix milliseconds.
	Type      EventType
	Level     Level
	Source    string
	Payload   string
}

// Recent returns up to limit events, newest first.
func (o *SQLiteObserver) Recent(ctx context.Context, limit int) ([]StoredEvent, error) {
	rows, err := o.db.QueryContext(ctx,
		`SELECT id, timestamp, event_type, level, source, COALESCE(payload, '') FROM events ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []StoredEvent
	for rows.Next() {
		var e StoredEvent
		var eventType string
		var level int
		if err := rows.Scan(&e.ID, &e.Timestamp, &eventType, &level, &e.Source, &e.Payload); err != nil {
			return nil, err
		}
		e.Type = EventType(eventType)
		e.Level = Level(level)
		events = append(events, e)
	}
	return events, rows.Err()
}

// Close closes the database.
func (o *SQLiteObserver) Close() error {
	return o.db.Close()
}
