package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vovakirdan/ircterm/internal/store"
)

// Schema creates the archive table. It is idempotent.
const Schema = `
	CREATE TABLE IF NOT EXISTS lines (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		server      TEXT NOT NULL,
		destination TEXT NOT NULL DEFAULT '',
		body        TEXT NOT NULL,
		created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS lines_destination ON lines (server, destination, id);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New opens the SQLite database at dbPath and applies Schema.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, applySchema)
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply schema to an in-memory database.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection; ":memory:" needs it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveLine persists a line to storage.
func (s *SQLiteStore) SaveLine(ctx context.Context, line *store.Line) error {
	query := `
		INSERT INTO lines (server, destination, body, created_at)
		VALUES (?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, line.Server, line.Destination, line.Body, line.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert line: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	line.ID = id
	return nil
}

// ListLines retrieves lines of a destination, oldest first.
func (s *SQLiteStore) ListLines(ctx context.Context, server, destination string, limit int, beforeID *int64) ([]*store.Line, error) {
	var query string
	var args []interface{}

	if beforeID != nil {
		query = `
			SELECT id, server, destination, body, created_at
			FROM lines
			WHERE server = ? AND destination = ? AND id < ?
			ORDER BY id DESC
			LIMIT ?
		`
		args = []interface{}{server, destination, *beforeID, limit}
	} else {
		query = `
			SELECT id, server, destination, body, created_at
			FROM lines
			WHERE server = ? AND destination = ?
			ORDER BY id DESC
			LIMIT ?
		`
		args = []interface{}{server, destination, limit}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query lines: %w", err)
	}
	defer rows.Close()

	var lines []*store.Line
	for rows.Next() {
		var line store.Line
		if err := rows.Scan(&line.ID, &line.Server, &line.Destination, &line.Body, &line.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan line: %w", err)
		}
		lines = append(lines, &line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lines: %w", err)
	}

	// Reverse to get chronological order
	for i := 0; i < len(lines)/2; i++ {
		j := len(lines) - 1 - i
		lines[i], lines[j] = lines[j], lines[i]
	}

	return lines, nil
}

// ListDestinations lists the distinct destinations archived for server.
func (s *SQLiteStore) ListDestinations(ctx context.Context, server string) ([]string, error) {
	query := `
		SELECT DISTINCT destination
		FROM lines
		WHERE server = ?
		ORDER BY destination
	`
	rows, err := s.db.QueryContext(ctx, query, server)
	if err != nil {
		return nil, fmt.Errorf("query destinations: %w", err)
	}
	defer rows.Close()

	var destinations []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan destination: %w", err)
		}
		destinations = append(destinations, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate destinations: %w", err)
	}
	return destinations, nil
}

var _ store.Store = (*SQLiteStore)(nil)
