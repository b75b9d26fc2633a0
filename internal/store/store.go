package store

import (
	"context"
	"time"
)

// Line is one archived chat-log line.
type Line struct {
	ID          int64
	Server      string
	Destination string // channel, nick, or empty for server messages
	Body        string // rendered text without color codes
	CreatedAt   time.Time
}

// LineStore handles chat line persistence.
type LineStore interface {
	// SaveLine persists a line and sets its ID.
	SaveLine(ctx context.Context, line *Line) error

	// ListLines retrieves lines of one destination with pagination.
	// If beforeID is provided, returns lines older than that ID.
	// Limit determines max number of lines to return.
	ListLines(ctx context.Context, server, destination string, limit int, beforeID *int64) ([]*Line, error)

	// ListDestinations lists the destinations archived for server.
	ListDestinations(ctx context.Context, server string) ([]string, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	LineStore

	// Close closes the underlying database connection.
	Close() error
}
