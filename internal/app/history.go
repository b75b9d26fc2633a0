package app

import (
	"context"
	"fmt"
	"io"

	"github.com/vovakirdan/ircterm/internal/chatlog"
	"github.com/vovakirdan/ircterm/internal/store"
)

// PrintHistory writes the newest limit archived lines of destination, oldest first.
func PrintHistory(ctx context.Context, st store.LineStore, server, destination string, limit int, w io.Writer) error {
	lines, err := st.ListLines(ctx, server, destination, limit, nil)
	if err != nil {
		return fmt.Errorf("list history: %w", err)
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line.Body); err != nil {
			return err
		}
	}
	return nil
}

// PrintDestinations writes every archived destination of server, one per line.
// Server messages are archived under the empty destination and listed as "*".
func PrintDestinations(ctx context.Context, st store.LineStore, server string, w io.Writer) error {
	destinations, err := st.ListDestinations(ctx, server)
	if err != nil {
		return fmt.Errorf("list destinations: %w", err)
	}
	for _, d := range destinations {
		if d == "" {
			d = "*"
		}
		if _, err := fmt.Fprintln(w, d); err != nil {
			return err
		}
	}
	return nil
}

// PrintLogID writes the identifier and path of a destination's chat log.
func PrintLogID(logs *chatlog.Manager, destination string, w io.Writer) error {
	_, err := fmt.Fprintf(w, "%d\t%s\n", logs.Identifier(destination), logs.Path(destination))
	return err
}
