// Package transport carries IRC lines over TCP or WebSocket.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// DefaultPort is used when the server address has none.
const DefaultPort = "6667"

// ErrClosed is returned by ReadLine once the server has closed the connection.
var ErrClosed = errors.New("connection closed")

// Conn is a line-oriented connection to an IRC server. ReadLine is called
// from one goroutine; WriteLine may be called concurrently with it.
type Conn interface {
	// ReadLine returns the next line without its terminator.
	ReadLine(ctx context.Context) (string, error)
	// WriteLine sends one line; the terminator is added as the transport needs.
	WriteLine(ctx context.Context, line string) error
	Close() error
}

// Dial connects to server. Addresses starting with ws:// or wss:// use
// WebSocket; anything else is host[:port] over TCP.
func Dial(ctx context.Context, server string, timeout time.Duration) (Conn, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if IsWebSocket(server) {
		return DialWebSocket(ctx, server)
	}
	return DialTCP(ctx, Address(server))
}

// IsWebSocket reports whether server is a WebSocket URL.
func IsWebSocket(server string) bool {
	return strings.HasPrefix(server, "ws://") || strings.HasPrefix(server, "wss://")
}

// Address adds DefaultPort to a TCP server address that lacks one.
func Address(server string) string {
	if _, _, err := net.SplitHostPort(server); err == nil {
		return server
	}
	return net.JoinHostPort(strings.Trim(server, "[]"), DefaultPort)
}

// decodeLine returns line as UTF-8. Servers relay bytes verbatim, and lines
// that are not valid UTF-8 are usually ISO-8859-1.
func decodeLine(line string) string {
	if utf8.ValidString(line) {
		return line
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().String(line)
	if err != nil {
		return strings.ToValidUTF8(line, "�")
	}
	return decoded
}

func wrapRead(err error) error {
	return fmt.Errorf("read line: %w", err)
}
