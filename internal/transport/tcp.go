package transport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/vovakirdan/ircterm/internal/proto"
)

// maxInboundLine tolerates servers that exceed the 512 byte budget.
const maxInboundLine = 8 * 1024

type tcpConn struct {
	conn    net.Conn
	scanner *bufio.Scanner

	mu sync.Mutex // serializes writes
}

// DialTCP connects to a host:port address.
func DialTCP(ctx context.Context, addr string) (Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return newTCPConn(conn), nil
}

func newTCPConn(conn net.Conn) *tcpConn {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, proto.MaxLineLen), maxInboundLine)
	return &tcpConn{conn: conn, scanner: scanner}
}

func (c *tcpConn) ReadLine(ctx context.Context) (string, error) {
	// Unblock the read when ctx ends.
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	if c.scanner.Scan() {
		return decodeLine(c.scanner.Text()), nil
	}
	err := c.scanner.Err()
	switch {
	case err == nil:
		return "", ErrClosed
	case ctx.Err() != nil && errors.Is(err, os.ErrDeadlineExceeded):
		return "", wrapRead(ctx.Err())
	default:
		return "", wrapRead(err)
	}
}

func (c *tcpConn) WriteLine(ctx context.Context, line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Time{}
	}
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if _, err := c.conn.Write([]byte(line + proto.Terminator)); err != nil {
		return fmt.Errorf("write line: %w", err)
	}
	return nil
}

func (c *tcpConn) Close() error {
	return c.conn.Close()
}
