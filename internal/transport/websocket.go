package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/coder/websocket"
)

// Subprotocol is the IRCv3 WebSocket subprotocol for UTF-8 text frames.
const Subprotocol = "text.ircv3.net"

type wsConn struct {
	conn *websocket.Conn
}

// DialWebSocket connects to an IRC server over WebSocket. Each frame
// carries one line without terminator.
func DialWebSocket(ctx context.Context, url string) (Conn, error) {
	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		Subprotocols: []string{Subprotocol},
	})
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	conn.SetReadLimit(maxInboundLine)
	return &wsConn{conn: conn}, nil
}

func (c *wsConn) ReadLine(ctx context.Context) (string, error) {
	_, data, err := c.conn.Read(ctx)
	if err != nil {
		status := websocket.CloseStatus(err)
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, io.EOF) {
			return "", ErrClosed
		}
		return "", wrapRead(err)
	}
	line := strings.TrimRight(string(data), "\r\n")
	return decodeLine(line), nil
}

func (c *wsConn) WriteLine(ctx context.Context, line string) error {
	if err := c.conn.Write(ctx, websocket.MessageText, []byte(line)); err != nil {
		return fmt.Errorf("write line: %w", err)
	}
	return nil
}

func (c *wsConn) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "closing")
}
