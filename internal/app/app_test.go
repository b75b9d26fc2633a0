package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/vovakirdan/ircterm/internal/chatlog"
	"github.com/vovakirdan/ircterm/internal/config"
	"github.com/vovakirdan/ircterm/internal/core"
	"github.com/vovakirdan/ircterm/internal/store/sqlite"
	"github.com/vovakirdan/ircterm/internal/transport"
)

const testServer = "irc.example.net"

type fakeConn struct {
	inbound chan string
	written chan string

	closeOnce sync.Once
	closed    chan struct{}
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		inbound: make(chan string),
		written: make(chan string, 64),
		closed:  make(chan struct{}),
	}
}

func (c *fakeConn) ReadLine(ctx context.Context) (string, error) {
	select {
	case line, ok := <-c.inbound:
		if !ok {
			return "", transport.ErrClosed
		}
		return line, nil
	case <-c.closed:
		return "", errors.New("use of closed connection")
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *fakeConn) WriteLine(_ context.Context, line string) error {
	select {
	case <-c.closed:
		return errors.New("use of closed connection")
	default:
	}
	c.written <- line
	return nil
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

type fakeConsole struct {
	input chan string

	mu       sync.Mutex
	lines    []string
	replayed bytes.Buffer
}

func newFakeConsole() *fakeConsole {
	return &fakeConsole{input: make(chan string)}
}

func (c *fakeConsole) ReadLine() (string, error) {
	line, ok := <-c.input
	if !ok {
		return "", io.EOF
	}
	return line, nil
}

func (c *fakeConsole) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.replayed.Write(p)
}

func (c *fakeConsole) Println(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, line)
}

func (c *fakeConsole) EnterAlt()                           {}
func (c *fakeConsole) ExitAlt()                            {}
func (c *fakeConsole) Paint(s string, _ core.Color) string { return s }

func (c *fakeConsole) contains(s string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, line := range c.lines {
		if strings.Contains(line, s) {
			return true
		}
	}
	return false
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Server = testServer
	cfg.Nick = "me"
	cfg.User = "user"
	cfg.Real = "Real"
	cfg.LogDir = t.TempDir()
	cfg.FloodDelay = 10 * time.Millisecond
	return cfg
}

type running struct {
	conn    *fakeConn
	console *fakeConsole
	done    chan error
}

func start(t *testing.T, ctx context.Context, cfg config.Config) *running {
	t.Helper()
	r := &running{conn: newFakeConn(), console: newFakeConsole(), done: make(chan error, 1)}
	dial := func(context.Context, string, time.Duration) (transport.Conn, error) { return r.conn, nil }

	a, err := New(cfg, nil, r.console, WithDialer(dial))
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	go func() { r.done <- a.Run(ctx) }()
	return r
}

func (r *running) expectWritten(t *testing.T, want string) {
	t.Helper()
	select {
	case got := <-r.conn.written:
		if got != want {
			t.Fatalf("wrote %q, want %q", got, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %q", want)
	}
}

func (r *running) send(t *testing.T, line string) {
	t.Helper()
	select {
	case r.conn.inbound <- line:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out delivering %q", line)
	}
}

func (r *running) input(t *testing.T, line string) {
	t.Helper()
	select {
	case r.console.input <- line:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out typing %q", line)
	}
}

func (r *running) waitDisplay(t *testing.T, s string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !r.console.contains(s) {
		if time.Now().After(deadline) {
			t.Fatalf("display never showed %q", s)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func (r *running) wait(t *testing.T) error {
	t.Helper()
	select {
	case err := <-r.done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
		return nil
	}
}

func TestRunSession(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := testConfig(t)
	cfg.ArchivePath = filepath.Join(t.TempDir(), "archive.db")
	r := start(t, context.Background(), cfg)
	defer close(r.console.input)

	r.expectWritten(t, "NICK me")
	r.expectWritten(t, "USER user 0 * :Real")

	r.send(t, "PING :token")
	r.expectWritten(t, "PONG :token")

	r.input(t, "/join #go")
	r.expectWritten(t, "JOIN #go")

	r.send(t, ":me!user@host JOIN #go")
	r.waitDisplay(t, "Now talking on #go")

	r.input(t, "hello gophers")
	r.expectWritten(t, "PRIVMSG #go :hello gophers")
	r.waitDisplay(t, "<me> hello gophers")

	r.input(t, "/quit bye")
	r.expectWritten(t, "QUIT :bye")
	if err := r.wait(t); err != nil {
		t.Fatalf("run: %v", err)
	}

	files, err := chatlog.New(cfg.LogDir, testServer).Files()
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 0 {
		t.Fatalf("chat logs must be removed without keep_logs, found %v", files)
	}

	st, err := sqlite.New(cfg.ArchivePath)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer st.Close()
	var out bytes.Buffer
	if err := PrintHistory(context.Background(), st, testServer, "#go", 10, &out); err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out.String(), "Now talking on #go") || !strings.Contains(out.String(), "<me> hello gophers") {
		t.Fatalf("history = %q", out.String())
	}
}

func TestRunKeepsLogs(t *testing.T) {
	cfg := testConfig(t)
	cfg.KeepLogs = true
	r := start(t, context.Background(), cfg)
	defer close(r.console.input)

	r.expectWritten(t, "NICK me")
	r.expectWritten(t, "USER user 0 * :Real")
	r.send(t, ":me!user@host JOIN #go")
	r.waitDisplay(t, "Now talking on #go")

	r.input(t, "/quit")
	r.expectWritten(t, "QUIT")
	if err := r.wait(t); err != nil {
		t.Fatalf("run: %v", err)
	}

	files, err := chatlog.New(cfg.LogDir, testServer).Files()
	if err != nil || len(files) != 1 {
		t.Fatalf("files=%v err=%v", files, err)
	}
}

func TestRunServerHangup(t *testing.T) {
	r := start(t, context.Background(), testConfig(t))
	defer close(r.console.input)

	r.expectWritten(t, "NICK me")
	close(r.conn.inbound)

	if err := r.wait(t); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !r.console.contains("Disconnected from " + testServer) {
		t.Fatalf("lines = %q", r.console.lines)
	}
}

func TestRunCancelSendsQuit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := start(t, ctx, testConfig(t))
	defer close(r.console.input)

	r.expectWritten(t, "NICK me")
	r.expectWritten(t, "USER user 0 * :Real")
	cancel()

	r.expectWritten(t, "QUIT")
	if err := r.wait(t); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestRunEndOfInputQuits(t *testing.T) {
	r := start(t, context.Background(), testConfig(t))

	r.expectWritten(t, "NICK me")
	r.expectWritten(t, "USER user 0 * :Real")
	close(r.console.input)

	r.expectWritten(t, "QUIT")
	if err := r.wait(t); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestRunPacesLongMessages(t *testing.T) {
	r := start(t, context.Background(), testConfig(t))
	defer close(r.console.input)

	r.expectWritten(t, "NICK me")
	r.expectWritten(t, "USER user 0 * :Real")
	r.send(t, ":me!user@host JOIN #go")
	r.waitDisplay(t, "Now talking on #go")

	size := 512 - len(": PRIVMSG #go :\r\n") - 32
	r.input(t, strings.Repeat("a", size)+"b")
	r.expectWritten(t, "PRIVMSG #go :"+strings.Repeat("a", size))
	r.expectWritten(t, "PRIVMSG #go :b")

	r.input(t, "/quit")
	r.expectWritten(t, "QUIT")
	if err := r.wait(t); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestNewValidatesConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Nick = "waytoolongnick"
	if _, err := New(cfg, nil, newFakeConsole()); !errors.Is(err, core.ErrNameTooLong) {
		t.Fatalf("expected ErrNameTooLong, got %v", err)
	}
}

func TestRunDialFailure(t *testing.T) {
	dial := func(context.Context, string, time.Duration) (transport.Conn, error) {
		return nil, errors.New("connection refused")
	}
	a, err := New(testConfig(t), nil, newFakeConsole(), WithDialer(dial))
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Run(context.Background()); err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("expected dial error, got %v", err)
	}
}
