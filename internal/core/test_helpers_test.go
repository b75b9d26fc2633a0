package core

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/vovakirdan/ircterm/internal/chatlog"
	"github.com/vovakirdan/ircterm/internal/proto"
)

const testServer = "irc.example.net"

var fixedNow = func() time.Time { return time.Date(2026, time.January, 2, 15, 4, 0, 0, time.Local) }

type recordingSender struct {
	lines []string
	err   error
}

func (r *recordingSender) Send(line string) error {
	if r.err != nil {
		return r.err
	}
	r.lines = append(r.lines, line)
	return nil
}

type fakeDisplay struct {
	replayed bytes.Buffer
	lines    []string
	altEnter int
	altExit  int
}

func (d *fakeDisplay) Write(p []byte) (int, error) { return d.replayed.Write(p) }
func (d *fakeDisplay) Println(line string)        { d.lines = append(d.lines, line) }
func (d *fakeDisplay) EnterAlt()                  { d.altEnter++ }
func (d *fakeDisplay) ExitAlt()                   { d.altExit++ }

func (d *fakeDisplay) contains(s string) bool {
	for _, line := range d.lines {
		if strings.Contains(line, s) {
			return true
		}
	}
	return false
}

type fakeTimer struct {
	delay   time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// fakeScheduler runs callbacks only when the test fires them.
type fakeScheduler struct {
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	t := &fakeTimer{delay: d, f: f}
	s.timers = append(s.timers, t)
	return t
}

// fire runs the oldest live timer and reports whether there was one.
func (s *fakeScheduler) fire() bool {
	for len(s.timers) > 0 {
		t := s.timers[0]
		s.timers = s.timers[1:]
		if t.stopped {
			continue
		}
		t.fired = true
		t.f()
		return true
	}
	return false
}

// bracketPalette makes colors visible in plain strings.
type bracketPalette struct{}

func (bracketPalette) Paint(s string, c Color) string {
	if c == ColorNone {
		return s
	}
	return "{" + c.String() + ":" + s + "}"
}

type harness struct {
	session    *Session
	out        *recordingSender
	display    *fakeDisplay
	logs       *chatlog.Manager
	sched      *fakeScheduler
	dispatcher *Dispatcher
	pacer      *Pacer
	interp     *Interpreter
}

func newHarness(t *testing.T, nick string) *harness {
	t.Helper()

	session, err := NewSession(testServer, nick, "user", "real")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	h := &harness{
		session: session,
		out:     &recordingSender{},
		display: &fakeDisplay{},
		logs:    chatlog.New(t.TempDir(), testServer),
		sched:   &fakeScheduler{},
	}
	h.dispatcher = NewDispatcher(session, Deps{
		Out:     h.out,
		Display: h.display,
		Logs:    h.logs,
		Now:     fixedNow,
	})
	echo := func(m *proto.Message) {
		if _, err := h.dispatcher.Inject(m); err != nil {
			t.Errorf("inject echo: %v", err)
		}
	}
	h.pacer = NewPacer(h.out, echo, h.sched, DefaultFloodDelay, nil)
	h.interp = NewInterpreter(session, h.dispatcher, h.pacer, h.out, h.display, nil)
	return h
}

func (h *harness) receive(t *testing.T, line string) *Event {
	t.Helper()
	ev, err := h.dispatcher.Receive(line)
	if err != nil {
		t.Fatalf("receive %q: %v", line, err)
	}
	return ev
}

func (h *harness) logOf(t *testing.T, destination string) string {
	t.Helper()
	data, err := os.ReadFile(h.logs.Path(destination))
	if errors.Is(err, os.ErrNotExist) {
		return ""
	}
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	return string(data)
}
