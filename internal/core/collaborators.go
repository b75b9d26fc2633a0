package core

import (
	"context"
	"io"
	"time"
)

// Sender writes one protocol line, without terminator, to the server.
type Sender interface {
	Send(line string) error
}

// Display is the terminal the session renders to. Writes through io.Writer
// are raw bytes, used for log replay.
type Display interface {
	io.Writer
	Println(line string)
	// EnterAlt switches to the alternate screen, starting a fresh one if it is already active.
	EnterAlt()
	ExitAlt()
}

// Logs is the per-destination chat history.
type Logs interface {
	Append(destination, line string) error
	Replay(destination string, w io.Writer) error
	Path(destination string) string
}

// Recorder archives plain-text log lines.
type Recorder interface {
	Record(ctx context.Context, destination, line string, at time.Time) error
}

// Timer is a pending scheduled call.
type Timer interface {
	Stop() bool
}

// Scheduler runs f after d. Implementations must run f on the goroutine that
// owns the session, never concurrently with dispatch.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}
