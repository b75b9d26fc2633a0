package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/ircterm/internal/chatlog"
	"github.com/vovakirdan/ircterm/internal/config"
	"github.com/vovakirdan/ircterm/internal/core"
	"github.com/vovakirdan/ircterm/internal/proto"
	"github.com/vovakirdan/ircterm/internal/store"
	"github.com/vovakirdan/ircterm/internal/store/sqlite"
	"github.com/vovakirdan/ircterm/internal/transport"
)

const (
	writeTimeout = 10 * time.Second
	quitTimeout  = 2 * time.Second
)

// Console is the user's side of the session.
type Console interface {
	core.Display
	core.Palette
	ReadLine() (string, error)
}

// DialFunc opens the connection to the server.
type DialFunc func(ctx context.Context, server string, timeout time.Duration) (transport.Conn, error)

// Option customizes an App.
type Option func(*App)

// WithDialer replaces transport.Dial.
func WithDialer(dial DialFunc) Option {
	return func(a *App) { a.dial = dial }
}

// App wires together core, transport, terminal and storage layers.
type App struct {
	cfg     config.Config
	console Console
	dial    DialFunc
	log     *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg config.Config, logger *zerolog.Logger, console Console, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	sessionLog := logger.With().Str("session", uuid.NewString()).Str("server", cfg.Server).Logger()

	a := &App{
		cfg:     cfg,
		console: console,
		dial:    transport.Dial,
		log:     &sessionLog,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Run connects, registers and serves the session until the user quits, the
// server hangs up or ctx is cancelled. Chat logs are cleaned up on return.
func (a *App) Run(ctx context.Context) error {
	session, err := core.NewSession(a.cfg.Server, a.cfg.Nick, a.cfg.User, a.cfg.Real)
	if err != nil {
		return err
	}

	a.console.Println("Connecting to " + a.cfg.Server + "...")
	conn, err := a.dial(ctx, a.cfg.Server, a.cfg.DialTimeout)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	a.log.Info().Msg("connected")

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	logs := chatlog.New(a.cfg.LogDir, a.cfg.Server)
	deps := core.Deps{
		Display: a.console,
		Logs:    logs,
		Palette: a.console,
		Log:     a.log,
	}

	var archive store.Store
	if a.cfg.ArchivePath != "" {
		st, err := sqlite.New(a.cfg.ArchivePath)
		if err != nil {
			conn.Close()
			return fmt.Errorf("init archive: %w", err)
		}
		a.log.Info().Str("archive_path", a.cfg.ArchivePath).Msg("archive initialized")
		archive = st
		deps.Archive = archiveRecorder{store: st, server: a.cfg.Server}
	}

	out := &connSender{ctx: runCtx, conn: conn, log: a.log}
	deps.Out = out
	dispatcher := core.NewDispatcher(session, deps)

	tasks := make(chan func())
	sched := loopScheduler{tasks: tasks, done: runCtx.Done()}
	echo := func(msg *proto.Message) {
		if _, err := dispatcher.Inject(msg); err != nil {
			a.log.Warn().Err(err).Msg("local echo")
		}
	}
	pacer := core.NewPacer(out, echo, sched, a.cfg.FloodDelay, a.log)
	interp := core.NewInterpreter(session, dispatcher, pacer, out, a.console, a.log)

	defer a.cleanup(pacer, logs, archive, conn)

	if err := core.Register(out, session); err != nil {
		return err
	}
	a.log.Info().Str("nick", session.Nick).Msg("registration sent")

	inbound, readErr := a.readServer(runCtx, conn)
	input, inputErr := a.readInput(runCtx)

	for {
		select {
		case <-ctx.Done():
			a.log.Info().Msg("interrupted")
			a.sendQuit(conn)
			return nil

		case line := <-inbound:
			if _, err := dispatcher.Receive(line); err != nil && !errors.Is(err, proto.ErrParse) {
				return err
			}

		case err := <-readErr:
			if errors.Is(err, transport.ErrClosed) {
				a.log.Info().Msg("server closed the connection")
				a.console.Println("Disconnected from " + a.cfg.Server)
				return nil
			}
			return err

		case line := <-input:
			if line == "" {
				continue
			}
			err := interp.Execute(line)
			if errors.Is(err, core.ErrQuit) {
				a.log.Info().Msg("quit")
				return nil
			}
			if err != nil {
				return err
			}

		case err := <-inputErr:
			a.log.Info().Err(err).Msg("input closed")
			pacer.Stop()
			a.sendQuit(conn)
			return nil

		case task := <-tasks:
			task()
		}
	}
}

// readServer pumps server lines into a channel until ctx ends or reading fails.
func (a *App) readServer(ctx context.Context, conn transport.Conn) (<-chan string, <-chan error) {
	lines := make(chan string)
	errs := make(chan error, 1)
	go func() {
		for {
			line, err := conn.ReadLine(ctx)
			if err != nil {
				if ctx.Err() == nil {
					errs <- err
				}
				return
			}
			a.log.Debug().Str("line", line).Msg("received")
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines, errs
}

// readInput pumps console lines into a channel. The console read cannot be
// interrupted, so the goroutine ends on the first read after ctx is done.
func (a *App) readInput(ctx context.Context) (<-chan string, <-chan error) {
	lines := make(chan string)
	errs := make(chan error, 1)
	go func() {
		for {
			line, err := a.console.ReadLine()
			if err != nil {
				errs <- err
				return
			}
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines, errs
}

func (a *App) sendQuit(conn transport.Conn) {
	ctx, cancel := context.WithTimeout(context.Background(), quitTimeout)
	defer cancel()
	if err := conn.WriteLine(ctx, proto.Quit("")); err != nil {
		a.log.Warn().Err(err).Msg("send quit")
	}
}

// cleanup releases the session's resources in reverse order of acquisition.
func (a *App) cleanup(pacer *core.Pacer, logs *chatlog.Manager, archive store.Store, conn transport.Conn) {
	pacer.Stop()
	a.console.ExitAlt()

	n, err := logs.Cleanup(a.cfg.KeepLogs)
	if err != nil {
		a.log.Warn().Err(err).Msg("clean up chat logs")
	} else {
		a.log.Info().Int("files", n).Bool("keep_logs", a.cfg.KeepLogs).Msg("chat logs cleaned up")
	}

	if archive != nil {
		if err := archive.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close archive")
		}
	}
	if err := conn.Close(); err != nil {
		a.log.Debug().Err(err).Msg("close connection")
	}
	a.log.Info().Msg("disconnected")
}

// connSender writes protocol lines for the event loop.
type connSender struct {
	ctx  context.Context
	conn transport.Conn
	log  *zerolog.Logger
}

func (s *connSender) Send(line string) error {
	ctx, cancel := context.WithTimeout(s.ctx, writeTimeout)
	defer cancel()
	if err := s.conn.WriteLine(ctx, line); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	s.log.Debug().Str("line", line).Msg("sent")
	return nil
}

// loopScheduler runs timer callbacks on the event loop.
type loopScheduler struct {
	tasks chan<- func()
	done  <-chan struct{}
}

func (s loopScheduler) AfterFunc(d time.Duration, f func()) core.Timer {
	return time.AfterFunc(d, func() {
		select {
		case s.tasks <- f:
		case <-s.done:
		}
	})
}

// archiveRecorder stores chat-log lines of one server.
type archiveRecorder struct {
	store  store.LineStore
	server string
}

func (r archiveRecorder) Record(ctx context.Context, destination, line string, at time.Time) error {
	return r.store.SaveLine(ctx, &store.Line{
		Server:      r.server,
		Destination: destination,
		Body:        line,
		CreatedAt:   at,
	})
}
