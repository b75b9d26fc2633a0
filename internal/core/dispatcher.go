package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/ircterm/internal/proto"
)

const archiveTimeout = 2 * time.Second

// Deps are the collaborators the session renders and writes through.
type Deps struct {
	Out     Sender
	Display Display
	Logs    Logs
	Palette Palette
	// Archive is optional.
	Archive Recorder
	Log     *zerolog.Logger
	Now     func() time.Time
}

// Dispatcher turns inbound lines into session updates, display lines and
// log entries. It is not safe for concurrent use; the owner serializes calls.
type Dispatcher struct {
	session *Session
	deps    Deps
}

// NewDispatcher builds a dispatcher over session.
func NewDispatcher(session *Session, deps Deps) *Dispatcher {
	if deps.Palette == nil {
		deps.Palette = PlainPalette{}
	}
	if deps.Log == nil {
		nop := zerolog.Nop()
		deps.Log = &nop
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Dispatcher{session: session, deps: deps}
}

// Register sends the NICK and USER lines that open a session.
func Register(out Sender, s *Session) error {
	if err := out.Send(proto.Nick(s.Nick)); err != nil {
		return fmt.Errorf("send nick: %w", err)
	}
	if err := out.Send(proto.User(s.User, s.Real)); err != nil {
		return fmt.Errorf("send user: %w", err)
	}
	return nil
}

// Receive handles one line read from the server. A malformed line is
// reported on the display and skipped.
func (d *Dispatcher) Receive(raw string) (*Event, error) {
	msg, err := proto.Parse(raw)
	if err != nil {
		d.deps.Log.Warn().Err(err).Str("line", raw).Msg("skip malformed line")
		d.deps.Display.Println("Error parsing message from irc server")
		return nil, err
	}
	return d.dispatch(msg, false)
}

// Inject handles a message synthesized by the client itself, such as the
// echo of a PRIVMSG the server will not send back to us.
func (d *Dispatcher) Inject(msg *proto.Message) (*Event, error) {
	return d.dispatch(msg, true)
}

// Focus makes an already joined channel current, starts a fresh alternate
// screen and replays the channel's history into it.
func (d *Dispatcher) Focus(channel string) error {
	if err := d.session.SetCurrent(channel); err != nil {
		return err
	}
	return d.show(channel)
}

// show starts a fresh alternate screen with channel's history. Replay
// failures are reported on the display before being returned.
func (d *Dispatcher) show(channel string) error {
	d.deps.Display.EnterAlt()
	if err := d.deps.Logs.Replay(channel, d.deps.Display); err != nil {
		d.reportLogError(err)
		return err
	}
	return nil
}

func (d *Dispatcher) dispatch(msg *proto.Message, local bool) (*Event, error) {
	ev := &Event{
		Kind:    EventGeneric,
		Time:    d.deps.Now(),
		Message: msg,
		Target:  msg.Dest,
		Sender:  msg.Nick,
		Middle:  msg.Middle,
		Text:    msg.Trailing,
		Print:   true,
		Local:   local,
	}

	var errs []error
	if msg.Command == "PING" {
		ev.Kind = EventPing
		ev.Print = false
		if !local {
			if err := d.deps.Out.Send(proto.Pong(msg.Trailing)); err != nil {
				errs = append(errs, fmt.Errorf("send pong: %w", err))
			}
		}
	}

	d.classify(ev, msg.Dest)

	switch msg.Command {
	case "JOIN":
		d.join(ev, msg)
	case "PART":
		d.part(ev, msg)
	case "PRIVMSG":
		d.privmsg(ev, msg)
	case "QUIT":
		ev.Kind = EventQuit
		ev.Text = fmt.Sprintf("%s [%s] has quit [%s]", msg.Nick, msg.Host, msg.Trailing)
		ev.Log = true
		ev.Color = ColorYellow
	case "NOTICE":
		ev.Kind = EventNotice
		if channel, ok := proto.NoticeChannel(msg.Trailing); ok {
			d.retarget(ev, channel)
		}
	}

	if d.scansMiddle(msg) {
		for _, token := range strings.Fields(msg.Middle) {
			if proto.ValidChannel(token) {
				d.retarget(ev, token)
				break
			}
		}
	}

	d.write(ev)
	return ev, errors.Join(errs...)
}

// classify applies the destination rules: service targets and our own nick
// are always shown, channels other than the current one are logged silently.
func (d *Dispatcher) classify(ev *Event, dest string) {
	switch {
	case dest == "*" || dest == "AUTH":
		ev.Color = ColorMagenta
	case dest != "" && dest == d.session.Nick:
		ev.Color = ColorCyan
	case proto.IsChannel(dest):
		if dest != d.session.Current() {
			ev.Print = false
		}
		ev.Log = true
	}
}

// retarget points the event at a channel discovered inside the line.
func (d *Dispatcher) retarget(ev *Event, channel string) {
	ev.Target = channel
	if channel != d.session.Current() {
		ev.Print = false
	}
	ev.Log = true
}

func (d *Dispatcher) scansMiddle(msg *proto.Message) bool {
	if msg.Middle == "" {
		return false
	}
	if msg.Command == "PRIVMSG" {
		return true
	}
	code, ok := msg.Numeric()
	if !ok {
		return false
	}
	switch code {
	case 331, 332, 353, 366:
		return true
	}
	return false
}

func (d *Dispatcher) isSelf(nick string) bool {
	return nick != "" && nick == d.session.Nick
}

func (d *Dispatcher) join(ev *Event, msg *proto.Message) {
	channel := msg.Dest
	if channel == "" {
		// Some servers put the channel in the trailing parameter.
		channel = msg.Trailing
	}
	ev.Kind = EventJoin
	ev.Target = channel
	ev.Log = true
	ev.Color = ColorGreen

	if d.isSelf(msg.Nick) {
		if _, err := d.session.Join(channel); err != nil {
			d.deps.Log.Warn().Err(err).Int("length", len(channel)).Msg("reject own join")
			ev.Log = false
			ev.Print = true
			ev.Text = err.Error()
			return
		}
		if err := d.show(channel); err != nil {
			d.deps.Log.Debug().Str("channel", channel).Msg("joined without history")
		}
		ev.Text = "Now talking on " + channel
	} else {
		ev.Text = fmt.Sprintf("%s [%s] has joined %s", msg.Nick, msg.Host, channel)
	}
	ev.Print = !proto.IsChannel(channel) || channel == d.session.Current()
}

func (d *Dispatcher) part(ev *Event, msg *proto.Message) {
	channel := msg.Dest
	if channel == "" {
		channel = msg.Trailing
	}
	wasCurrent := channel == d.session.Current()
	ev.Kind = EventPart
	ev.Target = channel
	ev.Log = true
	ev.Color = ColorYellow

	if d.isSelf(msg.Nick) {
		d.session.Part(channel)
		d.deps.Display.ExitAlt()
		ev.Text = "Left channel " + channel
	} else {
		ev.Text = fmt.Sprintf("%s [%s] has left %s", msg.Nick, msg.Host, channel)
	}
	ev.Print = !proto.IsChannel(channel) || wasCurrent
}

func (d *Dispatcher) privmsg(ev *Event, msg *proto.Message) {
	body, isAction := proto.ParseAction(msg.Trailing)

	if msg.Dest == d.session.Nick {
		// A query: always shown, logged under the sender so each
		// conversation partner gets its own history.
		sender := msg.Nick
		if sender == "" {
			sender = msg.Prefix
		}
		ev.Kind = EventPrivate
		ev.Sender = sender
		ev.Target = sender
		ev.Log = sender != ""
		if isAction {
			ev.Kind = EventAction
			ev.Text = body
		}
		return
	}

	ev.Highlight = d.session.Nick != "" &&
		strings.Contains(msg.Trailing, d.session.Nick) &&
		!d.isSelf(msg.Nick)
	ev.Log = true
	if isAction {
		ev.Kind = EventAction
		ev.Text = body
		if ev.Highlight {
			ev.SenderColor = ColorRed
		}
		return
	}
	ev.Kind = EventMessage
	ev.SenderColor = ColorCyan
	if ev.Highlight {
		ev.SenderColor = ColorRed
	}
}

func (d *Dispatcher) write(ev *Event) {
	line := ev.Line(d.deps.Palette)
	if line == "" {
		return
	}
	if ev.Log {
		if err := d.deps.Logs.Append(ev.Target, line); err != nil {
			d.reportLogError(err)
		}
		d.archive(ev)
	}
	if ev.Print {
		d.deps.Display.Println(line)
	}
}

func (d *Dispatcher) archive(ev *Event) {
	if d.deps.Archive == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()
	if err := d.deps.Archive.Record(ctx, ev.Target, ev.Line(PlainPalette{}), ev.Time); err != nil {
		d.deps.Log.Warn().Err(err).Str("destination", ev.Target).Msg("archive line")
	}
}

func (d *Dispatcher) reportLogError(err error) {
	d.deps.Log.Error().Err(err).Msg("chat log")
	d.deps.Display.Println("Error accessing log: " + err.Error())
}
