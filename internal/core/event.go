package core

import (
	"time"

	"github.com/vovakirdan/ircterm/internal/proto"
)

// EventKind classifies a dispatched line.
type EventKind int

const (
	// EventGeneric is any line without special handling.
	EventGeneric EventKind = iota
	// EventPing is a server keepalive; it is answered, never shown.
	EventPing
	// EventJoin reports a user, possibly us, joining a channel.
	EventJoin
	// EventPart reports a user, possibly us, leaving a channel.
	EventPart
	// EventQuit reports a user disconnecting.
	EventQuit
	// EventMessage is a channel PRIVMSG.
	EventMessage
	// EventAction is a channel CTCP ACTION.
	EventAction
	// EventPrivate is a PRIVMSG addressed to our nick.
	EventPrivate
	// EventNotice is a NOTICE.
	EventNotice
)

// Color names the semantic colors of the display.
type Color int

const (
	ColorNone Color = iota
	ColorRed
	ColorGreen
	ColorYellow
	ColorBlue
	ColorMagenta
	ColorCyan
)

func (c Color) String() string {
	switch c {
	case ColorRed:
		return "red"
	case ColorGreen:
		return "green"
	case ColorYellow:
		return "yellow"
	case ColorBlue:
		return "blue"
	case ColorMagenta:
		return "magenta"
	case ColorCyan:
		return "cyan"
	default:
		return "none"
	}
}

// Palette turns a semantic color into whatever the output understands.
type Palette interface {
	Paint(s string, c Color) string
}

// PlainPalette leaves text uncolored.
type PlainPalette struct{}

func (PlainPalette) Paint(s string, _ Color) string { return s }

// Event is the outcome of dispatching one line.
type Event struct {
	Kind    EventKind
	Time    time.Time
	Message *proto.Message

	// Target is the destination used for focus checks and logging. It can
	// differ from Message.Dest, e.g. the channel found in a NAMES reply.
	Target string

	Sender      string
	SenderColor Color
	Highlight   bool

	Middle string
	Text   string
	Color  Color

	Print bool
	Log   bool

	// Local marks a synthesized echo of our own message.
	Local bool
}

// Line renders the event as "[HH:MM] middle :text". The timestamp always
// carries its own color; Color applies to middle and text only.
func (e *Event) Line(p Palette) string {
	text := e.Text
	switch e.Kind {
	case EventMessage, EventPrivate:
		text = "<" + p.Paint(e.Sender, e.SenderColor) + "> " + e.Text
	case EventAction:
		text = "* " + p.Paint(e.Sender, e.SenderColor) + " " + e.Text
	}

	middle := e.Middle
	if e.Color != ColorNone {
		if middle != "" {
			middle = p.Paint(middle, e.Color)
		}
		if text != "" {
			text = p.Paint(text, e.Color)
		}
	}

	stamp := p.Paint(e.Time.Format("[15:04]"), ColorBlue)
	switch {
	case middle != "" && text != "":
		return stamp + " " + middle + " :" + text
	case middle != "":
		return stamp + " " + middle
	case text != "":
		return stamp + " " + text
	default:
		return ""
	}
}
