package proto

import (
	"strconv"
	"strings"
)

const (
	// MaxLineLen is the IRC line budget, terminator included.
	MaxLineLen = 512
	// Terminator ends every protocol line on the wire.
	Terminator = "\r\n"
	// MaxChannelLen is the longest channel name the protocol allows.
	MaxChannelLen = 200

	ctcpDelim  = "\x01"
	actionVerb = "ACTION"
)

// Message is one inbound protocol line broken into its grammar parts.
type Message struct {
	Raw      string
	Prefix   string
	Nick     string // nick part of a nick!host prefix
	Host     string // host part of a nick!host prefix
	Command  string
	Dest     string
	Middle   string
	Trailing string

	// HasTrailing distinguishes "PRIVMSG #a :" from "PRIVMSG #a".
	HasTrailing bool
}

// Numeric returns the three-digit reply code, if the command is one.
func (m *Message) Numeric() (int, bool) {
	if len(m.Command) != 3 {
		return 0, false
	}
	n, err := strconv.Atoi(m.Command)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// String serializes the captured fields back into a protocol line, without terminator.
func (m *Message) String() string {
	var b strings.Builder
	if m.Prefix != "" {
		b.WriteByte(':')
		b.WriteString(m.Prefix)
		b.WriteByte(' ')
	}
	b.WriteString(m.Command)
	if m.Dest != "" {
		b.WriteByte(' ')
		b.WriteString(m.Dest)
	}
	if m.Middle != "" {
		b.WriteByte(' ')
		b.WriteString(m.Middle)
	}
	if m.HasTrailing {
		b.WriteString(" :")
		b.WriteString(m.Trailing)
	}
	return b.String()
}

// IsChannel reports whether name has a channel prefix.
func IsChannel(name string) bool {
	return name != "" && (name[0] == '#' || name[0] == '&')
}

// ValidChannel reports whether name is a channel of at most MaxChannelLen bytes.
func ValidChannel(name string) bool {
	return IsChannel(name) && len(name) <= MaxChannelLen
}

// LocalEcho builds the message a server would have relayed for our own PRIVMSG.
// Servers do not echo a sender's messages, so the client synthesizes this one.
func LocalEcho(nick, dest, text string) *Message {
	m := &Message{
		Prefix:      nick + "!X",
		Nick:        nick,
		Host:        "X",
		Command:     "PRIVMSG",
		Dest:        dest,
		Trailing:    text,
		HasTrailing: true,
	}
	m.Raw = m.String()
	return m
}
