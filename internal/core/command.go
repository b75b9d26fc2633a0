package core

import (
	"errors"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/ircterm/internal/proto"
)

// CommandKind describes what the user wants to do.
type CommandKind int

const (
	// CommandHelp prints the command reference.
	CommandHelp CommandKind = iota
	// CommandJoin asks the server to join a channel.
	CommandJoin
	// CommandPart leaves a channel, the current one by default.
	CommandPart
	// CommandQuit ends the session.
	CommandQuit
	// CommandMsg sends a private message.
	CommandMsg
	// CommandMe sends an action to the current channel.
	CommandMe
	// CommandNames lists users of the current channel.
	CommandNames
	// CommandList lists channels on the server.
	CommandList
	// CommandChannel switches focus to a joined channel.
	CommandChannel
	// CommandChannels lists joined channels.
	CommandChannels
)

const (
	noChannelHint = "No channel joined. Try /join #<channel>"
	argsTimeout   = 250 * time.Millisecond
)

const helpText = `Supported commands:

/channel <channel>     Switches the current channel
/channels              Lists the channels currently connected to
/help                  Shows this help message
/join <channel>        Joins a channel
/list                  Lists the channels on the server
/me <action>           Sends the action to the current channel
/msg <user> <message>  Sends a private message to a user
/names                 Lists the users in the current channel
/part [<channel>]      Leaves a specified channel
/quit [<message>]      Quits, sending a specified message

Shortcuts:
/(c)hannel
/(h)elp
/(j)oin
/(m)sg
/(p)art
/(q)uit`

// commandEntry is one row of the command table. args, when set, is the
// pattern the whole input must match for the command to act.
type commandEntry struct {
	kind  CommandKind
	names []string
	args  string
	usage string
	re    *regexp2.Regexp
}

var commandTable = buildCommandTable([]commandEntry{
	{kind: CommandHelp, names: []string{"help", "h"}},
	{kind: CommandJoin, names: []string{"join", "j"}, args: `(.+)`,
		usage: "Usage: /join <channel>, Joins a channel"},
	{kind: CommandPart, names: []string{"part", "p"}, args: `(.+)`},
	{kind: CommandQuit, names: []string{"quit", "q"}, args: `(.+)`},
	{kind: CommandMsg, names: []string{"msg", "m"}, args: `(\S+) (.+)`,
		usage: "Usage: /msg <user> <message>, Sends a private message to a user"},
	{kind: CommandMe, names: []string{"me"}, args: `(.+)`,
		usage: "Usage: /me <action>, Sends the action to the current channel"},
	{kind: CommandNames, names: []string{"names"}},
	{kind: CommandList, names: []string{"list"}},
	{kind: CommandChannel, names: []string{"channel", "c"}, args: `(\S+)`,
		usage: "Usage: /channel <channel>, Switches the current channel"},
	{kind: CommandChannels, names: []string{"channels"}},
})

func buildCommandTable(entries []commandEntry) map[string]*commandEntry {
	table := make(map[string]*commandEntry)
	for i := range entries {
		entry := &entries[i]
		if entry.args != "" {
			pattern := `^(?:` + strings.Join(entry.names, "|") + `) ` + entry.args + `$`
			entry.re = compileArgs(pattern)
		}
		for _, name := range entry.names {
			table[name] = entry
		}
	}
	return table
}

func compileArgs(pattern string) *regexp2.Regexp {
	re := regexp2.MustCompile(pattern, regexp2.IgnoreCase)
	re.MatchTimeout = argsTimeout
	return re
}

// lookupCommand resolves a command name or shortcut, case-insensitively.
func lookupCommand(name string) (*commandEntry, bool) {
	entry, ok := commandTable[strings.ToLower(name)]
	return entry, ok
}

// matchArgs applies the command's argument pattern to input (without the
// leading slash) and returns the captured arguments.
func (c *commandEntry) matchArgs(input string) ([]string, bool) {
	if c.re == nil {
		return nil, false
	}
	m, err := c.re.FindStringMatch(input)
	if err != nil || m == nil {
		return nil, false
	}
	groups := m.Groups()
	args := make([]string, 0, len(groups)-1)
	for _, g := range groups[1:] {
		args = append(args, g.String())
	}
	return args, true
}

// Interpreter executes what the user types: slash commands become protocol
// lines, anything else is said to the current channel.
type Interpreter struct {
	session    *Session
	dispatcher *Dispatcher
	pacer      *Pacer
	out        Sender
	display    Display
	log        *zerolog.Logger
}

// NewInterpreter builds an interpreter. Lines that need pacing go through
// pacer, everything else straight to out.
func NewInterpreter(session *Session, dispatcher *Dispatcher, pacer *Pacer, out Sender, display Display, logger *zerolog.Logger) *Interpreter {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Interpreter{
		session:    session,
		dispatcher: dispatcher,
		pacer:      pacer,
		out:        out,
		display:    display,
		log:        logger,
	}
}

// Execute runs one line of user input. It returns ErrQuit after /quit has
// been sent; other errors come from the outbound writer.
func (in *Interpreter) Execute(input string) error {
	if !strings.HasPrefix(input, "/") {
		return in.say(input)
	}

	input = input[1:]
	name, _, _ := strings.Cut(input, " ")

	entry, ok := lookupCommand(name)
	if !ok {
		in.display.Println(strings.ToLower(name) + " :Unknown command")
		return nil
	}
	args, matched := entry.matchArgs(input)
	in.log.Debug().Str("command", entry.names[0]).Bool("args", matched).Msg("user command")

	switch entry.kind {
	case CommandHelp:
		in.display.Println(helpText)
	case CommandJoin:
		if !matched || len(args[0]) > proto.MaxChannelLen {
			in.display.Println(entry.usage)
			return nil
		}
		return in.out.Send(proto.Join(args[0]))
	case CommandPart:
		return in.part(args, matched)
	case CommandQuit:
		return in.quit(args, matched)
	case CommandMsg:
		if !matched {
			in.display.Println(entry.usage)
			return nil
		}
		return in.out.Send(proto.Privmsg(args[0], args[1]))
	case CommandMe:
		return in.me(entry, args, matched)
	case CommandNames:
		current := in.session.Current()
		if current == "" {
			in.display.Println(noChannelHint)
			return nil
		}
		return in.out.Send(proto.Names(current))
	case CommandList:
		return in.out.Send(proto.List())
	case CommandChannel:
		return in.channel(entry, args, matched)
	case CommandChannels:
		in.channels()
	}
	return nil
}

// say sends plain text to the current channel, split to fit the line budget.
func (in *Interpreter) say(text string) error {
	current := in.session.Current()
	if current == "" {
		in.display.Println(noChannelHint)
		return nil
	}
	size := proto.MaxPayload(current)
	if size <= 0 {
		in.log.Warn().Str("channel", current).Int("budget", size).Msg("no room for payload")
		in.display.Println("Channel name too long to send messages: " + current)
		return nil
	}
	fragments := SplitPayload(text, size)
	items := make([]Outgoing, 0, len(fragments))
	for _, fragment := range fragments {
		items = append(items, Outgoing{
			Line: proto.Privmsg(current, fragment),
			Echo: proto.LocalEcho(in.session.Nick, current, fragment),
		})
	}
	return in.pacer.Enqueue(items...)
}

func (in *Interpreter) part(args []string, matched bool) error {
	if matched {
		return in.out.Send(proto.Part(args[0]))
	}
	current := in.session.Current()
	if current == "" {
		in.display.Println(noChannelHint)
		return nil
	}
	return in.out.Send(proto.Part(current))
}

func (in *Interpreter) quit(args []string, matched bool) error {
	msg := ""
	if matched {
		msg = args[0]
	}
	in.pacer.Stop()
	if err := in.out.Send(proto.Quit(msg)); err != nil {
		return err
	}
	return ErrQuit
}

func (in *Interpreter) me(entry *commandEntry, args []string, matched bool) error {
	current := in.session.Current()
	if current == "" {
		in.display.Println(noChannelHint)
		return nil
	}
	if !matched {
		in.display.Println(entry.usage)
		return nil
	}
	action := proto.Action(args[0])
	return in.pacer.Enqueue(Outgoing{
		Line: proto.Privmsg(current, action),
		Echo: proto.LocalEcho(in.session.Nick, current, action),
	})
}

func (in *Interpreter) channel(entry *commandEntry, args []string, matched bool) error {
	if len(in.session.Channels()) == 0 {
		in.display.Println(noChannelHint)
		return nil
	}
	if !matched || len(args[0]) > proto.MaxChannelLen {
		in.display.Println(entry.usage)
		return nil
	}
	if err := in.dispatcher.Focus(args[0]); err != nil {
		var ce *CoreError
		if errors.As(err, &ce) {
			in.display.Println(ce.Message)
		}
	}
	return nil
}

func (in *Interpreter) channels() {
	joined := in.session.Channels()
	if len(joined) == 0 {
		in.display.Println(noChannelHint)
		return
	}
	in.display.Println("Connected to:")
	for _, channel := range joined {
		in.display.Println(channel)
	}
}
