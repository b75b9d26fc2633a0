package proto

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Message
	}{
		{
			name: "channel privmsg",
			line: ":nick!user@host PRIVMSG #test :hello",
			want: Message{
				Prefix: "nick!user@host", Nick: "nick", Host: "user@host",
				Command: "PRIVMSG", Dest: "#test", Trailing: "hello", HasTrailing: true,
			},
		},
		{
			name: "ping without prefix",
			line: "PING :abc123\r\n",
			want: Message{Command: "PING", Trailing: "abc123", HasTrailing: true},
		},
		{
			name: "numeric with middle",
			line: ":irc.example.net 353 me = #go :alice bob",
			want: Message{
				Prefix: "irc.example.net", Command: "353", Dest: "me",
				Middle: "= #go", Trailing: "alice bob", HasTrailing: true,
			},
		},
		{
			name: "join with channel in trailing",
			line: ":me!u@h JOIN :#test\n",
			want: Message{
				Prefix: "me!u@h", Nick: "me", Host: "u@h",
				Command: "JOIN", Trailing: "#test", HasTrailing: true,
			},
		},
		{
			name: "join without trailing",
			line: ":me!u@h JOIN #test",
			want: Message{Prefix: "me!u@h", Nick: "me", Host: "u@h", Command: "JOIN", Dest: "#test"},
		},
		{
			name: "trailing keeps colons and spaces",
			line: ":a!b@c PRIVMSG #x :see: this : thing",
			want: Message{
				Prefix: "a!b@c", Nick: "a", Host: "b@c",
				Command: "PRIVMSG", Dest: "#x", Trailing: "see: this : thing", HasTrailing: true,
			},
		},
		{
			name: "empty trailing",
			line: ":a!b@c PRIVMSG #x :",
			want: Message{
				Prefix: "a!b@c", Nick: "a", Host: "b@c",
				Command: "PRIVMSG", Dest: "#x", HasTrailing: true,
			},
		},
		{
			name: "server prefix is not split",
			line: ":irc.example.net NOTICE * :*** Looking up your hostname",
			want: Message{
				Prefix: "irc.example.net", Command: "NOTICE", Dest: "*",
				Trailing: "*** Looking up your hostname", HasTrailing: true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.line)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.line, err)
			}
			if diff := cmp.Diff(tt.want, *got, cmpopts.IgnoreFields(Message{}, "Raw")); diff != "" {
				t.Fatalf("Parse(%q) mismatch (-want +got):\n%s", tt.line, diff)
			}
			if got.Raw != tt.line {
				t.Fatalf("raw = %q, want %q", got.Raw, tt.line)
			}
		})
	}
}

func TestParseRejectsBareCommand(t *testing.T) {
	for _, line := range []string{"", "PING", "LIST\r\n"} {
		if _, err := Parse(line); !errors.Is(err, ErrParse) {
			t.Fatalf("Parse(%q) error = %v, want ErrParse", line, err)
		}
	}
}

func TestParseRoundTrip(t *testing.T) {
	lines := []string{
		":nick!user@host PRIVMSG #test :hello world",
		"PING :abc123",
		":irc.example.net 366 me #go :End of /NAMES list.",
		":irc.example.net 353 me = #go :alice bob",
		":me!u@h PART #go",
		":x!y@z QUIT :Quit: bye",
		":a!b@c PRIVMSG #x :",
	}
	for _, line := range lines {
		first, err := Parse(line + "\r\n")
		if err != nil {
			t.Fatalf("Parse(%q): %v", line, err)
		}
		if got := first.String(); got != line {
			t.Fatalf("String() = %q, want %q", got, line)
		}
		second, err := Parse(first.String())
		if err != nil {
			t.Fatalf("reparse %q: %v", first.String(), err)
		}
		if diff := cmp.Diff(first, second, cmpopts.IgnoreFields(Message{}, "Raw")); diff != "" {
			t.Fatalf("round trip mismatch (-first +second):\n%s", diff)
		}
	}
}

func TestSplitPrefix(t *testing.T) {
	tests := []struct {
		prefix, nick, host string
	}{
		{"nick!user@host", "nick", "user@host"},
		{"irc.example.net", "", ""},
		{"", "", ""},
		{"!host", "", ""},
	}
	for _, tt := range tests {
		nick, host := SplitPrefix(tt.prefix)
		if nick != tt.nick || host != tt.host {
			t.Fatalf("SplitPrefix(%q) = %q, %q; want %q, %q", tt.prefix, nick, host, tt.nick, tt.host)
		}
	}
}

func TestParseAction(t *testing.T) {
	if text, ok := ParseAction("\x01ACTION waves\x01"); !ok || text != "waves" {
		t.Fatalf("ParseAction = %q, %v", text, ok)
	}
	if _, ok := ParseAction("ACTION waves"); ok {
		t.Fatal("unframed text must not be an action")
	}
	if got := Action("waves"); got != "\x01ACTION waves\x01" {
		t.Fatalf("Action = %q", got)
	}
}

func TestNoticeChannel(t *testing.T) {
	if ch, ok := NoticeChannel("[#go-nuts] Welcome to the channel"); !ok || ch != "#go-nuts" {
		t.Fatalf("NoticeChannel = %q, %v", ch, ok)
	}
	if ch, ok := NoticeChannel("Hi [&local] there"); !ok || ch != "&local" {
		t.Fatalf("NoticeChannel = %q, %v", ch, ok)
	}
	if _, ok := NoticeChannel("no channel [here]"); ok {
		t.Fatal("bracket without channel prefix must not match")
	}
}

func TestMessageNumeric(t *testing.T) {
	if n, ok := (&Message{Command: "353"}).Numeric(); !ok || n != 353 {
		t.Fatalf("Numeric = %d, %v", n, ok)
	}
	for _, cmd := range []string{"PRIVMSG", "35", "3533", "-12"} {
		if _, ok := (&Message{Command: cmd}).Numeric(); ok {
			t.Fatalf("%q must not be numeric", cmd)
		}
	}
}

func TestOutboundLines(t *testing.T) {
	tests := []struct{ got, want string }{
		{Nick("me"), "NICK me"},
		{User("me", "Real"), "USER me 0 * :Real"},
		{Pong("abc"), "PONG :abc"},
		{Join("#go"), "JOIN #go"},
		{Part("#go"), "PART #go"},
		{Quit(""), "QUIT"},
		{Quit("bye now"), "QUIT :bye now"},
		{Privmsg("#go", "hi"), "PRIVMSG #go :hi"},
		{Names("#go"), "NAMES #go"},
		{List(), "LIST"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Fatalf("got %q, want %q", tt.got, tt.want)
		}
	}
}

func TestMaxPayload(t *testing.T) {
	// ": PRIVMSG #test :\r\n" is 19 bytes, plus 32 bytes of hostmask padding.
	if got := MaxPayload("#test"); got != 512-19-32 {
		t.Fatalf("MaxPayload = %d", got)
	}

	longest := "#" + strings.Repeat("c", MaxChannelLen-1)
	size := MaxPayload(longest)
	if size <= 0 {
		t.Fatalf("longest valid channel leaves no payload: %d", size)
	}
	line := ":" + strings.Repeat("h", 32) + " " + Privmsg(longest, strings.Repeat("x", size)) + Terminator
	if len(line) > MaxLineLen {
		t.Fatalf("relayed line is %d bytes", len(line))
	}
	if got := MaxPayload("#" + strings.Repeat("c", 480)); got > 0 {
		t.Fatalf("MaxPayload of an over-long channel = %d", got)
	}
}

func TestValidChannel(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"#go", true},
		{"&local", true},
		{"go", false},
		{"", false},
		{"#" + strings.Repeat("c", MaxChannelLen-1), true},
		{"#" + strings.Repeat("c", MaxChannelLen), false},
		{"#" + strings.Repeat("c", 480), false},
	}
	for _, tt := range tests {
		if got := ValidChannel(tt.name); got != tt.want {
			t.Fatalf("ValidChannel(len %d) = %v, want %v", len(tt.name), got, tt.want)
		}
	}
}

func TestLocalEcho(t *testing.T) {
	m := LocalEcho("me", "#go", "hi there")
	if m.Raw != ":me!X PRIVMSG #go :hi there" {
		t.Fatalf("raw = %q", m.Raw)
	}
	parsed, err := Parse(m.Raw)
	if err != nil {
		t.Fatalf("parse echo: %v", err)
	}
	if diff := cmp.Diff(m, parsed); diff != "" {
		t.Fatalf("echo differs from parsed form (-echo +parsed):\n%s", diff)
	}
}
