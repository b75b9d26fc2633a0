package proto

import (
	"errors"
	"fmt"
	"time"

	"github.com/dlclark/regexp2"
)

// Grammar for an inbound line: [:prefix ]command[ dest][ middle][ :trailing].
// Middle parameters never begin with ':', which needs a lookahead RE2 lacks.
const (
	linePattern   = `^(?:[:](\S+) )?(\S+)(?: (?!:)(.+?))?(?: (?!:)(.+?))?(?: [:](.*?))?(?:\r\n|\r|\n)?$`
	prefixPattern = `^([^!]+)!(.+)$`
	actionPattern = `^\x01ACTION (.+)\x01$`
	noticePattern = `^.*?\[([#&].+)\].*?$`

	groupPrefix   = 1
	groupCommand  = 2
	groupDest     = 3
	groupMiddle   = 4
	groupTrailing = 5

	matchTimeout = 250 * time.Millisecond
)

// ErrParse reports a line that does not fit the grammar.
var ErrParse = errors.New("malformed irc line")

var (
	lineRE   = compile(linePattern, regexp2.None)
	prefixRE = compile(prefixPattern, regexp2.None)
	actionRE = compile(actionPattern, regexp2.None)
	noticeRE = compile(noticePattern, regexp2.None)
)

func compile(pattern string, opts regexp2.RegexOptions) *regexp2.Regexp {
	re := regexp2.MustCompile(pattern, opts)
	re.MatchTimeout = matchTimeout
	return re
}

// Parse splits a raw line into a Message. The line must carry at least one
// parameter after the command (destination, middle or trailing).
func Parse(line string) (*Message, error) {
	m, err := lineRE.FindStringMatch(line)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if m == nil {
		return nil, fmt.Errorf("%w: %q", ErrParse, line)
	}

	last := 0
	captured := func(n int) (string, bool) {
		g := m.GroupByNumber(n)
		if g == nil || len(g.Captures) == 0 {
			return "", false
		}
		if n > last {
			last = n
		}
		return g.String(), true
	}

	msg := &Message{Raw: line}
	msg.Prefix, _ = captured(groupPrefix)
	msg.Command, _ = captured(groupCommand)
	msg.Dest, _ = captured(groupDest)
	msg.Middle, _ = captured(groupMiddle)
	msg.Trailing, msg.HasTrailing = captured(groupTrailing)

	if last < groupDest {
		return nil, fmt.Errorf("%w: missing parameters in %q", ErrParse, line)
	}

	msg.Nick, msg.Host = SplitPrefix(msg.Prefix)
	return msg, nil
}

// SplitPrefix breaks nick!host into its parts. Prefixes of any other shape,
// such as a bare server name, yield two empty strings.
func SplitPrefix(prefix string) (nick, host string) {
	if prefix == "" {
		return "", ""
	}
	m, err := prefixRE.FindStringMatch(prefix)
	if err != nil || m == nil {
		return "", ""
	}
	return m.GroupByNumber(1).String(), m.GroupByNumber(2).String()
}

// ParseAction unwraps a CTCP ACTION body.
func ParseAction(text string) (string, bool) {
	m, err := actionRE.FindStringMatch(text)
	if err != nil || m == nil {
		return "", false
	}
	return m.GroupByNumber(1).String(), true
}

// NoticeChannel finds a bracketed channel name such as "[#go-nuts]" that
// services put in front of channel-scoped notices.
func NoticeChannel(text string) (string, bool) {
	m, err := noticeRE.FindStringMatch(text)
	if err != nil || m == nil {
		return "", false
	}
	return m.GroupByNumber(1).String(), true
}
