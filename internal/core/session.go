package core

import (
	"fmt"
	"slices"

	"github.com/vovakirdan/ircterm/internal/proto"
)

// MaxNameLen bounds nick, user and real name.
const MaxNameLen = 9

// Session is the client's view of its connection: identity, joined
// channels in join order, and the channel in focus.
type Session struct {
	Server string
	Nick   string
	User   string
	Real   string

	current  string
	channels []string
}

// NewSession validates the identity fields and builds an empty session.
func NewSession(server, nick, user, real string) (*Session, error) {
	for _, f := range []struct{ label, value string }{
		{"Nickname", nick},
		{"Username", user},
		{"Real name", real},
	} {
		if len(f.value) > MaxNameLen {
			return nil, coreError(ErrCodeNameTooLong,
				fmt.Sprintf("%s cannot be longer than %d characters", f.label, MaxNameLen), ErrNameTooLong)
		}
	}
	return &Session{Server: server, Nick: nick, User: user, Real: real}, nil
}

// Current returns the focused channel, or "" when none is.
func (s *Session) Current() string {
	return s.current
}

// Join adds channel to the joined set and focuses it. Returns true if newly
// added. Names longer than proto.MaxChannelLen leave the session unchanged.
func (s *Session) Join(channel string) (bool, error) {
	if len(channel) > proto.MaxChannelLen {
		return false, coreError(ErrCodeChannelTooLong,
			fmt.Sprintf("Channel name cannot be longer than %d characters", proto.MaxChannelLen), ErrChannelTooLong)
	}
	s.current = channel
	if slices.Contains(s.channels, channel) {
		return false, nil
	}
	s.channels = append(s.channels, channel)
	return true, nil
}

// Part removes channel and drops focus if it was focused. Returns true if removed.
func (s *Session) Part(channel string) bool {
	if s.current == channel {
		s.current = ""
	}
	i := slices.Index(s.channels, channel)
	if i < 0 {
		return false
	}
	s.channels = slices.Delete(s.channels, i, i+1)
	return true
}

// SetCurrent focuses an already joined channel.
func (s *Session) SetCurrent(channel string) error {
	if !s.IsJoined(channel) {
		return coreError(ErrCodeNotJoined, "Not connected to channel: "+channel, ErrNotJoined)
	}
	s.current = channel
	return nil
}

// IsJoined reports membership in the joined set.
func (s *Session) IsJoined(channel string) bool {
	return slices.Contains(s.channels, channel)
}

// Channels returns the joined channels in join order.
func (s *Session) Channels() []string {
	return slices.Clone(s.channels)
}
