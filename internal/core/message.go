package core

import "github.com/vovakirdan/ircterm/internal/proto"

// Outgoing is a queued protocol line plus the echo shown once it is sent.
type Outgoing struct {
	Line string
	Echo *proto.Message
}
