package proto

// Outbound lines are returned without Terminator; the transport appends it.

// hostmaskPadding is reserved for the nick!user@host a server prepends when
// relaying a PRIVMSG to other clients.
const hostmaskPadding = 32

func Nick(nick string) string { return "NICK " + nick }

func User(user, real string) string { return "USER " + user + " 0 * :" + real }

func Pong(token string) string { return "PONG :" + token }

func Join(channel string) string { return "JOIN " + channel }

func Part(channel string) string { return "PART " + channel }

// Quit omits the trailing parameter when msg is empty.
func Quit(msg string) string {
	if msg == "" {
		return "QUIT"
	}
	return "QUIT :" + msg
}

func Privmsg(dest, text string) string { return "PRIVMSG " + dest + " :" + text }

// Action frames text as a CTCP ACTION.
func Action(text string) string { return ctcpDelim + actionVerb + " " + text + ctcpDelim }

func Names(channel string) string { return "NAMES " + channel }

func List() string { return "LIST" }

// MaxPayload is the largest PRIVMSG body that fits one line to channel once
// the server has added its prefix. It is not positive when channel is too
// long to leave any room.
func MaxPayload(channel string) int {
	envelope := len(": PRIVMSG " + channel + " :" + Terminator)
	return MaxLineLen - (envelope + hostmaskPadding)
}
