package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeNameTooLong    = "name_too_long"
	ErrCodeChannelTooLong = "channel_too_long"
	ErrCodeNotJoined      = "not_joined"
)

var (
	ErrNameTooLong    = errors.New("name too long")
	ErrChannelTooLong = errors.New("channel name too long")
	ErrNotJoined      = errors.New("not joined")
	ErrBadRequest     = errors.New("bad request")

	// ErrQuit is returned by the interpreter once QUIT has been sent.
	ErrQuit = errors.New("quit")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
	Err     error
}

func (e *CoreError) Error() string {
	return e.Message
}

func (e *CoreError) Unwrap() error {
	return e.Err
}

func coreError(code, msg string, err error) *CoreError {
	return &CoreError{Code: code, Message: msg, Err: err}
}
