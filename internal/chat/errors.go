package chat

import "errors"

// Error codes reported back to the originating connection.
const (
	ErrCodeForbidden        = "forbidden"
	ErrCodeInvalidReference = "invalid_reference"
	ErrCodeStorageError     = "storage_error"
	ErrCodeMalformedInput   = "malformed_input"
)

// ErrNoConnections is returned by SessionRegistry.Send when the target user
// has no live connection at all. Partial delivery is not an error.
var ErrNoConnections = errors.New("no live connections")

// ChatError wraps a code and human-readable message. It is delivered to the
// offending connection as an error event and never fans out to anyone else.
type ChatError struct {
	Code    string
	Message string
}

func (e *ChatError) Error() string {
	return e.Message
}

func chatError(code, msg string) *ChatError {
	return &ChatError{Code: code, Message: msg}
}
