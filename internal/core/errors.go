package core

// Codes carried by error events. They go to clients verbatim.
const (
	ErrCodeRoomNotFound   = "room_not_found"
	ErrCodeAlreadyJoined  = "already_joined"
	ErrCodeNotInRoom      = "not_in_room"
	ErrCodeForbidden      = "forbidden"
	ErrCodeBadRequest     = "bad_request"
	ErrCodeMessageTooLong = "message_too_long"
	ErrCodeUnauthorized   = "unauthorized"
	ErrCodeRateLimited    = "rate_limited"
	ErrCodeInternal       = "internal"
)

// Error is a rejected command, reported back to the connection that sent it.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

// Is matches any *Error with the same code, so errors.Is(err, &Error{Code: c}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func newError(code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}
