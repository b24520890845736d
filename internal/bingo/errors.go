package bingo

// Kind is a machine-readable error category.
type Kind string

const (
	KindSessionNotFound     Kind = "SESSION_NOT_FOUND"
	KindParticipantNotFound Kind = "PARTICIPANT_NOT_FOUND"
	KindInvalidCommand      Kind = "INVALID_COMMAND"
	KindOperationNotAllowed Kind = "OPERATION_NOT_ALLOWED"
	KindUnauthorized        Kind = "UNAUTHORIZED"
	KindNoWinningPattern    Kind = "NO_WINNING_PATTERN"
	KindDrawsExhausted      Kind = "DRAWS_EXHAUSTED"
)

// Error is the engine's domain error.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target has the same kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Sentinels for errors.Is.
var (
	ErrSessionNotFound     = newError(KindSessionNotFound, "game not found")
	ErrParticipantNotFound = newError(KindParticipantNotFound, "player not found")
	ErrInvalidCommand      = newError(KindInvalidCommand, "invalid message format")
	ErrOperationNotAllowed = newError(KindOperationNotAllowed, "operation not allowed")
	ErrUnauthorized        = newError(KindUnauthorized, "invalid admin password")
	ErrNoWinningPattern    = newError(KindNoWinningPattern, "no winning pattern found")
	ErrDrawsExhausted      = newError(KindDrawsExhausted, "all numbers have been drawn")
)

// NotAllowed returns an OperationNotAllowed error with a specific message.
func NotAllowed(msg string) error {
	return newError(KindOperationNotAllowed, msg)
}

// Invalid returns an InvalidCommand error with a specific message.
func Invalid(msg string) error {
	return newError(KindInvalidCommand, msg)
}
