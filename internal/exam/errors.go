package exam

import "errors"

var (
	// ErrNotFound is returned when a session or question does not exist.
	ErrNotFound = errors.New("not found")
	// ErrSessionCompleted is returned when an answer is submitted to, or a
	// second finalization is attempted on, a completed session.
	ErrSessionCompleted = errors.New("session already completed")
	// ErrDuplicateAnswer is returned under the reject policy when the
	// question was already answered in the session.
	ErrDuplicateAnswer = errors.New("question already answered in this session")
	// ErrInvalidInput is returned for malformed arguments such as an unknown level.
	ErrInvalidInput = errors.New("invalid input")
)
