package domain

import "errors"

// ErrInvalidQuestion is returned when the submitted text is not a yes/no question.
var ErrInvalidQuestion = errors.New("not a yes/no question")

// ErrInvalidTransition is returned when an operation is not allowed in the current phase.
var ErrInvalidTransition = errors.New("invalid phase transition")

// ErrSessionNotFound is returned when a session ID cannot be found in the manager.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionClosed is returned when operating on a session that has been closed.
var ErrSessionClosed = errors.New("session closed")
