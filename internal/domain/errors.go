package domain

import "errors"

// Domain-level errors
var (
	ErrSendFailed    = errors.New("queue send failed")
	ErrPersistFailed = errors.New("persist failed")
	ErrStreamClosed  = errors.New("stream subscription closed")
	ErrQueueClosed   = errors.New("queue is closed")
	ErrInvalidQueue  = errors.New("invalid queue name")
	ErrInvalidInput  = errors.New("invalid input")
	ErrDatabaseError = errors.New("database error")
)
