package model

import "errors"

var (
	// ErrTransientIO marks camera read misses and network delivery failures.
	ErrTransientIO = errors.New("transient i/o fault")
	// ErrStorage marks failed writes or reads against the event store or snapshot directory.
	ErrStorage = errors.New("storage fault")
	// ErrInvalidInput marks malformed admin requests.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConfiguration marks missing startup assets. Fatal.
	ErrConfiguration = errors.New("configuration fault")
)
