package events

import "errors"

var (
	// ErrUnknownKind indicates an event kind this version does not recognise.
	ErrUnknownKind = errors.New("events: unknown event kind")

	// ErrInvalidEvent indicates a malformed encoded event.
	ErrInvalidEvent = errors.New("events: invalid event")
)
