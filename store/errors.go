package store

import "errors"

var (
	// ErrNotFound indicates a ledger record has never been written.
	ErrNotFound = errors.New("store: not found")

	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("store: required parameter is nil")

	// ErrCorrupt indicates a persisted record cannot be decoded.
	ErrCorrupt = errors.New("store: corrupt record")

	// ErrLocked indicates another process holds the database file.
	ErrLocked = errors.New("store: database is locked by another process")

	// ErrClosed indicates the store has been closed.
	ErrClosed = errors.New("store: closed")
)
