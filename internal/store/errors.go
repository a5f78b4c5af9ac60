package store

import "errors"

var (
	// ErrCorruptDocument indicates the persisted document cannot be used as-is.
	ErrCorruptDocument = errors.New("store: corrupt document")

	// ErrIDExhausted indicates the id generator kept returning ids already in use.
	ErrIDExhausted = errors.New("store: could not allocate a unique entry id")
)
