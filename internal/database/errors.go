package database

import "errors"

var (
	// ErrCodeExists is returned when an attempt is made to create
	// a new link with a code that already exists.
	ErrCodeExists = errors.New("code exists")
	// ErrLinkNotFound is returned when an attempt is made to retrieve
	// a link using a code that doesn't exist.
	ErrLinkNotFound = errors.New("link not found")
)
