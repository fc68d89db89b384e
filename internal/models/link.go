package models

import "time"

// Link represents a shortened link and its associated metadata.
type Link struct {
	// ID is the unique identifier for the link record.
	ID int64
	// Code is the short alphanumeric code that resolves to the target URL.
	Code string
	// URL is the original, full-length URL that the code redirects to.
	URL string
	// Clicks tracks the number of times the link has been followed.
	Clicks int64
	// CreatedAt is the timestamp indicating when the link was created.
	CreatedAt time.Time
	// LastClickedAt is the timestamp of the most recent click.
	// It is nil until the link is followed for the first time.
	LastClickedAt *time.Time
}
