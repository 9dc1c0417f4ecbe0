package store

import "errors"

var (
	ErrNotFound    = errors.New("user state not found")
	ErrInvalidUser = errors.New("invalid user ID")
)
