package server

import "errors"

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrMissingSession  = errors.New("session_id is required")
	ErrSessionLimit    = errors.New("session limit reached")
)
