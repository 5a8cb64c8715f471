package session

import "errors"

var (
	// ErrConfiguration is returned by New when configuration or credentials
	// are missing or invalid. No remote call has been made.
	ErrConfiguration = errors.New("configuration error")
	// ErrInvalidInput is returned by Chat for input that is empty after
	// trimming. History is left unchanged.
	ErrInvalidInput = errors.New("input cannot be empty")
	// ErrEmptyResponse marks a completion that carried no choices.
	ErrEmptyResponse = errors.New("completion returned no choices")
)
