// Package memory supplies the standing instructions a chat session sends
// ahead of its history: persona descriptions, house rules, reference notes.
// Entries live in a pluggable Store and are composed into a single system
// prompt at request time. They never enter the bounded history.
package memory

import "context"

// Entry is one prompt fragment. Keys are /-separated relative paths.
type Entry struct {
	Key   string
	Value []byte
}

// Store lists and loads prompt fragments. Implementations perform I/O on
// each call without caching.
type Store interface {
	// List returns the available keys in lexical order.
	List(ctx context.Context) ([]string, error)
	// Load retrieves entries for the specified keys, in the order given.
	Load(ctx context.Context, keys ...string) ([]Entry, error)
}
