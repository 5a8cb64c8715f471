// Package cli holds the setup shared by the chat commands: logging,
// environment files, and event sinks.
package cli

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"golang.org/x/term"

	"github.com/tailored-agentic-units/chat/observability"
)

// NewLogger creates a structured logger on w. A terminal gets
// slog.TextHandler; anything else gets slog.JSONHandler so piped output
// stays machine-parseable.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	options := &slog.HandlerOptions{Level: level}

	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return slog.New(slog.NewTextHandler(w, options))
	}
	return slog.New(slog.NewJSONHandler(w, options))
}

// LoadEnv loads variables from each file into the process environment.
// Variables already set are kept. Missing files are skipped.
func LoadEnv(files ...string) error {
	for _, file := range files {
		if file == "" {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}

// Observer builds the event sink for a command: the default logger, plus a
// SQLite audit log when eventsDB is set. The returned close function is
// never nil.
func Observer(logger *slog.Logger, eventsDB string) (observability.Observer, func() error, error) {
	logObs := observability.NewSlogObserver(logger)
	if eventsDB == "" {
		return logObs, func() error { return nil }, nil
	}

	db, err := observability.OpenSQLiteObserver(eventsDB)
	if err != nil {
		return nil, nil, err
	}
	observability.RegisterObserver("sqlite", db)

	return observability.NewMultiObserver(logObs, db), db.Close, nil
}
