package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tailored-agentic-units/chat/session"
)

// chatter is the part of a session the loop drives.
type chatter interface {
	Chat(ctx context.Context, input string) (session.Outcome, error)
	ClearHistory()
	Stats() session.Stats
}

// lineReader yields one line of user input per call, without the newline.
// It returns io.EOF when input ends.
type lineReader interface {
	ReadLine() (string, error)
}

type styles struct {
	assistant lipgloss.Style
	failure   lipgloss.Style
	notice    lipgloss.Style
	enabled   bool
}

func newStyles(enabled bool) styles {
	return styles{
		assistant: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		failure:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		notice:    lipgloss.NewStyle().Faint(true),
		enabled:   enabled,
	}
}

func (s styles) render(style lipgloss.Style, text string) string {
	if !s.enabled {
		return text
	}
	return style.Render(text)
}

type repl struct {
	session chatter
	in      lineReader
	out     io.Writer
	styles  styles
}

// run reads lines until exit, quit, or end of input. Each other line is one
// turn; "clear" resets the history and "/tokens" prints context size.
func (r *repl) run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			fmt.Fprintln(r.out, "\nExiting chat.")
			return nil
		}

		line, err := r.in.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out, "\nExiting chat.")
				return nil
			}
			return err
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "exit", "quit":
			return nil
		case "clear":
			r.session.ClearHistory()
			fmt.Fprintln(r.out, r.styles.render(r.styles.notice, "Chat history cleared."))
			continue
		case "/tokens":
			st := r.session.Stats()
			fmt.Fprintln(r.out, r.styles.render(r.styles.notice, fmt.Sprintf(
				"%d/%d messages, ~%d prompt tokens (%s)", st.Messages, st.Capacity, st.PromptTokens, st.Model,
			)))
			continue
		}

		out, err := r.session.Chat(ctx, line)
		if err != nil {
			if errors.Is(err, session.ErrInvalidInput) {
				fmt.Fprintln(r.out, r.styles.render(r.styles.failure, "Input Error: "+err.Error()))
				continue
			}
			return err
		}

		label := r.styles.render(r.styles.assistant, "Assistant:")
		if out.OK() {
			fmt.Fprintf(r.out, "%s %s\n", label, out.Content)
		} else {
			fmt.Fprintf(r.out, "%s %s\n", label, r.styles.render(r.styles.failure, out.Text()))
		}
	}
}

// promptReader prints a prompt and reads lines from a plain stream.
type promptReader struct {
	scanner *bufio.Scanner
	out     io.Writer
	prompt  string
}

func newPromptReader(in io.Reader, out io.Writer, prompt string) *promptReader {
	return &promptReader{scanner: bufio.NewScanner(in), out: out, prompt: prompt}
}

func (p *promptReader) ReadLine() (string, error) {
	fmt.Fprint(p.out, p.prompt)
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return p.scanner.Text(), nil
}
