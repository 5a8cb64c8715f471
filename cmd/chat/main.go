// Command chat is an interactive bounded-history chat on the terminal.
//
//	chat --env-file .env --max-history 10
//
// Type "clear" to reset the history, "/tokens" to see the context size, and
// "exit" or "quit" to leave.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/tailored-agentic-units/chat/internal/cli"
	"github.com/tailored-agentic-units/chat/session"
)

const prompt = "User: "

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var (
		configFile   string
		envFile      string
		maxHistory   int
		timeout      int
		systemPrompt string
		memoryPath   string
		persona      string
		provider     string
		eventsDB     string
		verbose      bool
	)

	flagSet := pflag.NewFlagSet("chat", pflag.ContinueOnError)
	flagSet.StringVarP(&configFile, "config", "c", "", "path to a JSON, JSONC, or YAML config file")
	flagSet.StringVar(&envFile, "env-file", ".env", "file of environment variables to load if present")
	flagSet.IntVar(&maxHistory, "max-history", 0, "messages to retain (overrides config)")
	flagSet.IntVar(&timeout, "timeout", 0, "request timeout in seconds (overrides config)")
	flagSet.StringVar(&systemPrompt, "system-prompt", "", "system prompt (overrides config)")
	flagSet.StringVar(&memoryPath, "memory", "", "directory of prompt files (overrides config)")
	flagSet.StringVar(&persona, "persona", "", "subdirectory of --memory to use, e.g. personas/lincoln/")
	flagSet.StringVar(&provider, "provider", "", "openai, azure, or mock (overrides config)")
	flagSet.StringVar(&eventsDB, "events-db", "", "SQLite file to record session events in")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "log session events to stderr")
	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	if err := cli.LoadEnv(envFile); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}

	cfg := session.DefaultConfig()
	if configFile != "" {
		loaded, err := session.LoadConfig(configFile)
		if err != nil {
			return err
		}
		cfg = *loaded
	}

	if flagSet.Changed("max-history") {
		cfg.MaxHistory = maxHistory
	}
	if flagSet.Changed("timeout") {
		cfg.TimeoutSeconds = timeout
	}
	if systemPrompt != "" {
		cfg.SystemPrompt = systemPrompt
	}
	if memoryPath != "" {
		cfg.Memory.Path = memoryPath
	}
	if persona != "" {
		cfg.Memory.Prefix = persona
	}
	if provider != "" {
		cfg.Agent.Provider = provider
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := cli.NewLogger(os.Stderr, level)
	slog.SetDefault(logger)

	observer, closeObserver, err := cli.Observer(logger, eventsDB)
	if err != nil {
		return err
	}
	defer closeObserver()

	sess, err := session.New(&cfg, session.WithObserver(observer))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) || !term.IsTerminal(int(os.Stdout.Fd())) {
		r := &repl{
			session: sess,
			in:      newPromptReader(os.Stdin, os.Stdout, prompt),
			out:     os.Stdout,
			styles:  newStyles(false),
		}
		return r.run(ctx)
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("failed to enter raw mode: %w", err)
	}
	defer term.Restore(fd, state)

	terminal := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout}, prompt)

	r := &repl{
		session: sess,
		in:      terminal,
		out:     terminal,
		styles:  newStyles(true),
	}
	return r.run(ctx)
}
