// Command chat-server serves chat sessions over Connect RPC.
//
//	chat-server --config server.yaml --addr :8080 --events-db events.db
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/tailored-agentic-units/chat/internal/cli"
	"github.com/tailored-agentic-units/chat/server"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var (
		configFile string
		envFile    string
		addr       string
		eventsDB   string
		verbose    bool
	)

	flagSet := pflag.NewFlagSet("chat-server", pflag.ContinueOnError)
	flagSet.StringVarP(&configFile, "config", "c", "", "path to a JSON, JSONC, or YAML config file")
	flagSet.StringVar(&envFile, "env-file", ".env", "file of environment variables to load if present")
	flagSet.StringVar(&addr, "addr", "", "listen address (overrides config)")
	flagSet.StringVar(&eventsDB, "events-db", "", "SQLite file to record events in (overrides config)")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	if err := cli.LoadEnv(envFile); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}

	cfg := server.DefaultConfig()
	if configFile != "" {
		loaded, err := server.LoadConfig(configFile)
		if err != nil {
			return err
		}
		cfg = *loaded
	}
	if addr != "" {
		cfg.Addr = addr
	}
	if eventsDB != "" {
		cfg.EventsDB = eventsDB
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := cli.NewLogger(os.Stderr, level)
	slog.SetDefault(logger)

	observer, closeObserver, err := cli.Observer(logger, cfg.EventsDB)
	if err != nil {
		return err
	}
	defer closeObserver()

	svc, err := server.New(&cfg, server.WithObserver(observer))
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle(svc.Handler())

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr, "agents", len(cfg.Agents))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
