package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mattn/go-isatty"

	"github.com/alexanderramin/redtimer/internal/cli"
	"github.com/alexanderramin/redtimer/internal/clock"
	"github.com/alexanderramin/redtimer/internal/config"
	"github.com/alexanderramin/redtimer/internal/db"
	"github.com/alexanderramin/redtimer/internal/redmine"
	"github.com/alexanderramin/redtimer/internal/repository"
	"github.com/alexanderramin/redtimer/internal/tracking"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	baseDir, err := config.Dir()
	if err != nil {
		return err
	}
	cfg, err := config.Load(baseDir)
	if err != nil {
		return err
	}

	database, err := db.OpenDB(cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	// Call logs go to a file; stderr belongs to the TUI.
	var observer tracking.Observer = tracking.NoopObserver{}
	if cfg.Log.Calls {
		logFile, err := openLog(cfg.Log.File)
		if err != nil {
			return err
		}
		defer logFile.Close()
		observer = tracking.NewLogObserver(logFile)
	}

	client := redmine.NewClient(redmine.Options{
		BaseURL:    cfg.Redmine.URL,
		APIKey:     cfg.Redmine.APIKey,
		Timeout:    cfg.Timeout(),
		MaxRetries: cfg.Redmine.MaxRetries,
	})

	app := &cli.App{
		Config:     cfg,
		ConfigPath: config.Path(baseDir),
		Redmine:    client,
		Recent:     repository.NewSQLiteRecentIssueRepo(database),
		Settings:   repository.NewSQLiteSettingsRepo(database),
		Journal:    repository.NewSQLiteJournalRepo(database),
		Observer:   observer,
		Clock:      clock.Real(),
	}
	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return cli.NewRootCmd(app).ExecuteContext(ctx)
}

func openLog(path string) (io.WriteCloser, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening call log: %w", err)
	}
	return f, nil
}
