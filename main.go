// jobtimer is a terminal time tracker for freelancers: start a timer on
// a job card, stop it, and the time log is submitted to the backend.
// A running timer survives restarts. Logging out stops it.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/sadopc/jobtimer/internal/backend"
	"github.com/sadopc/jobtimer/internal/config"
	"github.com/sadopc/jobtimer/internal/store"
	"github.com/sadopc/jobtimer/internal/tui"
	"github.com/sadopc/jobtimer/internal/worktimer"
)

var version = "dev"

var _ worktimer.KV = (*store.Store)(nil)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flagSet := pflag.NewFlagSet("jobtimer", pflag.ContinueOnError)
	flags := config.BindFlags(flagSet)

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if flags.Help {
		printHelp(flagSet)
		return nil
	}
	if flags.Version {
		fmt.Println("jobtimer", version)
		return nil
	}
	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	configPath := flags.ConfigPath
	if configPath == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return err
		}
		configPath = p
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	flags.Apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if flags.WriteConfig {
		if err := config.Save(configPath, cfg); err != nil {
			return err
		}
		fmt.Println("wrote", configPath)
		return nil
	}

	logger, closeLog, err := openLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	dbPath := cfg.Storage.Path
	if dbPath == "" {
		if dbPath, err = store.DefaultDBPath(); err != nil {
			return err
		}
	}
	s, err := store.New(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer s.Close()

	if err := s.SeedSettings(cfg.SettingsSeed()); err != nil {
		return err
	}
	rt := cfg.Runtime(s)

	var kv worktimer.KV = s
	if cfg.Storage.Ephemeral {
		kv = worktimer.NewMemoryKV()
	}

	var upstream worktimer.Submitter
	if cfg.Backend.URL != "" {
		client, err := backend.NewClient(backend.Config{
			BaseURL: cfg.Backend.URL,
			Token:   cfg.Token(),
			Timeout: cfg.Timeout(),
			Logger:  logger,
		})
		if err != nil {
			return err
		}
		upstream = client
	} else {
		logger.Info("no backend configured, time logs stay in the local journal")
	}

	machine := worktimer.New(worktimer.Config{
		Store:        worktimer.NewTimerStore(kv, logger),
		Submitter:    backend.NewJournal(upstream, s, logger),
		Logger:       logger,
		Identity:     cfg.Identity(),
		Thresholds:   rt.Thresholds,
		TickInterval: cfg.TickInterval(),
		DefaultNote:  rt.StopNote,
		AutoStopNote: rt.LogoutNote,
	})
	defer machine.Close()

	app := tui.NewApp(s, machine)
	if machine.Recover() {
		logger.Info("resumed running timer", "work_item", machine.Snapshot().Timer.WorkItemID)
	}

	program := tea.NewProgram(app, tea.WithAltScreen())
	_, err = program.Run()
	return err
}

// openLogger writes text logs to the configured file. The terminal
// belongs to the TUI.
func openLogger(cfg config.Config) (*slog.Logger, func(), error) {
	path := cfg.Log.File
	if path == "" {
		p, err := config.DefaultLogPath()
		if err != nil {
			return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}, nil
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: cfg.LogLevel()}))
	return logger, func() { f.Close() }, nil
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `jobtimer: track time against job cards from the terminal.

Start a timer on a job card, stop it to log the time. A running timer
is kept across restarts; "L" logs out and stops it, "q" quits and
leaves it running.

Usage:
  jobtimer [flags]

Flags:
%s`, flagSet.FlagUsages())
}
