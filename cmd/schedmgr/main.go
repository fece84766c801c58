package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"schedule_manager/internal/config"
	"schedule_manager/internal/identity"
	"schedule_manager/internal/model"
	"schedule_manager/internal/notify"
	"schedule_manager/internal/scanner"
	"schedule_manager/internal/speech"
	"schedule_manager/internal/storage"
)

func main() {
	// A missing .env file is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error("create data directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}

	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		log.Error("open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	user, err := openSession(store, cfg, log)
	if err != nil {
		log.Error("session", "error", err)
		os.Exit(1)
	}
	log.Info("session opened", "user_id", user.ID)

	worker := speech.NewWorker(speech.NewCommandSynthesizer(cfg.SpeechCommand), log)
	go worker.Run()

	indicator := notify.NewIndicator(notify.NewLogTray(log), log)
	indicator.SetBlinkInterval(cfg.BlinkInterval)

	prompter := &notify.ConsolePrompter{In: os.Stdin, Out: os.Stdout}
	dispatcher := notify.NewDispatcher(worker, indicator, prompter, log)

	sc := scanner.New(store, dispatcher, log, user.ID)
	sc.SetTickInterval(cfg.PollInterval)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("starting schedule manager")

	sc.Run(ctx)

	indicator.Close()
	worker.Stop()

	log.Info("schedule manager stopped")
}

// openSession authenticates the configured user, registering a fresh
// account on first run.
func openSession(store storage.Storage, cfg *config.Config, log *slog.Logger) (*model.User, error) {
	svc := identity.NewService(store, log)

	u, err := svc.Authenticate(context.Background(), cfg.UserEmail, cfg.UserPassword)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, identity.ErrInvalidCredentials) {
		return nil, err
	}

	u, err = svc.Register(context.Background(), cfg.UserEmail, cfg.UserPassword)
	if errors.Is(err, storage.ErrEmailTaken) {
		// The account exists, so the configured password is wrong.
		return nil, identity.ErrInvalidCredentials
	}
	return u, err
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
