package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"golang.design/x/hotkey/mainthread"

	"desklock/config"
	"desklock/internal/api"
	"desklock/internal/engine"
	"desklock/internal/logging"
	"desklock/internal/storage"
	"desklock/internal/storage/sqlite"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Global hotkeys and the cover need the OS main thread on macOS
	mainthread.Init(func() {
		if err := run(); err != nil {
			fmt.Fprintf(os.Stderr, "desklock: %v\n", err)
			os.Exit(1)
		}
	})
}

func run() error {
	// Parse command-line flags
	configPath := flag.String("config", "", "Path to settings file (default: <user config dir>/DeskLock/settings.json)")
	logLevel := flag.String("log-level", "", "Override log level: debug, info, warn, error")
	requestPermission := flag.Bool("request-permission", false, "Ask the OS for input monitoring permission if it is missing")
	lockOnStart := flag.Bool("lock", false, "Lock immediately after start")
	flag.Parse()

	path := *configPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return err
		}
	}

	cfg, created, err := loadOrCreate(path)
	if err != nil {
		return err
	}
	cfg.ApplyEnv()
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	// Setup logging
	out, closeLog, err := logOutput(cfg.Log.Path)
	if err != nil {
		return err
	}
	defer closeLog()

	logger := logging.NewLogger(logging.LoggerConfig{
		Format: cfg.Log.Format,
		Level:  logging.ParseLevel(cfg.Log.Level),
		Output: out,
	})
	slog.SetDefault(logger)

	mainLogger := logger.With("component", "main")
	mainLogger.Info("DeskLock starting",
		"config", path,
		"config_created", created,
		"hotkey", cfg.Hotkey,
		"journal", cfg.Journal.Enabled,
		"control", cfg.Control.Enabled,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng := engine.New(engine.Options{Config: cfg, Logger: logger})

	// Lock-session journal
	var store storage.Storage
	recorderCtx, stopRecorder := context.WithCancel(context.Background())
	defer stopRecorder()
	recorderDone := make(chan struct{})
	if cfg.Journal.Enabled {
		db, err := sqlite.New(cfg.Journal.Path)
		if err != nil {
			mainLogger.Error("Lock journal unavailable", "path", cfg.Journal.Path, "error", err)
			close(recorderDone)
		} else {
			store = db
			recorder := storage.NewRecorder(db, logger)
			eng.OnTransition(recorder.Record)
			go func() {
				defer close(recorderDone)
				recorder.Run(recorderCtx)
			}()
		}
	} else {
		close(recorderDone)
	}

	if !eng.HasRequiredPermission() && *requestPermission {
		mainLogger.Info("Requesting input monitoring permission")
		eng.RequestPermission()
	}

	if eng.Start() {
		mainLogger.Info("Input interception active", "chord", eng.Chord().String())
	} else {
		mainLogger.Warn("Running in degraded mode", "chord", eng.Chord().String())
	}

	var wg sync.WaitGroup

	// Settings reload
	watcher, err := config.NewWatcher(path, config.DefaultDebounce, logger, func(next *config.Config) {
		next.ApplyEnv()
		if err := eng.ApplyConfig(ctx, next); err != nil {
			mainLogger.Warn("Settings partially applied", "error", err)
		}
	})
	if err != nil {
		mainLogger.Error("Settings watcher unavailable", "error", err)
	} else {
		wg.Add(1)
		go func() {
			defer wg.Done()
			watcher.Run(ctx)
		}()
	}

	// Local control API
	if cfg.Control.Enabled {
		server, err := api.NewServer(cfg.Control.Addr, api.RouterConfig{
			Controller: logging.NewControllerLogger(eng, logger),
			Storage:    store,
			APIKey:     cfg.Control.APIKey,
			Logger:     logger,
		})
		if err != nil {
			mainLogger.Error("Control API disabled", "error", err)
		} else {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := server.Run(ctx, shutdownTimeout); err != nil {
					mainLogger.Error("Control API stopped", "error", err)
				}
			}()
		}
	}

	if *lockOnStart {
		if err := eng.Lock(ctx, engine.SourceMenu); err != nil {
			mainLogger.Error("Failed to lock on start", "error", err)
		}
	}

	<-ctx.Done()
	mainLogger.Info("Shutdown signal received")

	wg.Wait()

	// Unlocks first, then releases the hook and the cover
	if err := eng.Close(); err != nil {
		mainLogger.Error("Engine shutdown error", "error", err)
	}

	stopRecorder()
	<-recorderDone
	if store != nil {
		if err := store.Close(); err != nil {
			mainLogger.Error("Failed to close journal", "error", err)
		}
	}

	mainLogger.Info("DeskLock stopped")
	return nil
}

// loadOrCreate loads the settings file, writing defaults when it does not exist
func loadOrCreate(path string) (*config.Config, bool, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, false, nil
	}
	if !errors.Is(err, config.ErrConfigFileNotFound) {
		return nil, false, fmt.Errorf("failed to load config: %w", err)
	}

	cfg = config.Default()
	cfg.ResolvePaths(path)
	if err := config.Save(path, cfg); err != nil {
		return nil, false, fmt.Errorf("failed to write default config: %w", err)
	}
	return cfg, true, nil
}

func logOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stderr, func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return file, func() { file.Close() }, nil
}
