// main package for the tts-backend service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/book-expert/logger"
	"github.com/nats-io/nats.go"

	"github.com/hawker-audio/tts-backend/internal/artifact"
	"github.com/hawker-audio/tts-backend/internal/auth"
	"github.com/hawker-audio/tts-backend/internal/config"
	"github.com/hawker-audio/tts-backend/internal/core"
	"github.com/hawker-audio/tts-backend/internal/generate"
	"github.com/hawker-audio/tts-backend/internal/httpapi"
	"github.com/hawker-audio/tts-backend/internal/notify"
	"github.com/hawker-audio/tts-backend/internal/provider"
	"github.com/hawker-audio/tts-backend/internal/retention"
	"github.com/hawker-audio/tts-backend/internal/synth"
	"github.com/hawker-audio/tts-backend/internal/userstore"
	"github.com/hawker-audio/tts-backend/internal/voice"
)

const shutdownTimeout = 10 * time.Second

func setupLogger(logPath string) (*logger.Logger, error) {
	log, err := logger.New(logPath, "tts-backend.log")
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return log, nil
}

func run() error {
	// 1. Create a temporary logger for the bootstrap process.
	bootstrapLog, err := setupLogger(os.TempDir())
	if err != nil {
		// If the bootstrap logger fails, we can only print to stderr.
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return err
	}

	bootstrapLog.Info("Bootstrap logger created.")

	// 2. Load configuration using the central configurator.
	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	bootstrapLog.Info("Configuration loaded successfully.")

	// 3. Initialize the final logger based on the loaded configuration.
	finalLog, err := setupLogger(cfg.Paths.BaseLogsDir)
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return fmt.Errorf("failed to create final logger: %w", err)
	}

	defer func() {
		closeErr := finalLog.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing final logger: %v\n", closeErr)
		}
	}()

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	return serve(ctx, cfg, finalLog)
}

// serve wires the collaborators and runs the HTTP server until the
// context is cancelled.
func serve(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	store, err := artifact.NewStore(cfg.Paths.OutputDir)
	if err != nil {
		return fmt.Errorf("failed to initialize artifact store: %w", err)
	}

	users, err := userstore.Open(ctx, cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open user store: %w", err)
	}

	defer func() {
		closeErr := users.Close()
		if closeErr != nil {
			log.Warn("Failed to close user store: %v", closeErr)
		}
	}()

	notifier, notifierCleanup, err := setupNotifier(cfg, log)
	if err != nil {
		return err
	}
	defer notifierCleanup()

	synthesisTimeout := time.Duration(cfg.TTS.TimeoutSeconds) * time.Second
	synthesizer := synth.NewClient(
		provider.NewClient(cfg.TTS.ProviderURL, synthesisTimeout),
		synthesisTimeout,
		log,
	)

	scheduler := retention.NewScheduler(ctx, store, notifier, log)
	retentionWindow := time.Duration(cfg.Retention.Hours) * time.Hour

	orchestrator := generate.NewOrchestrator(
		voice.NewResolver(),
		synthesizer,
		store,
		scheduler,
		notifier,
		retentionWindow,
		log,
	)

	tokenExpiry := time.Duration(cfg.Auth.TokenExpiryMinutes) * time.Minute
	authService := auth.NewService(users, cfg.Auth.Secret, tokenExpiry)

	server := httpapi.NewServer(
		cfg.ListenAddr(),
		orchestrator,
		store,
		authService,
		cfg.Auth.ProtectGenerate,
		synthesisTimeout,
		log,
	)

	go func() {
		<-ctx.Done()
		log.System("Shutdown signal received.")

		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			shutdownTimeout,
		)
		defer cancel()

		shutdownErr := server.Shutdown(shutdownCtx)
		if shutdownErr != nil {
			log.Error("Server shutdown failed: %v", shutdownErr)
		}
	}()

	log.System(
		"TTS backend initialized. Output dir: %s, retention: %s",
		cfg.Paths.OutputDir,
		retentionWindow,
	)

	return server.Start()
}

// setupNotifier connects to NATS when configured, falling back to the
// no-op notifier otherwise.
func setupNotifier(
	cfg *config.Config,
	log *logger.Logger,
) (core.Notifier, func(), error) {
	if cfg.NATS.URL == "" {
		log.Info("NATS not configured, lifecycle events disabled.")

		return notify.NewNoopNotifier(), func() {}, nil
	}

	natsConnection, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATS.URL, err)
	}

	log.Info("Connected to NATS at %s", cfg.NATS.URL)

	notifier := notify.NewNatsNotifier(
		natsConnection,
		cfg.NATS.AudioGeneratedSubject,
		cfg.NATS.AudioExpiredSubject,
	)

	return notifier, natsConnection.Close, nil
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}
