package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/suspectuso/blum-farmer/internal/blum"
	"github.com/suspectuso/blum-farmer/internal/config"
	"github.com/suspectuso/blum-farmer/internal/credentials"
	"github.com/suspectuso/blum-farmer/internal/farmer"
	"github.com/suspectuso/blum-farmer/internal/metrics"
	"github.com/suspectuso/blum-farmer/internal/notifier"
	"github.com/suspectuso/blum-farmer/internal/storage"
	"github.com/suspectuso/blum-farmer/internal/telegram"
	"github.com/suspectuso/blum-farmer/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	// Load .env file
	envErr := godotenv.Load()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		return err
	}

	// Setup logger
	log := telemetry.SetupLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if envErr != nil {
		log.Debug("no .env file found")
	}

	// Load accounts
	creds, err := credentials.LoadFile(cfg.TokensFile)
	if err != nil {
		log.Error("load tokens", "error", err)
		return err
	}
	accounts, err := credentials.NewStore(creds)
	if err != nil {
		log.Error("init accounts", "error", err)
		return err
	}
	log.Info("accounts loaded", "count", accounts.Len(), "file", cfg.TokensFile)

	opts := []farmer.Option{
		farmer.WithRecorder(metrics.Recorder{}),
	}

	// Initialize storage
	if cfg.DBPath != "" {
		store, err := storage.New(cfg.DBPath)
		if err != nil {
			log.Error("init storage", "error", err)
			return err
		}
		defer store.Close()

		restored, err := store.RestoreCredentials(accounts)
		if err != nil {
			log.Error("restore tokens", "error", err)
			return err
		}
		log.Info("storage initialized", "path", cfg.DBPath, "restored_tokens", restored)

		opts = append(opts, farmer.WithStateStore(store))
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize telegram bot
	var bot *telegram.Bot
	if cfg.TelegramEnabled() {
		bot, err = telegram.New(cfg.BotToken, cfg.TelegramChatID, log)
		if err != nil {
			log.Error("init telegram bot", "error", err)
			return err
		}
		opts = append(opts, farmer.WithNotifier(notifier.New(bot, log)))
		log.Info("telegram bot initialized", "chat_id", cfg.TelegramChatID)
	}

	// Initialize Blum client
	client := blum.NewClient(cfg.GatewayBaseURL, cfg.GameBaseURL, cfg.HTTPTimeout)
	log.Info("blum client initialized", "gateway", cfg.GatewayBaseURL, "game", cfg.GameBaseURL)

	rotator := credentials.NewRotator(accounts.Len(), cfg.StartAccount)

	farm := farmer.New(farmer.Config{
		Rotate:          cfg.Mode == config.ModeRotate,
		Refresh:         cfg.RefreshEnabled,
		FriendsClaim:    cfg.FriendsClaimEnabled,
		FriendsInterval: cfg.FriendsClaimInterval,
		RetryDelay:      cfg.RetryDelay,
		MinPollInterval: cfg.MinPollInterval,
	}, client, accounts, rotator, log, opts...)

	if bot != nil {
		go bot.Start(ctx, farm)
	}

	// Start metrics server
	if cfg.MetricsAddr != "" {
		metricsServer := metrics.NewServer(log)
		go func() {
			if err := metricsServer.Start(ctx, cfg.MetricsAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server", "error", err)
			}
		}()
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Info("shutting down...")
		cancel()
	}()

	return farm.Run(ctx)
}
