package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xaenox/stickytab/internal/aiwrite"
	"github.com/xaenox/stickytab/internal/app"
	"github.com/xaenox/stickytab/internal/background"
	"github.com/xaenox/stickytab/internal/bot"
	"github.com/xaenox/stickytab/internal/classifier"
	"github.com/xaenox/stickytab/internal/notes"
	"github.com/xaenox/stickytab/internal/settings"
	"github.com/xaenox/stickytab/internal/storage"
	"github.com/xaenox/stickytab/internal/weather"
	"github.com/xaenox/stickytab/pkg/config"
	"go.uber.org/zap"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	// Load configuration
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger, _ := zap.NewProduction()
		logger.Fatal("Failed to load config", zap.Error(err), zap.String("path", configPath))
	}

	// Initialize logger
	logger := newLogger(cfg.Log.Development)
	defer logger.Sync()

	if cfg.Telegram.Token == "" {
		logger.Fatal("Telegram token is not set")
	}

	// Initialize storage
	store, err := storage.Open(storage.Options{
		Driver: cfg.Storage.Driver,
		Database: storage.DatabaseConfig{
			Host:     cfg.Storage.Database.Host,
			Port:     cfg.Storage.Database.Port,
			User:     cfg.Storage.Database.User,
			Password: cfg.Storage.Database.Password,
			DBName:   cfg.Storage.Database.DBName,
			SSLMode:  cfg.Storage.Database.SSLMode,
		},
		RedisURL:    cfg.Storage.RedisURL,
		RedisPrefix: cfg.Storage.RedisPrefix,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Streams can run for minutes, so the AI client has no overall timeout.
	var client *aiwrite.Client
	if cfg.AIWrite.ProxyBaseURL != "" {
		client = aiwrite.NewClient(cfg.AIWrite.ProxyBaseURL, &http.Client{}, logger)
	} else {
		logger.Warn("AI write disabled: proxy base URL is not set")
	}

	repo := notes.NewRepository(store, logger)
	live := bot.NewLiveText(bot.DefaultLiveInterval, logger)
	editor := aiwrite.NewEditor(client, repo, live, aiwrite.Config{
		Model:    cfg.AIWrite.Model,
		Debounce: cfg.AIWrite.Debounce,
	}, logger)

	application := app.New(repo, editor, settings.NewService(store, logger), logger)
	loadCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err = application.Load(loadCtx)
	cancel()
	if err != nil {
		logger.Fatal("Failed to load notes", zap.Error(err))
	}
	defer application.Close()

	var rotator *background.Rotator
	if cfg.AIWrite.ProxyBaseURL != "" {
		rotator = background.NewRotator(store, cfg.AIWrite.ProxyBaseURL, nil, logger)
	}
	forecast := weather.NewClient(nil, weather.Options{}, logger)

	// Initialize bot
	b, err := bot.New(bot.Config{
		Token:         cfg.Telegram.Token,
		AllowedUserID: cfg.Telegram.AllowedUserID,
	}, application, live, bot.Services{
		Background: rotator,
		Weather:    forecast,
		Classifier: classifier.NewKeywordClassifier(cfg.Telegram.MaxAutoTags),
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	// Start the bot
	if err := b.Start(ctx); err != nil {
		logger.Error("Bot error", zap.Error(err))
	}
	logger.Info("Shutting down")
}

func newLogger(development bool) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if development {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
