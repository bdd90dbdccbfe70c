package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/xaenox/stickytab/internal/relay"
	"github.com/xaenox/stickytab/pkg/config"
	"go.uber.org/zap"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger, _ := zap.NewProduction()
		logger.Fatal("Failed to load config", zap.Error(err), zap.String("path", configPath))
	}

	var logger *zap.Logger
	if cfg.Log.Development {
		logger, _ = zap.NewDevelopment()
	} else {
		gin.SetMode(gin.ReleaseMode)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	if cfg.Relay.ChatAPIKey == "" {
		logger.Warn("OPENROUTER_API_KEY is not set, chat relay will answer 500")
	}
	if cfg.Relay.ImageAccessKey == "" {
		logger.Warn("UNSPLASH_ACCESS_KEY is not set, image relay will answer 500")
	}

	server := relay.NewServer(relay.Config{
		ChatUpstreamURL:  cfg.Relay.ChatUpstreamURL,
		ChatAPIKey:       cfg.Relay.ChatAPIKey,
		ImageUpstreamURL: cfg.Relay.ImageUpstreamURL,
		ImageAccessKey:   cfg.Relay.ImageAccessKey,
		ImageWidth:       cfg.Relay.ImageWidth,
	}, &http.Client{}, logger)

	srv := &http.Server{
		Addr:    cfg.Relay.Addr,
		Handler: server.Handler(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("Relay listening", zap.String("addr", cfg.Relay.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Relay server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down relay")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Relay.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Relay shutdown failed", zap.Error(err))
	}
}
