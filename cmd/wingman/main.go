package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vbonduro/wingman/internal/config"
	"github.com/vbonduro/wingman/internal/logging"
	"github.com/vbonduro/wingman/internal/model"
	claudemodel "github.com/vbonduro/wingman/internal/model/claude"
	geminimodel "github.com/vbonduro/wingman/internal/model/gemini"
	ollamamodel "github.com/vbonduro/wingman/internal/model/ollama"
	"github.com/vbonduro/wingman/internal/pipeline"
	"github.com/vbonduro/wingman/internal/session"
	"github.com/vbonduro/wingman/internal/telegram"
	"github.com/vbonduro/wingman/internal/web"
	"github.com/vbonduro/wingman/internal/web/templates"
	"github.com/vbonduro/wingman/internal/wingman"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Fatalf("failed to load .env: %v", err)
	}
	cfg := config.Load()

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		cleanup()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gen := newGenerator(cfg, logger)
	gate := wingman.NewSafetyGate(gen, logger)
	extractor := wingman.NewExtractor(gen, gate, logger)
	replies := wingman.NewReplyGenerator(gen, gate, logger)

	opts := pipeline.Options{Timeout: cfg.ModelTimeout}
	registry := session.NewRegistry(func(id string) *pipeline.Session {
		return pipeline.NewSession(id, extractor, replies, logger, opts)
	}, cfg.SessionTTL, logger)
	go registry.Run(ctx)

	if cfg.TelegramToken != "" {
		bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
		if err != nil {
			logger.Error("failed to start telegram bot", "error", err)
		} else {
			logger.Info("telegram bot authorized", "username", bot.Self.UserName)
			go telegram.NewRouter(bot, registry, cfg.MaxUploadBytes, logger).Run(ctx)
		}
	}

	server := web.NewServer(registry, templates.FS, cfg.MaxUploadBytes, logger)
	srv := server.HTTPServer(cfg.ListenAddr)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
	}()

	logger.Info("starting server", "addr", cfg.ListenAddr, "backend", cfg.ModelBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
	}
}

func newGenerator(cfg *config.Config, logger *slog.Logger) model.Generator {
	switch cfg.ModelBackend {
	case "claude":
		logger.Info("using Claude model backend", "model", cfg.ClaudeModel)
		return claudemodel.New(cfg.ClaudeAPIKey, cfg.ClaudeModel)
	case "ollama":
		logger.Info("using Ollama model backend", "model", cfg.OllamaModel)
		return ollamamodel.New(cfg.OllamaHost, cfg.OllamaModel)
	default:
		logger.Info("using Gemini model backend", "model", cfg.GeminiModel)
		return geminimodel.New(cfg.GeminiAPIKey, cfg.GeminiModel)
	}
}
