package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/vbonduro/animalexplorer/internal/config"
	"github.com/vbonduro/animalexplorer/internal/db"
	"github.com/vbonduro/animalexplorer/internal/gateway"
	"github.com/vbonduro/animalexplorer/internal/gateway/claude"
	"github.com/vbonduro/animalexplorer/internal/gateway/gemini"
	"github.com/vbonduro/animalexplorer/internal/gateway/ollama"
	"github.com/vbonduro/animalexplorer/internal/logging"
	"github.com/vbonduro/animalexplorer/internal/photostore/local"
	"github.com/vbonduro/animalexplorer/internal/service"
	"github.com/vbonduro/animalexplorer/internal/session"
	"github.com/vbonduro/animalexplorer/internal/store"
	"github.com/vbonduro/animalexplorer/internal/telemetry"
	"github.com/vbonduro/animalexplorer/internal/variant"
	"github.com/vbonduro/animalexplorer/internal/web"
	"github.com/vbonduro/animalexplorer/internal/web/templates"
)

const sweepInterval = 10 * time.Minute

func main() {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, cleanup, err := logging.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	v, err := variant.Lookup(cfg.App.Variant)
	if err != nil {
		logger.Error("invalid app variant", "error", err)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing.Enabled {
		shutdown, err := telemetry.InitTracer("animalexplorer", os.Stdout, logger)
		if err != nil {
			logger.Error("failed to initialize tracing", "error", err)
			return
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Error("failed to flush traces", "error", err)
			}
		}()
	}

	gw := gateway.New(newProvider(cfg, logger), gateway.Config{
		VisionModels:   cfg.Gateway.VisionModels,
		ChatModels:     cfg.Gateway.ChatModels,
		AttemptTimeout: cfg.Gateway.AttemptTimeout,
		Variant:        v,
	}, logger)

	sessionOpts := []session.Option{session.WithIdleTTL(cfg.Session.IdleTTL)}
	var serviceOpts []service.Option

	if cfg.Storage.Backend == "sqlite" {
		database, err := db.Open(cfg.Storage.DBPath)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			return
		}
		defer func() {
			if err := database.Close(); err != nil {
				logger.Error("failed to close database", "error", err)
			}
		}()

		photoStg, err := local.New(cfg.Storage.PhotoPath)
		if err != nil {
			logger.Error("failed to initialize photo store", "error", err)
			return
		}

		archive := store.NewArchive(database)
		sessionOpts = append(sessionOpts, session.WithLoader(archive))
		serviceOpts = append(serviceOpts, service.WithArchive(archive), service.WithPhotoStore(photoStg))
		logger.Info("session archiving enabled", "db_path", cfg.Storage.DBPath, "photo_path", cfg.Storage.PhotoPath)
	}

	sessions := session.NewManager(logger, sessionOpts...)
	go sessions.RunSweeper(ctx, sweepInterval)

	explorer := service.NewExplorerService(sessions, gw, v, logger, serviceOpts...)
	server := web.NewServer(explorer, templates.FS, logger)

	if err := server.ListenAndServe(ctx, cfg.Server.ListenAddr); err != nil {
		logger.Error("server error", "error", err)
	}
}

// newProvider returns the configured backend, or nil when its credential is
// missing so the gateway reports itself as unconfigured.
func newProvider(cfg *config.Config, logger *slog.Logger) gateway.Provider {
	switch cfg.Gateway.Backend {
	case "claude":
		if cfg.Gateway.Claude.APIKey == "" {
			logger.Warn("CLAUDE_API_KEY is not set, identification and chat are disabled")
			return nil
		}
		logger.Info("using Claude backend", "vision_models", cfg.Gateway.VisionModels)
		var opts []claude.Option
		if cfg.Gateway.Claude.BaseURL != "" {
			opts = append(opts, claude.WithBaseURL(cfg.Gateway.Claude.BaseURL))
		}
		return claude.New(cfg.Gateway.Claude.APIKey, opts...)
	case "ollama":
		if cfg.Gateway.Ollama.Host == "" {
			logger.Warn("OLLAMA_HOST is not set, identification and chat are disabled")
			return nil
		}
		logger.Info("using Ollama backend", "host", cfg.Gateway.Ollama.Host, "vision_models", cfg.Gateway.VisionModels)
		return ollama.New(cfg.Gateway.Ollama.Host)
	default:
		if cfg.Gateway.Gemini.APIKey == "" {
			logger.Warn("GEMINI_API_KEY is not set, identification and chat are disabled")
			return nil
		}
		logger.Info("using Gemini backend", "vision_models", cfg.Gateway.VisionModels)
		var opts []gemini.Option
		if cfg.Gateway.Gemini.BaseURL != "" {
			opts = append(opts, gemini.WithBaseURL(cfg.Gateway.Gemini.BaseURL))
		}
		return gemini.New(cfg.Gateway.Gemini.APIKey, opts...)
	}
}
