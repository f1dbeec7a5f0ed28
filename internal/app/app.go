package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/conscious-backend/internal/catalog"
	httpx "github.com/yungbote/conscious-backend/internal/http"
	"github.com/yungbote/conscious-backend/internal/observability"
	"github.com/yungbote/conscious-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	Cfg      Config
	Clients  Clients
	Repos    Repos
	Services Services
	Server   *httpx.Server

	shutdownOtel func(context.Context) error
}

func New(ctx context.Context) (*App, error) {
	cfg := LoadConfig()
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.LogMode == "production" || cfg.LogMode == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	shutdownOtel := observability.InitOTel(ctx, log, cfg.Otel)

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		_ = shutdownOtel(ctx)
		log.Sync()
		return nil, err
	}
	cat := catalog.Default()
	theDB := clients.Postgres.DB()
	reposet := wireRepos(theDB, log)
	serviceset, err := wireServices(theDB, log, cfg, cat, clients, reposet)
	if err != nil {
		clients.Close(ctx)
		_ = shutdownOtel(ctx)
		log.Sync()
		return nil, err
	}

	return &App{
		Log:          log,
		Cfg:          cfg,
		Clients:      clients,
		Repos:        reposet,
		Services:     serviceset,
		Server:       httpx.NewServer(":"+cfg.Port, wireRouterConfig(log, cfg, cat, serviceset)),
		shutdownOtel: shutdownOtel,
	}, nil
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.Log.Info("Server listening", "port", a.Cfg.Port)
	return a.Server.Run(ctx)
}

func (a *App) Close(ctx context.Context) {
	if a == nil {
		return
	}
	a.Clients.Close(ctx)
	if a.shutdownOtel != nil {
		if err := a.shutdownOtel(ctx); err != nil {
			a.Log.Warn("OTel shutdown failed", "error", err)
		}
	}
	a.Log.Sync()
}
