package app

import (
	"github.com/yungbote/conscious-backend/internal/catalog"
	httpx "github.com/yungbote/conscious-backend/internal/http"
	httpH "github.com/yungbote/conscious-backend/internal/http/handlers"
	"github.com/yungbote/conscious-backend/internal/platform/logger"
)

func wireRouterConfig(log *logger.Logger, cfg Config, cat *catalog.Catalog, svc Services) httpx.RouterConfig {
	log.Info("Wiring handlers...")
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	return httpx.RouterConfig{
		Log:            log,
		ServiceName:    serviceName,
		CORSOrigins:    cfg.CORSOrigins,
		ReviewHandler:  httpH.NewReviewHandler(log, svc.Review),
		ThoughtHandler: httpH.NewThoughtHandler(log, svc.Extraction, svc.AddData, svc.Ingestion),
		SourceHandler:  httpH.NewSourceHandler(log, svc.Ingestion),
		ConfigHandler:  httpH.NewConfigHandler(cat),
		HealthHandler:  httpH.NewHealthHandler(),
	}
}
