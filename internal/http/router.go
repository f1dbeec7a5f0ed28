package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/conscious-backend/internal/http/handlers"
	httpMW "github.com/yungbote/conscious-backend/internal/http/middleware"
	"github.com/yungbote/conscious-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string

	ReviewHandler  *httpH.ReviewHandler
	ThoughtHandler *httpH.ThoughtHandler
	SourceHandler  *httpH.SourceHandler
	ConfigHandler  *httpH.ConfigHandler
	HealthHandler  *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		// Configs
		if cfg.ConfigHandler != nil {
			api.GET("/configs/:type", cfg.ConfigHandler.Get)
		}

		// Review
		if cfg.ReviewHandler != nil {
			api.GET("/review/next", cfg.ReviewHandler.NextCards)
			api.POST("/review/:id/submit", cfg.ReviewHandler.SubmitGrade)
			api.POST("/review/:id/discard", cfg.ReviewHandler.Discard)
		}

		// Thoughts
		if cfg.ThoughtHandler != nil {
			api.POST("/find", cfg.ThoughtHandler.Find)
			api.POST("/add", cfg.ThoughtHandler.AddData)
			api.POST("/similar", cfg.ThoughtHandler.Similar)
			api.GET("/thoughts/:id/sources", cfg.ThoughtHandler.Sources)
		}

		// Sources
		if cfg.SourceHandler != nil {
			api.POST("/sources/link", cfg.SourceHandler.Link)
			api.GET("/sources/:id/thoughts", cfg.SourceHandler.Thoughts)
		}
	}

	return r
}
