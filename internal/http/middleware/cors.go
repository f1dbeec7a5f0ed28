package middleware

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// DefaultOrigins are the local frontend dev servers.
var DefaultOrigins = []string{
	"http://localhost:80",
	"http://localhost:3000",
	"http://localhost:5173",
	"http://127.0.0.1:80",
	"http://127.0.0.1:3000",
	"http://127.0.0.1:5173",
}

// CORS allows origins, or DefaultOrigins when origins is empty.
func CORS(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		origins = DefaultOrigins
	}
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "X-Requested-With", "X-Request-Id"},
		ExposeHeaders:    []string{"X-Trace-Id", "X-Request-Id"},
		AllowCredentials: true,
	})
}
