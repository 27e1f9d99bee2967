package bootstrap

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	httpapi "github.com/packsmith-hq/magic-cards-backend/internal/api/http"
	"github.com/packsmith-hq/magic-cards-backend/internal/api/http/middleware"
	funnelhttp "github.com/packsmith-hq/magic-cards-backend/internal/funnel/http"
	"github.com/packsmith-hq/magic-cards-backend/internal/funnel/service"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	APIKey      string
	CORSOrigins []string
	Cache       *redis.Client
	Funnel      *service.FunnelService
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.Default()

	if len(dep.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     dep.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "X-API-Key", "X-Request-Id"},
			ExposeHeaders:    []string{"X-Request-Id"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.Cache)
	healthHandler.RegisterRoutes(r)

	api := r.Group("/api/v1")
	api.Use(middleware.RequestIDMiddleware())
	api.Use(middleware.APIKeyMiddleware(dep.APIKey))

	funnelHandler := funnelhttp.New(dep.Funnel)
	funnelHandler.Register(api)

	return r
}
