package routes

import (
	"net/http"
	"time"

	"movewell-assistant/internal/config"
	"movewell-assistant/internal/telemetry"
	"movewell-assistant/middleware"
	"movewell-assistant/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// NewRouter builds the gin engine with the middleware stack, the health
// check, the session API and POST /endpoint.
func NewRouter(cfg *config.Config, rdb *redis.Client, metrics *telemetry.Metrics, flow SessionFlow, answerer Answerer) (*gin.Engine, error) {
	if err := RegisterValidators(); err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	if cfg.OTelEnabled {
		router.Use(middleware.TracingMiddleware())
		router.Use(middleware.EnrichTrace())
	}
	router.Use(middleware.MetricsMiddleware(metrics))
	router.Use(middleware.CORSMiddlewareWithOrigins(cfg.CORSOrigins))
	router.Use(middleware.RequestSizeLimit(cfg.MaxBodySize))
	router.Use(middleware.RateLimitMiddleware(rdb, cfg))

	router.GET("/health", handleHealth(rdb))

	SetupSessionRoutes(router, flow)
	SetupEndpointRoutes(router, answerer)

	return router, nil
}

func handleHealth(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := gin.H{"status": "healthy", "timestamp": time.Now()}
		if rdb != nil {
			ctx, cancel := utils.WithShortTimeout(c.Request.Context())
			defer cancel()
			if err := rdb.Ping(ctx).Err(); err != nil {
				status["status"] = "degraded"
				status["redis"] = err.Error()
				c.JSON(http.StatusServiceUnavailable, status)
				return
			}
			status["redis"] = "ok"
		}
		c.JSON(http.StatusOK, status)
	}
}
